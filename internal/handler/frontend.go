// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides HTTP handlers for the application.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/treemenu-go/internal/render"
	"github.com/olegiv/treemenu-go/internal/urls"
)

// Route names that menu items can refer to through named_url.
const (
	RouteNameHome     = "home"
	RouteNameTestMenu = "test_menu"
	RouteNameAbout    = "about"
)

// PageRenderer renders a page template for a request.
type PageRenderer interface {
	RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data render.TemplateData) error
}

// frontendPage describes a public page served by FrontendHandler.
type frontendPage struct {
	name     string // route name used by named_url
	pattern  string
	template string
	title    string
}

var frontendPages = []frontendPage{
	{name: RouteNameHome, pattern: "/", template: "home", title: "Home"},
	{name: RouteNameTestMenu, pattern: "/test-menu/", template: "test_menu", title: "Test menu"},
	{name: RouteNameAbout, pattern: "/about/", template: "about", title: "About"},
}

// FrontendHandler serves the public pages. Every page draws the main menu for
// the request path through the layout template.
type FrontendHandler struct {
	renderer PageRenderer
	logger   *slog.Logger
}

// NewFrontendHandler creates a new FrontendHandler.
func NewFrontendHandler(renderer PageRenderer, logger *slog.Logger) *FrontendHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrontendHandler{
		renderer: renderer,
		logger:   logger,
	}
}

// RegisterRoutes mounts the public pages on r and records their names in reg,
// so that menu items can resolve them with named_url.
func (h *FrontendHandler) RegisterRoutes(r chi.Router, reg *urls.Registry) error {
	for _, p := range frontendPages {
		if err := reg.Get(r, p.name, p.pattern, h.page(p)); err != nil {
			return fmt.Errorf("registering route %s: %w", p.name, err)
		}
	}
	r.NotFound(h.NotFound)
	return nil
}

// page returns the handler for a static page.
func (h *FrontendHandler) page(p frontendPage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusOK, p.template, render.TemplateData{Title: p.title})
	}
}

// NotFound renders the 404 page. The menu is still drawn, with nothing active.
func (h *FrontendHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "not_found", render.TemplateData{Title: "Page not found"})
}

func (h *FrontendHandler) render(w http.ResponseWriter, r *http.Request, status int, tmpl string, data render.TemplateData) {
	if err := h.renderer.RenderStatus(w, r, status, tmpl, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page", "template", tmpl, "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
