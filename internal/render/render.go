// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render executes the HTML page templates and exposes the drawMenu
// template function that builds a menu tree for the current request.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/olegiv/treemenu-go/internal/service"
)

// MenuDrawer builds the tree of a named menu for a request path.
type MenuDrawer interface {
	DrawMenu(ctx context.Context, currentPath, menuName string) service.MenuContext
}

// blankLinesRegex matches runs of whitespace-only lines left behind by
// template actions.
var blankLinesRegex = regexp.MustCompile(`\n(?:[ \t]*\r?\n)+`)

// preformattedRegex matches elements whose whitespace is significant.
var preformattedRegex = regexp.MustCompile(`(?i)<(?:pre|textarea)[\s>]`)

// collapseBlankLines squeezes blank-line runs into a single newline. Pages
// containing <pre> or <textarea> are returned untouched, since the regex
// cannot tell their content apart from template whitespace.
func collapseBlankLines(page []byte) []byte {
	if preformattedRegex.Match(page) {
		return page
	}
	return blankLinesRegex.ReplaceAll(page, []byte("\n"))
}

// Renderer handles template rendering with caching.
type Renderer struct {
	templates map[string]*template.Template
	menus     MenuDrawer
	logger    *slog.Logger
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS fs.FS
	Menus       MenuDrawer
	Logger      *slog.Logger
}

// New creates a new Renderer with parsed templates.
// Every file under pages/ becomes a template named after its base name,
// parsed together with layouts/base.html and all partials.
func New(cfg Config) (*Renderer, error) {
	if cfg.Menus == nil {
		return nil, fmt.Errorf("render: menu drawer is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Renderer{
		templates: make(map[string]*template.Template),
		menus:     cfg.Menus,
		logger:    logger,
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}

	return r, nil
}

// parseTemplates parses all page templates from the filesystem.
func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := getTemplateFiles(templatesFS, "partials")
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}

	pages, err := getTemplateFiles(templatesFS, "pages")
	if err != nil {
		return fmt.Errorf("getting pages: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no page templates found")
	}

	baseLayout := "layouts/base.html"

	for _, tmplPath := range pages {
		name := strings.TrimSuffix(path.Base(tmplPath), ".html")

		// Parse in order: base layout, partials, page template
		files := []string{baseLayout}
		files = append(files, partials...)
		files = append(files, tmplPath)

		tmpl, err := template.New("").Funcs(templateFuncs(nil)).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}

		r.templates[name] = tmpl
	}

	return nil
}

// getTemplateFiles returns all .html files in a directory.
// A missing directory yields no files.
func getTemplateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	var files []string

	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		return files, nil
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}

	return files, nil
}

// templateFuncs returns custom template functions. drawMenu is bound to the
// request being rendered; at parse time it is a stub returning an empty menu.
func templateFuncs(drawMenu func(currentPath, menuName string) service.MenuContext) template.FuncMap {
	if drawMenu == nil {
		drawMenu = func(_, menuName string) service.MenuContext {
			return service.MenuContext{MenuTree: []*service.MenuNode{}, MenuName: menuName}
		}
	}
	return template.FuncMap{
		"drawMenu": drawMenu,
	}
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	CurrentPath string
	Data        any
	CurrentYear int
}

// Templates returns the sorted names of all parsed page templates.
func (r *Renderer) Templates() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render renders a page with status 200.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	return r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus renders a page with the given status code. The page is
// executed into a buffer first so a template error never produces a partial
// response.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	base, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	tmpl, err := base.Clone()
	if err != nil {
		return fmt.Errorf("cloning template %s: %w", name, err)
	}

	ctx := req.Context()
	tmpl.Funcs(templateFuncs(func(currentPath, menuName string) service.MenuContext {
		return r.menus.DrawMenu(ctx, currentPath, menuName)
	}))

	// Add default data
	data.CurrentYear = time.Now().Year()
	if data.CurrentPath == "" {
		data.CurrentPath = req.URL.Path
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	out := collapseBlankLines(buf.Bytes())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(out); err != nil {
		r.logger.Debug("writing response", "template", name, "error", err)
	}
	return nil
}
