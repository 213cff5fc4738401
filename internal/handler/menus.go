// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/treemenu-go/internal/service"
	"github.com/olegiv/treemenu-go/internal/store"
	"github.com/olegiv/treemenu-go/internal/util"
)

// MenusHandler serves the admin JSON API for menus and menu items.
type MenusHandler struct {
	db        *sql.DB
	queries   *store.Queries
	menus     *service.MenuService
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
}

// NewMenusHandler creates a new MenusHandler.
func NewMenusHandler(db *sql.DB, menus *service.MenuService, logger *slog.Logger) *MenusHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MenusHandler{
		db:        db,
		queries:   store.New(db),
		menus:     menus,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}
}

// Routes returns a router with all admin menu endpoints, to be mounted under
// /admin/api.
func (h *MenusHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/menus", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/by-slug/{slug}", h.GetBySlug)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Get("/tree", h.Tree)
			r.Post("/reorder", h.Reorder)
			r.Post("/items", h.AddItem)
			r.Put("/items/{itemId}", h.UpdateItem)
			r.Delete("/items/{itemId}", h.DeleteItem)
		})
	})
	r.Get("/items", h.SearchItems)
	return r
}

// MenuItemView is the JSON shape of a menu item.
type MenuItemView struct {
	ID          int64     `json:"id"`
	MenuID      int64     `json:"menu_id"`
	ParentID    *int64    `json:"parent_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	NamedURL    string    `json:"named_url"`
	Order       int64     `json:"order"`
	ResolvedURL string    `json:"resolved_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TreeNodeView is the JSON shape of a built menu tree node.
type TreeNodeView struct {
	ID         int64          `json:"id"`
	Title      string         `json:"title"`
	URL        string         `json:"url"`
	IsActive   bool           `json:"is_active"`
	IsExpanded bool           `json:"is_expanded"`
	Children   []TreeNodeView `json:"children"`
}

func (h *MenusHandler) itemView(item store.MenuItem) MenuItemView {
	return MenuItemView{
		ID:          item.ID,
		MenuID:      item.MenuID,
		ParentID:    item.Parent(),
		Title:       item.Title,
		URL:         item.URL,
		NamedURL:    item.NamedURL,
		Order:       item.Order,
		ResolvedURL: h.menus.ItemURL(item),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func treeView(nodes []*service.MenuNode) []TreeNodeView {
	views := make([]TreeNodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, TreeNodeView{
			ID:         n.Item.ID,
			Title:      n.Item.Title,
			URL:        n.URL,
			IsActive:   n.IsActive,
			IsExpanded: n.IsExpanded,
			Children:   treeView(n.Children),
		})
	}
	return views
}

// cleanText strips markup from user input and trims surrounding whitespace.
func (h *MenusHandler) cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(h.sanitizer.Sanitize(s)))
}

// List handles GET /admin/api/menus.
func (h *MenusHandler) List(w http.ResponseWriter, r *http.Request) {
	menus, err := h.queries.ListMenus(r.Context())
	if err != nil {
		logAndInternalError(w, r, h.logger, "failed to list menus", "error", err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"menus": menus})
}

// MenuRequest is the JSON body for creating or updating a menu.
type MenuRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// validateMenu checks a menu request. excludeID is the menu being updated, or 0.
func (h *MenusHandler) validateMenu(r *http.Request, name, slug, currentSlug string, excludeID int64) map[string]string {
	errs := make(map[string]string)

	if name == "" {
		errs["name"] = "Name is required"
	} else if msg := validateLength("Name", name, maxMenuNameLength); msg != "" {
		errs["name"] = msg
	} else {
		exists, err := h.queries.MenuNameExists(r.Context(), name, excludeID)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "database error checking menu name", "error", err)
			errs["name"] = "Error checking name"
		} else if exists {
			errs["name"] = "Name already exists"
		}
	}

	checkSlug := func() (bool, error) {
		return h.queries.MenuSlugExists(r.Context(), slug, excludeID)
	}
	var msg string
	if excludeID == 0 {
		msg = ValidateSlugWithChecker(slug, checkSlug)
	} else {
		msg = ValidateSlugForUpdate(slug, currentSlug, checkSlug)
	}
	if msg != "" {
		errs["slug"] = msg
	}

	return errs
}

// Create handles POST /admin/api/menus. A missing slug is derived from the name.
func (h *MenusHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req MenuRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := h.cleanText(req.Name)
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = util.Slugify(name)
	}

	if errs := h.validateMenu(r, name, slug, "", 0); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	menu, err := h.queries.CreateMenu(r.Context(), store.CreateMenuParams{Name: name, Slug: slug})
	if err != nil {
		logAndInternalError(w, r, h.logger, "failed to create menu", "error", err)
		return
	}

	h.logger.InfoContext(r.Context(), "menu created", "menu_id", menu.ID, "name", menu.Name, "slug", menu.Slug)
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"menu": menu})
}

// Get handles GET /admin/api/menus/{id} and returns the menu with its items.
func (h *MenusHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "menu")
	if !ok {
		return
	}

	menu, ok := requireEntityWithJSONError(w, r, h.logger, "Menu", id,
		func(id int64) (store.Menu, error) { return h.queries.GetMenuByID(r.Context(), id) })
	if !ok {
		return
	}

	h.writeMenuWithItems(w, r, menu)
}

// GetBySlug handles GET /admin/api/menus/by-slug/{slug}.
func (h *MenusHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if msg := ValidateSlugFormat(slug); msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	menu, err := h.queries.GetMenuBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "Menu not found")
			return
		}
		logAndInternalError(w, r, h.logger, "failed to get menu by slug", "error", err, "slug", slug)
		return
	}

	h.writeMenuWithItems(w, r, menu)
}

// writeMenuWithItems responds with the menu and all of its items.
func (h *MenusHandler) writeMenuWithItems(w http.ResponseWriter, r *http.Request, menu store.Menu) {
	items, err := h.queries.ListMenuItems(r.Context(), menu.ID)
	if err != nil {
		logAndInternalError(w, r, h.logger, "failed to list menu items", "error", err, "menu_id", menu.ID)
		return
	}

	views := make([]MenuItemView, 0, len(items))
	for _, item := range items {
		views = append(views, h.itemView(item))
	}

	writeJSONSuccess(w, http.StatusOK, map[string]any{"menu": menu, "items": views})
}

// Update handles PUT /admin/api/menus/{id}. An empty slug keeps the current one.
func (h *MenusHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "menu")
	if !ok {
		return
	}

	menu, ok := requireEntityWithJSONError(w, r, h.logger, "Menu", id,
		func(id int64) (store.Menu, error) { return h.queries.GetMenuByID(r.Context(), id) })
	if !ok {
		return
	}

	var req MenuRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := h.cleanText(req.Name)
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = menu.Slug
	}

	if errs := h.validateMenu(r, name, slug, menu.Slug, id); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	updated, err := h.queries.UpdateMenu(r.Context(), store.UpdateMenuParams{ID: id, Name: name, Slug: slug})
	if err != nil {
		logAndInternalError(w, r, h.logger, "failed to update menu", "error", err, "menu_id", id)
		return
	}

	h.logger.InfoContext(r.Context(), "menu updated", "menu_id", id, "name", updated.Name, "slug", updated.Slug)
	writeJSONSuccess(w, http.StatusOK, map[string]any{"menu": updated})
}

// Delete handles DELETE /admin/api/menus/{id}. Items go with the menu.
func (h *MenusHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "menu")
	if !ok {
		return
	}

	menu, ok := requireEntityWithJSONError(w, r, h.logger, "Menu", id,
		func(id int64) (store.Menu, error) { return h.queries.GetMenuByID(r.Context(), id) })
	if !ok {
		return
	}

	if err := h.queries.DeleteMenu(r.Context(), id); err != nil {
		logAndInternalError(w, r, h.logger, "failed to delete menu", "error", err, "menu_id", id)
		return
	}

	h.logger.InfoContext(r.Context(), "menu deleted", "menu_id", id, "name", menu.Name)
	writeJSONSuccess(w, http.StatusOK, nil)
}

// Tree handles GET /admin/api/menus/{id}/tree?path=. It builds the tree the
// way a page at path would see it.
func (h *MenusHandler) Tree(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "menu")
	if !ok {
		return
	}

	menu, ok := requireEntityWithJSONError(w, r, h.logger, "Menu", id,
		func(id int64) (store.Menu, error) { return h.queries.GetMenuByID(r.Context(), id) })
	if !ok {
		return
	}

	path := r.URL.Query().Get("path")
	result := h.menus.DrawMenu(r.Context(), path, menu.Name)

	writeJSONSuccess(w, http.StatusOK, map[string]any{
		"menu_name": result.MenuName,
		"path":      path,
		"tree":      treeView(result.MenuTree),
	})
}

// ItemRequest is the JSON body for adding or updating a menu item.
type ItemRequest struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	NamedURL string `json:"named_url"`
	ParentID *int64 `json:"parent_id"`
	Order    *int64 `json:"order"`
}

// cleanedItem is an ItemRequest after sanitizing.
type cleanedItem struct {
	title    string
	url      string
	namedURL string
	parentID sql.NullInt64
}

func (h *MenusHandler) cleanItem(req ItemRequest) cleanedItem {
	return cleanedItem{
		title:    h.cleanText(req.Title),
		url:      strings.TrimSpace(req.URL),
		namedURL: strings.TrimSpace(req.NamedURL),
		parentID: util.NullInt64FromPtr(req.ParentID),
	}
}

// validateItem checks field values and the parent reference. siblings are all
// items of the menu; itemID is the item being updated, or 0 for a new item.
func validateItem(item cleanedItem, siblings []store.MenuItem, itemID int64) map[string]string {
	errs := make(map[string]string)

	if item.title == "" {
		errs["title"] = "Title is required"
	} else if msg := validateLength("Title", item.title, maxTitleLength); msg != "" {
		errs["title"] = msg
	}
	if msg := validateLength("URL", item.url, maxURLLength); msg != "" {
		errs["url"] = msg
	}
	if msg := validateLength("Named URL", item.namedURL, maxNamedURLLength); msg != "" {
		errs["named_url"] = msg
	}

	if item.parentID.Valid {
		if msg := validateParent(item.parentID.Int64, siblings, itemID); msg != "" {
			errs["parent_id"] = msg
		}
	}

	return errs
}

// validateParent checks that parentID is an item of the same menu and that
// making it the parent of itemID would not create a cycle.
func validateParent(parentID int64, items []store.MenuItem, itemID int64) string {
	byID := make(map[int64]store.MenuItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	if _, ok := byID[parentID]; !ok {
		return "Parent must be an item of the same menu"
	}
	if itemID == 0 {
		return ""
	}

	// Walk up from the proposed parent; reaching the item means a cycle.
	visited := make(map[int64]bool)
	for id := parentID; ; {
		if id == itemID {
			return "Item cannot be placed under itself or one of its descendants"
		}
		if visited[id] {
			return ""
		}
		visited[id] = true

		it, ok := byID[id]
		if !ok || !it.ParentID.Valid {
			return ""
		}
		id = it.ParentID.Int64
	}
}

// nextOrder returns the sort order after the last sibling under parentID.
func nextOrder(items []store.MenuItem, parentID sql.NullInt64) int64 {
	var next int64
	for _, it := range items {
		if it.ParentID == parentID && it.Order >= next {
			next = it.Order + 1
		}
	}
	return next
}

// AddItem handles POST /admin/api/menus/{id}/items. Without an order the item
// goes after its last sibling.
func (h *MenusHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	menuID, ok := parseIDParam(w, r, "id", "menu")
	if !ok {
		return
	}

	if _, ok := requireEntityWithJSONError(w, r, h.logger, "Menu", menuID,
		func(id int64) (store.Menu, error) { return h.queries.GetMenuByID(r.Context(), id) }); !ok {
		return
	}

	var req ItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	items, err := h.queries.ListMenuItems(r.Context(), menuID)
	if err != nil {
		logAndInternalError(w, r, h.logger, "failed to list menu items", "error", err, "menu_id", menuID)
		return
	}

	clean := h.cleanItem(req)
	if errs := validateItem(clean, items, 0); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	order := nextOrder(items, clean.parentID)
	if req.Order != nil {
		order = *req.Order
	}

	item, err := h.queries.CreateMenuItem(r.Context(), store.CreateMenuItemParams{
		MenuID:   menuID,
		ParentID: clean.parentID,
		Title:    clean.title,
		URL:      clean.url,
		NamedURL: clean.namedURL,
		Order:    order,
	})
	if err != nil {
		logAndInternalError(w, r, h.logger, "failed to create menu item", "error", err, "menu_id", menuID)
		return
	}

	h.logger.InfoContext(r.Context(), "menu item created", "menu_id", menuID, "item_id", item.ID)
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"item": h.itemView(item)})
}

// requireMenuItem loads the {itemId} item and checks it belongs to menuID.
func (h *MenusHandler) requireMenuItem(w http.ResponseWriter, r *http.Request, menuID int64) (store.MenuItem, bool) {
	itemID, ok := parseIDParam(w, r, "itemId", "item")
	if !ok {
		return store.MenuItem{}, false
	}

	item, ok := requireEntityWithJSONError(w, r, h.logger, "Menu item", itemID,
		func(id int64) (store.MenuItem, error) { return h.queries.GetMenuItemByID(r.Context(), id) })
	if !ok {
		return store.MenuItem{}, false
	}

	if item.MenuID != menuID {
		writeJSONError(w, http.StatusBadRequest, "Item does not belong to this menu")
		return store.MenuItem{}, false
	}
	return item, true
}

// UpdateItem handles PUT /admin/api/menus/{id}/items/{itemId}. All fields are
// replaced; an omitted order keeps the current one.
func (h *MenusHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	menuID, ok := parseIDParam(w, r, "id", "menu")
	if !ok {
		return
	}

	item, ok := h.requireMenuItem(w, r, menuID)
	if !ok {
		return
	}

	var req ItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	items, err := h.queries.ListMenuItems(r.Context(), menuID)
	if err != nil {
		logAndInternalError(w, r, h.logger, "failed to list menu items", "error", err, "menu_id", menuID)
		return
	}

	clean := h.cleanItem(req)
	if errs := validateItem(clean, items, item.ID); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	order := item.Order
	if req.Order != nil {
		order = *req.Order
	}

	updated, err := h.queries.UpdateMenuItem(r.Context(), store.UpdateMenuItemParams{
		ID:       item.ID,
		ParentID: clean.parentID,
		Title:    clean.title,
		URL:      clean.url,
		NamedURL: clean.namedURL,
		Order:    order,
	})
	if err != nil {
		logAndInternalError(w, r, h.logger, "failed to update menu item", "error", err, "item_id", item.ID)
		return
	}

	h.logger.InfoContext(r.Context(), "menu item updated", "menu_id", menuID, "item_id", item.ID)
	writeJSONSuccess(w, http.StatusOK, map[string]any{"item": h.itemView(updated)})
}

// DeleteItem handles DELETE /admin/api/menus/{id}/items/{itemId}.
// Descendants are removed by the foreign key cascade.
func (h *MenusHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	menuID, ok := parseIDParam(w, r, "id", "menu")
	if !ok {
		return
	}

	item, ok := h.requireMenuItem(w, r, menuID)
	if !ok {
		return
	}

	if err := h.queries.DeleteMenuItem(r.Context(), item.ID); err != nil {
		logAndInternalError(w, r, h.logger, "failed to delete menu item", "error", err, "item_id", item.ID)
		return
	}

	h.logger.InfoContext(r.Context(), "menu item deleted", "menu_id", menuID, "item_id", item.ID)
	writeJSONSuccess(w, http.StatusOK, nil)
}

// ReorderItem represents an item in the reorder request.
type ReorderItem struct {
	ID       int64         `json:"id"`
	Children []ReorderItem `json:"children"`
}

// ReorderRequest represents the JSON request for reordering menu items.
type ReorderRequest struct {
	Items []ReorderItem `json:"items"`
}

// errReorder marks a reorder request that does not match the menu's items.
var errReorder = errors.New("invalid reorder request")

// Reorder handles POST /admin/api/menus/{id}/reorder. The nesting of the
// request becomes the new parent structure and the position among siblings
// becomes the sort order. Items left out keep their place. All changes are
// applied in one transaction.
func (h *MenusHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	menuID, ok := parseIDParam(w, r, "id", "menu")
	if !ok {
		return
	}

	if _, ok := requireEntityWithJSONError(w, r, h.logger, "Menu", menuID,
		func(id int64) (store.Menu, error) { return h.queries.GetMenuByID(r.Context(), id) }); !ok {
		return
	}

	var req ReorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	items, err := h.queries.ListMenuItems(r.Context(), menuID)
	if err != nil {
		logAndInternalError(w, r, h.logger, "failed to list menu items", "error", err, "menu_id", menuID)
		return
	}
	owned := make(map[int64]bool, len(items))
	for _, it := range items {
		owned[it.ID] = true
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		logAndInternalError(w, r, h.logger, "failed to start reorder transaction", "error", err)
		return
	}
	defer func() { _ = tx.Rollback() }()

	qtx := h.queries.WithTx(tx)
	now := time.Now()
	seen := make(map[int64]bool)

	var apply func(level []ReorderItem, parentID sql.NullInt64) error
	apply = func(level []ReorderItem, parentID sql.NullInt64) error {
		for pos, it := range level {
			if !owned[it.ID] {
				return fmt.Errorf("%w: item %d does not belong to this menu", errReorder, it.ID)
			}
			if seen[it.ID] {
				return fmt.Errorf("%w: item %d appears more than once", errReorder, it.ID)
			}
			seen[it.ID] = true

			if err := qtx.UpdateMenuItemPosition(r.Context(), store.UpdateMenuItemPositionParams{
				ID:        it.ID,
				ParentID:  parentID,
				Order:     int64(pos),
				UpdatedAt: now,
			}); err != nil {
				return fmt.Errorf("updating item %d: %w", it.ID, err)
			}

			if err := apply(it.Children, sql.NullInt64{Int64: it.ID, Valid: true}); err != nil {
				return err
			}
		}
		return nil
	}

	if err := apply(req.Items, sql.NullInt64{}); err != nil {
		if errors.Is(err, errReorder) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		logAndInternalError(w, r, h.logger, "failed to reorder menu items", "error", err, "menu_id", menuID)
		return
	}

	if err := tx.Commit(); err != nil {
		logAndInternalError(w, r, h.logger, "failed to commit reorder", "error", err, "menu_id", menuID)
		return
	}

	h.logger.InfoContext(r.Context(), "menu items reordered", "menu_id", menuID, "items", len(seen))
	writeJSONSuccess(w, http.StatusOK, map[string]any{"updated": len(seen)})
}

// SearchItems handles GET /admin/api/items?menu=&q=. It filters items by menu
// id and by a substring of title, url or named url.
func (h *MenusHandler) SearchItems(w http.ResponseWriter, r *http.Request) {
	var menuID int64
	if v := r.URL.Query().Get("menu"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeJSONError(w, http.StatusBadRequest, "Invalid menu ID")
			return
		}
		menuID = id
	}

	items, err := h.queries.SearchMenuItems(r.Context(), store.SearchMenuItemsParams{
		MenuID: menuID,
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
	})
	if err != nil {
		logAndInternalError(w, r, h.logger, "failed to search menu items", "error", err)
		return
	}

	views := make([]MenuItemView, 0, len(items))
	for _, item := range items {
		views = append(views, h.itemView(item))
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"items": views})
}
