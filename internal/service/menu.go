// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic and service layer functionality.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/olegiv/treemenu-go/internal/store"
)

// MenuLoader fetches a menu and all of its items in one read.
// Items must be ordered by sort order, then id; siblings keep that order.
type MenuLoader interface {
	GetMenuWithItems(ctx context.Context, name string) (store.MenuWithItems, error)
}

// URLResolver turns a route name into a path.
type URLResolver interface {
	Reverse(name string) (string, error)
}

// BuildCounter records menu builds, labelled by menu name and outcome.
type BuildCounter interface {
	Increment(labels ...string)
}

// Build outcomes reported to the BuildCounter.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// MenuNode is one item of a rendered menu tree.
type MenuNode struct {
	Item       store.MenuItem
	URL        string
	Children   []*MenuNode
	IsActive   bool
	IsExpanded bool
}

// MenuContext is what the menu template receives.
type MenuContext struct {
	MenuTree []*MenuNode
	MenuName string
}

// MenuService builds menu trees for page rendering.
// It holds no per-request state and is safe for concurrent use.
type MenuService struct {
	loader   MenuLoader
	resolver URLResolver
	logger   *slog.Logger
	builds   BuildCounter
}

// NewMenuService creates a new MenuService.
// A nil resolver treats every named URL as unresolvable.
func NewMenuService(loader MenuLoader, resolver URLResolver, logger *slog.Logger) *MenuService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MenuService{
		loader:   loader,
		resolver: resolver,
		logger:   logger,
	}
}

// SetBuildCounter makes DrawMenu report every build to c.
// Call it before the service is shared between goroutines.
func (s *MenuService) SetBuildCounter(c BuildCounter) {
	s.builds = c
}

func (s *MenuService) countBuild(menuName, outcome string) {
	if s.builds != nil {
		s.builds.Increment(menuName, outcome)
	}
}

// DrawMenu builds the tree of the named menu. The first item whose URL equals
// currentPath is active; it, its ancestors and its direct children are expanded.
// It never fails: a missing menu or a storage error yields an empty tree.
func (s *MenuService) DrawMenu(ctx context.Context, currentPath, menuName string) MenuContext {
	result := MenuContext{
		MenuTree: []*MenuNode{},
		MenuName: menuName,
	}

	menu, err := s.loader.GetMenuWithItems(ctx, menuName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.DebugContext(ctx, "menu not found", "menu", menuName)
			s.countBuild(menuName, OutcomeNotFound)
		} else {
			s.logger.ErrorContext(ctx, "failed to load menu", "menu", menuName, "error", err)
			s.countBuild(menuName, OutcomeError)
		}
		return result
	}

	result.MenuTree = s.BuildTree(menu.Items, currentPath)
	s.countBuild(menuName, OutcomeOK)
	return result
}

// ItemURL resolves the destination of a menu item. A named URL wins when it
// resolves; otherwise the raw URL is used, and "/" when that is empty too.
func (s *MenuService) ItemURL(item store.MenuItem) string {
	if item.NamedURL != "" && s.resolver != nil {
		path, err := s.resolver.Reverse(item.NamedURL)
		if err == nil {
			return path
		}
		s.logger.Debug("named url not resolved",
			"item_id", item.ID,
			"named_url", item.NamedURL,
			"error", err,
		)
	}
	if item.URL != "" {
		return item.URL
	}
	return "/"
}

// BuildTree links the flat item list into a forest and marks the active path.
// Items whose parent is not in the list become roots.
func (s *MenuService) BuildTree(items []store.MenuItem, currentPath string) []*MenuNode {
	nodes := make(map[int64]*MenuNode, len(items))
	var active *MenuNode

	// First pass: one node per item, URLs resolved once.
	for _, item := range items {
		node := &MenuNode{
			Item:     item,
			URL:      s.ItemURL(item),
			Children: []*MenuNode{},
		}
		nodes[item.ID] = node

		if active == nil && node.URL == currentPath {
			active = node
		}
	}

	// Second pass: attach to parents in fetch order.
	roots := make([]*MenuNode, 0, len(items))
	for _, item := range items {
		node := nodes[item.ID]
		if item.ParentID.Valid {
			if parent, ok := nodes[item.ParentID.Int64]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	if active != nil {
		markActive(nodes, active)
	}

	return roots
}

// markActive flags the active node, expands it and every ancestor reachable
// through persisted parent ids, then expands the active node's direct children.
// Only the matched node itself is active.
func markActive(nodes map[int64]*MenuNode, active *MenuNode) {
	active.IsActive = true

	visited := make(map[int64]bool)
	for node := active; node != nil && !visited[node.Item.ID]; {
		visited[node.Item.ID] = true
		node.IsExpanded = true

		if !node.Item.ParentID.Valid {
			break
		}
		node = nodes[node.Item.ParentID.Int64]
	}

	for _, child := range active.Children {
		child.IsExpanded = true
	}
}
