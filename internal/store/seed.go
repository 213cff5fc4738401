// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// DemoMenuName is the name of the menu created by Seed.
const DemoMenuName = "main"

// seedItem describes a demo item; parent refers to the key of an earlier entry.
type seedItem struct {
	key      string
	parent   string
	title    string
	url      string
	namedURL string
	order    int64
}

var demoItems = []seedItem{
	{key: "home", title: "Home", namedURL: "home", url: "/", order: 1},
	{key: "about", parent: "home", title: "About", namedURL: "about", order: 2},
	{key: "team", parent: "about", title: "Team", url: "/about/team/", order: 1},
	{key: "history", parent: "about", title: "History", url: "/about/history/", order: 2},
	{key: "test", title: "Test menu", namedURL: "test_menu", order: 3},
	{key: "docs", parent: "test", title: "Docs", url: "/docs/", order: 1},
	{key: "missing", title: "Unregistered route", namedURL: "no_such_route", url: "/fallback/", order: 4},
}

// Seed creates the demo menu in a single transaction.
// It does nothing when a menu with DemoMenuName already exists.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	_, err := queries.GetMenuByName(ctx, DemoMenuName)
	if err == nil {
		slog.Info("demo menu already exists, skipping seed", "menu", DemoMenuName)
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("checking for demo menu: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := queries.WithTx(tx)

	menu, err := qtx.CreateMenu(ctx, CreateMenuParams{Name: DemoMenuName, Slug: DemoMenuName})
	if err != nil {
		return fmt.Errorf("creating demo menu: %w", err)
	}

	ids := make(map[string]int64, len(demoItems))
	for _, it := range demoItems {
		var parentID sql.NullInt64
		if it.parent != "" {
			parentID = sql.NullInt64{Int64: ids[it.parent], Valid: true}
		}
		item, err := qtx.CreateMenuItem(ctx, CreateMenuItemParams{
			MenuID:   menu.ID,
			ParentID: parentID,
			Title:    it.title,
			URL:      it.url,
			NamedURL: it.namedURL,
			Order:    it.order,
		})
		if err != nil {
			return fmt.Errorf("creating demo item %q: %w", it.key, err)
		}
		ids[it.key] = item.ID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}

	slog.Info("created demo menu", "menu_id", menu.ID, "items", len(demoItems))
	return nil
}
