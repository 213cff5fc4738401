// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// Menu is a row of the menus table.
type Menu struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MenuItem is a row of the menu_items table.
type MenuItem struct {
	ID        int64         `json:"id"`
	MenuID    int64         `json:"menu_id"`
	ParentID  sql.NullInt64 `json:"-"`
	Title     string        `json:"title"`
	URL       string        `json:"url"`
	NamedURL  string        `json:"named_url"`
	Order     int64         `json:"order"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Parent returns the parent item id, or nil for a root item.
func (i MenuItem) Parent() *int64 {
	if !i.ParentID.Valid {
		return nil
	}
	id := i.ParentID.Int64
	return &id
}

// MenuWithItems is a menu together with all of its items,
// ordered by sort order and then id.
type MenuWithItems struct {
	Menu  Menu
	Items []MenuItem
}
