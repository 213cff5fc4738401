// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

const menuColumns = `id, name, slug, created_at, updated_at`

const menuItemColumns = `id, menu_id, parent_id, title, url, named_url, sort_order, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMenu(row rowScanner) (Menu, error) {
	var m Menu
	err := row.Scan(&m.ID, &m.Name, &m.Slug, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func scanMenuItem(row rowScanner) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.MenuID,
		&i.ParentID,
		&i.Title,
		&i.URL,
		&i.NamedURL,
		&i.Order,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

// CreateMenuParams holds the fields for CreateMenu.
type CreateMenuParams struct {
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateMenu inserts a menu and returns the stored row.
func (q *Queries) CreateMenu(ctx context.Context, arg CreateMenuParams) (Menu, error) {
	now := time.Now()
	if arg.CreatedAt.IsZero() {
		arg.CreatedAt = now
	}
	if arg.UpdatedAt.IsZero() {
		arg.UpdatedAt = now
	}
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO menus (name, slug, created_at, updated_at) VALUES (?, ?, ?, ?)
		RETURNING `+menuColumns,
		arg.Name, arg.Slug, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanMenu(row)
}

// GetMenuByID returns the menu with the given id.
func (q *Queries) GetMenuByID(ctx context.Context, id int64) (Menu, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM menus WHERE id = ?`, id)
	m, err := scanMenu(row)
	return m, notFound(err)
}

// GetMenuByName returns the menu with the given exact name.
func (q *Queries) GetMenuByName(ctx context.Context, name string) (Menu, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM menus WHERE name = ?`, name)
	m, err := scanMenu(row)
	return m, notFound(err)
}

// GetMenuBySlug returns the menu with the given slug.
func (q *Queries) GetMenuBySlug(ctx context.Context, slug string) (Menu, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM menus WHERE slug = ?`, slug)
	m, err := scanMenu(row)
	return m, notFound(err)
}

// ListMenus returns all menus ordered by name.
func (q *Queries) ListMenus(ctx context.Context) ([]Menu, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+menuColumns+` FROM menus ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []Menu{}
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// UpdateMenuParams holds the fields for UpdateMenu.
type UpdateMenuParams struct {
	ID        int64
	Name      string
	Slug      string
	UpdatedAt time.Time
}

// UpdateMenu changes a menu's name and slug.
func (q *Queries) UpdateMenu(ctx context.Context, arg UpdateMenuParams) (Menu, error) {
	if arg.UpdatedAt.IsZero() {
		arg.UpdatedAt = time.Now()
	}
	row := q.db.QueryRowContext(ctx,
		`UPDATE menus SET name = ?, slug = ?, updated_at = ? WHERE id = ?
		RETURNING `+menuColumns,
		arg.Name, arg.Slug, arg.UpdatedAt, arg.ID,
	)
	m, err := scanMenu(row)
	return m, notFound(err)
}

// DeleteMenu removes a menu; its items are removed by the foreign key cascade.
func (q *Queries) DeleteMenu(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM menus WHERE id = ?`, id)
	return err
}

// MenuSlugExists reports whether a menu other than excludeID uses slug.
// Pass 0 as excludeID to check against all menus.
func (q *Queries) MenuSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM menus WHERE slug = ? AND id != ?`, slug, excludeID,
	).Scan(&n)
	return n > 0, err
}

// MenuNameExists reports whether a menu other than excludeID uses name.
func (q *Queries) MenuNameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM menus WHERE name = ? AND id != ?`, name, excludeID,
	).Scan(&n)
	return n > 0, err
}

// CreateMenuItemParams holds the fields for CreateMenuItem.
type CreateMenuItemParams struct {
	MenuID    int64
	ParentID  sql.NullInt64
	Title     string
	URL       string
	NamedURL  string
	Order     int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateMenuItem inserts a menu item and returns the stored row.
func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	now := time.Now()
	if arg.CreatedAt.IsZero() {
		arg.CreatedAt = now
	}
	if arg.UpdatedAt.IsZero() {
		arg.UpdatedAt = now
	}
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO menu_items (menu_id, parent_id, title, url, named_url, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+menuItemColumns,
		arg.MenuID, arg.ParentID, arg.Title, arg.URL, arg.NamedURL, arg.Order, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanMenuItem(row)
}

// GetMenuItemByID returns the menu item with the given id.
func (q *Queries) GetMenuItemByID(ctx context.Context, id int64) (MenuItem, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+menuItemColumns+` FROM menu_items WHERE id = ?`, id)
	i, err := scanMenuItem(row)
	return i, notFound(err)
}

// ListMenuItems returns the items of a menu ordered by sort order, then id.
func (q *Queries) ListMenuItems(ctx context.Context, menuID int64) ([]MenuItem, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE menu_id = ? ORDER BY sort_order, id`,
		menuID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []MenuItem{}
	for rows.Next() {
		i, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// UpdateMenuItemParams holds the fields for UpdateMenuItem.
type UpdateMenuItemParams struct {
	ID        int64
	ParentID  sql.NullInt64
	Title     string
	URL       string
	NamedURL  string
	Order     int64
	UpdatedAt time.Time
}

// UpdateMenuItem replaces the editable fields of a menu item.
func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	if arg.UpdatedAt.IsZero() {
		arg.UpdatedAt = time.Now()
	}
	row := q.db.QueryRowContext(ctx,
		`UPDATE menu_items
		SET parent_id = ?, title = ?, url = ?, named_url = ?, sort_order = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+menuItemColumns,
		arg.ParentID, arg.Title, arg.URL, arg.NamedURL, arg.Order, arg.UpdatedAt, arg.ID,
	)
	i, err := scanMenuItem(row)
	return i, notFound(err)
}

// DeleteMenuItem removes a menu item; descendants go with it through the cascade.
func (q *Queries) DeleteMenuItem(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, id)
	return err
}

// UpdateMenuItemPositionParams holds the fields for UpdateMenuItemPosition.
type UpdateMenuItemPositionParams struct {
	ID        int64
	ParentID  sql.NullInt64
	Order     int64
	UpdatedAt time.Time
}

// UpdateMenuItemPosition moves an item under a new parent with a new sort order.
func (q *Queries) UpdateMenuItemPosition(ctx context.Context, arg UpdateMenuItemPositionParams) error {
	if arg.UpdatedAt.IsZero() {
		arg.UpdatedAt = time.Now()
	}
	res, err := q.db.ExecContext(ctx,
		`UPDATE menu_items SET parent_id = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
		arg.ParentID, arg.Order, arg.UpdatedAt, arg.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchMenuItemsParams filters SearchMenuItems. A zero MenuID searches all
// menus; an empty Query matches every item.
type SearchMenuItemsParams struct {
	MenuID int64
	Query  string
}

// SearchMenuItems returns items whose title, url or named url contains the
// query, ordered by menu, sort order and id.
func (q *Queries) SearchMenuItems(ctx context.Context, arg SearchMenuItemsParams) ([]MenuItem, error) {
	pattern := "%" + escapeLike(arg.Query) + "%"
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items
		WHERE (? = 0 OR menu_id = ?)
		  AND (title LIKE ? ESCAPE '\' OR url LIKE ? ESCAPE '\' OR named_url LIKE ? ESCAPE '\')
		ORDER BY menu_id, sort_order, id`,
		arg.MenuID, arg.MenuID, pattern, pattern, pattern,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []MenuItem{}
	for rows.Next() {
		i, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// escapeLike escapes LIKE wildcards so the query matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// GetMenuWithItems loads a menu by exact name together with all of its items
// in a single query. Items come back ordered by sort order, then id.
func (q *Queries) GetMenuWithItems(ctx context.Context, name string) (MenuWithItems, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT m.id, m.name, m.slug, m.created_at, m.updated_at,
		       i.id, i.menu_id, i.parent_id, i.title, i.url, i.named_url, i.sort_order, i.created_at, i.updated_at
		FROM menus m
		LEFT JOIN menu_items i ON i.menu_id = m.id
		WHERE m.name = ?
		ORDER BY i.sort_order, i.id`,
		name,
	)
	if err != nil {
		return MenuWithItems{}, err
	}
	defer func() { _ = rows.Close() }()

	var (
		result MenuWithItems
		found  bool
	)
	result.Items = []MenuItem{}

	for rows.Next() {
		var (
			itemID    sql.NullInt64
			menuID    sql.NullInt64
			parentID  sql.NullInt64
			title     sql.NullString
			url       sql.NullString
			namedURL  sql.NullString
			order     sql.NullInt64
			createdAt sql.NullTime
			updatedAt sql.NullTime
		)
		if err := rows.Scan(
			&result.Menu.ID, &result.Menu.Name, &result.Menu.Slug, &result.Menu.CreatedAt, &result.Menu.UpdatedAt,
			&itemID, &menuID, &parentID, &title, &url, &namedURL, &order, &createdAt, &updatedAt,
		); err != nil {
			return MenuWithItems{}, err
		}
		found = true

		// A menu without items yields one row of NULL item columns.
		if !itemID.Valid {
			continue
		}
		result.Items = append(result.Items, MenuItem{
			ID:        itemID.Int64,
			MenuID:    menuID.Int64,
			ParentID:  parentID,
			Title:     title.String,
			URL:       url.String,
			NamedURL:  namedURL.String,
			Order:     order.Int64,
			CreatedAt: createdAt.Time,
			UpdatedAt: updatedAt.Time,
		})
	}
	if err := rows.Err(); err != nil {
		return MenuWithItems{}, err
	}
	if !found {
		return MenuWithItems{}, ErrNotFound
	}

	return result, nil
}
