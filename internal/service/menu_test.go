// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/olegiv/treemenu-go/internal/store"
)

type fakeLoader struct {
	menus map[string]store.MenuWithItems
	err   error
	calls int
}

func (f *fakeLoader) GetMenuWithItems(_ context.Context, name string) (store.MenuWithItems, error) {
	f.calls++
	if f.err != nil {
		return store.MenuWithItems{}, f.err
	}
	m, ok := f.menus[name]
	if !ok {
		return store.MenuWithItems{}, store.ErrNotFound
	}
	return m, nil
}

type fakeResolver map[string]string

func (f fakeResolver) Reverse(name string) (string, error) {
	if p, ok := f[name]; ok {
		return p, nil
	}
	return "", errors.New("no reverse match")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func item(id int64, parent int64, url string) store.MenuItem {
	it := store.MenuItem{ID: id, MenuID: 1, Title: url, URL: url, Order: id}
	if parent != 0 {
		it.ParentID = sql.NullInt64{Int64: parent, Valid: true}
	}
	return it
}

func newService(items []store.MenuItem, resolver URLResolver) (*MenuService, *fakeLoader) {
	loader := &fakeLoader{menus: map[string]store.MenuWithItems{
		"main": {Menu: store.Menu{ID: 1, Name: "main", Slug: "main"}, Items: items},
	}}
	return NewMenuService(loader, resolver, testLogger()), loader
}

// abcItems is A(/) > B(/b/) > C(/c/).
func abcItems() []store.MenuItem {
	return []store.MenuItem{
		item(1, 0, "/"),
		item(2, 1, "/b/"),
		item(3, 2, "/c/"),
	}
}

// walk visits every node reachable from roots, depth first.
func walk(nodes []*MenuNode, fn func(*MenuNode)) {
	for _, n := range nodes {
		fn(n)
		walk(n.Children, fn)
	}
}

func TestDrawMenu_ActiveChain(t *testing.T) {
	svc, loader := newService(abcItems(), nil)

	got := svc.DrawMenu(context.Background(), "/c/", "main")

	if loader.calls != 1 {
		t.Errorf("loader calls = %d, want 1", loader.calls)
	}
	if got.MenuName != "main" {
		t.Errorf("MenuName = %q, want %q", got.MenuName, "main")
	}
	if len(got.MenuTree) != 1 {
		t.Fatalf("len(MenuTree) = %d, want 1", len(got.MenuTree))
	}

	a := got.MenuTree[0]
	if a.Item.ID != 1 || len(a.Children) != 1 {
		t.Fatalf("root = %d with %d children, want A with 1 child", a.Item.ID, len(a.Children))
	}
	b := a.Children[0]
	if b.Item.ID != 2 || len(b.Children) != 1 {
		t.Fatalf("A.children[0] = %d with %d children, want B with 1 child", b.Item.ID, len(b.Children))
	}
	c := b.Children[0]
	if c.Item.ID != 3 {
		t.Fatalf("B.children[0] = %d, want C", c.Item.ID)
	}

	tests := []struct {
		name             string
		node             *MenuNode
		active, expanded bool
	}{
		{"A", a, false, true},
		{"B", b, false, true},
		{"C", c, true, true},
	}
	for _, tt := range tests {
		if tt.node.IsActive != tt.active {
			t.Errorf("%s.IsActive = %v, want %v", tt.name, tt.node.IsActive, tt.active)
		}
		if tt.node.IsExpanded != tt.expanded {
			t.Errorf("%s.IsExpanded = %v, want %v", tt.name, tt.node.IsExpanded, tt.expanded)
		}
	}
}

func TestDrawMenu_NoMatch(t *testing.T) {
	svc, _ := newService(abcItems(), nil)

	got := svc.DrawMenu(context.Background(), "/zzz/", "main")

	count := 0
	walk(got.MenuTree, func(n *MenuNode) {
		count++
		if n.IsActive || n.IsExpanded {
			t.Errorf("node %d: IsActive=%v IsExpanded=%v, want both false", n.Item.ID, n.IsActive, n.IsExpanded)
		}
	})
	if count != 3 {
		t.Errorf("visited %d nodes, want 3", count)
	}
}

func TestDrawMenu_MenuNotFound(t *testing.T) {
	svc, _ := newService(abcItems(), nil)

	got := svc.DrawMenu(context.Background(), "/", "sidebar")

	if got.MenuName != "sidebar" {
		t.Errorf("MenuName = %q, want %q", got.MenuName, "sidebar")
	}
	if got.MenuTree == nil || len(got.MenuTree) != 0 {
		t.Errorf("MenuTree = %v, want empty non-nil slice", got.MenuTree)
	}
}

func TestDrawMenu_LoaderError(t *testing.T) {
	loader := &fakeLoader{err: errors.New("database is locked")}
	svc := NewMenuService(loader, nil, testLogger())

	got := svc.DrawMenu(context.Background(), "/", "main")

	if len(got.MenuTree) != 0 {
		t.Errorf("len(MenuTree) = %d, want 0", len(got.MenuTree))
	}
	if got.MenuName != "main" {
		t.Errorf("MenuName = %q, want %q", got.MenuName, "main")
	}
}

func TestDrawMenu_EmptyMenu(t *testing.T) {
	svc, _ := newService([]store.MenuItem{}, nil)

	got := svc.DrawMenu(context.Background(), "/", "main")

	if len(got.MenuTree) != 0 {
		t.Errorf("len(MenuTree) = %d, want 0", len(got.MenuTree))
	}
}

func TestBuildTree_EachItemOnce(t *testing.T) {
	items := []store.MenuItem{
		item(1, 0, "/a/"),
		item(2, 1, "/a/1/"),
		item(3, 0, "/b/"),
		item(4, 1, "/a/2/"),
		item(5, 3, "/b/1/"),
		item(6, 99, "/orphan/"), // dangling parent
		item(7, 4, "/a/2/x/"),
	}
	svc, _ := newService(items, nil)

	roots := svc.BuildTree(items, "")

	seen := make(map[int64]int)
	walk(roots, func(n *MenuNode) { seen[n.Item.ID]++ })
	for _, it := range items {
		if seen[it.ID] != 1 {
			t.Errorf("item %d appears %d times, want 1", it.ID, seen[it.ID])
		}
	}

	var rootIDs []int64
	for _, r := range roots {
		rootIDs = append(rootIDs, r.Item.ID)
	}
	wantRoots := []int64{1, 3, 6}
	if len(rootIDs) != len(wantRoots) {
		t.Fatalf("roots = %v, want %v", rootIDs, wantRoots)
	}
	for i := range wantRoots {
		if rootIDs[i] != wantRoots[i] {
			t.Errorf("roots[%d] = %d, want %d", i, rootIDs[i], wantRoots[i])
		}
	}

	// Children keep fetch order.
	a := roots[0]
	if len(a.Children) != 2 || a.Children[0].Item.ID != 2 || a.Children[1].Item.ID != 4 {
		t.Errorf("A children out of order")
	}
	if len(a.Children[1].Children) != 1 || a.Children[1].Children[0].Item.ID != 7 {
		t.Errorf("item 7 should be the only child of item 4")
	}
}

func TestBuildTree_CrossMenuParentIsRoot(t *testing.T) {
	// Parent 50 belongs to another menu and is therefore not in the fetched set.
	items := []store.MenuItem{
		item(1, 0, "/"),
		item(2, 50, "/elsewhere/"),
	}
	svc, _ := newService(items, nil)

	roots := svc.BuildTree(items, "/elsewhere/")

	if len(roots) != 2 {
		t.Fatalf("len(roots) = %d, want 2", len(roots))
	}
	promoted := roots[1]
	if promoted.Item.ID != 2 {
		t.Fatalf("roots[1] = %d, want 2", promoted.Item.ID)
	}
	// The upward walk stops at the missing parent instead of failing.
	if !promoted.IsActive || !promoted.IsExpanded {
		t.Errorf("promoted item should be active and expanded")
	}
	if roots[0].IsExpanded {
		t.Errorf("unrelated root should not be expanded")
	}
}

func TestBuildTree_ActiveChildrenExpanded(t *testing.T) {
	items := []store.MenuItem{
		item(1, 0, "/"),
		item(2, 1, "/b/"),
		item(3, 2, "/b/1/"),
		item(4, 2, "/b/2/"),
		item(5, 3, "/b/1/deep/"),
		item(6, 1, "/sibling/"),
	}
	svc, _ := newService(items, nil)

	roots := svc.BuildTree(items, "/b/")

	flags := make(map[int64][2]bool)
	walk(roots, func(n *MenuNode) { flags[n.Item.ID] = [2]bool{n.IsActive, n.IsExpanded} })

	want := map[int64][2]bool{
		1: {false, true}, // ancestor
		2: {true, true},  // active
		3: {false, true}, // direct child
		4: {false, true}, // direct child
		5: {false, false},
		6: {false, false},
	}
	for id, w := range want {
		if flags[id] != w {
			t.Errorf("item %d (active, expanded) = %v, want %v", id, flags[id], w)
		}
	}
}

func TestBuildTree_FirstMatchWins(t *testing.T) {
	items := []store.MenuItem{
		item(1, 0, "/dup/"),
		item(2, 0, "/dup/"),
	}
	svc, _ := newService(items, nil)

	roots := svc.BuildTree(items, "/dup/")

	if !roots[0].IsActive {
		t.Error("first matching item should be active")
	}
	if roots[1].IsActive || roots[1].IsExpanded {
		t.Error("second matching item should be untouched")
	}
}

func TestBuildTree_ExactPathMatch(t *testing.T) {
	items := []store.MenuItem{item(1, 0, "/about/")}
	svc, _ := newService(items, nil)

	for _, path := range []string{"/about", "/ABOUT/", "/about/?x=1", "about/"} {
		roots := svc.BuildTree(items, path)
		if roots[0].IsActive {
			t.Errorf("path %q should not match /about/", path)
		}
	}
}

func TestBuildTree_ParentCycle(t *testing.T) {
	// 2 and 3 point at each other; 4 hangs below 3 and is the active item.
	items := []store.MenuItem{
		item(1, 0, "/"),
		item(2, 3, "/two/"),
		item(3, 2, "/three/"),
		item(4, 3, "/four/"),
	}
	svc, _ := newService(items, nil)

	roots := svc.BuildTree(items, "/four/")

	if len(roots) != 1 || roots[0].Item.ID != 1 {
		t.Errorf("roots should only contain item 1")
	}
	if roots[0].IsExpanded {
		t.Error("item 1 is not on the active chain")
	}
}

func TestBuildTree_Idempotent(t *testing.T) {
	items := abcItems()
	svc, _ := newService(items, nil)

	flatten := func(roots []*MenuNode) []MenuNode {
		var out []MenuNode
		walk(roots, func(n *MenuNode) {
			out = append(out, MenuNode{Item: n.Item, URL: n.URL, IsActive: n.IsActive, IsExpanded: n.IsExpanded})
		})
		return out
	}

	first := flatten(svc.BuildTree(items, "/b/"))
	second := flatten(svc.BuildTree(items, "/b/"))

	if len(first) != len(second) {
		t.Fatalf("len = %d and %d, want equal", len(first), len(second))
	}
	for i := range first {
		if first[i].Item.ID != second[i].Item.ID ||
			first[i].IsActive != second[i].IsActive ||
			first[i].IsExpanded != second[i].IsExpanded {
			t.Errorf("node %d differs between builds: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestItemURL(t *testing.T) {
	resolver := fakeResolver{"home": "/", "test_menu": "/test-menu/"}
	svc := NewMenuService(&fakeLoader{}, resolver, testLogger())

	tests := []struct {
		name     string
		url      string
		namedURL string
		want     string
	}{
		{name: "named url resolves", namedURL: "test_menu", url: "/ignored/", want: "/test-menu/"},
		{name: "unresolved named url falls back to url", namedURL: "missing", url: "/raw/", want: "/raw/"},
		{name: "unresolved named url without url", namedURL: "missing", want: "/"},
		{name: "raw url only", url: "/raw/", want: "/raw/"},
		{name: "nothing set", want: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.ItemURL(store.MenuItem{ID: 1, URL: tt.url, NamedURL: tt.namedURL})
			if got != tt.want {
				t.Errorf("ItemURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestItemURL_NilResolver(t *testing.T) {
	svc := NewMenuService(&fakeLoader{}, nil, nil)

	got := svc.ItemURL(store.MenuItem{NamedURL: "home", URL: "/home/"})
	if got != "/home/" {
		t.Errorf("ItemURL() = %q, want %q", got, "/home/")
	}
}

func TestBuildTree_ResolutionFailureDoesNotAbort(t *testing.T) {
	items := []store.MenuItem{
		{ID: 1, Title: "Broken", NamedURL: "missing"},
		{ID: 2, Title: "Test", NamedURL: "test_menu"},
		{ID: 3, Title: "Raw", URL: "/raw/"},
	}
	svc := NewMenuService(&fakeLoader{}, fakeResolver{"test_menu": "/test-menu/"}, testLogger())

	roots := svc.BuildTree(items, "/test-menu/")

	if len(roots) != 3 {
		t.Fatalf("len(roots) = %d, want 3", len(roots))
	}
	wantURLs := []string{"/", "/test-menu/", "/raw/"}
	for i, want := range wantURLs {
		if roots[i].URL != want {
			t.Errorf("roots[%d].URL = %q, want %q", i, roots[i].URL, want)
		}
	}
	if !roots[1].IsActive {
		t.Error("resolved named url should match the current path")
	}
}

type recordingCounter map[string]int

func (c recordingCounter) Increment(labels ...string) {
	key := ""
	for i, l := range labels {
		if i > 0 {
			key += "/"
		}
		key += l
	}
	c[key]++
}

func TestDrawMenu_CountsBuilds(t *testing.T) {
	svc, loader := newService(abcItems(), nil)
	counter := recordingCounter{}
	svc.SetBuildCounter(counter)

	svc.DrawMenu(context.Background(), "/", "main")
	svc.DrawMenu(context.Background(), "/b/", "main")
	svc.DrawMenu(context.Background(), "/", "sidebar")

	loader.err = errors.New("database is locked")
	svc.DrawMenu(context.Background(), "/", "main")

	want := map[string]int{
		"main/" + OutcomeOK:          2,
		"sidebar/" + OutcomeNotFound: 1,
		"main/" + OutcomeError:       1,
	}
	if len(counter) != len(want) {
		t.Errorf("counter = %v, want %v", counter, want)
	}
	for k, n := range want {
		if counter[k] != n {
			t.Errorf("counter[%q] = %d, want %d", k, counter[k], n)
		}
	}
}
