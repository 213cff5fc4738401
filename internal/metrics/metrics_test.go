// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCounter(reg, "test_events_total", "Test events.", "kind")

	c.Increment("a")
	c.Increment("a")
	c.Increment("b")

	want := `
# HELP test_events_total Test events.
# TYPE test_events_total counter
test_events_total{kind="a"} 2
test_events_total{kind="b"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "test_events_total"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestNewCounter_DuplicatePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCounter(reg, "dup_total", "Duplicate.")

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewCounter(reg, "dup_total", "Duplicate.")
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body, _ := io.ReadAll(w.Body)
	return string(body)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.MenuBuilds.Increment("main", "ok")
	m.HTTPRequests.Increment("GET", "/", "200")

	body := scrape(t, m)
	for _, want := range []string{
		`treemenu_menu_builds_total{menu="main",outcome="ok"} 1`,
		`treemenu_http_requests_total{method="GET",route="/",status="200"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a, b := New(), New()
	a.MenuBuilds.Increment("main", "ok")

	if body := scrape(t, b); strings.Contains(body, "treemenu_menu_builds_total{") {
		t.Errorf("second instance exposes menu build series from the first:\n%s", body)
	}
	if body := scrape(t, a); !strings.Contains(body, `treemenu_menu_builds_total{menu="main",outcome="ok"} 1`) {
		t.Error("first instance lost its menu build series")
	}
}
