// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics exposes Prometheus counters for menu builds and HTTP traffic.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter is a labelled monotonically increasing counter.
type Counter interface {
	Increment(labels ...string)
}

type counter struct {
	vec *prometheus.CounterVec
}

func (c *counter) Increment(labels ...string) {
	c.vec.WithLabelValues(labels...).Inc()
}

// NewCounter registers a counter vector on reg.
// It panics if a collector with the same name is already registered.
func NewCounter(reg prometheus.Registerer, name, help string, labels ...string) Counter {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, labels)
	reg.MustRegister(vec)
	return &counter{vec: vec}
}

// Metrics holds the application's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// MenuBuilds is labelled by menu name and outcome (ok, not_found, error).
	MenuBuilds Counter
	// HTTPRequests is labelled by method, route pattern and status code.
	HTTPRequests Counter
}

// New creates the application metrics with Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry: reg,
		MenuBuilds: NewCounter(reg, "treemenu_menu_builds_total",
			"Number of menu trees built, by menu and outcome.", "menu", "outcome"),
		HTTPRequests: NewCounter(reg, "treemenu_http_requests_total",
			"Number of HTTP requests served, by method, route and status.", "method", "route", "status"),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
