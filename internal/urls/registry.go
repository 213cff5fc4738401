// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package urls keeps a registry of named routes so that stored menu items can
// refer to pages by name instead of by hard-coded path.
package urls

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

var (
	// ErrNoReverseMatch is returned when a name is unknown or its pattern
	// needs URL parameters that Reverse cannot supply.
	ErrNoReverseMatch = errors.New("urls: no reverse match")

	// ErrDuplicateName is returned when a name is registered twice.
	ErrDuplicateName = errors.New("urls: duplicate route name")
)

// Registry maps route names to chi route patterns.
type Registry struct {
	mu     sync.RWMutex
	routes map[string]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{routes: make(map[string]string)}
}

// Register records pattern under name without mounting a handler.
func (reg *Registry) Register(name, pattern string) error {
	if name == "" {
		return errors.New("urls: empty route name")
	}
	if !strings.HasPrefix(pattern, "/") {
		return fmt.Errorf("urls: pattern %q must start with /", pattern)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if existing, ok := reg.routes[name]; ok {
		return fmt.Errorf("%w: %q already maps to %q", ErrDuplicateName, name, existing)
	}
	reg.routes[name] = pattern
	return nil
}

// Get mounts h for GET requests on pattern and registers the route under name.
func (reg *Registry) Get(r chi.Router, name, pattern string, h http.HandlerFunc) error {
	if err := reg.Register(name, pattern); err != nil {
		return err
	}
	r.Get(pattern, h)
	return nil
}

// Reverse returns the path for the named route.
func (reg *Registry) Reverse(name string) (string, error) {
	reg.mu.RLock()
	pattern, ok := reg.routes[name]
	reg.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %q is not a registered route name", ErrNoReverseMatch, name)
	}
	if strings.ContainsAny(pattern, "{*") {
		return "", fmt.Errorf("%w: %q needs URL parameters (%s)", ErrNoReverseMatch, name, pattern)
	}
	return pattern, nil
}

// Names returns the registered route names in sorted order.
func (reg *Registry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	names := make([]string, 0, len(reg.routes))
	for name := range reg.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
