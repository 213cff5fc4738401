// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/treemenu-go/internal/store"
)

// parseIDParam reads a positive int64 chi URL parameter. On failure it writes
// a 400 JSON error and returns false.
func parseIDParam(w http.ResponseWriter, r *http.Request, param, entityName string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "Invalid "+entityName+" ID")
		return 0, false
	}
	return id, true
}

// logAndInternalError logs an error and writes a 500 JSON error response.
func logAndInternalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, logMsg string, args ...any) {
	logger.ErrorContext(r.Context(), logMsg, args...)
	writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
}

// requireEntityWithJSONError fetches an entity by ID using the provided query function.
// On error, it writes a JSON error response. Returns the entity and true if successful,
// or zero value and false if an error occurred (response already written).
//
// Example usage:
//
//	menu, ok := requireEntityWithJSONError(w, r, h.logger, "Menu", id,
//	    func(id int64) (store.Menu, error) { return h.queries.GetMenuByID(r.Context(), id) })
func requireEntityWithJSONError[T any](
	w http.ResponseWriter,
	r *http.Request,
	logger *slog.Logger,
	entityName string,
	id int64,
	queryFn func(id int64) (T, error),
) (T, bool) {
	var zero T
	entity, err := queryFn(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, entityName+" not found")
		} else {
			logAndInternalError(w, r, logger, "failed to get "+entityName, "error", err, "id", id)
		}
		return zero, false
	}
	return entity, true
}
