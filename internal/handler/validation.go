// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/olegiv/treemenu-go/internal/util"
)

// Field length limits, matching the original schema.
const (
	maxMenuNameLength = 50
	maxTitleLength    = 100
	maxURLLength      = 255
	maxNamedURLLength = 100
)

// SlugExistsFunc reports whether a slug is already taken.
type SlugExistsFunc func() (bool, error)

// ValidateSlugWithChecker validates a slug using a custom existence checker.
// Returns an error message string if validation fails, or empty string if valid.
func ValidateSlugWithChecker(slug string, checkExists SlugExistsFunc) string {
	if msg := ValidateSlugFormat(slug); msg != "" {
		return msg
	}
	exists, err := checkExists()
	if err != nil {
		slog.Error("database error checking slug", "error", err)
		return "Error checking slug"
	}
	if exists {
		return "Slug already exists"
	}
	return ""
}

// ValidateSlugForUpdate validates a slug for update operations.
// Skips validation if the slug hasn't changed from the current value.
func ValidateSlugForUpdate(slug, currentSlug string, checkExists SlugExistsFunc) string {
	if slug == currentSlug {
		return ""
	}
	return ValidateSlugWithChecker(slug, checkExists)
}

// ValidateSlugFormat validates only the slug format without checking existence.
func ValidateSlugFormat(slug string) string {
	if slug == "" {
		return "Slug is required"
	}
	if len(slug) > util.MaxSlugLength {
		return fmt.Sprintf("Slug must be at most %d characters", util.MaxSlugLength)
	}
	if !util.IsValidSlug(slug) {
		return "Invalid slug format (use lowercase letters, numbers, and hyphens)"
	}
	return ""
}

// validateLength returns an error message when s is longer than max characters.
func validateLength(label, s string, max int) string {
	if utf8.RuneCountInString(s) > max {
		return fmt.Sprintf("%s must be at most %d characters", label, max)
	}
	return ""
}
