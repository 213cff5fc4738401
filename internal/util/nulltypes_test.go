// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"testing"
)

func TestNullInt64FromPtr(t *testing.T) {
	tests := []struct {
		name     string
		input    *int64
		expected sql.NullInt64
	}{
		{
			name:     "nil pointer",
			input:    nil,
			expected: sql.NullInt64{},
		},
		{
			name:     "zero value",
			input:    ptr(0),
			expected: sql.NullInt64{Int64: 0, Valid: true},
		},
		{
			name:     "parent id",
			input:    ptr(42),
			expected: sql.NullInt64{Int64: 42, Valid: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NullInt64FromPtr(tt.input)
			if result != tt.expected {
				t.Errorf("NullInt64FromPtr() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func ptr(v int64) *int64 {
	return &v
}
