// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"TREEMENU_DB_PATH" envDefault:"./data/treemenu.db"`
	ServerHost string `env:"TREEMENU_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"TREEMENU_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"TREEMENU_ENV" envDefault:"development"`

	// Logging configuration
	LogLevel  string `env:"TREEMENU_LOG_LEVEL" envDefault:"info"`  // debug, info, warn, error
	LogFormat string `env:"TREEMENU_LOG_FORMAT" envDefault:"text"` // text or json

	// Per-request deadline enforced by middleware.Timeout
	RequestTimeout time.Duration `env:"TREEMENU_REQUEST_TIMEOUT" envDefault:"30s"`

	// Seeding configuration
	DoSeed bool `env:"TREEMENU_DO_SEED" envDefault:"false"` // Create the demo "main" menu
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.DBPath == "" {
		return nil, fmt.Errorf("TREEMENU_DB_PATH must not be empty")
	}

	if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("TREEMENU_SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if !contains(validLogLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("TREEMENU_LOG_LEVEL must be one of %s, got %q",
			strings.Join(validLogLevels, ", "), cfg.LogLevel)
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if !contains(validLogFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("TREEMENU_LOG_FORMAT must be one of %s, got %q",
			strings.Join(validLogFormats, ", "), cfg.LogFormat)
	}

	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("TREEMENU_REQUEST_TIMEOUT must be positive, got %s", cfg.RequestTimeout)
	}

	return cfg, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
