// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

// Package config loads and validates application configuration.
//
// Configuration is layered, highest priority last:
//
//  1. Built-in defaults
//  2. YAML config file (CONFIG_PATH or the default search paths)
//  3. Environment variables (SERVER_PORT, SECURITY_JWT_SECRET, ...)
//
// The resulting *Config is passed explicitly to components at
// construction. Nothing in this package mutates process-wide state after
// Load returns.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration object.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Security SecurityConfig `koanf:"security"`
	Files    FilesConfig    `koanf:"files"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// StorageConfig holds BadgerDB settings.
type StorageConfig struct {
	Path string `koanf:"path"`
}

// SecurityConfig holds authentication settings.
//
// AdminPasswordHash is a bcrypt hash, never the plaintext password.
// Generate one with `htpasswd -nbB admin <password>` or equivalent.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPasswordHash string        `koanf:"admin_password_hash"`
}

// FilesConfig holds attachment transfer settings.
type FilesConfig struct {
	// MaxSize caps a single attachment payload in bytes.
	MaxSize int64 `koanf:"max_size" validate:"min=1"`

	// UploadConcurrency bounds the fan-out of a single batch transfer.
	UploadConcurrency int `koanf:"upload_concurrency" validate:"min=1"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// the first koanf layer; file and environment override them.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8787,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
		},
		Storage: StorageConfig{
			Path: "/data/excalidraw",
		},
		Security: SecurityConfig{
			JWTSecret:      "",
			SessionTimeout: 24 * time.Hour,
			AdminUsername:  "admin",
		},
		Files: FilesConfig{
			MaxSize:           2 << 20,
			UploadConcurrency: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks invariants that struct tags cannot express.
func (c *Config) Validate() error {
	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters, got %d", len(c.Security.JWTSecret))
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	return nil
}
