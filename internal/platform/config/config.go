// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (registry, token services) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Veriface API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Cryptographic secrets. Session tokens and user access tokens are
	// independent credentials signed with independent keys.
	SessionSecret string `env:"SESSION_SECRET,required"`
	JWTSecret     string `env:"JWT_SECRET,required"`

	// Session registry
	SessionTTLSeconds int `env:"SESSION_TTL_SECONDS"       envDefault:"300"`
	SessionMaxSize    int `env:"SESSION_REGISTRY_MAX_SIZE" envDefault:"1000"`

	// Face matching
	MatchThreshold     float64 `env:"MATCH_THRESHOLD"      envDefault:"0.23"`
	EmbeddingDimension int     `env:"EMBEDDING_DIMENSION"  envDefault:"512"`

	// ExtractorURL points at the feature-extraction service that turns a
	// face image into an embedding vector. The core treats it as opaque.
	ExtractorURL string `env:"EXTRACTOR_URL" envDefault:"http://localhost:9090/embed"`

	// StrictMode requires both face and credential verification for
	// privileged flows.
	StrictMode bool `env:"STRICT_MODE" envDefault:"true"`

	// AllowFaceDuplication disables the one-face-one-user enrollment guard.
	AllowFaceDuplication bool `env:"ALLOW_FACE_DEDUPLICATION" envDefault:"false"`

	// Seed administrator account, created in every fresh session store.
	AdminUsername string `env:"ADMIN_USERNAME"  envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD"  envDefault:"admin123"`
	AdminEmail    string `env:"ADMIN_EMAIL"     envDefault:"admin@example.com"`
	AdminFullName string `env:"ADMIN_FULL_NAME" envDefault:"Demo Administrator"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.SessionTTLSeconds <= 0 {
		return nil, fmt.Errorf("config: SESSION_TTL_SECONDS must be positive, got %d", cfg.SessionTTLSeconds)
	}
	if cfg.SessionMaxSize <= 0 {
		return nil, fmt.Errorf("config: SESSION_REGISTRY_MAX_SIZE must be positive, got %d", cfg.SessionMaxSize)
	}
	if cfg.MatchThreshold < 0 || cfg.MatchThreshold > 1 {
		return nil, fmt.Errorf("config: MATCH_THRESHOLD must be in [0,1], got %g", cfg.MatchThreshold)
	}
	if cfg.EmbeddingDimension <= 0 {
		return nil, fmt.Errorf("config: EMBEDDING_DIMENSION must be positive, got %d", cfg.EmbeddingDimension)
	}

	return cfg, nil
}

// SessionTTL returns the session time-to-live as a [time.Duration].
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// ExtraAllowedOrigins returns the additional CORS origins configured via
// EXTRA_ORIGINS (comma separated).
func (c *Config) ExtraAllowedOrigins() []string {
	if c.ExtraOrigins == "" {
		return nil
	}
	parts := strings.Split(c.ExtraOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
