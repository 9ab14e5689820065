// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the server configuration from defaults, an optional
// YAML file and the environment, in that order of precedence.
package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jcodagnone/jimoto/geocode"
	"github.com/jcodagnone/jimoto/residence"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar names the environment variable holding the config file path.
const PathEnvVar = "JIMOTO_CONFIG"

// insecureDebugSecret signs tokens in debug mode when no secret is set.
const insecureDebugSecret = "jimoto-insecure-debug-secret"

// Config holds every setting of the server.
type Config struct {
	Debug             bool          `koanf:"debug"`
	GeocodingAPIKey   string        `koanf:"google_geocoding_api_key"`
	GeocodingLanguage string        `koanf:"geocoding_language"`
	GeocodingTimeout  time.Duration `koanf:"geocoding_timeout"`
	DBPath            string        `koanf:"db_path"`
	ListenAddr        string        `koanf:"listen_addr"`
	JWTSecret         string        `koanf:"jwt_secret"`
	AccessTokenTTL    time.Duration `koanf:"access_token_ttl"`
	RefreshTokenTTL   time.Duration `koanf:"refresh_token_ttl"`
	GCPProject        string        `koanf:"gcp_project"`
}

func defaultConfig() *Config {
	return &Config{
		GeocodingLanguage: geocode.DefaultLanguage,
		GeocodingTimeout:  geocode.DefaultTimeout,
		DBPath:            "data/jimoto.duckdb",
		ListenAddr:        "localhost:8000",
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   7 * 24 * time.Hour,
	}
}

// Load builds the configuration. path may be empty, in which case the file
// named by JIMOTO_CONFIG is used, if any.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(PathEnvVar)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// DB_PATH -> db_path
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings and fills the debug-only fallbacks.
func (c *Config) Validate() error {
	var errs []error

	if c.GeocodingTimeout <= 0 {
		errs = append(errs, errors.New("GEOCODING_TIMEOUT must be positive"))
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}

	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH is required"))
	}

	if c.JWTSecret == "" {
		if c.Debug {
			log.Printf("⚠️ JWT_SECRET not set, using an insecure secret (debug only)")
			c.JWTSecret = insecureDebugSecret
		} else {
			errs = append(errs, errors.New("JWT_SECRET is required outside debug mode"))
		}
	}

	return errors.Join(errs...)
}

// ResidenceMode returns the validation mode implied by Debug and the
// geocoding credential.
func (c *Config) ResidenceMode() (residence.Mode, error) {
	return residence.DetermineMode(c.Debug, c.GeocodingAPIKey)
}

// KeyLookup resolves an API key for a project.
type KeyLookup func(ctx context.Context, projectID string) (string, error)

// ResolveCredential fills GeocodingAPIKey through lookup when no key is
// configured and the server is not in debug mode. Lookup failures are logged
// and leave the key unset, so ResidenceMode reports the missing credential.
func (c *Config) ResolveCredential(ctx context.Context, lookup KeyLookup) {
	if c.Debug || residence.CredentialConfigured(c.GeocodingAPIKey) || lookup == nil {
		return
	}

	log.Printf("🔑 GOOGLE_GEOCODING_API_KEY not set, trying Application Default Credentials...")

	key, err := lookup(ctx, c.GCPProject)
	if err != nil {
		log.Printf("⚠️ Could not resolve geocoding key from ADC: %v", err)

		return
	}

	c.GeocodingAPIKey = key
}
