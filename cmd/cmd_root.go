// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/jimoto/config"
	"github.com/jcodagnone/jimoto/geocode"
	"github.com/jcodagnone/jimoto/residence"
	"github.com/jcodagnone/jimoto/social"
	"github.com/jcodagnone/jimoto/utils/httputils"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "jimoto",
	Short: "posts from the neighbourhood you live in",
	Long: `
jimoto is the backend of a local social board: users declare the city they
live in and may only post from locations inside that city, as resolved by the
Google Maps Geocoding API.
`,
}

var rootOptions struct {
	ConfigPath string
	HTTPTrace  bool
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&rootOptions.ConfigPath,
		"config",
		"",
		"YAML configuration file (default $"+config.PathEnvVar+")",
	)
	rootCmd.PersistentFlags().BoolVar(
		&rootOptions.HTTPTrace,
		"http-trace",
		false,
		"Dump geocoding HTTP traffic to stderr (API key redacted)",
	)
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(rootOptions.ConfigPath)
	if err != nil {
		return nil, err
	}

	cfg.ResolveCredential(ctx, geocode.APIKeyFromADC)

	return cfg, nil
}

// newProvider returns the Google geocoder, or nil when no key is configured.
func newProvider(cfg *config.Config) geocode.Provider {
	if !residence.CredentialConfigured(cfg.GeocodingAPIKey) {
		return nil
	}

	var trace io.Writer
	if rootOptions.HTTPTrace {
		trace = os.Stderr
	}

	return geocode.NewGoogleMapsGeocoder(cfg.GeocodingAPIKey, &geocode.GoogleMapsOptions{
		Language:  cfg.GeocodingLanguage,
		Timeout:   cfg.GeocodingTimeout,
		Transport: httputils.NewTransport("jimoto/"+Version, trace, true, "key"),
	})
}

// openService opens the database and wires the social service. A missing
// credential outside debug does not stop the caller: requests that need
// geocoding fail with MissingCredential instead.
func openService(ctx context.Context, cfg *config.Config) (*social.Service, *sql.DB, error) {
	mode, err := cfg.ResidenceMode()
	if err != nil {
		log.Printf("⚠️ %v; location checks will fail until GOOGLE_GEOCODING_API_KEY is set", err)
	}

	if mode == residence.ModeBypass {
		log.Printf("⚠️ DEBUG without a geocoding key: location validation is bypassed")
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := social.NewRepository(db)
	if err := repo.CreateSchema(ctx); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	validator := residence.NewValidator(newProvider(cfg))

	return social.NewService(repo, validator, mode), db, nil
}
