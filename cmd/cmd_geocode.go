// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jcodagnone/jimoto/geocode"
	"github.com/spf13/cobra"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Query the geocoding provider (diagnostics)",
}

var geocodeCoordsCmd = &cobra.Command{
	Use:   "coords <lat> <lng>",
	Short: "Reverse geocode a coordinate and print its locality",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid latitude %q: %w", args[0], err)
		}

		lng, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid longitude %q: %w", args[1], err)
		}

		provider, err := diagnosticProvider(cmd)
		if err != nil {
			return err
		}

		return printOutcome(os.Stdout, provider.ResolveByCoordinates(cmd.Context(), lat, lng))
	},
}

var geocodeAddressCmd = &cobra.Command{
	Use:   "address <text>...",
	Short: "Forward geocode an address",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := diagnosticProvider(cmd)
		if err != nil {
			return err
		}

		return printOutcome(os.Stdout, provider.ResolveByAddress(cmd.Context(), strings.Join(args, " ")))
	},
}

func diagnosticProvider(cmd *cobra.Command) (geocode.Provider, error) {
	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return nil, err
	}

	provider := newProvider(cfg)
	if provider == nil {
		return nil, errors.New("GOOGLE_GEOCODING_API_KEY is not configured")
	}

	return provider, nil
}

// printOutcome writes the outcome and, on success, the extracted locality.
func printOutcome(w io.Writer, outcome geocode.Outcome) error {
	if !outcome.OK() {
		if outcome.Kind == geocode.OutcomeProviderRejected {
			fmt.Fprintf(w, "❌ %s %s (HTTP %d): %v\n", outcome.Kind, outcome.Status, outcome.HTTPStatus, outcome.Err())
		} else {
			fmt.Fprintf(w, "❌ %s: %v\n", outcome.Kind, outcome.Err())
		}

		return outcome.Err()
	}

	if locality, ok := geocode.ExtractLocality(outcome.Results); ok {
		fmt.Fprintf(w, "📍 locality: %s\n", locality)
	} else {
		fmt.Fprintln(w, "⚠️ no locality component in the first result")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(outcome.Results)
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
	geocodeCmd.AddCommand(geocodeCoordsCmd)
	geocodeCmd.AddCommand(geocodeAddressCmd)
}
