// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultEndpoint is the Google Maps Geocoding API endpoint.
	DefaultEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"
	// DefaultTimeout bounds a single geocoding call.
	DefaultTimeout = 10 * time.Second
	// DefaultLanguage is the language hint sent with every request.
	DefaultLanguage = "ja"
)

// GoogleMapsOptions tweaks a GoogleMapsGeocoder. The zero value is valid.
type GoogleMapsOptions struct {
	// Endpoint overrides DefaultEndpoint (used by tests).
	Endpoint string

	// Language overrides DefaultLanguage.
	Language string

	// Timeout overrides DefaultTimeout.
	Timeout time.Duration

	// Transport is the round tripper for outbound calls; defaults to
	// http.DefaultTransport.
	Transport http.RoundTripper
}

// GoogleMapsGeocoder uses the Google Maps Geocoding API. A single instance
// is shared by all requests; it keeps no per-call state.
type GoogleMapsGeocoder struct {
	apiKey     string
	endpoint   string
	language   string
	httpClient *http.Client
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder.
func NewGoogleMapsGeocoder(apiKey string, opts *GoogleMapsOptions) *GoogleMapsGeocoder {
	if opts == nil {
		opts = &GoogleMapsOptions{}
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	language := opts.Language
	if language == "" {
		language = DefaultLanguage
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &GoogleMapsGeocoder{
		apiKey:   apiKey,
		endpoint: endpoint,
		language: language,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: opts.Transport,
		},
	}
}

type googleMapsResponse struct {
	Results      []Result `json:"results"`
	Status       string   `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string   `json:"error_message,omitempty"`
}

// ResolveByCoordinates performs a reverse geocoding of lat,lon.
func (g *GoogleMapsGeocoder) ResolveByCoordinates(ctx context.Context, lat, lon float64) Outcome {
	if !isFinite(lat) || !isFinite(lon) {
		return Rejected(StatusInvalidRequest, 0)
	}

	params := url.Values{}
	params.Set("latlng", FormatLatLng(lat, lon))

	return g.do(ctx, params)
}

// ResolveByAddress geocodes a free-text address.
func (g *GoogleMapsGeocoder) ResolveByAddress(ctx context.Context, address string) Outcome {
	address = strings.TrimSpace(address)
	if address == "" {
		return Rejected(StatusInvalidRequest, 0)
	}

	params := url.Values{}
	params.Set("address", address)

	return g.do(ctx, params)
}

func (g *GoogleMapsGeocoder) do(ctx context.Context, params url.Values) Outcome {
	params.Set("key", g.apiKey)
	params.Set("language", g.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return TransportFailure(fmt.Errorf("building geocoding request: %w", err))
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		// never leak the key through the URL embedded in *url.Error
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}

		return TransportFailure(fmt.Errorf("geocoding request failed: %w", err))
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Rejected("", resp.StatusCode)
	}

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return TransportFailure(fmt.Errorf("decoding response: %w", err))
	}

	if gmResp.Status != StatusOK {
		outcome := Rejected(gmResp.Status, resp.StatusCode)
		outcome.Message = gmResp.ErrorMessage

		return outcome
	}

	return Ok(gmResp.Results)
}

// FormatLatLng renders a coordinate pair the way the latlng parameter expects it.
func FormatLatLng(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
