// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocode resolves coordinates and free-text addresses through an
// external geocoding provider and extracts locality names from the results.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Provider statuses as reported in the `status` field of a geocode response.
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
	StatusRequestDenied  = "REQUEST_DENIED"
	StatusInvalidRequest = "INVALID_REQUEST"
	StatusUnknownError   = "UNKNOWN_ERROR"
)

// AddressComponent is one entry of a result's address_components list.
type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Geometry holds the point a result was resolved to.
type Geometry struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
	LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
}

// Result is a single raw geocoding result.
type Result struct {
	AddressComponents []AddressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
	Geometry          Geometry           `json:"geometry"`
	PlaceID           string             `json:"place_id,omitempty"`
	Types             []string           `json:"types,omitempty"`
}

// OutcomeKind discriminates the variants of an Outcome.
type OutcomeKind int

const (
	// OutcomeOK means the provider answered with status OK.
	OutcomeOK OutcomeKind = iota
	// OutcomeProviderRejected means the provider answered but reported a non-success status.
	OutcomeProviderRejected
	// OutcomeTransportFailure means the call itself failed (network, timeout, decoding).
	OutcomeTransportFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeProviderRejected:
		return "provider_rejected"
	case OutcomeTransportFailure:
		return "transport_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of a single geocoding call. Only the fields relevant
// to Kind are set.
type Outcome struct {
	Kind OutcomeKind

	// Results is the raw result list when Kind is OutcomeOK.
	Results []Result

	// Status is the provider status when Kind is OutcomeProviderRejected. It
	// is empty when the provider failed at the HTTP level.
	Status string

	// HTTPStatus is the HTTP status code of the provider response, if any.
	HTTPStatus int

	// Message carries the provider's error_message, if any.
	Message string

	// Cause is the underlying error when Kind is OutcomeTransportFailure.
	Cause error
}

// Ok builds a successful outcome.
func Ok(results []Result) Outcome {
	return Outcome{Kind: OutcomeOK, Results: results, Status: StatusOK}
}

// Rejected builds an outcome for a provider that answered with a non-success status.
func Rejected(status string, httpStatus int) Outcome {
	return Outcome{Kind: OutcomeProviderRejected, Status: status, HTTPStatus: httpStatus}
}

// TransportFailure builds an outcome for a call that never got a usable answer.
func TransportFailure(cause error) Outcome {
	return Outcome{Kind: OutcomeTransportFailure, Cause: cause}
}

// OK reports whether the provider resolved the query.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeOK
}

// Err returns a classified *GeocodingError for failed outcomes and nil for
// successful ones.
func (o Outcome) Err() error {
	switch o.Kind {
	case OutcomeOK:
		return nil
	case OutcomeTransportFailure:
		errType := ErrorTypeNetworkError

		var netErr net.Error
		if errors.Is(o.Cause, context.DeadlineExceeded) || (errors.As(o.Cause, &netErr) && netErr.Timeout()) {
			errType = ErrorTypeTimeout
		}

		return &GeocodingError{
			Type:    errType,
			Message: "geocoding request failed",
			Err:     o.Cause,
		}
	default:
		var geoErr *GeocodingError
		if o.Status != "" {
			geoErr = ClassifyStatus(o.Status, o.Message)
		} else {
			geoErr = ClassifyHTTPError(o.HTTPStatus, o.Message)
		}

		return geoErr
	}
}

// Provider resolves coordinates or addresses into raw geocoding results.
// Implementations must be safe for concurrent use.
type Provider interface {
	ResolveByCoordinates(ctx context.Context, lat, lon float64) Outcome
	ResolveByAddress(ctx context.Context, address string) Outcome
}
