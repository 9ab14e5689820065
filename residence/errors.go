// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package residence

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies validation failures.
type Kind int

const (
	// MissingCoordinates means latitude or longitude was not supplied.
	MissingCoordinates Kind = iota + 1
	// MissingCredential means no provider credential is configured outside debug mode.
	MissingCredential
	// AddressNotFound means the declared residence could not be geocoded.
	AddressNotFound
	// GeocodeUnavailable means the post coordinates could not be geocoded.
	GeocodeUnavailable
	// LocalityUndeterminable means the geocode had no locality component.
	LocalityUndeterminable
	// ResidenceMismatch means the post locality differs from the declared residence city.
	ResidenceMismatch
)

func (k Kind) String() string {
	switch k {
	case MissingCoordinates:
		return "missing_coordinates"
	case MissingCredential:
		return "missing_credential"
	case AddressNotFound:
		return "address_not_found"
	case GeocodeUnavailable:
		return "geocode_unavailable"
	case LocalityUndeterminable:
		return "locality_undeterminable"
	case ResidenceMismatch:
		return "residence_mismatch"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	msgMissingCoordinates     = "location (latitude and longitude) is required"
	msgMissingCredential      = "a valid Google Geocoding API key is required in production"
	msgAddressNotFound        = "the address could not be found"
	msgAddressCheckFailed     = "an error occurred while verifying the address"
	msgGeocodeUnavailable     = "could not determine the city from the location"
	msgLocationCheckFailed    = "an error occurred while verifying the location"
	msgLocalityUndeterminable = "could not identify the city of the location"
)

// ValidationError is a user-facing validation failure. Message is safe to
// render to clients; Err carries the underlying cause for logs.
type ValidationError struct {
	Kind    Kind
	Message string

	// Declared and Derived are set for ResidenceMismatch.
	Declared string
	Derived  string

	Err error
}

func newError(kind Kind, message string) *ValidationError {
	return &ValidationError{Kind: kind, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// HTTPStatus is the status code the failure should be rendered with.
func (e *ValidationError) HTTPStatus() int {
	if e.Kind == MissingCredential {
		return http.StatusInternalServerError
	}

	return http.StatusBadRequest
}

// IsKind reports whether err is a ValidationError of the given kind.
func IsKind(err error, kind Kind) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind == kind
	}

	return false
}
