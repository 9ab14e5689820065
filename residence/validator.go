// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

// Package residence enforces that users post from the locality they declared
// as their residence.
package residence

import (
	"context"
	"fmt"
	"log"

	"github.com/jcodagnone/jimoto/geocode"
)

// Validator checks registrations and post locations against a geocoding
// provider. It holds no mutable state and is safe for concurrent use.
type Validator struct {
	provider geocode.Provider
}

// NewValidator creates a validator. provider may be nil when every call is
// made in ModeBypass.
func NewValidator(provider geocode.Provider) *Validator {
	return &Validator{provider: provider}
}

// Ready returns a MissingCredential error when mode needs a provider and
// none is configured.
func (v *Validator) Ready(mode Mode) error {
	if mode == ModeEnforce && v.provider == nil {
		return newError(MissingCredential, msgMissingCredential)
	}

	return nil
}

// ValidateRegistration checks that prefecture+city resolves to a place. Any
// successful resolution is enough; no locality is extracted.
func (v *Validator) ValidateRegistration(ctx context.Context, prefecture, city string, mode Mode) error {
	if mode == ModeBypass {
		log.Printf("⚠️  development mode: skipping address validation (%s%s)", prefecture, city)

		return nil
	}

	if err := v.Ready(mode); err != nil {
		return err
	}

	outcome := v.provider.ResolveByAddress(ctx, prefecture+city)

	switch outcome.Kind {
	case geocode.OutcomeOK:
		return nil
	case geocode.OutcomeTransportFailure:
		log.Printf("⚠️  geocoding request error for %s%s: %v", prefecture, city, outcome.Cause)

		return &ValidationError{Kind: AddressNotFound, Message: msgAddressCheckFailed, Err: outcome.Err()}
	default:
		log.Printf("⚠️  geocoding status %s (HTTP %d) for %s%s", outcome.Status, outcome.HTTPStatus, prefecture, city)

		return &ValidationError{Kind: AddressNotFound, Message: msgAddressNotFound, Err: outcome.Err()}
	}
}

// ValidatePostLocation resolves lat,lon to a locality and checks it matches
// residenceCity. It returns the locality to store on the post.
func (v *Validator) ValidatePostLocation(
	ctx context.Context,
	lat, lon *float64,
	residenceCity string,
	mode Mode,
) (string, error) {
	if lat == nil || lon == nil {
		return "", newError(MissingCoordinates, msgMissingCoordinates)
	}

	if mode == ModeBypass {
		log.Printf("⚠️  development mode: skipping location validation (lat: %v, lng: %v)", *lat, *lon)

		return residenceCity, nil
	}

	if err := v.Ready(mode); err != nil {
		return "", err
	}

	outcome := v.provider.ResolveByCoordinates(ctx, *lat, *lon)

	switch outcome.Kind {
	case geocode.OutcomeOK:
	case geocode.OutcomeTransportFailure:
		log.Printf("⚠️  geocoding request error for %s: %v", geocode.FormatLatLng(*lat, *lon), outcome.Cause)

		return "", &ValidationError{Kind: GeocodeUnavailable, Message: msgLocationCheckFailed, Err: outcome.Err()}
	default:
		log.Printf("⚠️  geocoding status %s (HTTP %d) for %s", outcome.Status, outcome.HTTPStatus, geocode.FormatLatLng(*lat, *lon))

		return "", &ValidationError{Kind: GeocodeUnavailable, Message: msgGeocodeUnavailable, Err: outcome.Err()}
	}

	locality, ok := geocode.ExtractLocality(outcome.Results)
	if !ok {
		log.Printf("⚠️  no locality component for %s (%d results)", geocode.FormatLatLng(*lat, *lon), len(outcome.Results))

		return "", newError(LocalityUndeterminable, msgLocalityUndeterminable)
	}

	if locality != residenceCity {
		return "", &ValidationError{
			Kind: ResidenceMismatch,
			Message: fmt.Sprintf(
				"registered city (%s) does not match the city of the post location (%s)",
				residenceCity, locality,
			),
			Declared: residenceCity,
			Derived:  locality,
		}
	}

	return locality, nil
}
