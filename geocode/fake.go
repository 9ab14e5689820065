// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"net/http"
	"strings"
	"sync"
)

// Coordinates keys canned reverse-geocoding answers.
type Coordinates struct {
	Lat float64
	Lon float64
}

// FakeProvider is an in-memory Provider returning canned outcomes. Unknown
// queries resolve to ZERO_RESULTS. It records every call so tests can assert
// that no lookup happened.
type FakeProvider struct {
	mu            sync.Mutex
	byCoordinates map[Coordinates]Outcome
	byAddress     map[string]Outcome
	calls         []string
}

// NewFakeProvider returns an empty FakeProvider.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		byCoordinates: make(map[Coordinates]Outcome),
		byAddress:     make(map[string]Outcome),
	}
}

// SetCoordinates registers the outcome for lat,lon.
func (f *FakeProvider) SetCoordinates(lat, lon float64, outcome Outcome) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.byCoordinates[Coordinates{Lat: lat, Lon: lon}] = outcome

	return f
}

// SetAddress registers the outcome for an address.
func (f *FakeProvider) SetAddress(address string, outcome Outcome) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.byAddress[strings.TrimSpace(address)] = outcome

	return f
}

// ResolveByCoordinates implements Provider.
func (f *FakeProvider) ResolveByCoordinates(_ context.Context, lat, lon float64) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, "latlng="+FormatLatLng(lat, lon))

	if outcome, ok := f.byCoordinates[Coordinates{Lat: lat, Lon: lon}]; ok {
		return outcome
	}

	return Rejected(StatusZeroResults, http.StatusOK)
}

// ResolveByAddress implements Provider.
func (f *FakeProvider) ResolveByAddress(_ context.Context, address string) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()

	address = strings.TrimSpace(address)
	f.calls = append(f.calls, "address="+address)

	if outcome, ok := f.byAddress[address]; ok {
		return outcome
	}

	return Rejected(StatusZeroResults, http.StatusOK)
}

// Calls returns the queries received so far, in order.
func (f *FakeProvider) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

// LocalityResult builds a result whose first component is the given locality,
// followed by any extra components.
func LocalityResult(locality string, extra ...AddressComponent) Result {
	components := []AddressComponent{{
		LongName:  locality,
		ShortName: locality,
		Types:     []string{LocalityType, "political"},
	}}

	return Result{
		AddressComponents: append(components, extra...),
		FormattedAddress:  locality,
	}
}
