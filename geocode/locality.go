// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import "slices"

// LocalityType is the address component type tag for a city/ward-level name.
const LocalityType = "locality"

// ExtractLocality returns the long name of the "locality" component of the
// first result. Only the first result is consulted; ambiguous geocodes are
// not disambiguated.
func ExtractLocality(results []Result) (string, bool) {
	if len(results) == 0 {
		return "", false
	}

	for _, component := range results[0].AddressComponents {
		if slices.Contains(component.Types, LocalityType) {
			return component.LongName, true
		}
	}

	return "", false
}
