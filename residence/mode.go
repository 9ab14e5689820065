// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package residence

import "strings"

// PlaceholderCredential is the sample value shipped in example configuration.
// It means "no provider credential configured".
const PlaceholderCredential = "your-google-api-key-here"

// Mode selects whether locality checks call the geocoding provider.
type Mode int

const (
	// ModeEnforce calls the provider and enforces residence consistency.
	ModeEnforce Mode = iota
	// ModeBypass skips geocoding entirely. Only for credential-less local development.
	ModeBypass
)

func (m Mode) String() string {
	if m == ModeBypass {
		return "bypass"
	}

	return "enforce"
}

// CredentialConfigured reports whether credential looks like a real key.
func CredentialConfigured(credential string) bool {
	credential = strings.TrimSpace(credential)

	return credential != "" && credential != PlaceholderCredential
}

// DetermineMode derives the validation mode from the debug flag and the
// provider credential. A missing credential outside debug is a configuration
// error, never a silent bypass.
func DetermineMode(debug bool, credential string) (Mode, error) {
	if CredentialConfigured(credential) {
		return ModeEnforce, nil
	}

	if debug {
		return ModeBypass, nil
	}

	return ModeEnforce, newError(MissingCredential, msgMissingCredential)
}
