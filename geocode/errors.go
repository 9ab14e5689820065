// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"errors"
	"fmt"
	"net/http"
)

// GeocodingError describes a failed geocoding call.
type GeocodingError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies geocoding failures.
type ErrorType int

const (
	// ErrorTypeUnknown is an unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit means the provider throttled us.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded means the quota is exhausted or the key was denied.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout means the call did not complete in time.
	ErrorTypeTimeout
	// ErrorTypeNotFound means the query resolved to nothing.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest means the query was malformed.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError means the provider could not be reached.
	ErrorTypeNetworkError
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeQuotaExceeded:
		return "quota_exceeded"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeInvalidRequest:
		return "invalid_request"
	case ErrorTypeNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

// IsRateLimitError reports whether err was caused by provider throttling.
func IsRateLimitError(err error) bool {
	return hasType(err, ErrorTypeRateLimit)
}

// IsQuotaExceededError reports whether err was caused by an exhausted quota
// or a denied key.
func IsQuotaExceededError(err error) bool {
	return hasType(err, ErrorTypeQuotaExceeded)
}

// IsTimeoutError reports whether err was caused by a timeout.
func IsTimeoutError(err error) bool {
	return hasType(err, ErrorTypeTimeout)
}

func hasType(err error, t ErrorType) bool {
	var geoErr *GeocodingError

	return errors.As(err, &geoErr) && geoErr.Type == t
}

// ClassifyHTTPError maps a non-200 HTTP status from the provider to a GeocodingError.
func ClassifyHTTPError(statusCode int, detail string) *GeocodingError {
	var geoErr *GeocodingError

	switch statusCode {
	case http.StatusTooManyRequests: // 429
		geoErr = &GeocodingError{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit reached",
		}
	case http.StatusForbidden: // 403
		geoErr = &GeocodingError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "quota exceeded or access denied",
		}
	case http.StatusBadRequest: // 400
		geoErr = &GeocodingError{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid request",
		}
	case http.StatusNotFound: // 404
		geoErr = &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: "location not found",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		geoErr = &GeocodingError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		geoErr = &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("HTTP error %d", statusCode),
		}
	}

	if detail != "" {
		geoErr.Message += ": " + detail
	}

	return geoErr
}

// ClassifyStatus maps a provider `status` value other than OK to a GeocodingError.
func ClassifyStatus(status string, detail string) *GeocodingError {
	var geoErr *GeocodingError

	switch status {
	case StatusZeroResults:
		geoErr = &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: "no results found",
		}
	case StatusOverQueryLimit:
		geoErr = &GeocodingError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "google maps status: " + StatusOverQueryLimit,
		}
	case StatusRequestDenied:
		geoErr = &GeocodingError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "request denied",
		}
	case StatusInvalidRequest:
		geoErr = &GeocodingError{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid request",
		}
	default:
		geoErr = &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: "google maps status: " + status,
		}
	}

	if detail != "" {
		geoErr.Message += ": " + detail
	}

	return geoErr
}
