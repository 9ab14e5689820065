// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/jimoto/auth"
	"github.com/jcodagnone/jimoto/geocode"
	"github.com/jcodagnone/jimoto/residence"
	"github.com/jcodagnone/jimoto/social"
)

// renderError writes err with the status its type calls for.
func renderError(ctx *gin.Context, err error) {
	var ve *residence.ValidationError

	switch {
	case errors.As(err, &ve):
		if ve.Err != nil {
			log.Printf("⚠️ %s %s (%s): %v", ctx.Request.Method, ctx.Request.URL.Path, geocodeCause(ve.Err), err)
		}

		ctx.JSON(ve.HTTPStatus(), gin.H{"error": ve.Message, "code": ve.Kind.String()})
	case errors.Is(err, social.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, social.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{"error": "you can only modify your own content"})
	case errors.Is(err, social.ErrUsernameTaken),
		errors.Is(err, social.ErrEmailTaken),
		errors.Is(err, social.ErrInvalidInput):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ %s %s: %v", ctx.Request.Method, ctx.Request.URL.Path, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// geocodeCause labels the provider failure behind a validation error so
// throttling and timeouts stand apart from places that do not resolve.
func geocodeCause(err error) string {
	switch {
	case geocode.IsRateLimitError(err):
		return "rate limited"
	case geocode.IsQuotaExceededError(err):
		return "quota exceeded"
	case geocode.IsTimeoutError(err):
		return "timeout"
	default:
		return "geocoding failed"
	}
}
