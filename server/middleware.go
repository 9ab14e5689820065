// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/jimoto/auth"
)

const userIDKey = "userID"

// authenticate reads a bearer access token. A missing header is rejected only
// when required; a bad token is always rejected.
func (s *Server) authenticate(required bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if header == "" {
			if required {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication credentials were not provided"})

				return
			}

			ctx.Next()

			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header must be a Bearer token"})

			return
		}

		claims, err := s.tokens.Validate(strings.TrimSpace(token), auth.TokenTypeAccess)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

			return
		}

		userID, err := claims.UserID()
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

			return
		}

		ctx.Set(userIDKey, userID)
		ctx.Next()
	}
}

// requireUser rejects requests that authenticate(false) left anonymous.
func (s *Server) requireUser(ctx *gin.Context) {
	if viewerID(ctx) == 0 {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication credentials were not provided"})

		return
	}

	ctx.Next()
}

// viewerID returns the authenticated user, or 0 for anonymous requests.
func viewerID(ctx *gin.Context) int64 {
	return ctx.GetInt64(userIDKey)
}

func paramID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})

		return 0, false
	}

	return id, true
}
