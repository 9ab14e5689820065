// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/jimoto/social"
)

type RegisterRequest struct {
	Username            string `json:"username" binding:"required"`
	Email               string `json:"email" binding:"required,email"`
	Password            string `json:"password" binding:"required"`
	ResidencePrefecture string `json:"residence_prefecture" binding:"required"`
	ResidenceCity       string `json:"residence_city" binding:"required"`
}

func (s *Server) register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	user, err := s.svc.Register(ctx.Request.Context(), social.RegisterInput(req))
	if err != nil {
		renderError(ctx, err)

		return
	}

	ctx.JSON(http.StatusCreated, user)
}

// LoginRequest accepts either a username or an email.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	login := req.Email
	if login == "" {
		login = req.Username
	}

	user, err := s.svc.Authenticate(ctx.Request.Context(), login, req.Password)
	if err != nil {
		renderError(ctx, err)

		return
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Username)
	if err != nil {
		renderError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"access":   pair.Access,
		"refresh":  pair.Refresh,
		"username": user.Username,
	})
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

func (s *Server) refreshToken(ctx *gin.Context) {
	var req RefreshRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	access, err := s.tokens.Refresh(req.Refresh)
	if err != nil {
		renderError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"access": access})
}

func (s *Server) me(ctx *gin.Context) {
	user, err := s.svc.User(ctx.Request.Context(), viewerID(ctx))
	if err != nil {
		renderError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, user)
}
