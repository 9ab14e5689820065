// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the social service over HTTP.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/jimoto/auth"
	"github.com/jcodagnone/jimoto/social"
)

// Server serves the social API over gin.
type Server struct {
	svc    *social.Service
	tokens *auth.TokenManager
	debug  bool
}

// NewServer creates a server. debug is reported by the health check.
func NewServer(svc *social.Service, tokens *auth.TokenManager, debug bool) *Server {
	return &Server{svc: svc, tokens: tokens, debug: debug}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/health", s.health)

	users := r.Group("/api/users")
	users.POST("/register", s.register)
	users.POST("/login", s.login)
	users.POST("/token/refresh", s.refreshToken)
	users.GET("/me", s.authenticate(true), s.me)

	posts := r.Group("/api/posts", s.authenticate(false))
	posts.POST("", s.requireUser, s.createPost)
	posts.GET("/list", s.listPosts)
	posts.GET("/myposts", s.requireUser, s.myPosts)
	posts.GET("/nearby", s.nearbyPosts)
	posts.GET("/:id", s.getPost)
	posts.PATCH("/:id", s.requireUser, s.updatePost)
	posts.DELETE("/:id", s.requireUser, s.deletePost)
	posts.GET("/:id/comments", s.listComments)
	posts.POST("/:id/comments/add", s.requireUser, s.addComment)
	posts.POST("/:id/like", s.requireUser, s.togglePostLike)
	posts.GET("/comments/:id", s.getComment)
	posts.PATCH("/comments/:id", s.requireUser, s.updateComment)
	posts.DELETE("/comments/:id", s.requireUser, s.deleteComment)
	posts.POST("/comments/:id/like", s.requireUser, s.toggleCommentLike)

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Printf("🚀 Listening on http://%s (geocoding: %s)", addr, s.svc.Mode())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) health(ctx *gin.Context) {
	status := "healthy"
	database := "connected"
	checks := []string{}

	if err := s.svc.Repository().Ping(ctx.Request.Context()); err != nil {
		log.Printf("Database health check failed: %v", err)

		status = "unhealthy"
		database = "error"
		checks = append(checks, "database_connection: FAILED - "+err.Error())
	} else {
		checks = append(checks, "database_connection: OK")
	}

	checks = append(checks, "geocoding_mode: "+s.svc.Mode().String())

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	ctx.JSON(code, gin.H{
		"status":   status,
		"database": database,
		"debug":    s.debug,
		"checks":   checks,
	})
}
