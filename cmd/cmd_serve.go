// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/jimoto/auth"
	"github.com/jcodagnone/jimoto/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}

		if !cfg.Debug {
			gin.SetMode(gin.ReleaseMode)
		}

		svc, db, err := openService(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
		if err != nil {
			return fmt.Errorf("creating token manager: %w", err)
		}

		return server.NewServer(svc, tokens, cfg.Debug).Run(ctx, cfg.ListenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
