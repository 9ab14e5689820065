// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/jcodagnone/jimoto/social"
	"github.com/spf13/cobra"
)

const defaultSeedFile = "cmd/testdata/seed.json"

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Seeds the database with demo users and posts from " + defaultSeedFile,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultSeedFile
			if len(args) > 0 {
				path = args[0]
			}

			ctx := cmd.Context()

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			svc, db, err := openService(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			users, posts, err := social.ImportFromJSON(ctx, svc, path)
			if err != nil {
				return err
			}

			fmt.Printf("✅ Seeded %d users and %d posts from %s\n", users, posts, path)

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newSeedCmd())
}
