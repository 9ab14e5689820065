// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Re-check every stored post against its author's residence",
	Long: `Re-runs the locality check for every post. Posts created while
validation was bypassed, or whose authors moved, are reported.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
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

		var bar *progressbar.ProgressBar

		progress := func(done, total int) {
			if bar == nil && isatty.IsTerminal(os.Stderr.Fd()) {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Auditing posts"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}

			if bar == nil {
				log.Printf("Audited %d/%d", done, total)

				return
			}

			if err := bar.Add(1); err != nil {
				log.Printf("updating progress bar: %v", err)
			}
		}

		findings, err := svc.Audit(ctx, progress)
		if err != nil {
			return fmt.Errorf("auditing posts: %w", err)
		}

		for _, f := range findings {
			fmt.Printf("❌ post %d by %s (%s, lat %v, lng %v): %v\n",
				f.Post.ID, f.Post.Author.Username, f.Post.City, f.Post.Latitude, f.Post.Longitude, f.Err)
		}

		if len(findings) == 0 {
			fmt.Println("✅ every post matches its author's residence")

			return nil
		}

		return fmt.Errorf("%d posts failed the residence check", len(findings))
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
