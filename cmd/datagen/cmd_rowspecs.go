// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/datagen/services/datagen/engine"
)

func newRowSpecsCmd(a *app) *cobra.Command {
	var (
		profilePath string
		limit       int
	)
	cmd := &cobra.Command{
		Use:   "rowspecs",
		Short: "Print the row specs a profile compiles to",
		Long: `rowspecs solves a profile without generating values. Each line is one
row spec: a restriction per field plus any relations between fields.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := engine.New(engine.Config{Solver: a.cfg.Solver, Logger: a.logger.Slog()})
			p, err := eng.Loader().LoadFile(profilePath)
			if err != nil {
				return err
			}
			count := 0
			for rs, err := range eng.RowSpecs(cmd.Context(), p) {
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), rs.String())
				count++
				if count == limit {
					break
				}
			}
			a.logger.Info("row specs listed", slog.String("profile", profilePath), slog.Int("count", count))
			return nil
		},
	}
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "Profile file (YAML or JSON)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum row specs. 0 lists all of them.")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}
