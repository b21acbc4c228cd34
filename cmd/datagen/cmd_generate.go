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
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/datagen/services/datagen/engine"
	"github.com/AleutianAI/datagen/services/datagen/generation"
	"github.com/AleutianAI/datagen/services/datagen/profile"
)

// generateOptions holds the flags of `datagen generate`.
type generateOptions struct {
	profilePath   string
	limit         int
	mode          string
	seed          uint64
	format        string
	rowsPerSecond float64
}

func newGenerateCmd(a *app) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate rows that satisfy a profile",
		Example: `  datagen generate -p profile.yaml -n 100 --mode random --seed 1
  datagen generate -p profile.yaml --mode full --format csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.profilePath, "profile", "p", "", "Profile file (YAML or JSON)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", -1,
		"Maximum rows. Defaults to generation.limit from the config; 0 means unbounded in full mode.")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Generation mode: full or random")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Random seed. Defaults to generation.seed from the config.")
	cmd.Flags().StringVar(&opts.format, "format", "json", "Output format: json or csv")
	cmd.Flags().Float64Var(&opts.rowsPerSecond, "rows-per-second", 0, "Throttle output. 0 disables throttling.")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	modeName := opts.mode
	if modeName == "" {
		modeName = a.cfg.Generation.Mode
	}
	mode, err := generation.ParseMode(modeName)
	if err != nil {
		return err
	}
	seed := a.cfg.Generation.Seed
	if cmd.Flags().Changed("seed") {
		seed = opts.seed
	}
	limit := opts.limit
	if limit < 0 {
		limit = a.cfg.Generation.Limit
	}
	if limit == 0 && mode == generation.ModeRandom {
		return errors.New("random mode is unbounded: set --limit")
	}

	eng := engine.New(engine.Config{Solver: a.cfg.Solver, Logger: a.logger.Slog()})
	p, err := eng.Loader().LoadFile(opts.profilePath)
	if err != nil {
		return err
	}

	out, err := newRowWriter(cmd.OutOrStdout(), opts.format, p)
	if err != nil {
		return err
	}

	var limiter *rate.Limiter
	if opts.rowsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.rowsPerSecond), 1)
	}

	start := time.Now()
	count := 0
	for row, err := range eng.Rows(ctx, p, mode, seed) {
		if err != nil {
			return err
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if err := out.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
		count++
		if count == limit {
			break
		}
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	a.logger.Info("generation complete",
		slog.String("profile", opts.profilePath),
		slog.String("mode", string(mode)),
		slog.Int("rows", count),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// -----------------------------------------------------------------------------
// Row output
// -----------------------------------------------------------------------------

// rowWriter writes generated rows in one output format.
type rowWriter interface {
	Write(row generation.Row) error
	Flush() error
}

func newRowWriter(w io.Writer, format string, p *profile.Profile) (rowWriter, error) {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		if isTerminal(w) {
			enc.SetIndent("", "  ")
		}
		return &jsonRowWriter{enc: enc}, nil
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(p.Fields.Names()); err != nil {
			return nil, err
		}
		return &csvRowWriter{w: cw}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q: want json or csv", format)
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// jsonRowWriter writes one JSON object per row.
type jsonRowWriter struct {
	enc *json.Encoder
}

func (j *jsonRowWriter) Write(row generation.Row) error { return j.enc.Encode(row) }
func (j *jsonRowWriter) Flush() error                   { return nil }

// csvRowWriter writes one record per row after the header written by
// newRowWriter. Nulls are empty cells.
type csvRowWriter struct {
	w *csv.Writer
}

func (c *csvRowWriter) Write(row generation.Row) error { return c.w.Write(row.Strings()) }

func (c *csvRowWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}
