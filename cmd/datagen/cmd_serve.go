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
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/datagen/services/datagen"
	"github.com/AleutianAI/datagen/services/datagen/engine"
	"github.com/AleutianAI/datagen/services/datagen/telemetry"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the datagen HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address. Overrides server.addr from the config.")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	logger := a.logger.Slog()

	telCfg := a.cfg.Telemetry
	telCfg.ServiceVersion = datagen.ServiceVersion
	shutdown, err := telemetry.Init(ctx, telCfg)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := telemetry.NewMetrics(otel.Meter("datagen"))
	if err != nil {
		return err
	}
	eng := engine.New(engine.Config{Solver: a.cfg.Solver, Metrics: metrics, Logger: logger})
	handlers := datagen.NewHandlers(eng, a.cfg, logger)
	return datagen.Serve(ctx, a.cfg.Server.Addr, datagen.NewRouter(handlers, metrics), logger)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the datagen version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "datagen %s\n", datagen.ServiceVersion)
		},
	}
}
