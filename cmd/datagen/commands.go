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

	"github.com/AleutianAI/datagen/pkg/logging"
	"github.com/AleutianAI/datagen/services/datagen/config"
)

// app carries state shared by every subcommand once the root's
// PersistentPreRunE has run.
type app struct {
	configPath string
	logLevel   string
	logJSON    bool

	cfg    config.Config
	logger *logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "datagen",
		Short: "Generate synthetic data that satisfies a constraint profile",
		Long: `datagen compiles a profile of fields and constraints into decision
trees, solves them into row specs and generates rows from those specs.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger == nil {
				return nil
			}
			return a.logger.Close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "",
		"Path to a YAML config file. Built-in defaults are used when empty.")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"Log level: debug, info, warn or error. Overrides the config file.")
	rootCmd.PersistentFlags().BoolVar(&a.logJSON, "log-json", false, "Write logs to stderr as JSON lines.")

	rootCmd.AddCommand(newGenerateCmd(a))
	rootCmd.AddCommand(newRowSpecsCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// setup loads the config and installs the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.cfg = config.DefaultConfig()
	if a.configPath != "" {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	levelName := a.cfg.Logging.Level
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}

	a.logger = logging.New(logging.Config{
		Level:  level,
		LogDir: a.cfg.Logging.Dir,
		JSON:   a.logJSON || a.cfg.Logging.JSON,
		Writer: cmd.ErrOrStderr(),
	})
	slog.SetDefault(a.logger.Slog())
	a.logger.Debug("configuration loaded", slog.String("config", a.configPath), slog.String("level", level.String()))
	return nil
}
