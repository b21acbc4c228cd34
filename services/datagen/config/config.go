// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the datagen YAML configuration.
//
// A missing file is created with DefaultConfig on first load, so the
// defaults are always visible and editable on disk. Keys absent from an
// existing file keep their default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/datagen/services/datagen/telemetry"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root of datagen.yaml.
type Config struct {
	Solver     SolverConfig     `yaml:"solver"`
	Generation GenerationConfig `yaml:"generation"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telemetry  telemetry.Config `yaml:"telemetry"`
}

// SolverConfig controls how decision trees are walked.
type SolverConfig struct {
	// Picker orders decisions and options: "sequential" or "random".
	Picker string `yaml:"picker" validate:"oneof=sequential random"`

	// Seed drives the random picker.
	Seed uint64 `yaml:"seed"`

	// PreferFinest merges granularities to the finer one instead of the
	// coarser one.
	PreferFinest bool `yaml:"prefer_finest"`

	// Partition solves independent field groups separately and combines
	// the results.
	Partition bool `yaml:"partition"`

	// Concurrency bounds partitions solved at once. 1 solves lazily in
	// sequence.
	Concurrency int `yaml:"concurrency" validate:"min=1,max=64"`

	// MaxRowSpecsPerPartition caps each partition's row specs when solving
	// concurrently. 0 means no cap.
	MaxRowSpecsPerPartition int `yaml:"max_rowspecs_per_partition" validate:"min=0"`
}

// GenerationConfig holds defaults for row generation.
type GenerationConfig struct {
	// Mode is "full" or "random".
	Mode string `yaml:"mode" validate:"oneof=full random"`

	Seed uint64 `yaml:"seed"`

	// Limit is the default row count. 0 means unlimited, which never ends
	// in random mode.
	Limit int `yaml:"limit" validate:"min=0"`
}

// ServerConfig configures `datagen serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`

	// MaxLimit caps the limit a request may ask for.
	MaxLimit int `yaml:"max_limit" validate:"min=1"`

	// MaxProfileBytes caps request bodies.
	MaxProfileBytes int64 `yaml:"max_profile_bytes" validate:"min=1024"`
}

// LoggingConfig maps onto pkg/logging.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
	Dir   string `yaml:"dir"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() Config {
	return Config{
		Solver: SolverConfig{
			Picker:      "sequential",
			Partition:   true,
			Concurrency: 1,
		},
		Generation: GenerationConfig{
			Mode:  "random",
			Limit: 100,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MaxLimit:        10000,
			MaxProfileBytes: 1 << 20,
		},
		Logging:   LoggingConfig{Level: "info"},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// DefaultPath returns ~/.datagen/datagen.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".datagen", "datagen.yaml"), nil
}

// Load reads and validates the config at path.
//
// Inputs:
//
//	path - YAML file. Created with defaults when it does not exist.
//
// Outputs:
//
//	Config - Defaults overlaid with the file's values.
//	error - I/O and parse failures, or ErrInvalidConfig.
func Load(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := writeDefault(path); err != nil {
			return Config{}, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

var validate = validator.New()

// Validate checks every section's constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("%w: %s failed %q (got %v)", ErrInvalidConfig, e.Namespace(), e.Tag(), e.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
