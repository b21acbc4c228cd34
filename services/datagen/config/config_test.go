// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoad_WritesDefaultsOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "datagen.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sequential", cfg.Solver.Picker)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "picker: sequential")
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datagen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("solver:\n  picker: random\n  seed: 7\n  concurrency: 4\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "random", cfg.Solver.Picker)
	assert.Equal(t, uint64(7), cfg.Solver.Seed)
	assert.Equal(t, 4, cfg.Solver.Concurrency)
	assert.True(t, cfg.Solver.Partition, "unset keys keep defaults")
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad picker", "solver:\n  picker: clever\n"},
		{"zero concurrency", "solver:\n  concurrency: 0\n"},
		{"bad mode", "generation:\n  mode: sometimes\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"tiny body limit", "server:\n  max_profile_bytes: 10\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "datagen.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))
			_, err := Load(path)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datagen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("solver: [unterminated"), 0644))
	_, err := Load(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}
