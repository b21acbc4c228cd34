// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package generation

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"math/rand/v2"

	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
	"github.com/AleutianAI/datagen/services/datagen/walker"
)

// Mode selects how row specs become rows.
type Mode string

const (
	// ModeFull enumerates every combination of legal values per row spec.
	ModeFull Mode = "full"

	// ModeRandom draws one random row per row spec in turn, forever.
	ModeRandom Mode = "random"
)

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("unknown generation mode")

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFull, ModeRandom:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// maxRowAttempts bounds retries of a random row whose relations could not
// be satisfied by the values drawn so far.
const maxRowAttempts = 100

// RowGeneratorConfig configures a RowGenerator.
type RowGeneratorConfig struct {
	Mode Mode
	Seed uint64

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// RowGenerator expands row specs into rows.
//
// Description:
//
//	Fields are generated in row order. Before a field is generated its
//	spec is narrowed by every relation whose other side already has a
//	value, using the inverse relation when the field is the relation's
//	Other. A field whose narrowed spec is unsatisfiable abandons the
//	partial row: full mode backtracks, random mode redraws the row.
//
// Thread Safety: Not safe for concurrent use; the random source is shared
// by all calls.
type RowGenerator struct {
	mode   Mode
	rng    *rand.Rand
	merger *fieldspec.Merger
	logger *slog.Logger
}

// NewRowGenerator creates a generator. An empty mode means ModeRandom.
func NewRowGenerator(cfg RowGeneratorConfig) *RowGenerator {
	if cfg.Mode == "" {
		cfg.Mode = ModeRandom
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &RowGenerator{
		mode:   cfg.Mode,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5851f42d4c957f2d)),
		merger: fieldspec.NewMerger(),
		logger: cfg.Logger.With(slog.String("component", "generation.rows")),
	}
}

// Generate turns a row spec sequence into rows.
//
// Inputs:
//
//	ctx - Checked before each row.
//	specs - Row specs, typically from the solver. An error ends the
//	        sequence after being passed on.
//
// Outputs:
//
//	iter.Seq2[Row, error] - Lazy rows. Random mode never ends on its own
//	                        when at least one row spec yields rows.
func (g *RowGenerator) Generate(ctx context.Context, specs iter.Seq2[*walker.RowSpec, error]) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		if g.mode == ModeFull {
			for rs, err := range specs {
				if err != nil {
					yield(Row{}, err)
					return
				}
				if !g.fullRows(ctx, rs, yield) {
					return
				}
			}
			return
		}
		g.randomRows(ctx, specs, yield)
	}
}

func (g *RowGenerator) fullRows(ctx context.Context, rs *walker.RowSpec, yield func(Row, error) bool) bool {
	fields := rs.Fields()
	names := fields.Names()
	values := make(map[string]any, len(fields))

	var fill func(i int) bool
	fill = func(i int) bool {
		if i == len(fields) {
			if err := ctx.Err(); err != nil {
				yield(Row{}, err)
				return false
			}
			return yield(NewRow(names, maps.Clone(values)), nil)
		}
		name := fields[i].Name
		spec, ok, err := g.narrowed(rs, name, values)
		if err != nil {
			yield(Row{}, err)
			return false
		}
		if !ok {
			return true
		}
		for v := range SourceFor(spec).AllValues() {
			values[name] = v
			if !fill(i + 1) {
				return false
			}
		}
		delete(values, name)
		return true
	}
	return fill(0)
}

func (g *RowGenerator) randomRows(ctx context.Context, specs iter.Seq2[*walker.RowSpec, error], yield func(Row, error) bool) {
	var drawn []*walker.RowSpec
	emit := func(rs *walker.RowSpec) (produced, more bool) {
		if err := ctx.Err(); err != nil {
			yield(Row{}, err)
			return false, false
		}
		row, ok, err := g.randomRow(rs)
		if err != nil {
			yield(Row{}, err)
			return false, false
		}
		if !ok {
			return false, true
		}
		return true, yield(row, nil)
	}

	for rs, err := range specs {
		if err != nil {
			yield(Row{}, err)
			return
		}
		drawn = append(drawn, rs)
		if _, more := emit(rs); !more {
			return
		}
	}

	for len(drawn) > 0 {
		progress := false
		for _, rs := range drawn {
			produced, more := emit(rs)
			if !more {
				return
			}
			progress = progress || produced
		}
		if !progress {
			g.logger.Warn("no row spec produced a row", slog.Int("row_specs", len(drawn)))
			return
		}
	}
}

// randomRow draws one row, or reports false when every attempt hit an
// unsatisfiable field.
func (g *RowGenerator) randomRow(rs *walker.RowSpec) (Row, bool, error) {
	fields := rs.Fields()
	names := fields.Names()

attempts:
	for range maxRowAttempts {
		values := make(map[string]any, len(fields))
		for _, f := range fields {
			spec, ok, err := g.narrowed(rs, f.Name, values)
			if err != nil {
				return Row{}, false, err
			}
			if !ok {
				continue attempts
			}
			v, ok := first(SourceFor(spec).RandomValues(g.rng))
			if !ok {
				continue attempts
			}
			values[f.Name] = v
		}
		return NewRow(names, values), true, nil
	}
	return Row{}, false, nil
}

// narrowed returns a field's spec restricted by relations to the values
// generated so far.
func (g *RowGenerator) narrowed(rs *walker.RowSpec, name string, values map[string]any) (fieldspec.FieldSpec, bool, error) {
	spec := rs.Spec(name)
	for _, rel := range rs.Relations() {
		var modifier fieldspec.FieldSpec
		switch {
		case rel.Main().Name == name:
			if v, done := values[rel.Other().Name]; done {
				modifier = rel.ModifierFromValue(v)
			}
		case rel.Other().Name == name:
			if v, done := values[rel.Main().Name]; done {
				modifier = rel.Inverse().ModifierFromValue(v)
			}
		}
		if modifier == nil {
			continue
		}
		// Relation modifiers sit on the finest grid; the field keeps its own.
		merged, ok, err := g.merger.Merge(spec, modifier, false)
		if err != nil || !ok {
			return nil, false, err
		}
		spec = merged
	}
	return spec, true, nil
}

func first(seq iter.Seq[any]) (any, bool) {
	for v := range seq {
		return v, true
	}
	return nil, false
}
