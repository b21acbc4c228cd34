// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine runs the full pipeline: compile a profile into a decision
// tree, split it into independent partitions, solve each partition and
// combine the results into row specs, then expand row specs into rows.
package engine

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/datagen/services/datagen/config"
	"github.com/AleutianAI/datagen/services/datagen/decisiontree"
	"github.com/AleutianAI/datagen/services/datagen/field"
	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
	"github.com/AleutianAI/datagen/services/datagen/generation"
	"github.com/AleutianAI/datagen/services/datagen/partition"
	"github.com/AleutianAI/datagen/services/datagen/profile"
	"github.com/AleutianAI/datagen/services/datagen/reducer"
	"github.com/AleutianAI/datagen/services/datagen/telemetry"
	"github.com/AleutianAI/datagen/services/datagen/walker"
)

const tracerName = "datagen.engine"

// Config configures an Engine.
type Config struct {
	// Solver selects picker, partitioning and concurrency.
	Solver config.SolverConfig

	// Generators backs the `generator` predicate. Defaults to
	// generation.NewRegistry().
	Generators *generation.Registry

	// Metrics may be nil.
	Metrics *telemetry.Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Engine is the entry point used by the CLI and the HTTP service.
//
// Thread Safety: Safe for concurrent use. Every call builds its own solver.
type Engine struct {
	cfg         config.SolverConfig
	generators  *generation.Registry
	loader      *profile.Loader
	factory     *decisiontree.Factory
	partitioner *partition.Partitioner
	reducer     *reducer.Reducer
	metrics     *telemetry.Metrics
	logger      *slog.Logger
}

// New creates an engine. Zero solver settings fall back to
// config.DefaultConfig().Solver.
func New(cfg Config) *Engine {
	if cfg.Solver == (config.SolverConfig{}) {
		cfg.Solver = config.DefaultConfig().Solver
	}
	if cfg.Solver.Concurrency < 1 {
		cfg.Solver.Concurrency = 1
	}
	if cfg.Generators == nil {
		cfg.Generators = generation.NewRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With(slog.String("component", "engine"))

	var opts []reducer.Option
	if cfg.Solver.PreferFinest {
		opts = append(opts, reducer.WithPreferFinest())
	}
	return &Engine{
		cfg:         cfg.Solver,
		generators:  cfg.Generators,
		loader:      profile.NewLoader(cfg.Generators),
		factory:     decisiontree.NewFactory(cfg.Logger),
		partitioner: partition.New(),
		reducer:     reducer.New(fieldspec.NewMerger(), opts...),
		metrics:     cfg.Metrics,
		logger:      logger,
	}
}

// Loader returns the profile loader bound to the engine's generators.
func (e *Engine) Loader() *profile.Loader { return e.loader }

// Compile turns a profile into the trees to solve: one per partition when
// partitioning is enabled, otherwise the whole tree.
func (e *Engine) Compile(ctx context.Context, p *profile.Profile) ([]*decisiontree.DecisionTree, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "Engine.Compile",
		trace.WithAttributes(
			attribute.Int("fields", len(p.Fields)),
			attribute.Int("constraints", len(p.Constraints)),
		))
	defer span.End()

	start := time.Now()
	tree, err := e.factory.Compile(p)
	if err != nil {
		telemetry.RecordError(span, err)
		e.metrics.RecordError(ctx, "engine", "Compile")
		return nil, err
	}

	trees := []*decisiontree.DecisionTree{tree}
	if e.cfg.Partition {
		trees = e.partitioner.Partition(tree)
	}
	e.metrics.RecordCompile(ctx, time.Since(start), len(trees))
	span.SetAttributes(attribute.Int("partitions", len(trees)))
	telemetry.SetSpanOK(span)

	e.logger.Debug("profile compiled", slog.Int("partitions", len(trees)))
	return trees, nil
}

func (e *Engine) newSolver() *walker.Solver {
	var picker walker.OptionPicker = walker.SequentialPicker{}
	if e.cfg.Picker == "random" {
		picker = walker.NewRandomPicker(e.cfg.Seed)
	}
	return walker.NewSolver(walker.Config{Picker: picker, Reducer: e.reducer, Logger: e.logger})
}

// RowSpecs returns every row spec of a profile.
//
// Description:
//
//	Partitions are combined as a cartesian product in field order. With
//	Concurrency 1 the first partition is streamed and the others are
//	solved up front; otherwise all partitions are solved concurrently and
//	each is capped at MaxRowSpecsPerPartition.
//
// Inputs:
//
//	ctx - Cancels solving.
//	p - The profile.
//
// Outputs:
//
//	iter.Seq2[*walker.RowSpec, error] - Lazy row specs, or one terminal
//	                                   error.
func (e *Engine) RowSpecs(ctx context.Context, p *profile.Profile) iter.Seq2[*walker.RowSpec, error] {
	return func(yield func(*walker.RowSpec, error) bool) {
		ctx, span := telemetry.StartSpan(ctx, tracerName, "Engine.RowSpecs")
		defer span.End()

		fail := func(err error) {
			telemetry.RecordError(span, err)
			e.metrics.RecordError(ctx, "engine", "RowSpecs")
			yield(nil, err)
		}

		trees, err := e.Compile(ctx, p)
		if err != nil {
			fail(err)
			return
		}

		solver := e.newSolver()
		count := 0
		emit := func(rs *walker.RowSpec) bool {
			count++
			e.metrics.RecordRowSpecs(ctx, 1)
			return yield(rs, nil)
		}
		defer func() { span.SetAttributes(attribute.Int("rowspecs", count)) }()

		if len(trees) == 1 {
			for rs, err := range e.capped(solver.Solve(ctx, trees[0])) {
				if err != nil {
					fail(err)
					return
				}
				if !emit(rs) {
					return
				}
			}
			return
		}

		var head iter.Seq2[*walker.RowSpec, error]
		var rest [][]*walker.RowSpec
		if e.cfg.Concurrency > 1 {
			all, err := e.solveConcurrently(ctx, solver, trees)
			if err != nil {
				fail(err)
				return
			}
			head, rest = sliceSeq(all[0]), all[1:]
		} else {
			for _, tree := range trees[1:] {
				specs, err := collect(e.capped(solver.Solve(ctx, tree)))
				if err != nil {
					fail(err)
					return
				}
				rest = append(rest, specs)
			}
			head = e.capped(solver.Solve(ctx, trees[0]))
		}

		for _, specs := range rest {
			if len(specs) == 0 {
				e.logger.Debug("partition unsatisfiable, no row specs")
				return
			}
		}
		for rs, err := range head {
			if err != nil {
				fail(err)
				return
			}
			if !product(p.Fields, []*walker.RowSpec{rs}, rest, emit) {
				return
			}
		}
	}
}

// solveConcurrently solves every partition, at most Concurrency at a time.
func (e *Engine) solveConcurrently(ctx context.Context, solver *walker.Solver, trees []*decisiontree.DecisionTree) ([][]*walker.RowSpec, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	results := make([][]*walker.RowSpec, len(trees))
	for i, tree := range trees {
		g.Go(func() error {
			specs, err := collect(e.capped(solver.Solve(gctx, tree)))
			if err != nil {
				return fmt.Errorf("partition %d: %w", i, err)
			}
			results[i] = specs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// capped stops seq after MaxRowSpecsPerPartition row specs when set.
func (e *Engine) capped(seq iter.Seq2[*walker.RowSpec, error]) iter.Seq2[*walker.RowSpec, error] {
	limit := e.cfg.MaxRowSpecsPerPartition
	if limit <= 0 {
		return seq
	}
	return func(yield func(*walker.RowSpec, error) bool) {
		n := 0
		for rs, err := range seq {
			if !yield(rs, err) || err != nil {
				return
			}
			n++
			if n == limit {
				return
			}
		}
	}
}

// Rows expands a profile's row specs into rows.
//
// Inputs:
//
//	ctx - Cancels solving and generation.
//	p - The profile.
//	mode - generation.ModeFull or generation.ModeRandom.
//	seed - Seeds random sampling.
//
// Outputs:
//
//	iter.Seq2[generation.Row, error] - Lazy rows. Random mode is unbounded;
//	                                   callers stop iterating at their limit.
func (e *Engine) Rows(ctx context.Context, p *profile.Profile, mode generation.Mode, seed uint64) iter.Seq2[generation.Row, error] {
	gen := generation.NewRowGenerator(generation.RowGeneratorConfig{Mode: mode, Seed: seed, Logger: e.logger})
	return func(yield func(generation.Row, error) bool) {
		ctx, span := telemetry.StartSpan(ctx, tracerName, "Engine.Rows",
			trace.WithAttributes(attribute.String("mode", string(mode))))
		defer span.End()

		for row, err := range gen.Generate(ctx, e.RowSpecs(ctx, p)) {
			if err != nil {
				telemetry.RecordError(span, err)
				yield(generation.Row{}, err)
				return
			}
			e.metrics.RecordRows(ctx, string(mode), 1)
			if !yield(row, nil) {
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func product(order field.Fields, prefix []*walker.RowSpec, rest [][]*walker.RowSpec, emit func(*walker.RowSpec) bool) bool {
	if len(rest) == 0 {
		return emit(walker.Combine(order, prefix...))
	}
	for _, rs := range rest[0] {
		if !product(order, append(prefix, rs), rest[1:], emit) {
			return false
		}
	}
	return true
}

func collect(seq iter.Seq2[*walker.RowSpec, error]) ([]*walker.RowSpec, error) {
	var out []*walker.RowSpec
	for rs, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, nil
}

func sliceSeq(specs []*walker.RowSpec) iter.Seq2[*walker.RowSpec, error] {
	return func(yield func(*walker.RowSpec, error) bool) {
		for _, rs := range specs {
			if !yield(rs, nil) {
				return
			}
		}
	}
}
