// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package walker searches a decision tree for satisfiable row specs.
package walker

import (
	"context"
	"iter"
	"log/slog"
	"slices"

	"github.com/AleutianAI/datagen/services/datagen/decisiontree"
	"github.com/AleutianAI/datagen/services/datagen/field"
	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
	"github.com/AleutianAI/datagen/services/datagen/reducer"
)

// Config configures a Solver.
type Config struct {
	// Picker chooses branching order. Defaults to SequentialPicker.
	Picker OptionPicker

	// Reducer folds constraints. Defaults to reducer.New(nil).
	Reducer *reducer.Reducer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Solver walks decision trees depth first.
//
// Description:
//
//	Solving starts by reducing the root's atomics and relations. Each step
//	then picks a pending decision and tries its options in picker order.
//	Before descending, the option is merged into the accumulator and every
//	other pending decision is pruned against the result. A path with no
//	pending decision left is emitted as a RowSpec. Unsatisfiable paths are
//	skipped silently; unsupported merges abort the solve.
//
// Thread Safety: Safe for concurrent use if the picker is. Each call to
// Solve owns its accumulator.
type Solver struct {
	picker  OptionPicker
	reducer *reducer.Reducer
	pruner  *Pruner
	logger  *slog.Logger
}

// NewSolver creates a solver.
func NewSolver(cfg Config) *Solver {
	if cfg.Picker == nil {
		cfg.Picker = SequentialPicker{}
	}
	if cfg.Reducer == nil {
		cfg.Reducer = reducer.New(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Solver{
		picker:  cfg.Picker,
		reducer: cfg.Reducer,
		pruner:  NewPruner(cfg.Reducer),
		logger:  cfg.Logger.With(slog.String("component", "walker.solver")),
	}
}

// Solve returns the row specs of tree as a lazy sequence.
//
// Description:
//
//	Row specs are produced only as the caller iterates; stopping early
//	abandons the search. The sequence is finite. Iterating it again runs
//	the search again from the start.
//
// Inputs:
//
//	ctx - Checked between steps. Cancellation yields ctx.Err() once.
//	tree - The tree to solve. Must not be nil.
//
// Outputs:
//
//	iter.Seq2[*RowSpec, error] - Row specs, or a single terminal error
//	                            wrapped in *fieldspec.OperationError.
func (s *Solver) Solve(ctx context.Context, tree *decisiontree.DecisionTree) iter.Seq2[*RowSpec, error] {
	return func(yield func(*RowSpec, error) bool) {
		root := tree.Root
		specs, ok, err := s.reducer.Reduce(tree.Fields, root.Atomics(), root.Relations(), nil)
		if err != nil {
			s.fail(yield, err)
			return
		}
		if !ok {
			s.logger.Debug("root unsatisfiable", slog.Int("fields", len(tree.Fields)))
			return
		}

		st, ok, err := s.pruner.Prune(tree.Fields, pathState{
			specs:     specs,
			relations: root.Relations(),
			pending:   root.Decisions(),
		})
		if err != nil {
			s.fail(yield, err)
			return
		}
		if !ok {
			s.logger.Debug("root unsatisfiable after pruning", slog.Int("decisions", len(root.Decisions())))
			return
		}
		s.walk(ctx, tree.Fields, st, yield)
	}
}

// walk returns false once the consumer stops or the solve fails.
func (s *Solver) walk(ctx context.Context, fields field.Fields, st pathState, yield func(*RowSpec, error) bool) bool {
	if err := ctx.Err(); err != nil {
		yield(nil, err)
		return false
	}
	if len(st.pending) == 0 {
		rowSpecsEmitted.Inc()
		return yield(NewRowSpec(fields, st.specs, st.relations), nil)
	}

	i := s.picker.PickDecision(st.pending)
	decision := st.pending[i]
	rest := slices.Delete(slices.Clone(st.pending), i, i+1)

	for _, option := range s.picker.OrderOptions(decision) {
		next, ok, err := s.pruner.apply(fields, pathState{specs: st.specs, relations: st.relations, pending: rest}, option)
		if err == nil && ok {
			next, ok, err = s.pruner.Prune(fields, next)
		}
		if err != nil {
			s.fail(yield, err)
			return false
		}
		if !ok {
			optionsPruned.WithLabelValues("branch").Inc()
			continue
		}

		branchesExplored.Inc()
		if !s.walk(ctx, fields, next, yield) {
			return false
		}
	}
	return true
}

func (s *Solver) fail(yield func(*RowSpec, error) bool, err error) {
	solveErrors.Inc()
	s.logger.Error("solve failed", slog.String("error", err.Error()))
	yield(nil, &fieldspec.OperationError{Component: "walker", Operation: "Solve", Err: err})
}
