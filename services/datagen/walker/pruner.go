// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package walker

import (
	"slices"

	"github.com/AleutianAI/datagen/services/datagen/decisiontree"
	"github.com/AleutianAI/datagen/services/datagen/field"
	"github.com/AleutianAI/datagen/services/datagen/profile"
	"github.com/AleutianAI/datagen/services/datagen/reducer"
)

// pathState is the accumulator of one traversal path. Every transition
// returns a new state; the parent's slices and map are never written.
type pathState struct {
	specs     reducer.Specs
	relations []profile.Relation
	pending   []*decisiontree.DecisionNode
}

// Pruner performs forward checking on pending decisions.
//
// Thread Safety: Safe for concurrent use.
type Pruner struct {
	reducer *reducer.Reducer
}

// NewPruner creates a pruner over r.
func NewPruner(r *reducer.Reducer) *Pruner {
	return &Pruner{reducer: r}
}

// apply takes option o on top of st. Its nested decisions become pending.
func (p *Pruner) apply(fields field.Fields, st pathState, o *decisiontree.ConstraintNode) (pathState, bool, error) {
	relations := append(slices.Clone(st.relations), o.Relations()...)
	specs, ok, err := p.reducer.Reduce(fields, o.Atomics(), relations, st.specs)
	if err != nil || !ok {
		return pathState{}, false, err
	}
	return pathState{
		specs:     specs,
		relations: relations,
		pending:   append(slices.Clone(st.pending), o.Decisions()...),
	}, true, nil
}

// feasible reports whether o's own atomics and relations fit st. Nested
// decisions are not inspected.
func (p *Pruner) feasible(fields field.Fields, st pathState, o *decisiontree.ConstraintNode) (bool, error) {
	if len(o.Atomics()) == 0 && len(o.Relations()) == 0 {
		return true, nil
	}
	relations := append(slices.Clone(st.relations), o.Relations()...)
	_, ok, err := p.reducer.Reduce(fields, o.Atomics(), relations, st.specs)
	return ok, err
}

// Prune removes infeasible options from every pending decision.
//
// Description:
//
//	A decision left with no option makes the path unsatisfiable. A
//	decision left with one option is taken immediately: its constraints
//	join the accumulator and its nested decisions join the pending list.
//	Taking an option narrows the accumulator, so pruning repeats until no
//	decision collapses.
//
// Outputs:
//
//	pathState - The pruned state when ok is true.
//	bool - False when the path cannot be completed.
//	error - Unsupported merges.
func (p *Pruner) Prune(fields field.Fields, st pathState) (pathState, bool, error) {
	for {
		collapsed := false
		queue := slices.Clone(st.pending)
		kept := make([]*decisiontree.DecisionNode, 0, len(queue))

		for i := 0; i < len(queue); i++ {
			d := queue[i]
			all := d.Options()
			options := make([]*decisiontree.ConstraintNode, 0, len(all))
			for _, o := range all {
				ok, err := p.feasible(fields, st, o)
				if err != nil {
					return pathState{}, false, err
				}
				if ok {
					options = append(options, o)
				} else {
					optionsPruned.WithLabelValues("lookahead").Inc()
				}
			}

			switch len(options) {
			case 0:
				return pathState{}, false, nil
			case 1:
				taken, ok, err := p.apply(fields, pathState{specs: st.specs, relations: st.relations}, options[0])
				if err != nil || !ok {
					return pathState{}, false, err
				}
				st.specs, st.relations = taken.specs, taken.relations
				queue = append(queue, taken.pending...)
				collapsed = true
			default:
				if len(options) < len(all) {
					d = d.WithOptions(options)
				}
				kept = append(kept, d)
			}
		}

		st.pending = kept
		if !collapsed {
			return st, true, nil
		}
	}
}
