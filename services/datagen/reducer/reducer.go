// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package reducer folds constraints into one FieldSpec per field.
package reducer

import (
	"maps"

	"github.com/AleutianAI/datagen/services/datagen/field"
	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
	"github.com/AleutianAI/datagen/services/datagen/profile"
)

// Specs maps a field name to its resolved FieldSpec.
type Specs map[string]fieldspec.FieldSpec

// Clone returns a shallow copy. FieldSpecs are immutable, so this is enough
// to give a caller a private accumulator.
func (s Specs) Clone() Specs { return maps.Clone(s) }

// Reducer merges atomic constraints and relations into per-field specs.
//
// Description:
//
//	Atomics are folded left to right through the merger; merge is
//	commutative and associative so the order does not change the result.
//	Relations are applied afterwards: each one narrows Main using Other's
//	resolved spec, and its inverse narrows Other using Main's. Relations
//	are re-applied until nothing changes or the pass limit is reached, so
//	chains such as a < b < c propagate.
//
// Thread Safety: Safe for concurrent use.
type Reducer struct {
	merger       *fieldspec.Merger
	preferFinest bool
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithPreferFinest keeps the finer granularity when linear restrictions
// merge. Use it when specs are being prepared for value output.
func WithPreferFinest() Option {
	return func(r *Reducer) { r.preferFinest = true }
}

// New creates a reducer.
func New(merger *fieldspec.Merger, opts ...Option) *Reducer {
	if merger == nil {
		merger = fieldspec.NewMerger()
	}
	r := &Reducer{merger: merger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Initial returns the unconstrained spec of every field. Non-nullable
// fields start not-null.
func (r *Reducer) Initial(fields field.Fields) Specs {
	out := make(Specs, len(fields))
	for _, f := range fields {
		var spec fieldspec.FieldSpec = fieldspec.FromType(f.Type)
		if !f.Nullable {
			// FromType is never NullOnly, so this cannot fail.
			spec, _ = spec.WithNotNull()
		}
		out[f.Name] = spec
	}
	return out
}

// Reduce resolves atomics and relations against a starting assignment.
//
// Inputs:
//
//	fields - The row shape. Fields missing from assumptions start from
//	         Initial.
//	atomics - Single-field constraints to fold in.
//	relations - Two-field constraints to apply once atomics are folded.
//	assumptions - Specs already established on this path. May be nil.
//	              Never modified.
//
// Outputs:
//
//	Specs - The reduced assignment when ok is true.
//	bool - False when any field became unsatisfiable.
//	error - Unsupported merges, such as two generators on one field.
func (r *Reducer) Reduce(fields field.Fields, atomics []profile.Atomic, relations []profile.Relation, assumptions Specs) (Specs, bool, error) {
	specs := r.Initial(fields)
	for name, spec := range assumptions {
		specs[name] = spec
	}

	for _, a := range atomics {
		ok, err := r.mergeInto(specs, a.Field().Name, a.ToFieldSpec())
		if err != nil || !ok {
			return nil, false, err
		}
	}

	ok, err := r.ApplyRelations(specs, relations)
	if err != nil || !ok {
		return nil, false, err
	}
	return specs, true, nil
}

// ApplyRelations narrows specs in place using relations.
//
// A relation whose field is missing from specs is skipped on this pass.
func (r *Reducer) ApplyRelations(specs Specs, relations []profile.Relation) (bool, error) {
	if len(relations) == 0 {
		return true, nil
	}
	for pass := 0; pass <= len(relations); pass++ {
		changed := false
		for _, rel := range relations {
			for _, directed := range []profile.Relation{rel, rel.Inverse()} {
				main, other := directed.Main().Name, directed.Other().Name
				otherSpec, found := specs[other]
				if _, hasMain := specs[main]; !found || !hasMain {
					continue
				}
				before := specs[main]
				ok, err := r.mergeInto(specs, main, directed.ModifierFromSpec(otherSpec))
				if err != nil || !ok {
					return false, err
				}
				if !fieldspec.Equal(before, specs[main]) {
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	return true, nil
}

// MergeSpec merges one spec into the named field in place.
func (r *Reducer) MergeSpec(specs Specs, name string, spec fieldspec.FieldSpec) (bool, error) {
	return r.mergeInto(specs, name, spec)
}

func (r *Reducer) mergeInto(specs Specs, name string, spec fieldspec.FieldSpec) (bool, error) {
	merged, ok, err := r.merger.Merge(specs[name], spec, r.preferFinest)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	specs[name] = merged
	return true, nil
}
