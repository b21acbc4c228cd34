// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package generation turns row specs into concrete rows.
//
// SourceFor maps every FieldSpec variant to a fieldspec.ValueSource that
// can enumerate legal values or sample them from a seeded random source.
// RowGenerator combines per-field sources into rows, enforcing relations
// between already generated values.
package generation

import (
	"iter"
	"math/rand/v2"
	"sort"

	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
	"github.com/AleutianAI/datagen/services/datagen/restrictions"
)

// nullProbability is the chance a nullable source samples null.
const nullProbability = 0.05

// maxRejections bounds consecutive rejected samples before a random
// stream gives up.
const maxRejections = 1000

// SourceFor returns the value source of a spec.
//
// Inputs:
//
//	spec - Any FieldSpec. Nil is treated as NullOnly.
//
// Outputs:
//
//	fieldspec.ValueSource - Never nil. Nullable specs also produce null:
//	                        last when enumerating, occasionally when
//	                        sampling.
func SourceFor(spec fieldspec.FieldSpec) fieldspec.ValueSource {
	var src fieldspec.ValueSource
	switch s := spec.(type) {
	case nil, *fieldspec.NullOnly:
		return NullOnlySource()
	case *fieldspec.Whitelist:
		src = newWhitelistSource(s.List())
	case *fieldspec.Generator:
		src = s.Source()
	case *fieldspec.Restrictions:
		src = restrictionSource(s)
	default:
		return NullOnlySource()
	}
	if spec.Nullable() {
		return &nullableSource{inner: src}
	}
	return src
}

func restrictionSource(s *fieldspec.Restrictions) fieldspec.ValueSource {
	blacklist := s.Blacklist()
	switch r := s.Typed().(type) {
	case *restrictions.NumericRestrictions:
		return newLinearSource(r, blacklist)
	case *restrictions.DateTimeRestrictions:
		return newLinearSource(r, blacklist)
	case *restrictions.BooleanRestrictions:
		values := make([]any, 0, 2)
		for _, b := range r.Values() {
			if !blacklist.Contains(b) {
				values = append(values, b)
			}
		}
		return newWhitelistSource(fieldspec.Uniform(values...))
	case *restrictions.StringRestrictions:
		return newStringSource(r, blacklist)
	default:
		return emptySource{}
	}
}

// -----------------------------------------------------------------------------
// Null sources
// -----------------------------------------------------------------------------

type nullOnlySource struct{}

var nullOnly = nullOnlySource{}

// NullOnlySource returns the source of the NullOnly spec: null, once when
// enumerating and forever when sampling.
func NullOnlySource() fieldspec.ValueSource { return nullOnly }

func (nullOnlySource) IsFinite() bool { return true }

func (nullOnlySource) AllValues() iter.Seq[any] {
	return func(yield func(any) bool) { yield(nil) }
}

func (nullOnlySource) RandomValues(*rand.Rand) iter.Seq[any] {
	return func(yield func(any) bool) {
		for yield(nil) {
		}
	}
}

// nullableSource adds null to another source.
type nullableSource struct {
	inner fieldspec.ValueSource
}

func (s *nullableSource) IsFinite() bool { return s.inner.IsFinite() }

func (s *nullableSource) AllValues() iter.Seq[any] {
	return func(yield func(any) bool) {
		for v := range s.inner.AllValues() {
			if !yield(v) {
				return
			}
		}
		yield(nil)
	}
}

func (s *nullableSource) RandomValues(rng *rand.Rand) iter.Seq[any] {
	return func(yield func(any) bool) {
		for v := range s.inner.RandomValues(rng) {
			if rng.Float64() < nullProbability {
				v = nil
			}
			if !yield(v) {
				return
			}
		}
		// An exhausted inner source still leaves null.
		for yield(nil) {
		}
	}
}

// emptySource produces nothing.
type emptySource struct{}

func (emptySource) IsFinite() bool                        { return true }
func (emptySource) AllValues() iter.Seq[any]              { return func(func(any) bool) {} }
func (emptySource) RandomValues(*rand.Rand) iter.Seq[any] { return func(func(any) bool) {} }

// -----------------------------------------------------------------------------
// Whitelist source
// -----------------------------------------------------------------------------

// whitelistSource enumerates a list in order and samples it by weight.
type whitelistSource struct {
	values     []any
	cumulative []float64
}

func newWhitelistSource(list fieldspec.DistributedList) *whitelistSource {
	s := &whitelistSource{}
	total := 0.0
	for _, e := range list.Elements() {
		total += e.Weight
		s.values = append(s.values, e.Value)
		s.cumulative = append(s.cumulative, total)
	}
	return s
}

func (s *whitelistSource) IsFinite() bool { return true }

func (s *whitelistSource) AllValues() iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, v := range s.values {
			if !yield(v) {
				return
			}
		}
	}
}

func (s *whitelistSource) RandomValues(rng *rand.Rand) iter.Seq[any] {
	return func(yield func(any) bool) {
		if len(s.values) == 0 {
			return
		}
		total := s.cumulative[len(s.cumulative)-1]
		for {
			i := sort.SearchFloat64s(s.cumulative, rng.Float64()*total)
			if i >= len(s.values) {
				i = len(s.values) - 1
			}
			if !yield(s.values[i]) {
				return
			}
		}
	}
}
