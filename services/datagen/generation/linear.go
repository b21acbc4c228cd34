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
	"iter"
	"math/rand/v2"

	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
	"github.com/AleutianAI/datagen/services/datagen/restrictions"
)

// linearSource walks the grid points of a numeric or datetime range,
// skipping blacklisted values.
type linearSource[T any] struct {
	r         *restrictions.LinearRestrictions[T]
	blacklist fieldspec.DistributedList
}

func newLinearSource[T any](r *restrictions.LinearRestrictions[T], blacklist fieldspec.DistributedList) *linearSource[T] {
	return &linearSource[T]{r: r, blacklist: blacklist}
}

// IsFinite is true: the range is bounded and the grid is discrete.
func (s *linearSource[T]) IsFinite() bool { return true }

// AllValues yields every grid point from min to max in ascending order.
func (s *linearSource[T]) AllValues() iter.Seq[any] {
	return func(yield func(any) bool) {
		if s.r.IsContradictory() {
			return
		}
		g := s.r.Granularity()
		hi := s.r.Max()
		for v := s.r.Min(); s.r.Compare(v, hi) <= 0; v = g.Next(v, 1) {
			if s.blacklist.Contains(v) {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// RandomValues samples grid points uniformly.
func (s *linearSource[T]) RandomValues(rng *rand.Rand) iter.Seq[any] {
	return func(yield func(any) bool) {
		if s.r.IsContradictory() {
			return
		}
		g := s.r.Granularity()
		lo, hi := s.r.Min(), s.r.Max()
		for rejected := 0; rejected < maxRejections; {
			v := g.Random(lo, hi, rng)
			if s.blacklist.Contains(v) {
				rejected++
				continue
			}
			rejected = 0
			if !yield(v) {
				return
			}
		}
	}
}
