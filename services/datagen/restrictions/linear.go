// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package restrictions

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Limits
// -----------------------------------------------------------------------------

// Limit is one end of a linear range.
type Limit[T any] struct {
	Value     T
	Inclusive bool
}

// NewLimit returns a limit.
func NewLimit[T any](value T, inclusive bool) Limit[T] {
	return Limit[T]{Value: value, Inclusive: inclusive}
}

var (
	// NumericMin and NumericMax bound every numeric field.
	NumericMin = decimal.New(-1, 20)
	NumericMax = decimal.New(1, 20)

	// DateTimeMin and DateTimeMax bound every datetime field.
	DateTimeMin = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	DateTimeMax = time.Date(9999, time.December, 31, 23, 59, 59, 999_000_000, time.UTC)
)

// -----------------------------------------------------------------------------
// LinearRestrictions
// -----------------------------------------------------------------------------

// LinearRestrictions is a closed range [min, max] of grid points.
//
// Description:
//
//	Limits are normalized at construction: an exclusive or off-grid bound is
//	moved inward to the nearest legal grid point and stored as inclusive.
//	The range is contradictory when min > max, which also covers
//	min == max with either original bound exclusive.
//
// Thread Safety: Immutable; safe for concurrent use.
type LinearRestrictions[T any] struct {
	min         T
	max         T
	granularity Granularity[T]
	cmp         func(a, b T) int
}

// NumericRestrictions restricts NUMERIC fields.
type NumericRestrictions = LinearRestrictions[decimal.Decimal]

// DateTimeRestrictions restricts DATETIME fields.
type DateTimeRestrictions = LinearRestrictions[time.Time]

// NewLinearRestrictions normalizes the limits onto the granularity.
func NewLinearRestrictions[T any](lo, hi Limit[T], g Granularity[T], cmp func(a, b T) int) *LinearRestrictions[T] {
	return &LinearRestrictions[T]{
		min:         roundUp(lo, g),
		max:         roundDown(hi, g),
		granularity: g,
		cmp:         cmp,
	}
}

func roundUp[T any](l Limit[T], g Granularity[T]) T {
	if g.IsCorrectScale(l.Value) {
		if l.Inclusive {
			return l.Value
		}
		return g.Next(l.Value, 1)
	}
	return g.Next(g.Trim(l.Value), 1)
}

func roundDown[T any](l Limit[T], g Granularity[T]) T {
	if g.IsCorrectScale(l.Value) && !l.Inclusive {
		return g.Next(l.Value, -1)
	}
	return g.Trim(l.Value)
}

func compareDecimal(a, b decimal.Decimal) int { return a.Cmp(b) }

func compareTime(a, b time.Time) int { return a.Compare(b) }

// NewNumericRestrictions builds a numeric range.
func NewNumericRestrictions(lo, hi Limit[decimal.Decimal], g NumericGranularity) *NumericRestrictions {
	return NewLinearRestrictions[decimal.Decimal](lo, hi, g, compareDecimal)
}

// DefaultNumericRestrictions admits every numeric value at the finest scale.
func DefaultNumericRestrictions() *NumericRestrictions {
	return NewNumericRestrictions(NewLimit(NumericMin, true), NewLimit(NumericMax, true),
		NewNumericGranularity(DefaultNumericScale))
}

// NewDateTimeRestrictions builds a datetime range.
func NewDateTimeRestrictions(lo, hi Limit[time.Time], g DateTimeGranularity) *DateTimeRestrictions {
	return NewLinearRestrictions[time.Time](lo, hi, g, compareTime)
}

// DefaultDateTimeRestrictions admits every instant at millisecond scale.
func DefaultDateTimeRestrictions() *DateTimeRestrictions {
	return NewDateTimeRestrictions(NewLimit(DateTimeMin, true), NewLimit(DateTimeMax, true),
		NewDateTimeGranularity(Millis))
}

// Min returns the smallest legal value.
func (r *LinearRestrictions[T]) Min() T { return r.min }

// Max returns the largest legal value.
func (r *LinearRestrictions[T]) Max() T { return r.max }

// Granularity returns the grid.
func (r *LinearRestrictions[T]) Granularity() Granularity[T] { return r.granularity }

// Compare orders two values of the domain.
func (r *LinearRestrictions[T]) Compare(a, b T) int { return r.cmp(a, b) }

// IsContradictory reports whether no value satisfies the range.
func (r *LinearRestrictions[T]) IsContradictory() bool {
	return r.cmp(r.min, r.max) > 0
}

// Match reports whether v is a grid point inside the range.
func (r *LinearRestrictions[T]) Match(v any) bool {
	tv, ok := v.(T)
	if !ok {
		return false
	}
	return r.cmp(tv, r.min) >= 0 && r.cmp(tv, r.max) <= 0 && r.granularity.IsCorrectScale(tv)
}

// WithLimits returns a copy over new limits, keeping the granularity.
func (r *LinearRestrictions[T]) WithLimits(lo, hi Limit[T]) *LinearRestrictions[T] {
	return NewLinearRestrictions(lo, hi, r.granularity, r.cmp)
}

// Equal compares bounds and grid.
func (r *LinearRestrictions[T]) Equal(other TypedRestrictions) bool {
	o, ok := other.(*LinearRestrictions[T])
	if !ok {
		return false
	}
	return r.cmp(r.min, o.min) == 0 && r.cmp(r.max, o.max) == 0 && r.granularity == o.granularity
}

func (r *LinearRestrictions[T]) String() string {
	return fmt.Sprintf("[%v, %v] step %s", formatLinear(r.min), formatLinear(r.max), r.granularity)
}

func (r *LinearRestrictions[T]) typedRestrictions() {}

func formatLinear(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format("2006-01-02T15:04:05.000Z")
	}
	return fmt.Sprint(v)
}

// MergeLinear intersects two ranges.
//
// Description:
//
//	The merged granularity is the coarser one, or the finer one when
//	preferFinest is set. The higher minimum is rounded up onto the merged
//	grid and the lower maximum is rounded down, so a grid point legal for
//	both inputs is never lost to rounding direction. The result may be
//	contradictory; callers treat that as unsatisfiable.
func MergeLinear[T any](left, right *LinearRestrictions[T], preferFinest bool) *LinearRestrictions[T] {
	g := left.granularity.Merge(right.granularity)
	if preferFinest {
		g = left.granularity.Finest(right.granularity)
	}

	lo := left.min
	if left.cmp(right.min, lo) > 0 {
		lo = right.min
	}
	hi := left.max
	if left.cmp(right.max, hi) < 0 {
		hi = right.max
	}
	return NewLinearRestrictions(NewLimit(lo, true), NewLimit(hi, true), g, left.cmp)
}
