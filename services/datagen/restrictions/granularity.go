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
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// DefaultNumericScale is the finest numeric granularity: 20 decimal places.
const DefaultNumericScale = 20

// Granularity is the grid of legal points of a linear domain.
//
// Description:
//
//	Every value a LinearRestrictions admits lies on its granularity's grid.
//	Implementations are small comparable values so two granularities can be
//	compared with ==.
//
// Thread Safety: Implementations are immutable and safe for concurrent use.
type Granularity[T any] interface {
	// IsCorrectScale reports whether v lies on the grid.
	IsCorrectScale(v T) bool

	// Trim rounds v down to the nearest grid point.
	Trim(v T) T

	// Next advances v by n grid steps. n may be negative.
	Next(v T, n int) T

	// Merge returns the coarser of the two granularities.
	Merge(other Granularity[T]) Granularity[T]

	// Finest returns the finer of the two granularities.
	Finest(other Granularity[T]) Granularity[T]

	// Random returns a grid point in [lo, hi]. Both bounds must be on the grid.
	Random(lo, hi T, rng *rand.Rand) T

	String() string
}

// -----------------------------------------------------------------------------
// Numeric granularity
// -----------------------------------------------------------------------------

// NumericGranularity is a grid of 10^-DecimalPlaces steps. Negative decimal
// places give grids of tens, hundreds and so on.
type NumericGranularity struct {
	DecimalPlaces int
}

// NewNumericGranularity returns the granularity with the given scale.
func NewNumericGranularity(decimalPlaces int) NumericGranularity {
	return NumericGranularity{DecimalPlaces: decimalPlaces}
}

// NumericGranularityFromValue parses a granularity expressed as a step such
// as 1, 0.1 or 0.001.
//
// Outputs:
//
//	NumericGranularity - The matching scale.
//	error - ErrInvalidGranularity unless the step is a power of ten <= 1.
func NumericGranularityFromValue(step decimal.Decimal) (NumericGranularity, error) {
	for places := 0; places <= DefaultNumericScale; places++ {
		if decimal.New(1, int32(-places)).Equal(step) {
			return NumericGranularity{DecimalPlaces: places}, nil
		}
	}
	return NumericGranularity{}, fmt.Errorf("%w: numeric step %s must be a power of ten no greater than 1",
		ErrInvalidGranularity, step)
}

func (g NumericGranularity) step(n int) decimal.Decimal {
	return decimal.New(int64(n), int32(-g.DecimalPlaces))
}

// IsCorrectScale reports whether v has no digits below the scale.
func (g NumericGranularity) IsCorrectScale(v decimal.Decimal) bool {
	return v.Equal(g.Trim(v))
}

// Trim rounds v toward negative infinity onto the grid.
func (g NumericGranularity) Trim(v decimal.Decimal) decimal.Decimal {
	return v.RoundFloor(int32(g.DecimalPlaces))
}

// Next adds n steps to v.
func (g NumericGranularity) Next(v decimal.Decimal, n int) decimal.Decimal {
	return v.Add(g.step(n))
}

// Merge keeps the scale with fewer decimal places.
func (g NumericGranularity) Merge(other Granularity[decimal.Decimal]) Granularity[decimal.Decimal] {
	o, ok := other.(NumericGranularity)
	if !ok || g.DecimalPlaces <= o.DecimalPlaces {
		return g
	}
	return o
}

// Finest keeps the scale with more decimal places.
func (g NumericGranularity) Finest(other Granularity[decimal.Decimal]) Granularity[decimal.Decimal] {
	o, ok := other.(NumericGranularity)
	if !ok || g.DecimalPlaces >= o.DecimalPlaces {
		return g
	}
	return o
}

// Random picks a uniformly distributed grid point between lo and hi.
func (g NumericGranularity) Random(lo, hi decimal.Decimal, rng *rand.Rand) decimal.Decimal {
	span := hi.Sub(lo)
	if span.Sign() <= 0 {
		return lo
	}
	v := g.Trim(lo.Add(span.Mul(decimal.NewFromFloat(rng.Float64()))))
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

func (g NumericGranularity) String() string {
	return g.step(1).String()
}
