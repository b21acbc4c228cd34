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
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reference = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dtRange(lo, hi Limit[time.Time], unit ChronoUnit) *DateTimeRestrictions {
	return NewDateTimeRestrictions(lo, hi, NewDateTimeGranularity(unit))
}

var (
	dtMinLimit = NewLimit(DateTimeMin, true)
	dtMaxLimit = NewLimit(DateTimeMax, true)
)

// TestNewLinearRestrictions_NormalizesLimits verifies exclusive and off-grid
// bounds move inward onto the grid.
func TestNewLinearRestrictions_NormalizesLimits(t *testing.T) {
	tests := []struct {
		name          string
		lo, hi        Limit[decimal.Decimal]
		places        int
		wantLo        string
		wantHi        string
		contradictory bool
	}{
		{"inclusive on grid", NewLimit(dec("5"), true), NewLimit(dec("40"), true), 0, "5", "40", false},
		{"exclusive on grid", NewLimit(dec("5"), false), NewLimit(dec("40"), false), 0, "6", "39", false},
		{"off grid", NewLimit(dec("4.5"), true), NewLimit(dec("39.5"), false), 0, "5", "39", false},
		{"decimal scale", NewLimit(dec("0.65"), true), NewLimit(dec("1.1"), true), 1, "0.7", "1.1", false},
		{"equal exclusive", NewLimit(dec("3"), false), NewLimit(dec("3"), true), 0, "4", "3", true},
		{"equal inclusive", NewLimit(dec("3"), true), NewLimit(dec("3"), true), 0, "3", "3", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewNumericRestrictions(tt.lo, tt.hi, NewNumericGranularity(tt.places))
			assert.True(t, dec(tt.wantLo).Equal(r.Min()), "min %s", r.Min())
			assert.True(t, dec(tt.wantHi).Equal(r.Max()), "max %s", r.Max())
			assert.Equal(t, tt.contradictory, r.IsContradictory())
		})
	}
}

func TestLinearRestrictions_Match(t *testing.T) {
	r := NewNumericRestrictions(NewLimit(dec("5"), true), NewLimit(dec("40"), false), NewNumericGranularity(0))

	assert.True(t, r.Match(dec("5")))
	assert.True(t, r.Match(dec("39")))
	assert.False(t, r.Match(dec("40")))
	assert.False(t, r.Match(dec("5.5")))
	assert.False(t, r.Match("5"))
}

func TestMergeLinear_DateTime(t *testing.T) {
	t.Run("left min and right max", func(t *testing.T) {
		left := dtRange(NewLimit(reference.AddDate(0, 0, -7), true), dtMaxLimit, Millis)
		right := dtRange(dtMinLimit, NewLimit(reference, true), Millis)

		merged, ok := Merge(left, right, false)
		require.True(t, ok)
		got := merged.(*DateTimeRestrictions)
		assert.Equal(t, reference.AddDate(0, 0, -7), got.Min())
		assert.Equal(t, reference, got.Max())
	})

	t.Run("min greater than max is unsatisfiable", func(t *testing.T) {
		left := dtRange(NewLimit(reference.Add(time.Hour), true), dtMaxLimit, Millis)
		right := dtRange(dtMinLimit, NewLimit(reference, true), Millis)

		_, ok := Merge(left, right, false)
		assert.False(t, ok)
		_, ok = Merge(right, left, false)
		assert.False(t, ok)
	})

	t.Run("equal bounds with an exclusive side are unsatisfiable", func(t *testing.T) {
		cases := []struct{ loInc, hiInc bool }{{false, true}, {false, false}, {true, false}}
		for _, c := range cases {
			left := dtRange(dtMinLimit, NewLimit(reference, c.hiInc), Millis)
			right := dtRange(NewLimit(reference, c.loInc), dtMaxLimit, Millis)
			_, ok := Merge(left, right, false)
			assert.False(t, ok, "lo inclusive=%v hi inclusive=%v", c.loInc, c.hiInc)
		}
	})

	t.Run("no max on either side", func(t *testing.T) {
		left := dtRange(NewLimit(reference, true), dtMaxLimit, Millis)
		merged, ok := Merge(left, left, false)
		require.True(t, ok)
		assert.Equal(t, reference, merged.(*DateTimeRestrictions).Min())
		assert.Equal(t, DateTimeMax, merged.(*DateTimeRestrictions).Max())
	})

	t.Run("different granularity keeps the coarser", func(t *testing.T) {
		left := dtRange(NewLimit(reference, true), dtMaxLimit, Hours)
		right := dtRange(NewLimit(reference.Add(time.Second), false), dtMaxLimit, Millis)

		merged, ok := Merge(left, right, false)
		require.True(t, ok)
		got := merged.(*DateTimeRestrictions)
		assert.Equal(t, reference.Add(time.Hour), got.Min())
		assert.Equal(t, NewDateTimeGranularity(Hours), got.Granularity())
	})

	t.Run("snapped bound stays inclusive", func(t *testing.T) {
		early := dtRange(NewLimit(reference, false), dtMaxLimit, Hours)
		later := dtRange(NewLimit(reference.Add(time.Second), false), dtMaxLimit, Seconds)

		merged, ok := Merge(early, later, false)
		require.True(t, ok)
		got := merged.(*DateTimeRestrictions)
		assert.Equal(t, reference.Add(time.Hour), got.Min())
		assert.True(t, got.Match(reference.Add(time.Hour)))
	})

	t.Run("prefer finest granularity", func(t *testing.T) {
		left := dtRange(NewLimit(reference, true), dtMaxLimit, Hours)
		right := dtRange(NewLimit(reference, true), dtMaxLimit, Seconds)

		merged, ok := Merge(left, right, true)
		require.True(t, ok)
		assert.Equal(t, NewDateTimeGranularity(Seconds), merged.(*DateTimeRestrictions).Granularity())
	})
}

// TestMergeLinear_GranularityContradiction verifies an hourly window cannot
// meet a sub-hour window that lies strictly between two grid points.
func TestMergeLinear_GranularityContradiction(t *testing.T) {
	hourly := dtRange(NewLimit(reference, true), NewLimit(reference.Add(10*time.Hour), false), Hours)
	halfHour := reference.Add(30 * time.Minute)
	seconds := dtRange(NewLimit(halfHour, false), NewLimit(halfHour, false), Seconds)

	_, ok := Merge(hourly, seconds, false)
	assert.False(t, ok)
	_, ok = Merge(seconds, hourly, false)
	assert.False(t, ok)
}

func TestMergeLinear_Numeric(t *testing.T) {
	a := NewNumericRestrictions(NewLimit(dec("0"), true), NewLimit(dec("10"), true), NewNumericGranularity(2))
	b := NewNumericRestrictions(NewLimit(dec("2.55"), true), NewLimit(dec("20"), true), NewNumericGranularity(1))

	merged, ok := Merge(a, b, false)
	require.True(t, ok)
	got := merged.(*NumericRestrictions)
	assert.True(t, dec("2.6").Equal(got.Min()), "min %s", got.Min())
	assert.True(t, dec("10").Equal(got.Max()))
	assert.Equal(t, NewNumericGranularity(1), got.Granularity())

	again, ok := Merge(b, a, false)
	require.True(t, ok)
	assert.True(t, merged.Equal(again))
}

func TestMerge_MismatchedTypes(t *testing.T) {
	_, ok := Merge(DefaultNumericRestrictions(), DefaultStringRestrictions(), false)
	assert.False(t, ok)
}
