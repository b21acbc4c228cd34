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
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
	"github.com/AleutianAI/datagen/services/datagen/restrictions"
)

func n(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func take(seq iter.Seq[any], limit int) []any {
	var out []any
	for v := range seq {
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}

func notNull(t *testing.T, spec fieldspec.FieldSpec) fieldspec.FieldSpec {
	t.Helper()
	out, err := spec.WithNotNull()
	require.NoError(t, err)
	return out
}

func TestSourceFor_NumericRangeWithBlacklist(t *testing.T) {
	r := restrictions.NewNumericRestrictions(
		restrictions.NewLimit(n(5), true),
		restrictions.NewLimit(n(40), false),
		restrictions.NewNumericGranularity(0),
	)
	spec := notNull(t, fieldspec.FromRestrictions(r).WithBlacklist(n(10), n(20), n(30)))

	var want []any
	for i := int64(5); i < 40; i++ {
		if i%10 != 0 {
			want = append(want, n(i))
		}
	}
	got := take(SourceFor(spec).AllValues(), 1000)
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].(decimal.Decimal).Equal(got[i].(decimal.Decimal)), "index %d: %v", i, got[i])
	}

	src := SourceFor(spec)
	assert.True(t, src.IsFinite())
	for _, v := range take(src.RandomValues(rand.New(rand.NewPCG(1, 2))), 200) {
		d := v.(decimal.Decimal)
		assert.True(t, d.GreaterThanOrEqual(n(5)) && d.LessThan(n(40)), "%s out of range", d)
		assert.False(t, d.Mod(n(10)).IsZero(), "%s is blacklisted", d)
	}
}

func TestSourceFor_NullableAppendsNull(t *testing.T) {
	spec := fieldspec.FromList(fieldspec.Uniform("a", "b"))
	assert.Equal(t, []any{"a", "b", nil}, take(SourceFor(spec).AllValues(), 10))
}

func TestSourceFor_NullOnly(t *testing.T) {
	assert.Equal(t, []any{nil}, take(SourceFor(fieldspec.NullOnlySpec()).AllValues(), 10))
	assert.Equal(t, []any{nil, nil, nil}, take(NullOnlySource().RandomValues(rand.New(rand.NewPCG(1, 1))), 3))
}

func TestSourceFor_WeightedWhitelist(t *testing.T) {
	spec := notNull(t, fieldspec.FromList(fieldspec.NewDistributedList(
		fieldspec.WeightedElement{Value: "common", Weight: 9},
		fieldspec.WeightedElement{Value: "rare", Weight: 1},
	)))
	counts := make(map[any]int)
	for _, v := range take(SourceFor(spec).RandomValues(rand.New(rand.NewPCG(7, 7))), 2000) {
		counts[v]++
	}
	assert.Greater(t, counts["common"], 3*counts["rare"])
	assert.Positive(t, counts["rare"])
}

func TestSourceFor_Boolean(t *testing.T) {
	spec := notNull(t, fieldspec.FromRestrictions(restrictions.DefaultBooleanRestrictions()).WithBlacklist(true))
	assert.Equal(t, []any{false}, take(SourceFor(spec).AllValues(), 10))
}

func TestSourceFor_DateTimeDays(t *testing.T) {
	start := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	r := restrictions.NewDateTimeRestrictions(
		restrictions.NewLimit(start, true),
		restrictions.NewLimit(start.AddDate(0, 0, 3), false),
		restrictions.NewDateTimeGranularity(restrictions.Days),
	)
	got := take(SourceFor(notNull(t, fieldspec.FromRestrictions(r))).AllValues(), 10)
	require.Len(t, got, 3)
	assert.True(t, got[1].(time.Time).Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))
}

func stringSpec(t *testing.T, r *restrictions.StringRestrictions) fieldspec.FieldSpec {
	return notNull(t, fieldspec.FromRestrictions(r))
}

func TestSourceFor_StringPatternEnumeration(t *testing.T) {
	spec := stringSpec(t, restrictions.NewPatternRestrictions(restrictions.MustPattern("[A-C]{2}", false), false))
	got := take(SourceFor(spec).AllValues(), 100)
	assert.Len(t, got, 9)
	assert.Equal(t, "AA", got[0])
	assert.Equal(t, "CC", got[8])
}

func TestSourceFor_StringPatternSampling(t *testing.T) {
	p := restrictions.MustPattern(`\d{3}-[a-z]{2,4}`, false)
	spec := stringSpec(t, restrictions.NewPatternRestrictions(p, false))
	values := take(SourceFor(spec).RandomValues(rand.New(rand.NewPCG(3, 3))), 50)
	require.Len(t, values, 50)
	for _, v := range values {
		assert.True(t, p.MatchString(v.(string)), "%q", v)
	}
}

func TestSourceFor_StringContaining(t *testing.T) {
	spec := stringSpec(t, restrictions.NewPatternRestrictions(restrictions.MustPattern("foo", true), false))
	for _, v := range take(SourceFor(spec).RandomValues(rand.New(rand.NewPCG(5, 5))), 20) {
		assert.Contains(t, v.(string), "foo")
	}
}

func TestSourceFor_StringShortlex(t *testing.T) {
	spec := stringSpec(t, restrictions.NewLengthRestrictions(2, 3))
	got := take(SourceFor(spec).AllValues(), 3)
	assert.Equal(t, []any{"aa", "ab", "ac"}, got)
	assert.False(t, SourceFor(spec).IsFinite())

	for _, v := range take(SourceFor(spec).RandomValues(rand.New(rand.NewPCG(9, 9))), 30) {
		l := len(v.(string))
		assert.True(t, l >= 2 && l <= 3, "length %d", l)
	}
}

func TestSourceFor_StringNegatedPattern(t *testing.T) {
	r := restrictions.NewLengthRestrictions(1, 1).Intersect(
		restrictions.NewPatternRestrictions(restrictions.MustPattern("[a-y]", false), true))
	got := take(SourceFor(stringSpec(t, r)).AllValues(), 100)
	assert.NotContains(t, got, "a")
	assert.Equal(t, "z", got[0])
	assert.True(t, slices.ContainsFunc(got, func(v any) bool { return strings.ToUpper(v.(string)) == v.(string) }))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, []string{"uuid"}, reg.Names())

	gen, ok := reg.Lookup("uuid")
	require.True(t, ok)

	rngA, rngB := rand.New(rand.NewPCG(1, 1)), rand.New(rand.NewPCG(1, 1))
	a, b := gen.Generate(rngA), gen.Generate(rngB)
	assert.Equal(t, a, b, "seeded generation is reproducible")
	assert.True(t, gen.Match(a))
	assert.False(t, gen.Match(gen.GenerateNegated(rngA)))
	assert.False(t, gen.Match(42))

	assert.ErrorIs(t, reg.Register(UUIDGenerator{}), ErrDuplicateGenerator)
}
