// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package profile

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/datagen/services/datagen/field"
	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
	"github.com/AleutianAI/datagen/services/datagen/restrictions"
)

var (
	price  = field.Field{Name: "price", Type: field.TypeNumeric}
	cost   = field.Field{Name: "cost", Type: field.TypeNumeric}
	name   = field.Field{Name: "name", Type: field.TypeString}
	start  = field.Field{Name: "start", Type: field.TypeDateTime}
	finish = field.Field{Name: "finish", Type: field.TypeDateTime}
	day0   = time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	five   = decimal.NewFromInt(5)
)

func TestGreaterThan_NegatesToLessThanOrEqual(t *testing.T) {
	gt := &GreaterThan{F: price, Value: five}
	spec := gt.ToFieldSpec()
	assert.False(t, spec.CanCombineWithLegalValue(five))
	assert.True(t, spec.CanCombineWithLegalValue(decimal.NewFromInt(6)))

	neg, err := gt.Negate()
	require.NoError(t, err)
	assert.Equal(t, "price <= 5", neg.String())
	assert.True(t, neg.ToFieldSpec().CanCombineWithLegalValue(five))
	assert.False(t, neg.ToFieldSpec().CanCombineWithLegalValue(decimal.NewFromInt(6)))
}

func TestAfter_DateTime(t *testing.T) {
	after := &GreaterThan{F: start, Value: day0, Inclusive: true}
	spec := after.ToFieldSpec()
	assert.True(t, spec.CanCombineWithLegalValue(day0))
	assert.False(t, spec.CanCombineWithLegalValue(day0.Add(-time.Millisecond)))
}

func TestContradictoryAtomicsGiveNullOnly(t *testing.T) {
	tests := []struct {
		name string
		c    Atomic
	}{
		{"shorter than zero", &ShorterThan{F: name, N: 0}},
		{"above numeric max", &GreaterThan{F: price, Value: restrictions.NumericMax}},
		{"wrong type", &OfType{F: price, Type: field.TypeString}},
		{"numeric bound on string field", &GreaterThan{F: name, Value: five}},
		{"is null", &IsNull{F: name}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.IsType(t, &fieldspec.NullOnly{}, tt.c.ToFieldSpec())
		})
	}
}

func TestInSet_NegatedIsBlacklist(t *testing.T) {
	in := &InSet{F: name, Values: fieldspec.Uniform("a", "b")}
	neg, err := in.Negate()
	require.NoError(t, err)

	spec := neg.ToFieldSpec()
	require.IsType(t, &fieldspec.Restrictions{}, spec)
	assert.False(t, spec.CanCombineWithLegalValue("a"))
	assert.True(t, spec.CanCombineWithLegalValue("c"))
	assert.True(t, spec.Nullable())
	assert.Equal(t, "name not in [a, b]", neg.String())
}

func TestIsNull_Negated(t *testing.T) {
	neg, err := (&IsNull{F: name}).Negate()
	require.NoError(t, err)
	assert.False(t, neg.ToFieldSpec().Nullable())
}

func TestGranularity_NegationUnsupported(t *testing.T) {
	_, err := (&NumericGranularTo{F: price, Granularity: restrictions.NewNumericGranularity(1)}).Negate()
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = (&DateTimeGranularTo{F: start, Granularity: restrictions.NewDateTimeGranularity(restrictions.Days)}).Negate()
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestLengthNegations(t *testing.T) {
	longer := &LongerThan{F: name, N: 3}
	neg, err := longer.Negate()
	require.NoError(t, err)
	assert.True(t, neg.ToFieldSpec().CanCombineWithLegalValue("abc"))
	assert.False(t, neg.ToFieldSpec().CanCombineWithLegalValue("abcd"))

	back, err := neg.Negate()
	require.NoError(t, err)
	assert.Equal(t, longer.String(), back.String())

	ofLen, err := (&OfLength{F: name, N: 2}).Negate()
	require.NoError(t, err)
	assert.False(t, ofLen.ToFieldSpec().CanCombineWithLegalValue("ab"))
	assert.True(t, ofLen.ToFieldSpec().CanCombineWithLegalValue("abc"))
}

// -----------------------------------------------------------------------------
// Relations
// -----------------------------------------------------------------------------

func TestEqualToField_OffsetShiftsWhitelist(t *testing.T) {
	rel := &EqualToField{M: price, O: cost, Offset: Offset{Amount: 10}}
	other := fieldspec.FromList(fieldspec.Uniform(decimal.NewFromInt(1), decimal.NewFromInt(2)))

	mod := rel.ModifierFromSpec(other)
	assert.True(t, fieldspec.Equal(fieldspec.FromList(fieldspec.Uniform(decimal.NewFromInt(11), decimal.NewFromInt(12))), mod), mod.String())

	fromValue := rel.ModifierFromValue(decimal.NewFromInt(7))
	assert.True(t, fromValue.CanCombineWithLegalValue(decimal.NewFromInt(17)))
	assert.False(t, fromValue.Nullable())
}

func TestEqualToField_OffsetShiftsRange(t *testing.T) {
	rel := &EqualToField{M: finish, O: start, Offset: Offset{Amount: 2, Unit: restrictions.Days}}
	other := fieldspec.FromRestrictions(restrictions.NewDateTimeRestrictions(
		restrictions.NewLimit(day0, true), restrictions.NewLimit(day0.AddDate(0, 0, 1), true),
		restrictions.NewDateTimeGranularity(restrictions.Days)))

	mod := rel.ModifierFromSpec(other)
	assert.True(t, mod.CanCombineWithLegalValue(day0.AddDate(0, 0, 2)))
	assert.True(t, mod.CanCombineWithLegalValue(day0.AddDate(0, 0, 3)))
	assert.False(t, mod.CanCombineWithLegalValue(day0.AddDate(0, 0, 1)))

	assert.IsType(t, &fieldspec.NullOnly{}, rel.ModifierFromSpec(fieldspec.NullOnlySpec()))
}

func TestRelation_Negate(t *testing.T) {
	_, err := (&EqualToField{M: price, O: cost, Offset: Offset{Amount: 1}}).Negate()
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = (&GreaterThanField{M: finish, O: start, Offset: Offset{Amount: 1, Unit: restrictions.Days}}).Negate()
	assert.ErrorIs(t, err, ErrUnsupported)

	neg, err := (&EqualToField{M: price, O: cost}).Negate()
	require.NoError(t, err)
	assert.IsType(t, &NotEqualToField{}, neg)

	neg, err = (&GreaterThanField{M: price, O: cost}).Negate()
	require.NoError(t, err)
	assert.Equal(t, "price <= cost", neg.String())
}

func TestRelation_Inverse(t *testing.T) {
	rel := &GreaterThanField{M: finish, O: start, Offset: Offset{Amount: 1, Unit: restrictions.Days}}
	inv := rel.Inverse()
	assert.Equal(t, "start", inv.Main().Name)
	assert.Equal(t, "finish", inv.Other().Name)
	assert.Equal(t, rel.String(), inv.Inverse().String())

	// start < finish - 1 day
	mod := inv.ModifierFromValue(day0.AddDate(0, 0, 5))
	assert.True(t, mod.CanCombineWithLegalValue(day0.AddDate(0, 0, 3)))
	assert.False(t, mod.CanCombineWithLegalValue(day0.AddDate(0, 0, 4)))
}

func TestGreaterThanField_FromWhitelist(t *testing.T) {
	rel := &GreaterThanField{M: price, O: cost, Inclusive: true}
	other := fieldspec.FromList(fieldspec.Uniform(decimal.NewFromInt(9), decimal.NewFromInt(4), decimal.NewFromInt(7)))

	mod := rel.ModifierFromSpec(other)
	assert.True(t, mod.CanCombineWithLegalValue(decimal.NewFromInt(4)))
	assert.False(t, mod.CanCombineWithLegalValue(decimal.NewFromInt(3)))

	unconstrained := rel.ModifierFromSpec(fieldspec.FromType(field.TypeString))
	assert.True(t, fieldspec.Equal(fieldspec.FromType(field.TypeNumeric), unconstrained))
}

func TestNotEqualToField(t *testing.T) {
	rel := &NotEqualToField{M: name, O: field.Field{Name: "alias", Type: field.TypeString}}

	pinned, _ := fieldspec.FromValue("x").WithNotNull()
	assert.False(t, rel.ModifierFromSpec(pinned).CanCombineWithLegalValue("x"))
	assert.True(t, rel.ModifierFromSpec(fieldspec.FromList(fieldspec.Uniform("x", "y"))).CanCombineWithLegalValue("x"))
	assert.False(t, rel.ModifierFromValue("y").CanCombineWithLegalValue("y"))
}

// -----------------------------------------------------------------------------
// Custom generators
// -----------------------------------------------------------------------------

type evenGenerator struct{}

func (evenGenerator) Name() string          { return "even" }
func (evenGenerator) FieldType() field.Type { return field.TypeNumeric }
func (evenGenerator) Generate(rng *rand.Rand) any {
	return decimal.NewFromInt(int64(rng.IntN(50) * 2))
}
func (evenGenerator) GenerateNegated(rng *rand.Rand) any {
	return decimal.NewFromInt(int64(rng.IntN(50)*2 + 1))
}
func (evenGenerator) Match(v any) bool {
	d, ok := v.(decimal.Decimal)
	return ok && d.Mod(decimal.NewFromInt(2)).IsZero()
}

func TestNewCustom_TypeMismatch(t *testing.T) {
	_, err := NewCustom(name, evenGenerator{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	var opErr *fieldspec.OperationError
	assert.True(t, errors.As(err, &opErr))
}

func TestCustom_ToFieldSpec(t *testing.T) {
	c, err := NewCustom(price, evenGenerator{})
	require.NoError(t, err)

	spec := c.ToFieldSpec().(*fieldspec.Generator)
	assert.Equal(t, "even", spec.Name())
	assert.True(t, spec.CanCombineWithLegalValue(decimal.NewFromInt(4)))

	count := 0
	for v := range spec.Source().RandomValues(rand.New(rand.NewPCG(1, 1))) {
		assert.True(t, evenGenerator{}.Match(v))
		count++
		if count == 10 {
			break
		}
	}
	assert.Equal(t, 10, count)

	neg, err := c.Negate()
	require.NoError(t, err)
	negSpec := neg.ToFieldSpec()
	assert.True(t, negSpec.CanCombineWithLegalValue(decimal.NewFromInt(3)))
	assert.False(t, negSpec.CanCombineWithLegalValue(decimal.NewFromInt(4)))
}

func TestFields(t *testing.T) {
	c := IfThenElse(
		EqualTo(name, "a"),
		&GreaterThanField{M: price, O: cost},
		Negation(AnyOf(&IsNull{F: start}, &IsNull{F: name})),
	)
	assert.Equal(t, []string{"name", "price", "cost", "start"}, Fields(c))
}
