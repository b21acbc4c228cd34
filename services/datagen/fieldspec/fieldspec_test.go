// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package fieldspec

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/AleutianAI/datagen/services/datagen/field"
)

func TestDistributedList_DeduplicatesByValue(t *testing.T) {
	l := NewDistributedList(
		WeightedElement{decimal.RequireFromString("50"), 2},
		WeightedElement{decimal.RequireFromString("5E1"), 9},
		WeightedElement{"a", 0},
	)

	assert.Equal(t, 2, l.Len())
	w, ok := l.Weight(num(50))
	assert.True(t, ok)
	assert.Equal(t, 2.0, w, "first occurrence wins")
	w, _ = l.Weight("a")
	assert.Equal(t, 1.0, w, "non-positive weight defaults to 1")
	assert.Equal(t, 3.0, l.TotalWeight())
}

func TestDistributedList_Filter(t *testing.T) {
	l := numList(1, 2, 3, 4)
	even := l.Filter(func(v any) bool { return v.(decimal.Decimal).IntPart()%2 == 0 })
	assert.Equal(t, []any{num(2), num(4)}, even.Values())
}

// TestFromValue verifies a value gives a not-null singleton and null gives
// the null-only spec.
func TestFromValue(t *testing.T) {
	spec := FromValue("x")
	assert.False(t, spec.Nullable())
	assert.True(t, spec.CanCombineWithLegalValue("x"))
	assert.False(t, spec.CanCombineWithLegalValue("y"))

	assert.IsType(t, &NullOnly{}, FromValue(nil))
}

func TestRestrictions_CanCombineWithLegalValue(t *testing.T) {
	spec := FromType(field.TypeNumeric).WithBlacklist(num(3))
	assert.True(t, spec.CanCombineWithLegalValue(num(2)))
	assert.False(t, spec.CanCombineWithLegalValue(num(3)))
	assert.False(t, spec.CanCombineWithLegalValue("2"))
	assert.True(t, spec.IsBlacklisted(decimal.RequireFromString("3.0")))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(FromList(numList(1, 2)), FromList(numList(2, 1))))
	assert.False(t, Equal(FromList(numList(1, 2)), FromList(numList(1))))
	assert.False(t, Equal(FromList(numList(1)), notNull(t, FromList(numList(1)))))
	assert.True(t, Equal(NullOnlySpec(), &NullOnly{}))
	assert.False(t, Equal(NullOnlySpec(), FromType(field.TypeString)))
	assert.True(t, Equal(nil, nil))
}

func TestString(t *testing.T) {
	assert.Equal(t, "null", NullOnlySpec().String())
	assert.Equal(t, "in [US, GB] or null", FromList(Uniform("US", "GB")).String())
	assert.Equal(t, "[5, 39] step 1 not in [10]", notNull(t, numRange(5, 39, 0).WithBlacklist(num(10))).String())
}
