// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package field

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"string", TypeString},
		{"NUMERIC", TypeNumeric},
		{"integer", TypeNumeric},
		{" datetime ", TypeDateTime},
		{"boolean", TypeBoolean},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseType("blob")
	assert.ErrorIs(t, err, ErrUnknownType)
}

// TestValuesEqual verifies numeric equality ignores representation.
func TestValuesEqual(t *testing.T) {
	a := decimal.RequireFromString("50")
	b := decimal.RequireFromString("5E1")
	assert.True(t, ValuesEqual(a, b))
	assert.Equal(t, ValueKey(a), ValueKey(b))

	t1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.In(time.FixedZone("x", 3600))
	assert.True(t, ValuesEqual(t1, t2))
	assert.Equal(t, ValueKey(t1), ValueKey(t2))

	assert.False(t, ValuesEqual("1", a))
	assert.NotEqual(t, ValueKey("true"), ValueKey(true))
}

func TestCheckValue(t *testing.T) {
	assert.NoError(t, CheckValue(TypeString, "x"))
	assert.NoError(t, CheckValue(TypeNumeric, decimal.NewFromInt(1)))
	assert.ErrorIs(t, CheckValue(TypeNumeric, "1"), ErrValueType)
	assert.ErrorIs(t, CheckValue(TypeBoolean, nil), ErrValueType)
}

func TestFields(t *testing.T) {
	fs := Fields{{Name: "a"}, {Name: "b", Type: TypeNumeric}, {Name: "c"}}
	assert.Equal(t, []string{"a", "b", "c"}, fs.Names())

	f, ok := fs.Get("b")
	require.True(t, ok)
	assert.Equal(t, TypeNumeric, f.Type)
	assert.False(t, fs.Contains("z"))

	sub := fs.Subset(map[string]struct{}{"c": {}, "a": {}})
	assert.Equal(t, []string{"a", "c"}, sub.Names())
}
