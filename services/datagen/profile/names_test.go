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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	first, err := Names(FirstName)
	require.NoError(t, err)
	last, err := Names(LastName)
	require.NoError(t, err)
	full, err := Names(FullName)
	require.NoError(t, err)

	assert.Equal(t, 30, first.Len())
	assert.Equal(t, 30, last.Len())
	assert.Equal(t, first.Len()*last.Len(), full.Len())
	assert.False(t, first.Contains("name"), "header row is skipped")

	w, ok := full.Weight("Oliver Smith")
	require.True(t, ok)
	assert.Equal(t, 4932.0+729862.0, w)
	assert.Equal(t, "Oliver Smith", full.Values()[0])
}

func TestParseNameType(t *testing.T) {
	nt, err := ParseNameType("fullname")
	require.NoError(t, err)
	assert.Equal(t, FullName, nt)

	_, err = ParseNameType("nickname")
	assert.ErrorIs(t, err, ErrUnknownNameType)
}

func TestReadWeightedCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []any
		weights []float64
		wantErr string
	}{
		{name: "header and weights", input: "colour,weight\nred,3\nblue,1.5\n", want: []any{"red", "blue"}, weights: []float64{3, 1.5}},
		{name: "no weights", input: "red\nblue\n", want: []any{"red", "blue"}, weights: []float64{1, 1}},
		{name: "blank lines and values", input: "red,2\n\n ,4\nblue\n", want: []any{"red", "blue"}, weights: []float64{2, 1}},
		{name: "repeat keeps first", input: "red,2\nred,9\n", want: []any{"red"}, weights: []float64{2}},
		{name: "bad weight after header", input: "red,2\nblue,lots\n", wantErr: "line 2"},
		{name: "zero weight", input: "red,0\n", wantErr: "positive"},
		{name: "broken quoting", input: "\"red,2\n", wantErr: "quote"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := ReadWeightedCSV(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, list.Values())
			for i, v := range tt.want {
				w, _ := list.Weight(v)
				assert.Equal(t, tt.weights[i], w, "%v", v)
			}
		})
	}
}
