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
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/datagen/services/datagen/field"
	"github.com/AleutianAI/datagen/services/datagen/restrictions"
)

const geographyYAML = `
description: countries and cities
fields:
  - {name: country, type: string}
  - {name: city, type: string}
  - {name: currency, type: string, nullable: true}
constraints:
  - {field: country, inSet: [US, GB]}
  - if: {field: country, equalTo: US}
    then: {field: currency, equalTo: USD}
    else: {field: currency, equalTo: GBP}
  - anyOf:
      - {field: city, equalTo: Boston}
      - {field: city, equalTo: London}
`

type stubLookup map[string]CustomGenerator

func (s stubLookup) Lookup(name string) (CustomGenerator, bool) {
	g, ok := s[name]
	return g, ok
}

type tokenGenerator struct{}

func (tokenGenerator) Name() string                   { return "token" }
func (tokenGenerator) FieldType() field.Type          { return field.TypeString }
func (tokenGenerator) Generate(*rand.Rand) any        { return "tok" }
func (tokenGenerator) GenerateNegated(*rand.Rand) any { return "" }
func (tokenGenerator) Match(v any) bool               { return v == "tok" }

func TestLoader_ParseYAML(t *testing.T) {
	p, err := NewLoader(nil).Parse([]byte(geographyYAML))
	require.NoError(t, err)

	assert.Equal(t, "countries and cities", p.Description)
	assert.Equal(t, []string{"country", "city", "currency"}, p.Fields.Names())
	currency, _ := p.Fields.Get("currency")
	assert.True(t, currency.Nullable)

	require.Len(t, p.Constraints, 3)
	set, ok := p.Constraints[0].(*InSet)
	require.True(t, ok)
	assert.Equal(t, []any{"US", "GB"}, set.Values.Values())

	cond, ok := p.Constraints[1].(*Conditional)
	require.True(t, ok)
	assert.NotNil(t, cond.Else)

	or, ok := p.Constraints[2].(*Or)
	require.True(t, ok)
	assert.Len(t, or.Constraints, 2)
}

func TestLoader_ParseJSON(t *testing.T) {
	doc := `{
	  "fields": [{"name": "price", "type": "numeric"}, {"name": "cost", "type": "numeric"}],
	  "constraints": [
	    {"field": "price", "greaterThanOrEqualTo": 1.5},
	    {"field": "price", "granularTo": 0.01},
	    {"field": "price", "greaterThanField": "cost", "offset": 3},
	    {"not": {"field": "cost", "isNull": true}}
	  ]
	}`
	p, err := NewLoader(nil).Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, p.Constraints, 4)

	gt := p.Constraints[0].(*GreaterThan)
	assert.True(t, gt.Inclusive)
	assert.True(t, decimal.RequireFromString("1.5").Equal(gt.Value.(decimal.Decimal)))

	assert.Equal(t, 2, p.Constraints[1].(*NumericGranularTo).Granularity.DecimalPlaces)

	rel := p.Constraints[2].(*GreaterThanField)
	assert.Equal(t, "cost", rel.O.Name)
	assert.Equal(t, Offset{Amount: 3}, rel.Offset)

	assert.Equal(t, "not(cost is null)", p.Constraints[3].String())
}

func TestLoader_DateTimeRelationsAndBounds(t *testing.T) {
	doc := `
fields:
  - {name: start, type: datetime}
  - {name: finish, type: datetime}
constraints:
  - {field: start, afterOrAt: "2024-05-01T00:00:00Z"}
  - {field: start, granularTo: day}
  - {field: finish, afterField: start, offset: 2, offsetUnit: months}
  - {field: finish, beforeOrAtField: start, offset: 1}
`
	p, err := NewLoader(nil).Parse([]byte(doc))
	require.NoError(t, err)

	after := p.Constraints[0].(*GreaterThan)
	assert.True(t, after.Value.(time.Time).Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, restrictions.Days, p.Constraints[1].(*DateTimeGranularTo).Granularity.Unit)

	rel := p.Constraints[2].(*GreaterThanField)
	assert.Equal(t, Offset{Amount: 2, Unit: restrictions.Months}, rel.Offset)
	assert.False(t, rel.Inclusive)

	before := p.Constraints[3].(*LessThanField)
	assert.True(t, before.Inclusive)
	assert.Equal(t, restrictions.Days, before.Offset.Unit, "datetime offsets default to days")
}

func TestLoader_WeightedInSetAndStrings(t *testing.T) {
	doc := `
fields: [{name: code, type: string}]
constraints:
  - field: code
    inSet:
      - {value: A, weight: 3}
      - B
  - {field: code, matchingRegex: "[A-Z]"}
  - {field: code, shorterThan: 4}
  - {field: code, generator: token}
`
	p, err := NewLoader(stubLookup{"token": tokenGenerator{}}).Parse([]byte(doc))
	require.NoError(t, err)

	set := p.Constraints[0].(*InSet)
	w, ok := set.Values.Weight("A")
	require.True(t, ok)
	assert.Equal(t, 3.0, w)

	assert.True(t, p.Constraints[1].(*MatchesPattern).Pattern.MatchString("Q"))
	assert.Equal(t, 4, p.Constraints[2].(*ShorterThan).N)
	assert.Equal(t, "token", p.Constraints[3].(*Custom).Generator().Name())
}

func TestLoader_Invalid(t *testing.T) {
	fields := "fields: [{name: a, type: numeric}, {name: s, type: string}]\n"
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"no fields", "constraints: []\n"},
		{"duplicate field", "fields: [{name: a, type: string}, {name: a, type: numeric}]\n"},
		{"unknown type", "fields: [{name: a, type: blob}]\n"},
		{"unknown top-level key", fields + "extra: 1\n"},
		{"unknown field", fields + "constraints: [{field: z, equalTo: 1}]\n"},
		{"two operators", fields + "constraints: [{field: a, equalTo: 1, lessThan: 3}]\n"},
		{"no operator", fields + "constraints: [{field: a}]\n"},
		{"unknown operator", fields + "constraints: [{field: a, near: 1}]\n"},
		{"numeric bound on string", fields + "constraints: [{field: s, greaterThan: 1}]\n"},
		{"datetime bound on numeric", fields + "constraints: [{field: a, after: 2024-01-01}]\n"},
		{"wrong value type", fields + "constraints: [{field: a, equalTo: abc}]\n"},
		{"null value", fields + "constraints: [{field: a, equalTo: null}]\n"},
		{"bad regex", fields + "constraints: [{field: s, matchingRegex: \"(\"}]\n"},
		{"bad granularity", fields + "constraints: [{field: a, granularTo: 0.5}]\n"},
		{"negative length", fields + "constraints: [{field: s, ofLength: -1}]\n"},
		{"unknown generator", fields + "constraints: [{field: s, generator: nope}]\n"},
		{"offset on predicate", fields + "constraints: [{field: a, equalTo: 1, offset: 2}]\n"},
		{"self relation", fields + "constraints: [{field: a, equalToField: a}]\n"},
		{"relation type mismatch", fields + "constraints: [{field: a, equalToField: s}]\n"},
		{"ordering on strings", "fields: [{name: x, type: string}, {name: y, type: string}]\nconstraints: [{field: x, lessThanField: y}]\n"},
		{"offset on notEqual", "fields: [{name: a, type: numeric}, {name: b, type: numeric}]\nconstraints: [{field: a, notEqualToField: b, offset: 1}]\n"},
		{"unknown JSON key", `{"fields": [{"name": "a", "type": "numeric"}], "rows": 3}`},
		{"empty anyOf", fields + "constraints: [{anyOf: []}]\n"},
		{"if without then", fields + "constraints: [{if: {field: a, equalTo: 1}}]\n"},
		{"combinator with extras", fields + "constraints: [{allOf: [], field: a}]\n"},
		{"nested not object", fields + "constraints: [{not: 3}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(nil).Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidProfile)
		})
	}
}

func TestLoader_ErrorNamesPath(t *testing.T) {
	doc := `
fields: [{name: a, type: numeric}]
constraints:
  - {field: a, equalTo: 1}
  - anyOf:
      - {field: a, equalTo: 2}
      - {field: b, equalTo: 3}
`
	_, err := NewLoader(nil).Parse([]byte(doc))
	require.ErrorIs(t, err, ErrInvalidProfile)
	assert.Contains(t, err.Error(), "constraints[1].anyOf[1]")
	assert.Contains(t, err.Error(), `unknown field "b"`)
}

func TestLoader_NameTypes(t *testing.T) {
	doc := `
fields: [{name: first, type: string}, {name: full, type: string}, {name: n, type: numeric}]
constraints:
  - {field: first, ofType: firstname}
  - {field: full, ofType: fullname}
  - not: {field: first, ofType: lastname}
`
	p, err := NewLoader(nil).Parse([]byte(doc))
	require.NoError(t, err)

	first := p.Constraints[0].(*InSet)
	w, ok := first.Values.Weight("Olivia")
	require.True(t, ok)
	assert.Equal(t, 4598.0, w)
	assert.True(t, p.Constraints[1].(*InSet).Values.Contains("Grace Wright"))

	negated := p.Constraints[2].(*Not).Inner.(*InSet)
	assert.True(t, negated.Values.Contains("Smith"))

	_, err = NewLoader(nil).Parse([]byte("fields: [{name: n, type: numeric}]\nconstraints: [{field: n, ofType: firstname}]\n"))
	require.ErrorIs(t, err, ErrInvalidProfile)
	assert.Contains(t, err.Error(), "needs a string field")
}

func TestLoader_InSetFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "colours.csv"), []byte("colour,weight\nred,3\ngreen,1\n"), 0644))
	profilePath := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(profilePath, []byte(`
fields: [{name: colour, type: string}]
constraints: [{field: colour, inSet: {file: colours.csv}}]
`), 0644))

	p, err := NewLoader(nil).LoadFile(profilePath)
	require.NoError(t, err)
	set := p.Constraints[0].(*InSet)
	assert.Equal(t, []any{"red", "green"}, set.Values.Values())
	w, _ := set.Values.Weight("red")
	assert.Equal(t, 3.0, w)

	tests := []struct {
		name string
		doc  string
	}{
		{"missing file", "fields: [{name: c, type: string}]\nconstraints: [{field: c, inSet: {file: nope.csv}}]\n"},
		{"extra keys", "fields: [{name: c, type: string}]\nconstraints: [{field: c, inSet: {file: colours.csv, weight: 2}}]\n"},
		{"numeric field", "fields: [{name: c, type: numeric}]\nconstraints: [{field: c, inSet: {file: colours.csv}}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.doc), 0644))
			_, err := NewLoader(nil).LoadFile(path)
			assert.ErrorIs(t, err, ErrInvalidProfile)
		})
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(geographyYAML), 0644))

	p, err := NewLoader(nil).LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, p.Fields, 3)

	_, err = NewLoader(nil).LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
