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
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AleutianAI/datagen/services/datagen/field"
	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
	"github.com/AleutianAI/datagen/services/datagen/restrictions"
)

// -----------------------------------------------------------------------------
// Type and null checks
// -----------------------------------------------------------------------------

// OfType holds when the field's values are of Type. Fields are declared
// with one type, so a mismatch admits only null.
type OfType struct {
	F       field.Field
	Type    field.Type
	Negated bool
}

func (c *OfType) Field() field.Field { return c.F }

func (c *OfType) Negate() (Atomic, error) {
	return &OfType{F: c.F, Type: c.Type, Negated: !c.Negated}, nil
}

func (c *OfType) ToFieldSpec() fieldspec.FieldSpec {
	if (c.F.Type == c.Type) != c.Negated {
		return fieldspec.FromType(c.F.Type)
	}
	return fieldspec.NullOnlySpec()
}

func (c *OfType) String() string {
	return fmt.Sprintf("%s %s %s", c.F.Name, negatedVerb("ofType", c.Negated), c.Type)
}

// IsNull holds when the field is null, or is not null when negated.
type IsNull struct {
	F       field.Field
	Negated bool
}

func (c *IsNull) Field() field.Field { return c.F }

func (c *IsNull) Negate() (Atomic, error) { return &IsNull{F: c.F, Negated: !c.Negated}, nil }

func (c *IsNull) ToFieldSpec() fieldspec.FieldSpec {
	if !c.Negated {
		return fieldspec.NullOnlySpec()
	}
	spec, _ := fieldspec.FromType(c.F.Type).WithNotNull()
	return spec
}

func (c *IsNull) String() string {
	if c.Negated {
		return c.F.Name + " is not null"
	}
	return c.F.Name + " is null"
}

// -----------------------------------------------------------------------------
// Set membership
// -----------------------------------------------------------------------------

// InSet holds when the value is one of Values. Negated, the values become a
// blacklist. EqualTo is InSet with one value.
type InSet struct {
	F       field.Field
	Values  fieldspec.DistributedList
	Negated bool
}

// EqualTo builds the single-value InSet constraint.
func EqualTo(f field.Field, v any) *InSet {
	return &InSet{F: f, Values: fieldspec.Uniform(v)}
}

func (c *InSet) Field() field.Field { return c.F }

func (c *InSet) Negate() (Atomic, error) {
	return &InSet{F: c.F, Values: c.Values, Negated: !c.Negated}, nil
}

func (c *InSet) ToFieldSpec() fieldspec.FieldSpec {
	if c.Negated {
		return fieldspec.FromType(c.F.Type).WithBlacklist(c.Values.Values()...)
	}
	return fieldspec.FromList(c.Values)
}

func (c *InSet) String() string {
	return fmt.Sprintf("%s %s %s", c.F.Name, negatedVerb("in", c.Negated), c.Values)
}

// -----------------------------------------------------------------------------
// Linear comparisons
// -----------------------------------------------------------------------------

// GreaterThan holds when the value is above Value, or at it when Inclusive.
// Value is a decimal.Decimal for numeric fields and a time.Time for
// datetime fields ("after").
type GreaterThan struct {
	F         field.Field
	Value     any
	Inclusive bool
}

// LessThan holds when the value is below Value, or at it when Inclusive.
type LessThan struct {
	F         field.Field
	Value     any
	Inclusive bool
}

func (c *GreaterThan) Field() field.Field { return c.F }

func (c *GreaterThan) Negate() (Atomic, error) {
	return &LessThan{F: c.F, Value: c.Value, Inclusive: !c.Inclusive}, nil
}

func (c *GreaterThan) ToFieldSpec() fieldspec.FieldSpec {
	return lowerBoundSpec(c.F.Type, c.Value, c.Inclusive)
}

func (c *GreaterThan) String() string {
	return fmt.Sprintf("%s %s %s", c.F.Name, comparisonOp(">", c.Inclusive), field.FormatValue(c.Value))
}

func (c *LessThan) Field() field.Field { return c.F }

func (c *LessThan) Negate() (Atomic, error) {
	return &GreaterThan{F: c.F, Value: c.Value, Inclusive: !c.Inclusive}, nil
}

func (c *LessThan) ToFieldSpec() fieldspec.FieldSpec {
	return upperBoundSpec(c.F.Type, c.Value, c.Inclusive)
}

func (c *LessThan) String() string {
	return fmt.Sprintf("%s %s %s", c.F.Name, comparisonOp("<", c.Inclusive), field.FormatValue(c.Value))
}

func comparisonOp(op string, inclusive bool) string {
	if inclusive {
		return op + "="
	}
	return op
}

// lowerBoundSpec admits values of type t at or above v.
func lowerBoundSpec(t field.Type, v any, inclusive bool) fieldspec.FieldSpec {
	switch bound := v.(type) {
	case decimal.Decimal:
		if t != field.TypeNumeric {
			return fieldspec.NullOnlySpec()
		}
		return linearSpec(restrictions.NewNumericRestrictions(
			restrictions.NewLimit(bound, inclusive), restrictions.NewLimit(restrictions.NumericMax, true),
			restrictions.NewNumericGranularity(restrictions.DefaultNumericScale)))
	case time.Time:
		if t != field.TypeDateTime {
			return fieldspec.NullOnlySpec()
		}
		return linearSpec(restrictions.NewDateTimeRestrictions(
			restrictions.NewLimit(bound, inclusive), restrictions.NewLimit(restrictions.DateTimeMax, true),
			restrictions.NewDateTimeGranularity(restrictions.Millis)))
	default:
		return fieldspec.FromType(t)
	}
}

// upperBoundSpec admits values of type t at or below v.
func upperBoundSpec(t field.Type, v any, inclusive bool) fieldspec.FieldSpec {
	switch bound := v.(type) {
	case decimal.Decimal:
		if t != field.TypeNumeric {
			return fieldspec.NullOnlySpec()
		}
		return linearSpec(restrictions.NewNumericRestrictions(
			restrictions.NewLimit(restrictions.NumericMin, true), restrictions.NewLimit(bound, inclusive),
			restrictions.NewNumericGranularity(restrictions.DefaultNumericScale)))
	case time.Time:
		if t != field.TypeDateTime {
			return fieldspec.NullOnlySpec()
		}
		return linearSpec(restrictions.NewDateTimeRestrictions(
			restrictions.NewLimit(restrictions.DateTimeMin, true), restrictions.NewLimit(bound, inclusive),
			restrictions.NewDateTimeGranularity(restrictions.Millis)))
	default:
		return fieldspec.FromType(t)
	}
}

func linearSpec(r restrictions.TypedRestrictions) fieldspec.FieldSpec {
	if r.IsContradictory() {
		return fieldspec.NullOnlySpec()
	}
	return fieldspec.FromRestrictions(r)
}

// -----------------------------------------------------------------------------
// Granularity
// -----------------------------------------------------------------------------

// NumericGranularTo restricts numeric values to a decimal scale.
type NumericGranularTo struct {
	F           field.Field
	Granularity restrictions.NumericGranularity
}

func (c *NumericGranularTo) Field() field.Field { return c.F }

func (c *NumericGranularTo) Negate() (Atomic, error) {
	return nil, fmt.Errorf("%w: cannot negate %s", ErrUnsupported, c)
}

func (c *NumericGranularTo) ToFieldSpec() fieldspec.FieldSpec {
	if c.F.Type != field.TypeNumeric {
		return fieldspec.NullOnlySpec()
	}
	return fieldspec.FromRestrictions(restrictions.NewNumericRestrictions(
		restrictions.NewLimit(restrictions.NumericMin, true), restrictions.NewLimit(restrictions.NumericMax, true),
		c.Granularity))
}

func (c *NumericGranularTo) String() string {
	return fmt.Sprintf("%s granularTo %s", c.F.Name, c.Granularity)
}

// DateTimeGranularTo restricts datetime values to a calendar unit.
type DateTimeGranularTo struct {
	F           field.Field
	Granularity restrictions.DateTimeGranularity
}

func (c *DateTimeGranularTo) Field() field.Field { return c.F }

func (c *DateTimeGranularTo) Negate() (Atomic, error) {
	return nil, fmt.Errorf("%w: cannot negate %s", ErrUnsupported, c)
}

func (c *DateTimeGranularTo) ToFieldSpec() fieldspec.FieldSpec {
	if c.F.Type != field.TypeDateTime {
		return fieldspec.NullOnlySpec()
	}
	return fieldspec.FromRestrictions(restrictions.NewDateTimeRestrictions(
		restrictions.NewLimit(restrictions.DateTimeMin, true), restrictions.NewLimit(restrictions.DateTimeMax, true),
		c.Granularity))
}

func (c *DateTimeGranularTo) String() string {
	return fmt.Sprintf("%s granularTo %s", c.F.Name, c.Granularity)
}

// -----------------------------------------------------------------------------
// String constraints
// -----------------------------------------------------------------------------

// OfLength holds when the string has exactly N runes.
type OfLength struct {
	F       field.Field
	N       int
	Negated bool
}

func (c *OfLength) Field() field.Field { return c.F }

func (c *OfLength) Negate() (Atomic, error) {
	return &OfLength{F: c.F, N: c.N, Negated: !c.Negated}, nil
}

func (c *OfLength) ToFieldSpec() fieldspec.FieldSpec {
	if c.Negated {
		return stringSpec(c.F, restrictions.NewExcludedLengthRestrictions(c.N))
	}
	return stringSpec(c.F, restrictions.NewLengthRestrictions(c.N, c.N))
}

func (c *OfLength) String() string {
	return fmt.Sprintf("%s %s %d", c.F.Name, negatedVerb("ofLength", c.Negated), c.N)
}

// LongerThan holds when the string has more than N runes.
type LongerThan struct {
	F field.Field
	N int
}

func (c *LongerThan) Field() field.Field { return c.F }

func (c *LongerThan) Negate() (Atomic, error) {
	return &ShorterThan{F: c.F, N: c.N + 1}, nil
}

func (c *LongerThan) ToFieldSpec() fieldspec.FieldSpec {
	return stringSpec(c.F, restrictions.NewLengthRestrictions(c.N+1, restrictions.MaxStringLength))
}

func (c *LongerThan) String() string { return c.F.Name + " longerThan " + strconv.Itoa(c.N) }

// ShorterThan holds when the string has fewer than N runes.
type ShorterThan struct {
	F field.Field
	N int
}

func (c *ShorterThan) Field() field.Field { return c.F }

func (c *ShorterThan) Negate() (Atomic, error) {
	return &LongerThan{F: c.F, N: c.N - 1}, nil
}

func (c *ShorterThan) ToFieldSpec() fieldspec.FieldSpec {
	return stringSpec(c.F, restrictions.NewLengthRestrictions(0, c.N-1))
}

func (c *ShorterThan) String() string { return c.F.Name + " shorterThan " + strconv.Itoa(c.N) }

// MatchesPattern holds when the string matches (or contains a match of)
// the pattern.
type MatchesPattern struct {
	F       field.Field
	Pattern *restrictions.Pattern
	Negated bool
}

func (c *MatchesPattern) Field() field.Field { return c.F }

func (c *MatchesPattern) Negate() (Atomic, error) {
	return &MatchesPattern{F: c.F, Pattern: c.Pattern, Negated: !c.Negated}, nil
}

func (c *MatchesPattern) ToFieldSpec() fieldspec.FieldSpec {
	return stringSpec(c.F, restrictions.NewPatternRestrictions(c.Pattern, c.Negated))
}

func (c *MatchesPattern) String() string {
	verb := "matchingRegex"
	if c.Pattern.Contains() {
		verb = "containingRegex"
	}
	return fmt.Sprintf("%s %s /%s/", c.F.Name, negatedVerb(verb, c.Negated), c.Pattern.Source())
}

func stringSpec(f field.Field, r *restrictions.StringRestrictions) fieldspec.FieldSpec {
	if f.Type != field.TypeString || r.IsContradictory() {
		return fieldspec.NullOnlySpec()
	}
	return fieldspec.FromRestrictions(r)
}

func negatedVerb(verb string, negated bool) string {
	if negated {
		return "not " + verb
	}
	return verb
}

func (*OfType) constraint()             {}
func (*IsNull) constraint()             {}
func (*InSet) constraint()              {}
func (*GreaterThan) constraint()        {}
func (*LessThan) constraint()           {}
func (*NumericGranularTo) constraint()  {}
func (*DateTimeGranularTo) constraint() {}
func (*OfLength) constraint()           {}
func (*LongerThan) constraint()         {}
func (*ShorterThan) constraint()        {}
func (*MatchesPattern) constraint()     {}
