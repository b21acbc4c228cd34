// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package restrictions implements the type-specific restriction algebra
// that backs a field's FieldSpec: linear ranges over numbers and instants
// with their granularities, string length and pattern restrictions, and
// boolean restrictions, together with their intersection operators.
package restrictions

import (
	"errors"

	"github.com/AleutianAI/datagen/services/datagen/field"
)

var (
	// ErrInvalidGranularity is returned for unparseable or illegal steps.
	ErrInvalidGranularity = errors.New("invalid granularity")

	// ErrInvalidPattern is returned when a regular expression fails to compile.
	ErrInvalidPattern = errors.New("invalid pattern")
)

// TypedRestrictions is the closed set of per-type restrictions:
// *NumericRestrictions, *DateTimeRestrictions, *StringRestrictions and
// *BooleanRestrictions.
type TypedRestrictions interface {
	// Match reports whether a non-null value satisfies the restriction.
	Match(v any) bool

	// IsContradictory reports whether no value can satisfy the restriction.
	IsContradictory() bool

	// Equal compares two restrictions by the values they admit.
	Equal(other TypedRestrictions) bool

	String() string

	typedRestrictions()
}

// ForType returns the unconstrained restriction of a field type.
func ForType(t field.Type) TypedRestrictions {
	switch t {
	case field.TypeNumeric:
		return DefaultNumericRestrictions()
	case field.TypeDateTime:
		return DefaultDateTimeRestrictions()
	case field.TypeBoolean:
		return DefaultBooleanRestrictions()
	default:
		return DefaultStringRestrictions()
	}
}

// Merge intersects two typed restrictions.
//
// Outputs:
//
//	TypedRestrictions - The intersection, nil when unsatisfiable.
//	bool - False when the restrictions admit no common value, including
//	       restrictions of different types.
func Merge(left, right TypedRestrictions, preferFinest bool) (TypedRestrictions, bool) {
	var merged TypedRestrictions
	switch l := left.(type) {
	case *NumericRestrictions:
		r, ok := right.(*NumericRestrictions)
		if !ok {
			return nil, false
		}
		merged = MergeLinear(l, r, preferFinest)
	case *DateTimeRestrictions:
		r, ok := right.(*DateTimeRestrictions)
		if !ok {
			return nil, false
		}
		merged = MergeLinear(l, r, preferFinest)
	case *StringRestrictions:
		r, ok := right.(*StringRestrictions)
		if !ok {
			return nil, false
		}
		merged = l.Intersect(r)
	case *BooleanRestrictions:
		r, ok := right.(*BooleanRestrictions)
		if !ok {
			return nil, false
		}
		merged = l.Intersect(r)
	default:
		return nil, false
	}
	if merged.IsContradictory() {
		return nil, false
	}
	return merged, true
}
