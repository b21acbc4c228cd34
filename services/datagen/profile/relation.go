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
	"time"

	"github.com/shopspring/decimal"

	"github.com/AleutianAI/datagen/services/datagen/field"
	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
	"github.com/AleutianAI/datagen/services/datagen/restrictions"
)

// -----------------------------------------------------------------------------
// Offsets
// -----------------------------------------------------------------------------

// Offset shifts the other field's value before comparing. Numeric offsets
// add Amount; datetime offsets add Amount calendar Units.
type Offset struct {
	Amount int
	Unit   restrictions.ChronoUnit
}

// IsZero reports whether the offset changes nothing.
func (o Offset) IsZero() bool { return o.Amount == 0 }

// Reverse returns the offset that undoes o.
func (o Offset) Reverse() Offset { return Offset{Amount: -o.Amount, Unit: o.Unit} }

// Apply shifts a numeric or datetime value. Other values are unchanged.
func (o Offset) Apply(v any) any {
	if o.IsZero() {
		return v
	}
	switch tv := v.(type) {
	case decimal.Decimal:
		return tv.Add(decimal.NewFromInt(int64(o.Amount)))
	case time.Time:
		return restrictions.NewDateTimeGranularity(o.Unit).Next(tv, o.Amount)
	default:
		return v
	}
}

func (o Offset) String() string {
	if o.IsZero() {
		return ""
	}
	return fmt.Sprintf(" offset %+d %s", o.Amount, o.Unit)
}

// -----------------------------------------------------------------------------
// Equality relations
// -----------------------------------------------------------------------------

// EqualToField holds when Main equals Other shifted by Offset.
type EqualToField struct {
	M, O   field.Field
	Offset Offset
}

func (r *EqualToField) Main() field.Field  { return r.M }
func (r *EqualToField) Other() field.Field { return r.O }

func (r *EqualToField) Inverse() Relation {
	return &EqualToField{M: r.O, O: r.M, Offset: r.Offset.Reverse()}
}

func (r *EqualToField) Negate() (Relation, error) {
	if !r.Offset.IsZero() {
		return nil, fmt.Errorf("%w: cannot negate %s", ErrUnsupported, r)
	}
	return &NotEqualToField{M: r.M, O: r.O}, nil
}

func (r *EqualToField) ModifierFromSpec(other fieldspec.FieldSpec) fieldspec.FieldSpec {
	switch spec := other.(type) {
	case *fieldspec.NullOnly:
		return spec
	case *fieldspec.Whitelist:
		shifted := make([]fieldspec.WeightedElement, 0, spec.List().Len())
		for _, e := range spec.List().Elements() {
			shifted = append(shifted, fieldspec.WeightedElement{Value: r.Offset.Apply(e.Value), Weight: e.Weight})
		}
		return withNullability(fieldspec.FromList(fieldspec.NewDistributedList(shifted...)), spec.Nullable())
	case *fieldspec.Restrictions:
		if r.Offset.IsZero() {
			return spec
		}
		typed, ok := shiftLinear(spec.Typed(), r.Offset)
		if !ok {
			return fieldspec.NullOnlySpec()
		}
		var blacklist []any
		for _, v := range spec.Blacklist().Values() {
			blacklist = append(blacklist, r.Offset.Apply(v))
		}
		return withNullability(fieldspec.FromRestrictions(typed).WithBlacklist(blacklist...), spec.Nullable())
	default:
		return fieldspec.FromType(r.M.Type)
	}
}

func (r *EqualToField) ModifierFromValue(v any) fieldspec.FieldSpec {
	return fieldspec.FromValue(r.Offset.Apply(v))
}

func (r *EqualToField) String() string {
	return fmt.Sprintf("%s equalTo %s%s", r.M.Name, r.O.Name, r.Offset)
}

// NotEqualToField holds when Main differs from Other.
type NotEqualToField struct {
	M, O field.Field
}

func (r *NotEqualToField) Main() field.Field  { return r.M }
func (r *NotEqualToField) Other() field.Field { return r.O }

func (r *NotEqualToField) Inverse() Relation { return &NotEqualToField{M: r.O, O: r.M} }

func (r *NotEqualToField) Negate() (Relation, error) { return &EqualToField{M: r.M, O: r.O}, nil }

// ModifierFromSpec only constrains Main when Other is pinned to one value.
func (r *NotEqualToField) ModifierFromSpec(other fieldspec.FieldSpec) fieldspec.FieldSpec {
	if w, ok := other.(*fieldspec.Whitelist); ok && !w.Nullable() && w.List().Len() == 1 {
		return fieldspec.FromType(r.M.Type).WithBlacklist(w.List().Values()[0])
	}
	return fieldspec.FromType(r.M.Type)
}

func (r *NotEqualToField) ModifierFromValue(v any) fieldspec.FieldSpec {
	if v == nil {
		return fieldspec.FromType(r.M.Type)
	}
	return fieldspec.FromType(r.M.Type).WithBlacklist(v)
}

func (r *NotEqualToField) String() string {
	return fmt.Sprintf("%s not equalTo %s", r.M.Name, r.O.Name)
}

// -----------------------------------------------------------------------------
// Ordering relations
// -----------------------------------------------------------------------------

// GreaterThanField holds when Main is above Other shifted by Offset, or at
// it when Inclusive. On datetime fields it reads as "after".
type GreaterThanField struct {
	M, O      field.Field
	Inclusive bool
	Offset    Offset
}

func (r *GreaterThanField) Main() field.Field  { return r.M }
func (r *GreaterThanField) Other() field.Field { return r.O }

func (r *GreaterThanField) Inverse() Relation {
	return &LessThanField{M: r.O, O: r.M, Inclusive: r.Inclusive, Offset: r.Offset.Reverse()}
}

func (r *GreaterThanField) Negate() (Relation, error) {
	if !r.Offset.IsZero() {
		return nil, fmt.Errorf("%w: cannot negate %s", ErrUnsupported, r)
	}
	return &LessThanField{M: r.M, O: r.O, Inclusive: !r.Inclusive}, nil
}

func (r *GreaterThanField) ModifierFromSpec(other fieldspec.FieldSpec) fieldspec.FieldSpec {
	if _, ok := other.(*fieldspec.NullOnly); ok {
		return other
	}
	lo, _, ok := linearBounds(other)
	if !ok {
		return fieldspec.FromType(r.M.Type)
	}
	return lowerBoundSpec(r.M.Type, r.Offset.Apply(lo), r.Inclusive)
}

func (r *GreaterThanField) ModifierFromValue(v any) fieldspec.FieldSpec {
	if v == nil {
		return fieldspec.NullOnlySpec()
	}
	return lowerBoundSpec(r.M.Type, r.Offset.Apply(v), r.Inclusive)
}

func (r *GreaterThanField) String() string {
	return fmt.Sprintf("%s %s %s%s", r.M.Name, comparisonOp(">", r.Inclusive), r.O.Name, r.Offset)
}

// LessThanField holds when Main is below Other shifted by Offset, or at it
// when Inclusive. On datetime fields it reads as "before".
type LessThanField struct {
	M, O      field.Field
	Inclusive bool
	Offset    Offset
}

func (r *LessThanField) Main() field.Field  { return r.M }
func (r *LessThanField) Other() field.Field { return r.O }

func (r *LessThanField) Inverse() Relation {
	return &GreaterThanField{M: r.O, O: r.M, Inclusive: r.Inclusive, Offset: r.Offset.Reverse()}
}

func (r *LessThanField) Negate() (Relation, error) {
	if !r.Offset.IsZero() {
		return nil, fmt.Errorf("%w: cannot negate %s", ErrUnsupported, r)
	}
	return &GreaterThanField{M: r.M, O: r.O, Inclusive: !r.Inclusive}, nil
}

func (r *LessThanField) ModifierFromSpec(other fieldspec.FieldSpec) fieldspec.FieldSpec {
	if _, ok := other.(*fieldspec.NullOnly); ok {
		return other
	}
	_, hi, ok := linearBounds(other)
	if !ok {
		return fieldspec.FromType(r.M.Type)
	}
	return upperBoundSpec(r.M.Type, r.Offset.Apply(hi), r.Inclusive)
}

func (r *LessThanField) ModifierFromValue(v any) fieldspec.FieldSpec {
	if v == nil {
		return fieldspec.NullOnlySpec()
	}
	return upperBoundSpec(r.M.Type, r.Offset.Apply(v), r.Inclusive)
}

func (r *LessThanField) String() string {
	return fmt.Sprintf("%s %s %s%s", r.M.Name, comparisonOp("<", r.Inclusive), r.O.Name, r.Offset)
}

func (*EqualToField) constraint()     {}
func (*NotEqualToField) constraint()  {}
func (*GreaterThanField) constraint() {}
func (*LessThanField) constraint()    {}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func withNullability(spec fieldspec.FieldSpec, nullable bool) fieldspec.FieldSpec {
	if nullable {
		return spec
	}
	notNull, err := spec.WithNotNull()
	if err != nil {
		return spec
	}
	return notNull
}

// shiftLinear moves both ends of a linear restriction by an offset.
func shiftLinear(typed restrictions.TypedRestrictions, o Offset) (restrictions.TypedRestrictions, bool) {
	var shifted restrictions.TypedRestrictions
	switch r := typed.(type) {
	case *restrictions.NumericRestrictions:
		shifted = r.WithLimits(
			restrictions.NewLimit(o.Apply(r.Min()).(decimal.Decimal), true),
			restrictions.NewLimit(o.Apply(r.Max()).(decimal.Decimal), true))
	case *restrictions.DateTimeRestrictions:
		shifted = r.WithLimits(
			restrictions.NewLimit(o.Apply(r.Min()).(time.Time), true),
			restrictions.NewLimit(o.Apply(r.Max()).(time.Time), true))
	default:
		return typed, true
	}
	if shifted.IsContradictory() {
		return nil, false
	}
	return shifted, true
}

// linearBounds returns the smallest and largest value a spec admits when
// its domain is ordered.
func linearBounds(spec fieldspec.FieldSpec) (lo, hi any, ok bool) {
	switch s := spec.(type) {
	case *fieldspec.Restrictions:
		switch r := s.Typed().(type) {
		case *restrictions.NumericRestrictions:
			return r.Min(), r.Max(), true
		case *restrictions.DateTimeRestrictions:
			return r.Min(), r.Max(), true
		}
	case *fieldspec.Whitelist:
		values := s.List().Values()
		if len(values) == 0 {
			return nil, nil, false
		}
		lo, hi = values[0], values[0]
		for _, v := range values[1:] {
			if less(v, lo) {
				lo = v
			}
			if less(hi, v) {
				hi = v
			}
		}
		_, isNum := lo.(decimal.Decimal)
		_, isTime := lo.(time.Time)
		return lo, hi, isNum || isTime
	}
	return nil, nil, false
}

func less(a, b any) bool {
	switch av := a.(type) {
	case decimal.Decimal:
		bv, ok := b.(decimal.Decimal)
		return ok && av.LessThan(bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Before(bv)
	default:
		return false
	}
}
