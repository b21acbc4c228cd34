// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fieldspec holds the per-field satisfiability state used by the
// solver and the merge operator that intersects two such states.
//
// A FieldSpec is one of four variants:
//
//	*NullOnly      only null is legal
//	*Whitelist     an explicit weighted list of legal values
//	*Restrictions  typed restrictions minus a blacklist
//	*Generator     an opaque value source supplied by a custom generator
//
// Every variant is immutable once built.
package fieldspec

import (
	"fmt"
	"iter"
	"math/rand/v2"
	"strings"

	"github.com/AleutianAI/datagen/services/datagen/field"
	"github.com/AleutianAI/datagen/services/datagen/restrictions"
)

// FieldSpec is the closed set of per-field satisfiability states.
type FieldSpec interface {
	// Nullable reports whether null is a legal value.
	Nullable() bool

	// WithNotNull returns the same spec with null excluded.
	WithNotNull() (FieldSpec, error)

	// CanCombineWithLegalValue reports whether the non-null value v is legal.
	CanCombineWithLegalValue(v any) bool

	String() string

	fieldSpec()
}

// ValueSource produces candidate values for a field.
//
// Sources backed by finite domains enumerate every value from AllValues;
// infinite sources yield until the caller stops ranging.
type ValueSource interface {
	IsFinite() bool
	AllValues() iter.Seq[any]
	RandomValues(rng *rand.Rand) iter.Seq[any]
}

// -----------------------------------------------------------------------------
// NullOnly
// -----------------------------------------------------------------------------

// NullOnly admits exactly the null value.
type NullOnly struct{}

var nullOnly = &NullOnly{}

// NullOnlySpec returns the shared null-only spec.
func NullOnlySpec() *NullOnly { return nullOnly }

func (*NullOnly) Nullable() bool { return true }

// WithNotNull always fails: nothing would remain.
func (*NullOnly) WithNotNull() (FieldSpec, error) {
	return nil, &OperationError{Component: "fieldspec", Operation: "NullOnly.WithNotNull", Err: ErrUnsupported}
}

func (*NullOnly) CanCombineWithLegalValue(any) bool { return false }

func (*NullOnly) String() string { return "null" }

func (*NullOnly) fieldSpec() {}

// -----------------------------------------------------------------------------
// Whitelist
// -----------------------------------------------------------------------------

// Whitelist admits the values of a DistributedList.
type Whitelist struct {
	list     DistributedList
	nullable bool
}

// FromList returns a nullable whitelist.
func FromList(list DistributedList) *Whitelist {
	return &Whitelist{list: list, nullable: true}
}

// FromValue returns the spec admitting exactly v. A nil value gives NullOnly.
func FromValue(v any) FieldSpec {
	if v == nil {
		return NullOnlySpec()
	}
	return &Whitelist{list: Uniform(v), nullable: false}
}

// List returns the whitelisted values.
func (w *Whitelist) List() DistributedList { return w.list }

func (w *Whitelist) Nullable() bool { return w.nullable }

func (w *Whitelist) WithNotNull() (FieldSpec, error) {
	return &Whitelist{list: w.list, nullable: false}, nil
}

func (w *Whitelist) CanCombineWithLegalValue(v any) bool { return w.list.Contains(v) }

func (w *Whitelist) String() string {
	return "in " + w.list.String() + nullSuffix(w.nullable)
}

func (*Whitelist) fieldSpec() {}

// -----------------------------------------------------------------------------
// Restrictions
// -----------------------------------------------------------------------------

// Restrictions admits values matching a typed restriction that are not
// blacklisted.
type Restrictions struct {
	restrictions restrictions.TypedRestrictions
	blacklist    DistributedList
	nullable     bool
}

// FromType returns the unconstrained nullable spec of a field type.
func FromType(t field.Type) *Restrictions {
	return FromRestrictions(restrictions.ForType(t))
}

// FromRestrictions wraps a typed restriction in a nullable spec.
func FromRestrictions(r restrictions.TypedRestrictions) *Restrictions {
	return &Restrictions{restrictions: r, nullable: true}
}

// Typed returns the typed restriction.
func (r *Restrictions) Typed() restrictions.TypedRestrictions { return r.restrictions }

// Blacklist returns the excluded values.
func (r *Restrictions) Blacklist() DistributedList { return r.blacklist }

// WithBlacklist returns a copy that also excludes values.
func (r *Restrictions) WithBlacklist(values ...any) *Restrictions {
	merged := append(r.blacklist.Values(), values...)
	return &Restrictions{restrictions: r.restrictions, blacklist: Uniform(merged...), nullable: r.nullable}
}

// IsBlacklisted reports whether v is excluded.
func (r *Restrictions) IsBlacklisted(v any) bool { return r.blacklist.Contains(v) }

func (r *Restrictions) Nullable() bool { return r.nullable }

func (r *Restrictions) WithNotNull() (FieldSpec, error) {
	return &Restrictions{restrictions: r.restrictions, blacklist: r.blacklist, nullable: false}, nil
}

func (r *Restrictions) CanCombineWithLegalValue(v any) bool {
	return !r.blacklist.Contains(v) && r.restrictions.Match(v)
}

// isEmpty reports whether the blacklist removes every remaining value of a
// small domain.
func (r *Restrictions) isEmpty() bool {
	switch t := r.restrictions.(type) {
	case *restrictions.BooleanRestrictions:
		for _, b := range t.Values() {
			if !r.blacklist.Contains(b) {
				return false
			}
		}
		return true
	case *restrictions.NumericRestrictions:
		return t.Min().Equal(t.Max()) && r.blacklist.Contains(t.Min())
	case *restrictions.DateTimeRestrictions:
		return t.Min().Equal(t.Max()) && r.blacklist.Contains(t.Min())
	default:
		return false
	}
}

func (r *Restrictions) String() string {
	var b strings.Builder
	b.WriteString(r.restrictions.String())
	if !r.blacklist.IsEmpty() {
		b.WriteString(" not in " + r.blacklist.String())
	}
	b.WriteString(nullSuffix(r.nullable))
	return b.String()
}

func (*Restrictions) fieldSpec() {}

// -----------------------------------------------------------------------------
// Generator
// -----------------------------------------------------------------------------

// Generator delegates value production to an external source.
type Generator struct {
	name     string
	source   ValueSource
	match    func(v any) bool
	nullable bool
}

// FromGenerator wraps a named source and its membership test.
func FromGenerator(name string, source ValueSource, match func(v any) bool) *Generator {
	return &Generator{name: name, source: source, match: match, nullable: true}
}

// Name identifies the generator.
func (g *Generator) Name() string { return g.name }

// Source returns the value source.
func (g *Generator) Source() ValueSource { return g.source }

func (g *Generator) Nullable() bool { return g.nullable }

func (g *Generator) WithNotNull() (FieldSpec, error) {
	return &Generator{name: g.name, source: g.source, match: g.match, nullable: false}, nil
}

func (g *Generator) CanCombineWithLegalValue(v any) bool {
	return g.match != nil && g.match(v)
}

func (g *Generator) String() string {
	return fmt.Sprintf("generator %s%s", g.name, nullSuffix(g.nullable))
}

func (*Generator) fieldSpec() {}

func nullSuffix(nullable bool) string {
	if nullable {
		return " or null"
	}
	return ""
}

// -----------------------------------------------------------------------------
// Equality
// -----------------------------------------------------------------------------

// Equal compares two specs by the values they admit. Whitelist weights are
// sampling bias and do not take part.
func Equal(a, b FieldSpec) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Nullable() != b.Nullable() {
		return false
	}
	switch x := a.(type) {
	case *NullOnly:
		_, ok := b.(*NullOnly)
		return ok
	case *Whitelist:
		y, ok := b.(*Whitelist)
		return ok && x.list.SameValues(y.list)
	case *Restrictions:
		y, ok := b.(*Restrictions)
		return ok && x.restrictions.Equal(y.restrictions) && x.blacklist.SameValues(y.blacklist)
	case *Generator:
		y, ok := b.(*Generator)
		return ok && x.name == y.name
	default:
		return false
	}
}
