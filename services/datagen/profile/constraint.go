// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package profile is the constraint model: the profile of fields and the
// tree of constraints over them, plus loading profiles from documents.
//
// Constraints form a closed sum type. Combinators (And, Or, Not,
// Conditional) nest arbitrarily; leaves are Atomic constraints on a single
// field or Relations between two fields.
package profile

import (
	"strings"

	"github.com/AleutianAI/datagen/services/datagen/field"
	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
)

// ErrUnsupported is shared with fieldspec so errors.Is works across layers.
var ErrUnsupported = fieldspec.ErrUnsupported

// ErrTypeMismatch is shared with fieldspec.
var ErrTypeMismatch = fieldspec.ErrTypeMismatch

// Profile is the input schema: fields plus constraints.
type Profile struct {
	Description string
	Fields      field.Fields
	Constraints []Constraint
}

// Constraint is any node of a constraint tree.
//
// String returns a canonical rendering; two constraints with the same
// rendering are interchangeable.
type Constraint interface {
	String() string
	constraint()
}

// Atomic is a constraint on one field that maps directly to a FieldSpec.
type Atomic interface {
	Constraint

	// Field is the constrained field.
	Field() field.Field

	// Negate returns the logically inverted constraint.
	Negate() (Atomic, error)

	// ToFieldSpec returns the values this constraint admits. A constraint
	// that admits no non-null value gives the null-only spec.
	ToFieldSpec() fieldspec.FieldSpec
}

// Relation is a constraint between two fields whose effect on Main can only
// be computed from Other's state.
type Relation interface {
	Constraint

	Main() field.Field
	Other() field.Field

	// Inverse expresses the same relation from Other's point of view.
	Inverse() Relation

	// Negate returns the inverted relation or ErrUnsupported.
	Negate() (Relation, error)

	// ModifierFromSpec restricts Main given Other's resolved spec.
	ModifierFromSpec(other fieldspec.FieldSpec) fieldspec.FieldSpec

	// ModifierFromValue restricts Main given a concrete value of Other.
	ModifierFromValue(v any) fieldspec.FieldSpec
}

// -----------------------------------------------------------------------------
// Combinators
// -----------------------------------------------------------------------------

// And holds when every sub-constraint holds. An empty And always holds.
type And struct {
	Constraints []Constraint
}

// Or holds when at least one sub-constraint holds. An empty Or never holds.
type Or struct {
	Constraints []Constraint
}

// Not inverts its inner constraint. Negation is pushed down by the compiler.
type Not struct {
	Inner Constraint
}

// Conditional is "if If then Then else Else". Else may be nil.
type Conditional struct {
	If   Constraint
	Then Constraint
	Else Constraint
}

// AllOf builds an And.
func AllOf(cs ...Constraint) *And { return &And{Constraints: cs} }

// AnyOf builds an Or.
func AnyOf(cs ...Constraint) *Or { return &Or{Constraints: cs} }

// Negation builds a Not.
func Negation(c Constraint) *Not { return &Not{Inner: c} }

// IfThen builds a Conditional without an else branch.
func IfThen(cond, then Constraint) *Conditional { return &Conditional{If: cond, Then: then} }

// IfThenElse builds a Conditional.
func IfThenElse(cond, then, otherwise Constraint) *Conditional {
	return &Conditional{If: cond, Then: then, Else: otherwise}
}

func (c *And) String() string { return "allOf(" + joinConstraints(c.Constraints) + ")" }

func (c *Or) String() string { return "anyOf(" + joinConstraints(c.Constraints) + ")" }

func (c *Not) String() string { return "not(" + c.Inner.String() + ")" }

func (c *Conditional) String() string {
	s := "if(" + c.If.String() + ") then(" + c.Then.String() + ")"
	if c.Else != nil {
		s += " else(" + c.Else.String() + ")"
	}
	return s
}

func (*And) constraint()         {}
func (*Or) constraint()          {}
func (*Not) constraint()         {}
func (*Conditional) constraint() {}

func joinConstraints(cs []Constraint) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// Fields returns the names of every field a constraint tree mentions.
func Fields(c Constraint) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(f field.Field) {
		if _, ok := seen[f.Name]; !ok {
			seen[f.Name] = struct{}{}
			out = append(out, f.Name)
		}
	}
	var walk func(Constraint)
	walk = func(c Constraint) {
		switch v := c.(type) {
		case *And:
			for _, sub := range v.Constraints {
				walk(sub)
			}
		case *Or:
			for _, sub := range v.Constraints {
				walk(sub)
			}
		case *Not:
			walk(v.Inner)
		case *Conditional:
			walk(v.If)
			walk(v.Then)
			if v.Else != nil {
				walk(v.Else)
			}
		case Atomic:
			add(v.Field())
		case Relation:
			add(v.Main())
			add(v.Other())
		}
	}
	walk(c)
	return out
}
