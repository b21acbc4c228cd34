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
	"iter"
	"math/rand/v2"

	"github.com/AleutianAI/datagen/services/datagen/field"
	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
)

// CustomGenerator is a user-supplied value generator.
//
// Implementations must be safe for concurrent use; the rng passed in is
// owned by the caller.
type CustomGenerator interface {
	// Name identifies the generator in profiles.
	Name() string

	// FieldType is the type of every generated value.
	FieldType() field.Type

	// Generate returns a value the generator considers valid.
	Generate(rng *rand.Rand) any

	// GenerateNegated returns a value the generator considers invalid.
	GenerateNegated(rng *rand.Rand) any

	// Match reports whether v is a valid value.
	Match(v any) bool
}

// Custom restricts a field to the values of a custom generator.
type Custom struct {
	f         field.Field
	generator CustomGenerator
	negated   bool
}

// NewCustom binds a generator to a field.
//
// Outputs:
//
//	*Custom - The constraint.
//	error - ErrTypeMismatch when the generator's type differs from the field's.
func NewCustom(f field.Field, gen CustomGenerator) (*Custom, error) {
	if gen.FieldType() != f.Type {
		return nil, &fieldspec.OperationError{
			Component: "profile",
			Operation: "NewCustom",
			Err: fmt.Errorf("%w: generator %s produces %s but field %s is %s",
				ErrTypeMismatch, gen.Name(), gen.FieldType(), f.Name, f.Type),
		}
	}
	return &Custom{f: f, generator: gen}, nil
}

func (c *Custom) Field() field.Field { return c.f }

// Generator returns the bound generator.
func (c *Custom) Generator() CustomGenerator { return c.generator }

func (c *Custom) Negate() (Atomic, error) {
	return &Custom{f: c.f, generator: c.generator, negated: !c.negated}, nil
}

func (c *Custom) ToFieldSpec() fieldspec.FieldSpec {
	src := &customSource{generator: c.generator, negated: c.negated}
	name := c.generator.Name()
	if c.negated {
		name = "not " + name
	}
	return fieldspec.FromGenerator(name, src, src.match)
}

func (c *Custom) String() string {
	return fmt.Sprintf("%s %s %s", c.f.Name, negatedVerb("generator", c.negated), c.generator.Name())
}

func (*Custom) constraint() {}

// customSource adapts a CustomGenerator to a value source.
type customSource struct {
	generator CustomGenerator
	negated   bool
}

func (s *customSource) match(v any) bool {
	return s.generator.Match(v) != s.negated
}

func (s *customSource) next(rng *rand.Rand) any {
	if s.negated {
		return s.generator.GenerateNegated(rng)
	}
	return s.generator.Generate(rng)
}

func (s *customSource) IsFinite() bool { return false }

// AllValues yields a reproducible unbounded stream.
func (s *customSource) AllValues() iter.Seq[any] {
	return s.RandomValues(rand.New(rand.NewPCG(0, 0)))
}

func (s *customSource) RandomValues(rng *rand.Rand) iter.Seq[any] {
	return func(yield func(any) bool) {
		for {
			if !yield(s.next(rng)) {
				return
			}
		}
	}
}
