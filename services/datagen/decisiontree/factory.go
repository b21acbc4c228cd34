// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package decisiontree

import (
	"fmt"
	"log/slog"

	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
	"github.com/AleutianAI/datagen/services/datagen/profile"
)

// -----------------------------------------------------------------------------
// Factory
// -----------------------------------------------------------------------------

// Factory compiles profiles into decision trees.
//
// Description:
//
//	Compilation is a recursive rewrite of the constraint tree:
//	  atomic / relation     -> node holding it
//	  And(c...)             -> union of compiled nodes
//	  Or(c...)              -> node with one decision over compiled options
//	  if C then T else E    -> Or(And(C, T), And(Not(C), E))
//	  Not(...)              -> pushed down with De Morgan's laws
//	The merged root is then simplified so no decision has a single option.
//
// Thread Safety: Safe for concurrent use.
type Factory struct {
	simplifier *Simplifier
	logger     *slog.Logger
}

// NewFactory creates a factory. A nil logger uses slog.Default().
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		simplifier: NewSimplifier(),
		logger:     logger.With(slog.String("component", "decisiontree.factory")),
	}
}

// Compile turns a profile into a simplified decision tree.
//
// Inputs:
//
//	p - The profile. Must not be nil.
//
// Outputs:
//
//	*DecisionTree - The compiled tree over p.Fields.
//	error - An *fieldspec.OperationError wrapping ErrUnsupported when a
//	        constraint cannot be negated.
func (f *Factory) Compile(p *profile.Profile) (*DecisionTree, error) {
	nodes := make([]*ConstraintNode, 0, len(p.Constraints))
	for _, c := range p.Constraints {
		n, err := f.convert(c)
		if err != nil {
			return nil, &fieldspec.OperationError{Component: "decisiontree", Operation: "Compile", Err: err}
		}
		nodes = append(nodes, n)
	}
	root := f.simplifier.Simplify(EmptyNode().Merge(nodes...))

	f.logger.Debug("profile compiled",
		slog.Int("constraints", len(p.Constraints)),
		slog.Int("root_atomics", len(root.atomics)),
		slog.Int("root_decisions", len(root.decisions)),
	)
	return NewDecisionTree(root, p.Fields), nil
}

func (f *Factory) convert(c profile.Constraint) (*ConstraintNode, error) {
	switch v := c.(type) {
	case *profile.And:
		return f.convertAll(v.Constraints)
	case *profile.Or:
		options := make([]*ConstraintNode, 0, len(v.Constraints))
		for _, sub := range v.Constraints {
			n, err := f.convert(sub)
			if err != nil {
				return nil, err
			}
			options = append(options, n)
		}
		return NewConstraintNode(nil, nil, []*DecisionNode{NewDecisionNode(options...)}), nil
	case *profile.Conditional:
		return f.convert(expandConditional(v))
	case *profile.Not:
		return f.convertNegation(v.Inner)
	case profile.Atomic:
		return NewConstraintNode([]profile.Atomic{v}, nil, nil), nil
	case profile.Relation:
		return NewConstraintNode(nil, []profile.Relation{v}, nil), nil
	default:
		return nil, fmt.Errorf("%w: constraint %T", fieldspec.ErrUnsupported, c)
	}
}

func (f *Factory) convertAll(cs []profile.Constraint) (*ConstraintNode, error) {
	nodes := make([]*ConstraintNode, 0, len(cs))
	for _, sub := range cs {
		n, err := f.convert(sub)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return EmptyNode().Merge(nodes...), nil
}

// convertNegation compiles Not(inner).
func (f *Factory) convertNegation(inner profile.Constraint) (*ConstraintNode, error) {
	switch v := inner.(type) {
	case *profile.Not:
		return f.convert(v.Inner)
	case *profile.And:
		return f.convert(&profile.Or{Constraints: negateAll(v.Constraints)})
	case *profile.Or:
		return f.convert(&profile.And{Constraints: negateAll(v.Constraints)})
	case *profile.Conditional:
		if v.Else == nil {
			return f.convert(profile.AllOf(v.If, profile.Negation(v.Then)))
		}
		return f.convert(profile.AnyOf(
			profile.AllOf(v.If, profile.Negation(v.Then)),
			profile.AllOf(profile.Negation(v.If), profile.Negation(v.Else)),
		))
	case profile.Atomic:
		negated, err := v.Negate()
		if err != nil {
			return nil, err
		}
		return NewConstraintNode([]profile.Atomic{negated}, nil, nil), nil
	case profile.Relation:
		negated, err := v.Negate()
		if err != nil {
			return nil, err
		}
		return NewConstraintNode(nil, []profile.Relation{negated}, nil), nil
	default:
		return nil, fmt.Errorf("%w: negation of %T", fieldspec.ErrUnsupported, inner)
	}
}

func expandConditional(c *profile.Conditional) profile.Constraint {
	var otherwise profile.Constraint = profile.Negation(c.If)
	if c.Else != nil {
		otherwise = profile.AllOf(profile.Negation(c.If), c.Else)
	}
	return profile.AnyOf(profile.AllOf(c.If, c.Then), otherwise)
}

func negateAll(cs []profile.Constraint) []profile.Constraint {
	out := make([]profile.Constraint, len(cs))
	for i, c := range cs {
		out[i] = profile.Negation(c)
	}
	return out
}
