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

// Simplifier hoists single-option decisions into their parent node.
//
// After Simplify, no DecisionNode anywhere in the result has exactly one
// option. Decisions with no option are kept: they make their node
// unsatisfiable.
type Simplifier struct{}

// NewSimplifier creates a simplifier.
func NewSimplifier() *Simplifier {
	return &Simplifier{}
}

// Simplify returns the simplified equivalent of n.
func (s *Simplifier) Simplify(n *ConstraintNode) *ConstraintNode {
	for {
		var hoisted []*ConstraintNode
		kept := make([]*DecisionNode, 0, len(n.decisions))
		for _, d := range n.decisions {
			options := make([]*ConstraintNode, len(d.options))
			for i, o := range d.options {
				options[i] = s.Simplify(o)
			}
			simplified := NewDecisionNode(options...)
			if len(simplified.options) == 1 {
				hoisted = append(hoisted, simplified.options[0])
				continue
			}
			kept = append(kept, simplified)
		}

		n = NewConstraintNode(n.atomics, n.relations, kept)
		if len(hoisted) == 0 {
			return n
		}
		n = n.Merge(hoisted...)
	}
}

// IsSimplified reports whether no decision in the subtree has one option.
func IsSimplified(n *ConstraintNode) bool {
	for _, d := range n.decisions {
		if len(d.options) == 1 {
			return false
		}
		for _, o := range d.options {
			if !IsSimplified(o) {
				return false
			}
		}
	}
	return true
}
