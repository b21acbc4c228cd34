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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AleutianAI/datagen/services/datagen/profile"
)

func atomicNode(cs ...profile.Constraint) *ConstraintNode {
	atomics := make([]profile.Atomic, len(cs))
	for i, c := range cs {
		atomics[i] = c.(profile.Atomic)
	}
	return NewConstraintNode(atomics, nil, nil)
}

func TestSimplify_HoistsNestedSingleOptions(t *testing.T) {
	inner := NewConstraintNode(nil, nil, []*DecisionNode{NewDecisionNode(atomicNode(gt(cost, 1)))})
	root := NewConstraintNode(
		[]profile.Atomic{gt(price, 1).(profile.Atomic)},
		nil,
		[]*DecisionNode{
			NewDecisionNode(inner),
			NewDecisionNode(atomicNode(lbl("a")), atomicNode(lbl("b"))),
		},
	)

	got := NewSimplifier().Simplify(root)
	assert.True(t, IsSimplified(got))
	assert.Len(t, got.Atomics(), 2, "price and cost constraints at root")
	assert.Len(t, got.Decisions(), 1)
}

func TestSimplify_CollapsesDuplicateOptions(t *testing.T) {
	// Options that only differ before simplification collapse to one.
	a := NewConstraintNode(nil, nil, []*DecisionNode{NewDecisionNode(atomicNode(lbl("a")))})
	b := atomicNode(lbl("a"))
	root := NewConstraintNode(nil, nil, []*DecisionNode{NewDecisionNode(a, b)})

	got := NewSimplifier().Simplify(root)
	assert.True(t, IsSimplified(got))
	assert.Empty(t, got.Decisions())
	assert.Len(t, got.Atomics(), 1)
}

func TestSimplify_KeepsEmptyDecision(t *testing.T) {
	root := NewConstraintNode(nil, nil, []*DecisionNode{NewDecisionNode()})
	got := NewSimplifier().Simplify(root)
	assert.Len(t, got.Decisions(), 1)
	assert.Empty(t, got.Decisions()[0].Options())
}

func TestIsSimplified_DetectsDeepSingleOption(t *testing.T) {
	deep := NewConstraintNode(nil, nil, []*DecisionNode{NewDecisionNode(atomicNode(lbl("a")))})
	root := NewConstraintNode(nil, nil, []*DecisionNode{NewDecisionNode(deep, atomicNode(lbl("b")))})
	assert.False(t, IsSimplified(root))
	assert.True(t, IsSimplified(NewSimplifier().Simplify(root)))
}
