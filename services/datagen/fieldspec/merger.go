// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package fieldspec

import (
	"fmt"

	"github.com/AleutianAI/datagen/services/datagen/restrictions"
)

// -----------------------------------------------------------------------------
// Merger
// -----------------------------------------------------------------------------

// Merger intersects FieldSpecs.
//
// Description:
//
//	Merge answers "which values are legal under both specs". An empty
//	answer is reported as ok == false, never as an error and never as an
//	empty spec; the only deliberate near-empty spec is NullOnly. Errors are
//	reserved for unsupported combinations.
//
//	Dispatch order:
//	  1. NullOnly on either side
//	  2. Whitelist with Whitelist (intersection, weights summed)
//	  3. Whitelist with anything else (filter by the other side)
//	  4. Generator with anything else (nullability only)
//	  5. Restrictions with Restrictions (typed merge, blacklist union)
//
// Thread Safety: Safe for concurrent use.
type Merger struct{}

// NewMerger creates a merger.
func NewMerger() *Merger {
	return &Merger{}
}

// Merge intersects two specs.
//
// Inputs:
//
//	left, right - Specs to intersect. A nil spec is a no-op.
//	preferFinest - Keep the finer granularity of linear restrictions.
//
// Outputs:
//
//	FieldSpec - The intersection when ok is true.
//	bool - False when no value satisfies both specs.
//	error - ErrUnsupported when both sides are generators.
func (m *Merger) Merge(left, right FieldSpec, preferFinest bool) (FieldSpec, bool, error) {
	if left == nil {
		return right, true, nil
	}
	if right == nil {
		return left, true, nil
	}

	_, leftNull := left.(*NullOnly)
	_, rightNull := right.(*NullOnly)
	if leftNull || rightNull {
		return nullOnlyOrEmpty(left.Nullable() && right.Nullable())
	}

	leftList, leftIsList := left.(*Whitelist)
	rightList, rightIsList := right.(*Whitelist)
	switch {
	case leftIsList && rightIsList:
		return m.mergeLists(left, right, leftList.list.Intersect(rightList.list))
	case leftIsList:
		return m.mergeLists(left, right, leftList.list.Filter(right.CanCombineWithLegalValue))
	case rightIsList:
		return m.mergeLists(left, right, rightList.list.Filter(left.CanCombineWithLegalValue))
	}

	leftGen, leftIsGen := left.(*Generator)
	rightGen, rightIsGen := right.(*Generator)
	switch {
	case leftIsGen && rightIsGen:
		return nil, false, &OperationError{
			Component: "fieldspec",
			Operation: "Merge",
			Err:       fmt.Errorf("%w: cannot merge generators %s and %s", ErrUnsupported, leftGen.name, rightGen.name),
		}
	case leftIsGen:
		return addNullability(left, right, leftGen)
	case rightIsGen:
		return addNullability(left, right, rightGen)
	}

	leftRes, ok1 := left.(*Restrictions)
	rightRes, ok2 := right.(*Restrictions)
	if !ok1 || !ok2 {
		return nil, false, &OperationError{
			Component: "fieldspec",
			Operation: "Merge",
			Err:       fmt.Errorf("%w: %T with %T", ErrUnsupported, left, right),
		}
	}
	return m.mergeRestrictions(leftRes, rightRes, preferFinest)
}

func (m *Merger) mergeLists(left, right FieldSpec, list DistributedList) (FieldSpec, bool, error) {
	if list.IsEmpty() {
		return nullOnlyOrEmpty(left.Nullable() && right.Nullable())
	}
	return addNullability(left, right, &Whitelist{list: list, nullable: true})
}

func (m *Merger) mergeRestrictions(left, right *Restrictions, preferFinest bool) (FieldSpec, bool, error) {
	typed, ok := restrictions.Merge(left.restrictions, right.restrictions, preferFinest)
	if !ok {
		return nullOnlyOrEmpty(left.nullable && right.nullable)
	}
	merged := &Restrictions{
		restrictions: typed,
		blacklist:    Uniform(append(left.blacklist.Values(), right.blacklist.Values()...)...),
		nullable:     true,
	}
	if merged.isEmpty() {
		return nullOnlyOrEmpty(left.nullable && right.nullable)
	}
	return addNullability(left, right, merged)
}

// nullOnlyOrEmpty is the outcome when no non-null value survives.
func nullOnlyOrEmpty(nullable bool) (FieldSpec, bool, error) {
	if nullable {
		return NullOnlySpec(), true, nil
	}
	return nil, false, nil
}

// addNullability makes spec nullable only if both inputs were.
func addNullability(left, right, spec FieldSpec) (FieldSpec, bool, error) {
	if left.Nullable() && right.Nullable() {
		return spec, true, nil
	}
	if _, ok := spec.(*NullOnly); ok {
		return nil, false, nil
	}
	notNull, err := spec.WithNotNull()
	if err != nil {
		return nil, false, err
	}
	return notNull, true, nil
}
