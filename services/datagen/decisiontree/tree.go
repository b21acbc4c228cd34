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
	"slices"
	"sort"
	"strings"

	"github.com/AleutianAI/datagen/services/datagen/field"
	"github.com/AleutianAI/datagen/services/datagen/profile"
)

// -----------------------------------------------------------------------------
// Nodes
// -----------------------------------------------------------------------------

// ConstraintNode is a conjunction of atomics, relations and decisions.
//
// Nodes are treated as immutable once built; every operation returns a new
// node. Members are deduplicated by their canonical rendering.
type ConstraintNode struct {
	atomics   []profile.Atomic
	relations []profile.Relation
	decisions []*DecisionNode
}

// DecisionNode is a disjunction: exactly one option is taken per row spec.
type DecisionNode struct {
	options []*ConstraintNode
}

// NewConstraintNode builds a node, dropping duplicate members.
func NewConstraintNode(atomics []profile.Atomic, relations []profile.Relation, decisions []*DecisionNode) *ConstraintNode {
	n := &ConstraintNode{}
	seen := make(map[string]struct{})
	for _, a := range atomics {
		if key := a.String(); !has(seen, key) {
			n.atomics = append(n.atomics, a)
		}
	}
	for _, r := range relations {
		if key := "rel:" + r.String(); !has(seen, key) {
			n.relations = append(n.relations, r)
		}
	}
	for _, d := range decisions {
		if key := "dec:" + d.String(); !has(seen, key) {
			n.decisions = append(n.decisions, d)
		}
	}
	return n
}

func has(seen map[string]struct{}, key string) bool {
	if _, ok := seen[key]; ok {
		return true
	}
	seen[key] = struct{}{}
	return false
}

// EmptyNode is the node that always holds.
func EmptyNode() *ConstraintNode { return &ConstraintNode{} }

// NewDecisionNode builds a decision over options, dropping duplicates.
func NewDecisionNode(options ...*ConstraintNode) *DecisionNode {
	d := &DecisionNode{}
	seen := make(map[string]struct{})
	for _, o := range options {
		if !has(seen, o.String()) {
			d.options = append(d.options, o)
		}
	}
	return d
}

// Atomics returns the node's atomic constraints.
func (n *ConstraintNode) Atomics() []profile.Atomic { return slices.Clone(n.atomics) }

// Relations returns the node's relations.
func (n *ConstraintNode) Relations() []profile.Relation { return slices.Clone(n.relations) }

// Decisions returns the node's decisions.
func (n *ConstraintNode) Decisions() []*DecisionNode { return slices.Clone(n.decisions) }

// IsEmpty reports whether the node constrains nothing.
func (n *ConstraintNode) IsEmpty() bool {
	return len(n.atomics) == 0 && len(n.relations) == 0 && len(n.decisions) == 0
}

// Merge returns the conjunction of n and others.
func (n *ConstraintNode) Merge(others ...*ConstraintNode) *ConstraintNode {
	atomics := slices.Clone(n.atomics)
	relations := slices.Clone(n.relations)
	decisions := slices.Clone(n.decisions)
	for _, o := range others {
		atomics = append(atomics, o.atomics...)
		relations = append(relations, o.relations...)
		decisions = append(decisions, o.decisions...)
	}
	return NewConstraintNode(atomics, relations, decisions)
}

// WithoutDecision returns n minus one decision.
func (n *ConstraintNode) WithoutDecision(d *DecisionNode) *ConstraintNode {
	out := &ConstraintNode{atomics: n.atomics, relations: n.relations}
	for _, existing := range n.decisions {
		if existing != d {
			out.decisions = append(out.decisions, existing)
		}
	}
	return out
}

// WithDecisions returns n with its decisions replaced.
func (n *ConstraintNode) WithDecisions(decisions []*DecisionNode) *ConstraintNode {
	return &ConstraintNode{atomics: n.atomics, relations: n.relations, decisions: decisions}
}

// Fields returns the names of every field the node touches, nested options
// included.
func (n *ConstraintNode) Fields() map[string]struct{} {
	out := make(map[string]struct{})
	n.collectFields(out)
	return out
}

func (n *ConstraintNode) collectFields(out map[string]struct{}) {
	for _, a := range n.atomics {
		out[a.Field().Name] = struct{}{}
	}
	for _, r := range n.relations {
		out[r.Main().Name] = struct{}{}
		out[r.Other().Name] = struct{}{}
	}
	for _, d := range n.decisions {
		d.collectFields(out)
	}
}

// String renders the node canonically: member order does not matter.
func (n *ConstraintNode) String() string {
	parts := make([]string, 0, len(n.atomics)+len(n.relations)+len(n.decisions))
	for _, a := range n.atomics {
		parts = append(parts, a.String())
	}
	for _, r := range n.relations {
		parts = append(parts, r.String())
	}
	for _, d := range n.decisions {
		parts = append(parts, d.String())
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, "; ") + "}"
}

// Options returns the decision's alternatives.
func (d *DecisionNode) Options() []*ConstraintNode { return slices.Clone(d.options) }

// WithOptions returns a decision over different options.
func (d *DecisionNode) WithOptions(options []*ConstraintNode) *DecisionNode {
	return &DecisionNode{options: options}
}

// Fields returns the names of every field the decision touches.
func (d *DecisionNode) Fields() map[string]struct{} {
	out := make(map[string]struct{})
	d.collectFields(out)
	return out
}

func (d *DecisionNode) collectFields(out map[string]struct{}) {
	for _, o := range d.options {
		o.collectFields(out)
	}
}

func (d *DecisionNode) String() string {
	parts := make([]string, len(d.options))
	for i, o := range d.options {
		parts[i] = o.String()
	}
	sort.Strings(parts)
	return "anyOf" + "[" + strings.Join(parts, " | ") + "]"
}

// -----------------------------------------------------------------------------
// Tree
// -----------------------------------------------------------------------------

// DecisionTree is a root node plus the row shape.
type DecisionTree struct {
	Root   *ConstraintNode
	Fields field.Fields
}

// NewDecisionTree builds a tree.
func NewDecisionTree(root *ConstraintNode, fields field.Fields) *DecisionTree {
	return &DecisionTree{Root: root, Fields: fields}
}

func (t *DecisionTree) String() string {
	return strings.Join(t.Fields.Names(), ",") + " " + t.Root.String()
}

// Walk visits every node of the tree depth-first, root first.
func (t *DecisionTree) Walk(visit func(n *ConstraintNode)) {
	var walk func(n *ConstraintNode)
	walk = func(n *ConstraintNode) {
		visit(n)
		for _, d := range n.decisions {
			for _, o := range d.options {
				walk(o)
			}
		}
	}
	walk(t.Root)
}
