// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package partition splits a decision tree into independent sub-trees.
//
// Two root-level items belong to the same partition when they touch a
// common field, directly or through another item. Partitions share no
// field, so their row specs combine by Cartesian product.
package partition

import (
	"slices"

	"github.com/AleutianAI/datagen/services/datagen/decisiontree"
	"github.com/AleutianAI/datagen/services/datagen/profile"
)

// Partitioner splits trees by field connectivity.
//
// Thread Safety: Safe for concurrent use.
type Partitioner struct{}

// New creates a partitioner.
func New() *Partitioner {
	return &Partitioner{}
}

// group collects the root-level items of one partition.
type group struct {
	atomics   []profile.Atomic
	relations []profile.Relation
	decisions []*decisiontree.DecisionNode
	fields    map[string]struct{}
}

// Partition returns the independent sub-trees of tree.
//
// Description:
//
//	Every root atomic, relation and decision contributes the set of fields
//	it touches, nested options included. Fields are joined with union-find
//	and each connected component becomes a sub-tree over its own fields.
//	Fields no item touches form one more partition with an empty root.
//	Partitions are ordered by the position of their first field in
//	tree.Fields.
//
// Inputs:
//
//	tree - The compiled tree. Must not be nil.
//
// Outputs:
//
//	[]*decisiontree.DecisionTree - At least one tree when tree has fields.
func (p *Partitioner) Partition(tree *decisiontree.DecisionTree) []*decisiontree.DecisionTree {
	uf := newUnionFind(tree.Fields.Names())
	root := tree.Root

	for _, a := range root.Atomics() {
		uf.add(a.Field().Name)
	}
	for _, r := range root.Relations() {
		uf.Union(r.Main().Name, r.Other().Name)
	}
	for _, d := range root.Decisions() {
		joinAll(uf, d.Fields())
	}

	groups := make(map[string]*group)
	groupFor := func(name string) *group {
		key := uf.Find(name)
		g, ok := groups[key]
		if !ok {
			g = &group{fields: make(map[string]struct{})}
			groups[key] = g
		}
		g.fields[name] = struct{}{}
		return g
	}
	for _, a := range root.Atomics() {
		g := groupFor(a.Field().Name)
		g.atomics = append(g.atomics, a)
	}
	for _, r := range root.Relations() {
		g := groupFor(r.Main().Name)
		groupFor(r.Other().Name)
		g.relations = append(g.relations, r)
	}
	for _, d := range root.Decisions() {
		var g *group
		for name := range d.Fields() {
			g = groupFor(name)
		}
		if g == nil {
			// A decision whose options constrain nothing.
			g = groupFor("")
		}
		g.decisions = append(g.decisions, d)
	}

	var out []*decisiontree.DecisionTree
	unconstrained := make(map[string]struct{})
	emitted := make(map[*group]bool)
	for _, f := range tree.Fields {
		g, ok := groups[uf.Find(f.Name)]
		if !ok {
			unconstrained[f.Name] = struct{}{}
			continue
		}
		if emitted[g] {
			continue
		}
		emitted[g] = true
		out = append(out, decisiontree.NewDecisionTree(
			decisiontree.NewConstraintNode(g.atomics, g.relations, g.decisions),
			tree.Fields.Subset(g.fields),
		))
	}
	if len(unconstrained) > 0 {
		out = append(out, decisiontree.NewDecisionTree(decisiontree.EmptyNode(), tree.Fields.Subset(unconstrained)))
	}
	if g, ok := groups[uf.Find("")]; ok && !emitted[g] {
		// Field-less decisions still decide satisfiability.
		out = append(out, decisiontree.NewDecisionTree(decisiontree.NewConstraintNode(nil, nil, g.decisions), nil))
	}
	return out
}

func joinAll(uf *unionFind, names map[string]struct{}) {
	keys := make([]string, 0, len(names))
	for name := range names {
		keys = append(keys, name)
	}
	slices.Sort(keys)
	for _, k := range keys {
		uf.add(k)
		if len(keys) > 1 {
			uf.Union(keys[0], k)
		}
	}
}

// -- Union-Find implementation -----------------------------------------------

type unionFind struct {
	parent map[string]string
	rank   map[string]int
}

func newUnionFind(keys []string) *unionFind {
	uf := &unionFind{
		parent: make(map[string]string, len(keys)),
		rank:   make(map[string]int, len(keys)),
	}
	for _, k := range keys {
		uf.parent[k] = k
	}
	return uf
}

func (uf *unionFind) add(x string) {
	if _, ok := uf.parent[x]; !ok {
		uf.parent[x] = x
	}
}

func (uf *unionFind) Find(x string) string {
	uf.add(x)
	if uf.parent[x] != x {
		uf.parent[x] = uf.Find(uf.parent[x])
	}
	return uf.parent[x]
}

func (uf *unionFind) Union(x, y string) {
	rx, ry := uf.Find(x), uf.Find(y)
	if rx == ry {
		return
	}
	switch {
	case uf.rank[rx] < uf.rank[ry]:
		uf.parent[rx] = ry
	case uf.rank[rx] > uf.rank[ry]:
		uf.parent[ry] = rx
	default:
		uf.parent[ry] = rx
		uf.rank[rx]++
	}
}
