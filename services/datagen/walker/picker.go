// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package walker

import (
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/AleutianAI/datagen/services/datagen/decisiontree"
)

// OptionPicker decides which pending decision to branch on and in which
// order to try its options.
type OptionPicker interface {
	// PickDecision returns the index of the decision to branch on.
	// pending is never empty.
	PickDecision(pending []*decisiontree.DecisionNode) int

	// OrderOptions returns the options of d in the order to try them.
	OrderOptions(d *decisiontree.DecisionNode) []*decisiontree.ConstraintNode
}

// SequentialPicker branches on decisions and options in declaration order.
type SequentialPicker struct{}

func (SequentialPicker) PickDecision([]*decisiontree.DecisionNode) int { return 0 }

func (SequentialPicker) OrderOptions(d *decisiontree.DecisionNode) []*decisiontree.ConstraintNode {
	return d.Options()
}

// RandomPicker tries options in a random order drawn from a seeded source.
//
// Thread Safety: Safe for concurrent use.
type RandomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPicker creates a picker seeded with seed.
func NewRandomPicker(seed uint64) *RandomPicker {
	return &RandomPicker{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *RandomPicker) PickDecision(pending []*decisiontree.DecisionNode) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(len(pending))
}

func (p *RandomPicker) OrderOptions(d *decisiontree.DecisionNode) []*decisiontree.ConstraintNode {
	options := slices.Clone(d.Options())
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	return options
}
