// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package generation

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/AleutianAI/datagen/services/datagen/field"
	"github.com/AleutianAI/datagen/services/datagen/profile"
)

// ErrDuplicateGenerator is returned when a generator name is registered
// twice.
var ErrDuplicateGenerator = errors.New("generator already registered")

// Registry holds the custom generators profiles may reference by name.
//
// Thread Safety: Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]profile.CustomGenerator
}

// NewRegistry creates a registry holding the built-in generators.
func NewRegistry() *Registry {
	r := &Registry{generators: make(map[string]profile.CustomGenerator)}
	r.generators[UUIDGenerator{}.Name()] = UUIDGenerator{}
	return r
}

// Register adds a generator.
func (r *Registry) Register(gen profile.CustomGenerator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.generators[gen.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateGenerator, gen.Name())
	}
	r.generators[gen.Name()] = gen
	return nil
}

// Lookup finds a generator by name.
func (r *Registry) Lookup(name string) (profile.CustomGenerator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gen, ok := r.generators[name]
	return gen, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// -----------------------------------------------------------------------------
// uuid
// -----------------------------------------------------------------------------

// UUIDGenerator produces version 4 UUID strings drawn from the caller's
// random source, so seeded runs are reproducible.
type UUIDGenerator struct{}

func (UUIDGenerator) Name() string { return "uuid" }

func (UUIDGenerator) FieldType() field.Type { return field.TypeString }

func (UUIDGenerator) Generate(rng *rand.Rand) any {
	id, err := uuid.NewRandomFromReader(rngReader{rng})
	if err != nil {
		// rngReader never fails.
		return uuid.Nil.String()
	}
	return id.String()
}

// GenerateNegated returns hex strings of UUID length that are not UUIDs.
func (UUIDGenerator) GenerateNegated(rng *rand.Rand) any {
	const hex = "0123456789abcdef"
	b := make([]byte, 36)
	for i := range b {
		b[i] = hex[rng.IntN(len(hex))]
	}
	return string(b)
}

func (UUIDGenerator) Match(v any) bool {
	s, ok := v.(string)
	if !ok || len(s) != 36 {
		return false
	}
	return uuid.Validate(s) == nil
}

// rngReader adapts a math/rand source to io.Reader.
type rngReader struct{ rng *rand.Rand }

func (r rngReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.rng.Uint32())
	}
	return len(p), nil
}
