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
	"iter"
	"math/rand/v2"
	"regexp/syntax"
	"strings"

	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
	"github.com/AleutianAI/datagen/services/datagen/restrictions"
)

// alphabet is used for free text: shortlex enumeration and random strings
// when no pattern drives production.
const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomSpan bounds how far past the minimum length free random text goes.
const randomSpan = 16

// stringSource produces strings for a StringRestrictions.
//
// The first matching pattern, when RE2 can parse it, drives production;
// every candidate is then checked against the full restriction with the
// regexp2 engine and the blacklist.
type stringSource struct {
	r         *restrictions.StringRestrictions
	blacklist fieldspec.DistributedList
	driver    *syntax.Regexp
	contains  bool
}

func newStringSource(r *restrictions.StringRestrictions, blacklist fieldspec.DistributedList) *stringSource {
	s := &stringSource{r: r, blacklist: blacklist}
	for _, p := range r.Matching() {
		if re, err := parseRegex(p.Source()); err == nil {
			s.driver, s.contains = re, p.Contains()
			break
		}
	}
	return s
}

func (s *stringSource) accept(v string) bool {
	return s.r.Match(v) && !s.blacklist.Contains(v)
}

// IsFinite is false: even bounded string spaces are too large to exhaust.
func (s *stringSource) IsFinite() bool { return false }

// AllValues yields pattern expansions, or free text in shortlex order.
func (s *stringSource) AllValues() iter.Seq[any] {
	return func(yield func(any) bool) {
		if s.r.IsContradictory() {
			return
		}
		var candidates iter.Seq[string]
		if s.driver != nil && !s.contains {
			candidates = enumerateMatches(s.driver)
		} else {
			candidates = shortlex(s.r.MinLength(), s.r.MaxLength())
		}
		for v := range candidates {
			if s.accept(v) && !yield(v) {
				return
			}
		}
	}
}

// RandomValues samples until maxRejections candidates in a row fail.
func (s *stringSource) RandomValues(rng *rand.Rand) iter.Seq[any] {
	return func(yield func(any) bool) {
		if s.r.IsContradictory() {
			return
		}
		for rejected := 0; rejected < maxRejections; {
			v := s.sample(rng)
			if !s.accept(v) {
				rejected++
				continue
			}
			rejected = 0
			if !yield(v) {
				return
			}
		}
	}
}

func (s *stringSource) sample(rng *rand.Rand) string {
	var b strings.Builder
	switch {
	case s.driver != nil && s.contains:
		writeRandomText(&b, rng.IntN(4), rng)
		randomMatch(s.driver, rng, &b)
		writeRandomText(&b, rng.IntN(4), rng)
	case s.driver != nil:
		randomMatch(s.driver, rng, &b)
	default:
		lo := s.r.MinLength()
		hi := min(s.r.MaxLength(), lo+randomSpan)
		writeRandomText(&b, lo+rng.IntN(hi-lo+1), rng)
	}
	return b.String()
}

func writeRandomText(b *strings.Builder, n int, rng *rand.Rand) {
	for range n {
		b.WriteByte(alphabet[rng.IntN(len(alphabet))])
	}
}

// shortlex yields strings over alphabet by length, then lexically.
func shortlex(minLen, maxLen int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for n := minLen; n <= maxLen; n++ {
			idx := make([]int, n)
			buf := make([]byte, n)
			for {
				for i, j := range idx {
					buf[i] = alphabet[j]
				}
				if !yield(string(buf)) {
					return
				}
				// Advance the odometer; stop after the last string.
				i := n - 1
				for i >= 0 {
					idx[i]++
					if idx[i] < len(alphabet) {
						break
					}
					idx[i] = 0
					i--
				}
				if i < 0 {
					break
				}
			}
		}
	}
}
