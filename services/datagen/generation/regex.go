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
	"unicode"
)

// maxRepeat caps unbounded repetition (*, +, {n,}) when producing strings.
const maxRepeat = 8

const (
	printableLo = 0x20
	printableHi = 0x7e
)

// parseRegex parses an expression for string production. Expressions
// using constructs outside RE2 syntax (lookaround, backreferences) fail
// here and fall back to filtered production.
func parseRegex(src string) (*syntax.Regexp, error) {
	re, err := syntax.Parse(src, syntax.Perl)
	if err != nil {
		return nil, err
	}
	return re.Simplify(), nil
}

// -----------------------------------------------------------------------------
// Random production
// -----------------------------------------------------------------------------

// randomMatch writes one random string the expression accepts.
func randomMatch(re *syntax.Regexp, rng *rand.Rand, b *strings.Builder) {
	switch re.Op {
	case syntax.OpLiteral:
		for _, r := range re.Rune {
			if re.Flags&syntax.FoldCase != 0 && rng.IntN(2) == 0 {
				r = unicode.SimpleFold(r)
			}
			b.WriteRune(r)
		}
	case syntax.OpCharClass:
		b.WriteRune(randomClassRune(re.Rune, rng))
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		b.WriteRune(rune(printableLo + rng.IntN(printableHi-printableLo+1)))
	case syntax.OpCapture:
		randomMatch(re.Sub[0], rng, b)
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			randomMatch(sub, rng, b)
		}
	case syntax.OpAlternate:
		randomMatch(re.Sub[rng.IntN(len(re.Sub))], rng, b)
	case syntax.OpQuest, syntax.OpStar, syntax.OpPlus, syntax.OpRepeat:
		lo, hi := repeatBounds(re)
		for range lo + rng.IntN(hi-lo+1) {
			randomMatch(re.Sub[0], rng, b)
		}
	}
	// Empty-width assertions and OpEmptyMatch write nothing.
}

// randomClassRune picks a rune from a class, preferring printable ASCII.
func randomClassRune(ranges []rune, rng *rand.Rand) rune {
	if r, ok := pickFromRanges(clampRanges(ranges, printableLo, printableHi), rng); ok {
		return r
	}
	if r, ok := pickFromRanges(ranges, rng); ok {
		return r
	}
	return printableLo
}

func clampRanges(ranges []rune, lo, hi rune) []rune {
	var out []rune
	for i := 0; i+1 < len(ranges); i += 2 {
		a, z := max(ranges[i], lo), min(ranges[i+1], hi)
		if a <= z {
			out = append(out, a, z)
		}
	}
	return out
}

func pickFromRanges(ranges []rune, rng *rand.Rand) (rune, bool) {
	total := 0
	for i := 0; i+1 < len(ranges); i += 2 {
		total += int(ranges[i+1]-ranges[i]) + 1
	}
	if total == 0 {
		return 0, false
	}
	n := rng.IntN(total)
	for i := 0; i+1 < len(ranges); i += 2 {
		size := int(ranges[i+1]-ranges[i]) + 1
		if n < size {
			return ranges[i] + rune(n), true
		}
		n -= size
	}
	return 0, false
}

func repeatBounds(re *syntax.Regexp) (lo, hi int) {
	switch re.Op {
	case syntax.OpQuest:
		return 0, 1
	case syntax.OpStar:
		return 0, maxRepeat
	case syntax.OpPlus:
		return 1, 1 + maxRepeat
	default:
		lo, hi = re.Min, re.Max
		if hi < 0 {
			hi = lo + maxRepeat
		}
		return lo, hi
	}
}

// -----------------------------------------------------------------------------
// Enumeration
// -----------------------------------------------------------------------------

// enumerateMatches yields strings the expression accepts, repetition
// counts ascending. Repetition is capped, so the sequence is finite.
func enumerateMatches(re *syntax.Regexp) iter.Seq[string] {
	switch re.Op {
	case syntax.OpLiteral:
		return single(string(re.Rune))
	case syntax.OpCharClass:
		return classRunes(re.Rune)
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return classRunes([]rune{printableLo, printableHi})
	case syntax.OpCapture:
		return enumerateMatches(re.Sub[0])
	case syntax.OpConcat:
		return product(re.Sub)
	case syntax.OpAlternate:
		return func(yield func(string) bool) {
			for _, sub := range re.Sub {
				for s := range enumerateMatches(sub) {
					if !yield(s) {
						return
					}
				}
			}
		}
	case syntax.OpQuest, syntax.OpStar, syntax.OpPlus, syntax.OpRepeat:
		lo, hi := repeatBounds(re)
		return func(yield func(string) bool) {
			for n := lo; n <= hi; n++ {
				subs := make([]*syntax.Regexp, n)
				for i := range subs {
					subs[i] = re.Sub[0]
				}
				for s := range product(subs) {
					if !yield(s) {
						return
					}
				}
			}
		}
	default:
		return single("")
	}
}

func single(s string) iter.Seq[string] {
	return func(yield func(string) bool) { yield(s) }
}

// classRunes yields printable ASCII members of the class first.
func classRunes(ranges []rune) iter.Seq[string] {
	return func(yield func(string) bool) {
		printable := clampRanges(ranges, printableLo, printableHi)
		for i := 0; i+1 < len(printable); i += 2 {
			for r := printable[i]; r <= printable[i+1]; r++ {
				if !yield(string(r)) {
					return
				}
			}
		}
		for i := 0; i+1 < len(ranges); i += 2 {
			for r := ranges[i]; r <= ranges[i+1]; r++ {
				if r >= printableLo && r <= printableHi {
					continue
				}
				if !yield(string(r)) {
					return
				}
			}
		}
	}
}

// product yields every concatenation of one string from each expression.
func product(subs []*syntax.Regexp) iter.Seq[string] {
	return func(yield func(string) bool) {
		if len(subs) == 0 {
			yield("")
			return
		}
		for head := range enumerateMatches(subs[0]) {
			for tail := range product(subs[1:]) {
				if !yield(head + tail) {
					return
				}
			}
		}
	}
}
