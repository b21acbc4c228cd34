// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package restrictions

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// MaxStringLength bounds every string field.
const MaxStringLength = 1000

// patternTimeout caps a single regex evaluation.
const patternTimeout = 100 * time.Millisecond

// Pattern is a compiled regular expression used either as a full match
// ("matching") or as a substring search ("containing").
type Pattern struct {
	source   string
	contains bool
	re       *regexp2.Regexp
}

// NewPattern compiles a pattern.
//
// Inputs:
//
//	source - The expression in .NET/Perl syntax.
//	contains - True for substring search, false for a full-string match.
//
// Outputs:
//
//	*Pattern - The compiled pattern.
//	error - ErrInvalidPattern wrapping the compiler error.
func NewPattern(source string, contains bool) (*Pattern, error) {
	expr := source
	if !contains {
		expr = `\A(?:` + source + `)\z`
	}
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, source, err)
	}
	re.MatchTimeout = patternTimeout
	return &Pattern{source: source, contains: contains, re: re}, nil
}

// MustPattern is NewPattern that panics, for literals in tests and tables.
func MustPattern(source string, contains bool) *Pattern {
	p, err := NewPattern(source, contains)
	if err != nil {
		panic(err)
	}
	return p
}

// Source returns the expression as written.
func (p *Pattern) Source() string { return p.source }

// Contains reports whether the pattern is a substring search.
func (p *Pattern) Contains() bool { return p.contains }

// MatchString evaluates the pattern. Evaluation errors count as no match.
func (p *Pattern) MatchString(s string) bool {
	ok, err := p.re.MatchString(s)
	return err == nil && ok
}

func (p *Pattern) key() string {
	if p.contains {
		return "~" + p.source
	}
	return "=" + p.source
}

func (p *Pattern) String() string {
	if p.contains {
		return "containing /" + p.source + "/"
	}
	return "matching /" + p.source + "/"
}

// -----------------------------------------------------------------------------
// StringRestrictions
// -----------------------------------------------------------------------------

// StringRestrictions restricts string length and content.
//
// A string matches when its rune count is in [MinLength, MaxLength], is not
// one of the excluded lengths, satisfies every pattern in Matching and no
// pattern in NotMatching.
type StringRestrictions struct {
	minLength       int
	maxLength       int
	excludedLengths []int
	matching        []*Pattern
	notMatching     []*Pattern
}

// DefaultStringRestrictions admits every string up to MaxStringLength.
func DefaultStringRestrictions() *StringRestrictions {
	return &StringRestrictions{minLength: 0, maxLength: MaxStringLength}
}

// NewLengthRestrictions admits strings with length in [lo, hi].
func NewLengthRestrictions(lo, hi int) *StringRestrictions {
	return &StringRestrictions{minLength: max(lo, 0), maxLength: min(hi, MaxStringLength)}
}

// NewExcludedLengthRestrictions admits strings whose length is not n.
func NewExcludedLengthRestrictions(n int) *StringRestrictions {
	r := DefaultStringRestrictions()
	r.excludedLengths = []int{n}
	return r
}

// NewPatternRestrictions admits strings that satisfy p, or that do not when
// negated is set.
func NewPatternRestrictions(p *Pattern, negated bool) *StringRestrictions {
	r := DefaultStringRestrictions()
	if negated {
		r.notMatching = []*Pattern{p}
	} else {
		r.matching = []*Pattern{p}
	}
	return r
}

// MinLength returns the shortest legal length.
func (r *StringRestrictions) MinLength() int { return r.minLength }

// MaxLength returns the longest legal length.
func (r *StringRestrictions) MaxLength() int { return r.maxLength }

// LengthAllowed reports whether strings of length n may match.
func (r *StringRestrictions) LengthAllowed(n int) bool {
	return n >= r.minLength && n <= r.maxLength && !slices.Contains(r.excludedLengths, n)
}

// Matching returns the patterns a string must satisfy.
func (r *StringRestrictions) Matching() []*Pattern { return slices.Clone(r.matching) }

// NotMatching returns the patterns a string must not satisfy.
func (r *StringRestrictions) NotMatching() []*Pattern { return slices.Clone(r.notMatching) }

// HasPatterns reports whether any content pattern applies.
func (r *StringRestrictions) HasPatterns() bool {
	return len(r.matching) > 0 || len(r.notMatching) > 0
}

func (r *StringRestrictions) Match(v any) bool {
	s, ok := v.(string)
	if !ok || !r.LengthAllowed(utf8.RuneCountInString(s)) {
		return false
	}
	for _, p := range r.matching {
		if !p.MatchString(s) {
			return false
		}
	}
	for _, p := range r.notMatching {
		if p.MatchString(s) {
			return false
		}
	}
	return true
}

// IsContradictory detects empty length ranges and a pattern that is both
// required and forbidden. Other pattern conflicts surface during generation.
func (r *StringRestrictions) IsContradictory() bool {
	if r.minLength > r.maxLength {
		return true
	}
	allExcluded := true
	for n := r.minLength; n <= r.maxLength; n++ {
		if !slices.Contains(r.excludedLengths, n) {
			allExcluded = false
			break
		}
	}
	if allExcluded {
		return true
	}
	for _, p := range r.matching {
		if containsPattern(r.notMatching, p) {
			return true
		}
	}
	return false
}

// Intersect combines two string restrictions.
func (r *StringRestrictions) Intersect(o *StringRestrictions) *StringRestrictions {
	out := &StringRestrictions{
		minLength: max(r.minLength, o.minLength),
		maxLength: min(r.maxLength, o.maxLength),
	}
	out.excludedLengths = append(slices.Clone(r.excludedLengths), o.excludedLengths...)
	slices.Sort(out.excludedLengths)
	out.excludedLengths = slices.Compact(out.excludedLengths)
	out.matching = unionPatterns(r.matching, o.matching)
	out.notMatching = unionPatterns(r.notMatching, o.notMatching)
	return out
}

func containsPattern(ps []*Pattern, p *Pattern) bool {
	return slices.ContainsFunc(ps, func(q *Pattern) bool { return q.key() == p.key() })
}

func unionPatterns(a, b []*Pattern) []*Pattern {
	out := slices.Clone(a)
	for _, p := range b {
		if !containsPattern(out, p) {
			out = append(out, p)
		}
	}
	return out
}

func samePatterns(a, b []*Pattern) bool {
	if len(a) != len(b) {
		return false
	}
	for _, p := range a {
		if !containsPattern(b, p) {
			return false
		}
	}
	return true
}

func (r *StringRestrictions) Equal(other TypedRestrictions) bool {
	o, ok := other.(*StringRestrictions)
	if !ok {
		return false
	}
	return r.minLength == o.minLength && r.maxLength == o.maxLength &&
		slices.Equal(r.excludedLengths, o.excludedLengths) &&
		samePatterns(r.matching, o.matching) && samePatterns(r.notMatching, o.notMatching)
}

func (r *StringRestrictions) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "length [%d, %d]", r.minLength, r.maxLength)
	if len(r.excludedLengths) > 0 {
		fmt.Fprintf(&b, " except %v", r.excludedLengths)
	}
	for _, p := range r.matching {
		b.WriteString(" " + p.String())
	}
	for _, p := range r.notMatching {
		b.WriteString(" not " + p.String())
	}
	return b.String()
}

func (r *StringRestrictions) typedRestrictions() {}
