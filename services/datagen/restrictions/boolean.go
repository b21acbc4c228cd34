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

// BooleanRestrictions lists which of the two booleans are legal.
type BooleanRestrictions struct {
	AllowTrue  bool
	AllowFalse bool
}

// DefaultBooleanRestrictions admits both values.
func DefaultBooleanRestrictions() *BooleanRestrictions {
	return &BooleanRestrictions{AllowTrue: true, AllowFalse: true}
}

func (r *BooleanRestrictions) Match(v any) bool {
	b, ok := v.(bool)
	if !ok {
		return false
	}
	if b {
		return r.AllowTrue
	}
	return r.AllowFalse
}

func (r *BooleanRestrictions) IsContradictory() bool {
	return !r.AllowTrue && !r.AllowFalse
}

// Intersect keeps the values both sides allow.
func (r *BooleanRestrictions) Intersect(o *BooleanRestrictions) *BooleanRestrictions {
	return &BooleanRestrictions{
		AllowTrue:  r.AllowTrue && o.AllowTrue,
		AllowFalse: r.AllowFalse && o.AllowFalse,
	}
}

// Values returns the legal values, false first.
func (r *BooleanRestrictions) Values() []bool {
	var out []bool
	if r.AllowFalse {
		out = append(out, false)
	}
	if r.AllowTrue {
		out = append(out, true)
	}
	return out
}

func (r *BooleanRestrictions) Equal(other TypedRestrictions) bool {
	o, ok := other.(*BooleanRestrictions)
	return ok && *r == *o
}

func (r *BooleanRestrictions) String() string {
	switch {
	case r.AllowTrue && r.AllowFalse:
		return "boolean"
	case r.AllowTrue:
		return "true"
	case r.AllowFalse:
		return "false"
	default:
		return "none"
	}
}

func (r *BooleanRestrictions) typedRestrictions() {}
