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
	"slices"
	"strconv"
	"strings"

	"github.com/AleutianAI/datagen/services/datagen/field"
)

// WeightedElement is a whitelisted value and its sampling weight.
type WeightedElement struct {
	Value  any
	Weight float64
}

// DistributedList is an ordered list of unique values with weights.
//
// Values are unique under field.ValuesEqual. The zero value is empty.
type DistributedList struct {
	elements []WeightedElement
	index    map[string]int
}

// NewDistributedList builds a list. Repeated values keep their first
// occurrence; non-positive weights become 1.
func NewDistributedList(elements ...WeightedElement) DistributedList {
	l := DistributedList{index: make(map[string]int, len(elements))}
	for _, e := range elements {
		key := field.ValueKey(e.Value)
		if _, dup := l.index[key]; dup {
			continue
		}
		if e.Weight <= 0 {
			e.Weight = 1
		}
		l.index[key] = len(l.elements)
		l.elements = append(l.elements, e)
	}
	return l
}

// Uniform builds a list where every value has weight 1.
func Uniform(values ...any) DistributedList {
	elements := make([]WeightedElement, len(values))
	for i, v := range values {
		elements[i] = WeightedElement{Value: v, Weight: 1}
	}
	return NewDistributedList(elements...)
}

// Len returns the number of values.
func (l DistributedList) Len() int { return len(l.elements) }

// IsEmpty reports whether the list has no values.
func (l DistributedList) IsEmpty() bool { return len(l.elements) == 0 }

// Elements returns a copy of the weighted elements.
func (l DistributedList) Elements() []WeightedElement { return slices.Clone(l.elements) }

// Values returns the values in order.
func (l DistributedList) Values() []any {
	out := make([]any, len(l.elements))
	for i, e := range l.elements {
		out[i] = e.Value
	}
	return out
}

// Contains reports whether v is in the list.
func (l DistributedList) Contains(v any) bool {
	_, ok := l.index[field.ValueKey(v)]
	return ok
}

// Weight returns the weight of v.
func (l DistributedList) Weight(v any) (float64, bool) {
	i, ok := l.index[field.ValueKey(v)]
	if !ok {
		return 0, false
	}
	return l.elements[i].Weight, true
}

// TotalWeight sums every weight.
func (l DistributedList) TotalWeight() float64 {
	var total float64
	for _, e := range l.elements {
		total += e.Weight
	}
	return total
}

// Filter keeps the elements whose value satisfies keep.
func (l DistributedList) Filter(keep func(v any) bool) DistributedList {
	kept := make([]WeightedElement, 0, len(l.elements))
	for _, e := range l.elements {
		if keep(e.Value) {
			kept = append(kept, e)
		}
	}
	return NewDistributedList(kept...)
}

// Intersect keeps the values present in both lists, in l's order. The
// weight of a common value is the sum of its two weights.
func (l DistributedList) Intersect(o DistributedList) DistributedList {
	common := make([]WeightedElement, 0, min(l.Len(), o.Len()))
	for _, e := range l.elements {
		if w, ok := o.Weight(e.Value); ok {
			common = append(common, WeightedElement{Value: e.Value, Weight: e.Weight + w})
		}
	}
	return NewDistributedList(common...)
}

// SameValues compares the value sets, ignoring order and weight.
func (l DistributedList) SameValues(o DistributedList) bool {
	if l.Len() != o.Len() {
		return false
	}
	for _, e := range l.elements {
		if !o.Contains(e.Value) {
			return false
		}
	}
	return true
}

func (l DistributedList) String() string {
	parts := make([]string, len(l.elements))
	for i, e := range l.elements {
		parts[i] = field.FormatValue(e.Value)
		if e.Weight != 1 {
			parts[i] += "*" + strconv.FormatFloat(e.Weight, 'g', -1, 64)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
