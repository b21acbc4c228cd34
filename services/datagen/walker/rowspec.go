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
	"maps"
	"slices"
	"strings"

	"github.com/AleutianAI/datagen/services/datagen/field"
	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
	"github.com/AleutianAI/datagen/services/datagen/profile"
)

// RowSpec is one satisfiable assignment of a FieldSpec to every field.
//
// RowSpecs are immutable. Relations that held on the path are carried so
// value generation can enforce them between concrete values.
type RowSpec struct {
	fields    field.Fields
	specs     map[string]fieldspec.FieldSpec
	relations []profile.Relation
}

// NewRowSpec builds a row spec. specs must hold an entry for every field.
func NewRowSpec(fields field.Fields, specs map[string]fieldspec.FieldSpec, relations []profile.Relation) *RowSpec {
	return &RowSpec{
		fields:    slices.Clone(fields),
		specs:     maps.Clone(specs),
		relations: slices.Clone(relations),
	}
}

// Fields returns the row shape.
func (r *RowSpec) Fields() field.Fields { return slices.Clone(r.fields) }

// Spec returns the spec of one field, or nil when the field is unknown.
func (r *RowSpec) Spec(name string) fieldspec.FieldSpec { return r.specs[name] }

// Specs returns a copy of the field to spec map.
func (r *RowSpec) Specs() map[string]fieldspec.FieldSpec { return maps.Clone(r.specs) }

// Relations returns the relations between fields of this row spec.
func (r *RowSpec) Relations() []profile.Relation { return slices.Clone(r.relations) }

// Combine joins row specs over disjoint field sets into one.
//
// Fields are ordered as in order; fields of parts missing from order are
// appended in part order.
func Combine(order field.Fields, parts ...*RowSpec) *RowSpec {
	specs := make(map[string]fieldspec.FieldSpec)
	var relations []profile.Relation
	var extra field.Fields
	for _, p := range parts {
		for _, f := range p.fields {
			specs[f.Name] = p.specs[f.Name]
			if !order.Contains(f.Name) {
				extra = append(extra, f)
			}
		}
		relations = append(relations, p.relations...)
	}
	fields := make(field.Fields, 0, len(specs))
	for _, f := range order {
		if _, ok := specs[f.Name]; ok {
			fields = append(fields, f)
		}
	}
	fields = append(fields, extra...)
	return &RowSpec{fields: fields, specs: specs, relations: relations}
}

// String renders each field's spec in field order.
func (r *RowSpec) String() string {
	var b strings.Builder
	b.WriteString("RowSpec{")
	for i, f := range r.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(r.specs[f.Name].String())
	}
	for _, rel := range r.relations {
		b.WriteString("; ")
		b.WriteString(rel.String())
	}
	b.WriteString("}")
	return b.String()
}
