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
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AleutianAI/datagen/services/datagen/field"
)

// Row is one generated record. Values are ordered like the profile fields.
type Row struct {
	names  []string
	values map[string]any
}

// NewRow builds a row from ordered names and their values.
func NewRow(names []string, values map[string]any) Row {
	return Row{names: names, values: values}
}

// Names returns the field names in order.
func (r Row) Names() []string { return r.names }

// Get returns a field's value; nil stands for null.
func (r Row) Get(name string) any { return r.values[name] }

// Values returns the values in field order.
func (r Row) Values() []any {
	out := make([]any, len(r.names))
	for i, name := range r.names {
		out[i] = r.values[name]
	}
	return out
}

// Strings renders the values in field order, null as an empty string.
func (r Row) Strings() []string {
	out := make([]string, len(r.names))
	for i, name := range r.names {
		if v := r.values[name]; v != nil {
			out[i] = field.FormatValue(v)
		}
	}
	return out
}

// MarshalJSON writes an object with keys in field order. Numbers are JSON
// numbers and datetimes are ISO-8601 strings in UTC.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var raw []byte
		switch v := r.values[name].(type) {
		case decimal.Decimal:
			raw = []byte(v.String())
		case time.Time:
			raw, err = json.Marshal(field.FormatValue(v))
		default:
			raw, err = json.Marshal(v)
		}
		if err != nil {
			return nil, err
		}
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
