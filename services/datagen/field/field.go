// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package field defines the row shape shared by every datagen package:
// fields, their declared types, and value identity rules.
package field

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownType is returned when a type name cannot be parsed.
	ErrUnknownType = errors.New("unknown field type")

	// ErrValueType is returned when a value does not belong to a field type.
	ErrValueType = errors.New("value does not match field type")
)

// Type is the declared type of a field.
type Type int

const (
	// TypeString holds UTF-8 strings.
	TypeString Type = iota

	// TypeNumeric holds decimal.Decimal values.
	TypeNumeric

	// TypeDateTime holds time.Time values in UTC.
	TypeDateTime

	// TypeBoolean holds bool values.
	TypeBoolean
)

// String returns the lower-case type name used in profile documents.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumeric:
		return "numeric"
	case TypeDateTime:
		return "datetime"
	case TypeBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// ParseType converts a profile type name into a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string":
		return TypeString, nil
	case "numeric", "decimal", "integer":
		return TypeNumeric, nil
	case "datetime":
		return TypeDateTime, nil
	case "boolean":
		return TypeBoolean, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// Field is one column of the generated rows.
//
// Fields are values; constraints refer to them by name.
type Field struct {
	Name     string
	Type     Type
	Nullable bool
}

// String returns the field name.
func (f Field) String() string {
	return f.Name
}

// Fields is the ordered field list that defines row shape.
type Fields []Field

// Names returns the field names in order.
func (fs Fields) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// Get looks up a field by name.
func (fs Fields) Get(name string) (Field, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Contains reports whether a field with the given name exists.
func (fs Fields) Contains(name string) bool {
	_, ok := fs.Get(name)
	return ok
}

// Subset returns the fields whose names are in keep, preserving order.
func (fs Fields) Subset(keep map[string]struct{}) Fields {
	out := make(Fields, 0, len(keep))
	for _, f := range fs {
		if _, ok := keep[f.Name]; ok {
			out = append(out, f)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Value identity
// -----------------------------------------------------------------------------

// CheckValue verifies that v is a legal non-null value for type t.
func CheckValue(t Type, v any) error {
	ok := false
	switch v.(type) {
	case string:
		ok = t == TypeString
	case decimal.Decimal:
		ok = t == TypeNumeric
	case time.Time:
		ok = t == TypeDateTime
	case bool:
		ok = t == TypeBoolean
	}
	if !ok {
		return fmt.Errorf("%w: %v (%T) for %s", ErrValueType, v, v, t)
	}
	return nil
}

// TypeOf returns the field type a value belongs to.
func TypeOf(v any) (Type, bool) {
	switch v.(type) {
	case string:
		return TypeString, true
	case decimal.Decimal:
		return TypeNumeric, true
	case time.Time:
		return TypeDateTime, true
	case bool:
		return TypeBoolean, true
	default:
		return 0, false
	}
}

// ValuesEqual compares two field values by value, so 50 and 5E1 are equal
// and instants are compared regardless of location.
func ValuesEqual(a, b any) bool {
	switch av := a.(type) {
	case decimal.Decimal:
		bv, ok := b.(decimal.Decimal)
		return ok && av.Equal(bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	default:
		return a == b
	}
}

// ValueKey returns a string that is identical for values ValuesEqual
// considers equal. It is used to key sets of values.
func ValueKey(v any) string {
	switch tv := v.(type) {
	case nil:
		return "null"
	case decimal.Decimal:
		return "n:" + tv.String()
	case time.Time:
		return "t:" + tv.UTC().Format(time.RFC3339Nano)
	case string:
		return "s:" + tv
	case bool:
		if tv {
			return "b:true"
		}
		return "b:false"
	default:
		return fmt.Sprintf("%T:%v", v, v)
	}
}

// FormatValue renders a value the way it appears in row output.
func FormatValue(v any) string {
	switch tv := v.(type) {
	case nil:
		return "null"
	case decimal.Decimal:
		return tv.String()
	case time.Time:
		return tv.UTC().Format("2006-01-02T15:04:05.000Z")
	default:
		return fmt.Sprint(v)
	}
}
