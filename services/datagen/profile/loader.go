// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/datagen/services/datagen/field"
	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
	"github.com/AleutianAI/datagen/services/datagen/restrictions"
)

// ErrInvalidProfile wraps every problem found while loading a profile
// document.
var ErrInvalidProfile = errors.New("invalid profile")

// GeneratorLookup resolves the `generator` predicate by name.
type GeneratorLookup interface {
	Lookup(name string) (CustomGenerator, bool)
}

// -----------------------------------------------------------------------------
// Documents
// -----------------------------------------------------------------------------

type profileDocument struct {
	Description string           `yaml:"description" json:"description"`
	Fields      []fieldDocument  `yaml:"fields" json:"fields" validate:"required,min=1,unique=Name,dive"`
	Constraints []map[string]any `yaml:"constraints" json:"constraints"`
}

type fieldDocument struct {
	Name     string `yaml:"name" json:"name" validate:"required"`
	Type     string `yaml:"type" json:"type" validate:"required"`
	Nullable bool   `yaml:"nullable" json:"nullable"`
}

var documentValidator = validator.New()

// Loader turns YAML or JSON profile documents into a Profile.
//
// Description:
//
//	A document has `fields` (name, type, nullable) and `constraints`.
//	Each constraint is a field predicate, a relation between two fields,
//	or a combinator:
//
//	  {field: price, greaterThan: 10}
//	  {field: end, afterField: start, offset: 2, offsetUnit: days}
//	  {anyOf: [...]}, {allOf: [...]}, {not: {...}}
//	  {if: {...}, then: {...}, else: {...}}
//
//	Documents starting with '{' are read as JSON, keeping numbers exact;
//	anything else is read as YAML.
//
// Thread Safety: Safe for concurrent use when the lookup is.
type Loader struct {
	generators GeneratorLookup
}

// NewLoader creates a loader. generators may be nil, in which case any
// `generator` predicate is rejected.
func NewLoader(generators GeneratorLookup) *Loader {
	return &Loader{generators: generators}
}

// LoadFile reads and parses a profile file.
func (l *Loader) LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	return l.parse(data, filepath.Dir(path))
}

// Parse reads one profile document.
//
// Inputs:
//
//	data - YAML or JSON.
//
// Outputs:
//
//	*Profile - Fields in declared order and the top-level constraints.
//	error - ErrInvalidProfile naming the offending path, such as
//	        "constraints[1].anyOf[0]".
func (l *Loader) Parse(data []byte) (*Profile, error) {
	return l.parse(data, "")
}

// parse resolves `inSet: {file: ...}` paths against dir.
func (l *Loader) parse(data []byte, dir string) (*Profile, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidProfile)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if err := documentValidator.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProfile, describeValidation(err))
	}

	p := &Profile{Description: doc.Description}
	for i, fd := range doc.Fields {
		t, err := field.ParseType(fd.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: fields[%d]: %v", ErrInvalidProfile, i, err)
		}
		p.Fields = append(p.Fields, field.Field{Name: fd.Name, Type: t, Nullable: fd.Nullable})
	}

	b := &builder{fields: p.Fields, generators: l.generators, dir: dir}
	for i, doc := range doc.Constraints {
		c, err := b.constraint(doc, fmt.Sprintf("constraints[%d]", i))
		if err != nil {
			return nil, err
		}
		p.Constraints = append(p.Constraints, c)
	}
	return p, nil
}

func decodeDocument(data []byte) (profileDocument, error) {
	var doc profileDocument
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		dec.DisallowUnknownFields()
		return doc, dec.Decode(&doc)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return doc, dec.Decode(&doc)
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, e := range verrs {
		parts[i] = fmt.Sprintf("%s failed %q", e.Namespace(), e.Tag())
	}
	return strings.Join(parts, "; ")
}

// -----------------------------------------------------------------------------
// Constraint builder
// -----------------------------------------------------------------------------

type builder struct {
	fields     field.Fields
	generators GeneratorLookup

	// dir anchors relative set files. Empty means the working directory.
	dir string
}

type predicateFunc func(b *builder, f field.Field, v any) (Constraint, error)

var predicates = map[string]predicateFunc{
	"equalTo":              (*builder).equalTo,
	"inSet":                (*builder).inSet,
	"isNull":               (*builder).isNull,
	"ofType":               (*builder).ofType,
	"greaterThan":          bound(field.TypeNumeric, true, false),
	"greaterThanOrEqualTo": bound(field.TypeNumeric, true, true),
	"lessThan":             bound(field.TypeNumeric, false, false),
	"lessThanOrEqualTo":    bound(field.TypeNumeric, false, true),
	"after":                bound(field.TypeDateTime, true, false),
	"afterOrAt":            bound(field.TypeDateTime, true, true),
	"before":               bound(field.TypeDateTime, false, false),
	"beforeOrAt":           bound(field.TypeDateTime, false, true),
	"granularTo":           (*builder).granularTo,
	"matchingRegex":        pattern(false),
	"containingRegex":      pattern(true),
	"ofLength":             length(func(f field.Field, n int) Atomic { return &OfLength{F: f, N: n} }),
	"longerThan":           length(func(f field.Field, n int) Atomic { return &LongerThan{F: f, N: n} }),
	"shorterThan":          length(func(f field.Field, n int) Atomic { return &ShorterThan{F: f, N: n} }),
	"generator":            (*builder).generator,
}

type relationKind struct {
	ordering  bool
	greater   bool
	inclusive bool
	notEqual  bool
	dateTime  bool
}

var relations = map[string]relationKind{
	"equalToField":              {},
	"notEqualToField":           {notEqual: true},
	"greaterThanField":          {ordering: true, greater: true},
	"greaterThanOrEqualToField": {ordering: true, greater: true, inclusive: true},
	"lessThanField":             {ordering: true},
	"lessThanOrEqualToField":    {ordering: true, inclusive: true},
	"afterField":                {ordering: true, greater: true, dateTime: true},
	"afterOrAtField":            {ordering: true, greater: true, inclusive: true, dateTime: true},
	"beforeField":               {ordering: true, dateTime: true},
	"beforeOrAtField":           {ordering: true, inclusive: true, dateTime: true},
}

func invalid(path, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidProfile, path, fmt.Sprintf(format, args...))
}

func (b *builder) constraint(doc map[string]any, path string) (Constraint, error) {
	if doc == nil {
		return nil, invalid(path, "empty constraint")
	}
	switch {
	case has(doc, "allOf"), has(doc, "anyOf"):
		key := "allOf"
		if has(doc, "anyOf") {
			key = "anyOf"
		}
		if len(doc) != 1 {
			return nil, invalid(path, "%s cannot be combined with other keys", key)
		}
		subs, err := b.list(doc[key], path+"."+key)
		if err != nil {
			return nil, err
		}
		if key == "allOf" {
			return AllOf(subs...), nil
		}
		if len(subs) == 0 {
			return nil, invalid(path, "anyOf needs at least one constraint")
		}
		return AnyOf(subs...), nil

	case has(doc, "not"):
		if len(doc) != 1 {
			return nil, invalid(path, "not cannot be combined with other keys")
		}
		inner, err := b.nested(doc["not"], path+".not")
		if err != nil {
			return nil, err
		}
		return Negation(inner), nil

	case has(doc, "if"):
		return b.conditional(doc, path)

	case has(doc, "field"):
		return b.fieldConstraint(doc, path)
	}
	return nil, invalid(path, "expected field, allOf, anyOf, not or if")
}

func has(doc map[string]any, key string) bool {
	_, ok := doc[key]
	return ok
}

func (b *builder) nested(v any, path string) (Constraint, error) {
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, invalid(path, "expected a constraint object, got %T", v)
	}
	return b.constraint(doc, path)
}

func (b *builder) list(v any, path string) ([]Constraint, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, invalid(path, "expected a list, got %T", v)
	}
	out := make([]Constraint, 0, len(items))
	for i, item := range items {
		c, err := b.nested(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (b *builder) conditional(doc map[string]any, path string) (Constraint, error) {
	for key := range doc {
		if key != "if" && key != "then" && key != "else" {
			return nil, invalid(path, "unexpected key %q in conditional", key)
		}
	}
	if !has(doc, "then") {
		return nil, invalid(path, "if requires then")
	}
	cond, err := b.nested(doc["if"], path+".if")
	if err != nil {
		return nil, err
	}
	then, err := b.nested(doc["then"], path+".then")
	if err != nil {
		return nil, err
	}
	if !has(doc, "else") {
		return IfThen(cond, then), nil
	}
	otherwise, err := b.nested(doc["else"], path+".else")
	if err != nil {
		return nil, err
	}
	return IfThenElse(cond, then, otherwise), nil
}

func (b *builder) lookupField(v any, path string) (field.Field, error) {
	name, ok := v.(string)
	if !ok {
		return field.Field{}, invalid(path, "field name must be a string, got %T", v)
	}
	f, ok := b.fields.Get(name)
	if !ok {
		return field.Field{}, invalid(path, "unknown field %q", name)
	}
	return f, nil
}

func (b *builder) fieldConstraint(doc map[string]any, path string) (Constraint, error) {
	f, err := b.lookupField(doc["field"], path+".field")
	if err != nil {
		return nil, err
	}

	var ops []string
	for key := range doc {
		switch key {
		case "field", "offset", "offsetUnit":
			continue
		}
		ops = append(ops, key)
	}
	if len(ops) != 1 {
		slices.Sort(ops)
		return nil, invalid(path, "field constraint needs exactly one operator, got %v", ops)
	}
	op := ops[0]
	opPath := path + "." + op

	if kind, ok := relations[op]; ok {
		return b.relation(f, op, kind, doc, opPath)
	}
	if has(doc, "offset") || has(doc, "offsetUnit") {
		return nil, invalid(path, "offset is only valid on relations")
	}
	pred, ok := predicates[op]
	if !ok {
		return nil, invalid(path, "unknown operator %q", op)
	}
	c, err := pred(b, f, doc[op])
	if err != nil {
		if errors.Is(err, ErrInvalidProfile) {
			return nil, err
		}
		return nil, invalid(opPath, "%v", err)
	}
	return c, nil
}

// -----------------------------------------------------------------------------
// Predicates
// -----------------------------------------------------------------------------

func (b *builder) equalTo(f field.Field, v any) (Constraint, error) {
	value, err := parseValue(f.Type, v)
	if err != nil {
		return nil, err
	}
	return EqualTo(f, value), nil
}

// inSet accepts plain values or {value, weight} objects.
func (b *builder) inSet(f field.Field, v any) (Constraint, error) {
	if m, ok := v.(map[string]any); ok {
		return b.inSetFile(f, m)
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("inSet expects a list or {file: path}, got %T", v)
	}
	elements := make([]fieldspec.WeightedElement, 0, len(items))
	for i, item := range items {
		raw, weight := item, 1.0
		if m, ok := item.(map[string]any); ok {
			raw = m["value"]
			if w, ok := m["weight"]; ok {
				d, err := toDecimal(w)
				if err != nil || !d.IsPositive() {
					return nil, fmt.Errorf("inSet[%d]: weight must be a positive number", i)
				}
				weight = d.InexactFloat64()
			}
		}
		value, err := parseValue(f.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("inSet[%d]: %w", i, err)
		}
		elements = append(elements, fieldspec.WeightedElement{Value: value, Weight: weight})
	}
	return &InSet{F: f, Values: fieldspec.NewDistributedList(elements...)}, nil
}

// inSetFile reads a weighted CSV set of strings.
func (b *builder) inSetFile(f field.Field, m map[string]any) (Constraint, error) {
	path, ok := m["file"].(string)
	if !ok || path == "" || len(m) != 1 {
		return nil, fmt.Errorf("inSet expects {file: path}")
	}
	if f.Type != field.TypeString {
		return nil, fmt.Errorf("%w: inSet files hold strings, %s is %s", ErrTypeMismatch, f.Name, f.Type)
	}
	if !filepath.IsAbs(path) && b.dir != "" {
		path = filepath.Join(b.dir, path)
	}
	list, err := readWeightedFile(path)
	if err != nil {
		return nil, fmt.Errorf("inSet file: %w", err)
	}
	if list.IsEmpty() {
		return nil, fmt.Errorf("inSet file %s has no values", path)
	}
	return &InSet{F: f, Values: list}, nil
}

func (b *builder) isNull(f field.Field, v any) (Constraint, error) {
	flag, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("isNull expects true or false, got %T", v)
	}
	return &IsNull{F: f, Negated: !flag}, nil
}

func (b *builder) ofType(f field.Field, v any) (Constraint, error) {
	name, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("ofType expects a type name, got %T", v)
	}
	if nt, err := ParseNameType(name); err == nil {
		if f.Type != field.TypeString {
			return nil, fmt.Errorf("%w: ofType %s needs a string field, %s is %s", ErrTypeMismatch, nt, f.Name, f.Type)
		}
		names, err := Names(nt)
		if err != nil {
			return nil, err
		}
		return &InSet{F: f, Values: names}, nil
	}
	t, err := field.ParseType(name)
	if err != nil {
		return nil, err
	}
	return &OfType{F: f, Type: t}, nil
}

func bound(t field.Type, greater, inclusive bool) predicateFunc {
	return func(_ *builder, f field.Field, v any) (Constraint, error) {
		if f.Type != t {
			return nil, fmt.Errorf("%w: field %s is %s, operator needs %s", ErrTypeMismatch, f.Name, f.Type, t)
		}
		value, err := parseValue(t, v)
		if err != nil {
			return nil, err
		}
		if greater {
			return &GreaterThan{F: f, Value: value, Inclusive: inclusive}, nil
		}
		return &LessThan{F: f, Value: value, Inclusive: inclusive}, nil
	}
}

func (b *builder) granularTo(f field.Field, v any) (Constraint, error) {
	switch f.Type {
	case field.TypeNumeric:
		step, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		g, err := restrictions.NumericGranularityFromValue(step)
		if err != nil {
			return nil, err
		}
		return &NumericGranularTo{F: f, Granularity: g}, nil
	case field.TypeDateTime:
		name, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("granularTo on a datetime expects a unit name, got %T", v)
		}
		unit, err := restrictions.ParseChronoUnit(name)
		if err != nil {
			return nil, err
		}
		return &DateTimeGranularTo{F: f, Granularity: restrictions.NewDateTimeGranularity(unit)}, nil
	default:
		return nil, fmt.Errorf("%w: granularTo needs a numeric or datetime field, %s is %s", ErrTypeMismatch, f.Name, f.Type)
	}
}

func pattern(contains bool) predicateFunc {
	return func(_ *builder, f field.Field, v any) (Constraint, error) {
		if f.Type != field.TypeString {
			return nil, fmt.Errorf("%w: regex needs a string field, %s is %s", ErrTypeMismatch, f.Name, f.Type)
		}
		source, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("regex must be a string, got %T", v)
		}
		p, err := restrictions.NewPattern(source, contains)
		if err != nil {
			return nil, err
		}
		return &MatchesPattern{F: f, Pattern: p}, nil
	}
}

func length(build func(field.Field, int) Atomic) predicateFunc {
	return func(_ *builder, f field.Field, v any) (Constraint, error) {
		if f.Type != field.TypeString {
			return nil, fmt.Errorf("%w: length needs a string field, %s is %s", ErrTypeMismatch, f.Name, f.Type)
		}
		n, err := toInt(v)
		if err != nil {
			return nil, err
		}
		if n < 0 || n > restrictions.MaxStringLength {
			return nil, fmt.Errorf("length %d outside [0, %d]", n, restrictions.MaxStringLength)
		}
		return build(f, n), nil
	}
}

func (b *builder) generator(f field.Field, v any) (Constraint, error) {
	name, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("generator expects a name, got %T", v)
	}
	if b.generators == nil {
		return nil, fmt.Errorf("unknown generator %q", name)
	}
	gen, ok := b.generators.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown generator %q", name)
	}
	return NewCustom(f, gen)
}

// -----------------------------------------------------------------------------
// Relations
// -----------------------------------------------------------------------------

func (b *builder) relation(main field.Field, op string, kind relationKind, doc map[string]any, path string) (Constraint, error) {
	other, err := b.lookupField(doc[op], path)
	if err != nil {
		return nil, err
	}
	if other.Name == main.Name {
		return nil, invalid(path, "field %q cannot relate to itself", main.Name)
	}
	if other.Type != main.Type {
		return nil, invalid(path, "%s is %s but %s is %s", main.Name, main.Type, other.Name, other.Type)
	}
	if kind.ordering {
		want := field.TypeNumeric
		if kind.dateTime {
			want = field.TypeDateTime
		}
		if main.Type != want {
			return nil, invalid(path, "operator needs %s fields, %s is %s", want, main.Name, main.Type)
		}
	}

	offset, err := parseOffset(main.Type, doc)
	if err != nil {
		return nil, invalid(path, "%v", err)
	}

	switch {
	case kind.notEqual:
		if !offset.IsZero() {
			return nil, invalid(path, "notEqualToField does not take an offset")
		}
		return &NotEqualToField{M: main, O: other}, nil
	case !kind.ordering:
		return &EqualToField{M: main, O: other, Offset: offset}, nil
	case kind.greater:
		return &GreaterThanField{M: main, O: other, Inclusive: kind.inclusive, Offset: offset}, nil
	default:
		return &LessThanField{M: main, O: other, Inclusive: kind.inclusive, Offset: offset}, nil
	}
}

func parseOffset(t field.Type, doc map[string]any) (Offset, error) {
	raw, ok := doc["offset"]
	if !ok {
		if has(doc, "offsetUnit") {
			return Offset{}, errors.New("offsetUnit without offset")
		}
		return Offset{}, nil
	}
	amount, err := toInt(raw)
	if err != nil {
		return Offset{}, fmt.Errorf("offset: %w", err)
	}
	switch t {
	case field.TypeNumeric:
		if has(doc, "offsetUnit") {
			return Offset{}, errors.New("offsetUnit is only valid on datetime fields")
		}
		return Offset{Amount: amount}, nil
	case field.TypeDateTime:
		unitName, _ := doc["offsetUnit"].(string)
		if unitName == "" {
			unitName = "days"
		}
		unit, err := restrictions.ParseChronoUnit(unitName)
		if err != nil {
			return Offset{}, err
		}
		return Offset{Amount: amount, Unit: unit}, nil
	default:
		return Offset{}, fmt.Errorf("offsets need numeric or datetime fields, not %s", t)
	}
}

// -----------------------------------------------------------------------------
// Values
// -----------------------------------------------------------------------------

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseValue converts a decoded document value to the field type's value
// representation.
func parseValue(t field.Type, v any) (any, error) {
	if v == nil {
		return nil, errors.New("null is not a value; use isNull")
	}
	switch t {
	case field.TypeNumeric:
		return toDecimal(v)
	case field.TypeDateTime:
		switch tv := v.(type) {
		case time.Time:
			return tv.UTC(), nil
		case string:
			for _, layout := range dateTimeLayouts {
				if parsed, err := time.Parse(layout, tv); err == nil {
					return parsed.UTC(), nil
				}
			}
			return nil, fmt.Errorf("%w: %q is not a datetime", field.ErrValueType, tv)
		}
	case field.TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case field.TypeBoolean:
		if flag, ok := v.(bool); ok {
			return flag, nil
		}
	}
	return nil, fmt.Errorf("%w: %v (%T) for %s", field.ErrValueType, v, v, t)
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch tv := v.(type) {
	case int:
		return decimal.NewFromInt(int64(tv)), nil
	case int64:
		return decimal.NewFromInt(tv), nil
	case json.Number:
		return toDecimal(tv.String())
	case uint64:
		return decimal.NewFromString(strconv.FormatUint(tv, 10))
	case float64:
		if math.IsNaN(tv) || math.IsInf(tv, 0) {
			return decimal.Decimal{}, fmt.Errorf("%w: %v is not finite", field.ErrValueType, tv)
		}
		return decimal.NewFromFloat(tv), nil
	case string:
		d, err := decimal.NewFromString(tv)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: %q is not a number", field.ErrValueType, tv)
		}
		return d, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: %v (%T) is not a number", field.ErrValueType, v, v)
	}
}

func toInt(v any) (int, error) {
	d, err := toDecimal(v)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() || d.Abs().GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, fmt.Errorf("%w: %s is not an integer", field.ErrValueType, d)
	}
	return int(d.IntPart()), nil
}
