/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package jsonio

import (
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/schema"
)

// Resolver supplies the schema of the models that link fields point to.
type Resolver interface {
	TableSchema(model string) (*schema.TableSchema, error)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(model string) (*schema.TableSchema, error)

func (f ResolverFunc) TableSchema(model string) (*schema.TableSchema, error) {
	return f(model)
}

// Record is a decoded JSON object, already coerced to the column types of
// its model. Only fields present in the source appear in Fields, ordered by
// column position.
type Record struct {
	Schema *schema.TableSchema
	Fields []Field
}

// Field is one present field of a Record.
type Field struct {
	Name   string
	Column int
	Type   schema.FieldType

	// Value holds the stored Go value of scalar fields; nil is null.
	Value any

	// Link is the decoded target of an object field; nil is null.
	Link *Record

	// List holds the decoded targets of a list field.
	List []*Record
}

// Model returns the model name of the record.
func (r *Record) Model() string {
	return r.Schema.Model
}

// Field returns the named field if the source contained it.
func (r *Record) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// PrimaryKey returns the decoded primary key value.
func (r *Record) PrimaryKey() (any, bool) {
	if r.Schema.PrimaryKey == "" {
		return nil, false
	}
	f, ok := r.Field(r.Schema.PrimaryKey)
	if !ok {
		return nil, false
	}
	return f.Value, true
}

// Decode reads a JSON object into a Record for the given schema. Nested
// objects are decoded with the schemas res returns for link targets.
// Members that name no column are skipped.
func Decode(v Value, s *schema.TableSchema, res Resolver) (*Record, error) {
	kind, err := v.Kind()
	if err != nil {
		return nil, inField(err, s.Model, "")
	}
	if kind != KindObject {
		return nil, errors.NewSchemaMappingError(s.Model, "", "object", kind.String())
	}

	rec := &Record{Schema: s}
	present := make(map[string]int)

	err = v.Object(func(name string, fv Value) error {
		col, pos, ok := s.Column(name)
		if !ok {
			return nil
		}

		f, err := decodeField(fv, s, col, res)
		if err != nil {
			return err
		}
		f.Column = pos

		if i, dup := present[name]; dup {
			rec.Fields[i] = f
			return nil
		}
		present[name] = len(rec.Fields)
		rec.Fields = append(rec.Fields, f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if pk, _, ok := s.PrimaryKeyColumn(); ok {
		if _, found := present[pk.Name]; !found {
			return nil, errors.NewSchemaMappingError(s.Model, pk.Name, pk.Type.String(), "missing value")
		}
	}

	sort.Slice(rec.Fields, func(i, j int) bool {
		return rec.Fields[i].Column < rec.Fields[j].Column
	})
	return rec, nil
}

// inField names the model field of a mapping error raised by a Value,
// which does not know where it is decoded to.
func inField(err error, model, field string) error {
	var sme *errors.SchemaMappingError
	if stderrors.As(err, &sme) && sme.Model == "" {
		sme.Model, sme.Field = model, field
	}
	return err
}

func decodeField(v Value, s *schema.TableSchema, col schema.Column, res Resolver) (Field, error) {
	f := Field{Name: col.Name, Type: col.Type}

	kind, err := v.Kind()
	if err != nil {
		return f, inField(err, s.Model, col.Name)
	}

	switch col.Type {
	case schema.FieldTypeObject:
		switch kind {
		case KindNull:
			_, err := v.Scalar()
			return f, err
		case KindObject:
			target, err := res.TableSchema(col.LinkTarget)
			if err != nil {
				return f, err
			}
			f.Link, err = Decode(v, target, res)
			return f, err
		}
		return f, errors.NewSchemaMappingError(s.Model, col.Name, col.Type.String(), kind.String())

	case schema.FieldTypeList:
		switch kind {
		case KindNull:
			_, err := v.Scalar()
			return f, err
		case KindArray:
			target, err := res.TableSchema(col.LinkTarget)
			if err != nil {
				return f, err
			}
			f.List = []*Record{}
			err = v.Array(func(ev Value) error {
				child, err := Decode(ev, target, res)
				if err != nil {
					return err
				}
				f.List = append(f.List, child)
				return nil
			})
			return f, err
		}
		return f, errors.NewSchemaMappingError(s.Model, col.Name, col.Type.String(), kind.String())
	}

	if !kind.IsScalar() {
		return f, errors.NewSchemaMappingError(s.Model, col.Name, col.Type.String(), kind.String())
	}
	sc, err := v.Scalar()
	if err != nil {
		return f, err
	}
	f.Value, err = Coerce(s.Model, col, sc)
	return f, err
}

// Coerce converts a scalar to the stored Go value of a column.
func Coerce(model string, col schema.Column, sc Scalar) (any, error) {
	mismatch := func() error {
		return errors.NewSchemaMappingError(model, col.Name, col.Type.String(), describe(sc))
	}

	if sc.Kind == KindNull {
		if col.Nullable {
			return nil, nil
		}
		return nil, mismatch()
	}

	switch col.Type {
	case schema.FieldTypeInteger:
		if sc.Kind != KindNumber && sc.Kind != KindString {
			return nil, mismatch()
		}
		n, ok := parseInteger(sc.Text)
		if !ok {
			return nil, mismatch()
		}
		return n, nil

	case schema.FieldTypeBoolean:
		switch {
		case sc.Kind == KindBool:
			return sc.Bool, nil
		case sc.Kind == KindString && sc.Text == "true":
			return true, nil
		case sc.Kind == KindString && sc.Text == "false":
			return false, nil
		}
		return nil, mismatch()

	case schema.FieldTypeFloat:
		if sc.Kind != KindNumber && sc.Kind != KindString {
			return nil, mismatch()
		}
		f, err := strconv.ParseFloat(sc.Text, 32)
		if err != nil {
			return nil, mismatch()
		}
		return float32(f), nil

	case schema.FieldTypeDouble:
		if sc.Kind != KindNumber && sc.Kind != KindString {
			return nil, mismatch()
		}
		f, err := strconv.ParseFloat(sc.Text, 64)
		if err != nil {
			return nil, mismatch()
		}
		return f, nil

	case schema.FieldTypeString:
		if sc.Kind != KindString && sc.Kind != KindNumber {
			return nil, mismatch()
		}
		return sc.Text, nil

	case schema.FieldTypeBinary:
		if sc.Kind != KindString {
			return nil, mismatch()
		}
		b, err := base64.StdEncoding.DecodeString(sc.Text)
		if err != nil {
			return nil, mismatch()
		}
		return b, nil

	case schema.FieldTypeDate:
		if sc.Kind != KindNumber && sc.Kind != KindString {
			return nil, mismatch()
		}
		t, ok := parseDate(sc.Text)
		if !ok {
			return nil, mismatch()
		}
		return t, nil
	}
	return nil, mismatch()
}

func describe(sc Scalar) string {
	switch sc.Kind {
	case KindString:
		return fmt.Sprintf("string %q", sc.Text)
	case KindNumber:
		return "number " + sc.Text
	case KindBool:
		return "boolean " + strconv.FormatBool(sc.Bool)
	}
	return sc.Kind.String()
}

// parseInteger accepts integer literals and floats with no fractional part.
func parseInteger(text string) (int64, bool) {
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

var msDate = regexp.MustCompile(`^/Date\((-?\d+)(?:[+-]\d{4})?\)/$`)

// parseDate accepts Unix milliseconds, /Date(ms)/ and RFC 3339 timestamps.
func parseDate(text string) (time.Time, bool) {
	if ms, ok := parseInteger(text); ok {
		return time.UnixMilli(ms).UTC(), true
	}
	if m := msDate.FindStringSubmatch(text); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}
	if text == "" {
		return time.Time{}, false
	}
	dt, err := strfmt.ParseDateTime(text)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(time.Time(dt).UnixMilli()).UTC(), true
}
