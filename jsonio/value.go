/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package jsonio

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	gojson "github.com/goccy/go-json"

	"github.com/suparena/proxystore/errors"
)

// Value is one JSON value, read either from a Document or from a
// TokenReader. Decode works only against this interface, so both sources
// share one set of mapping rules.
type Value interface {
	Kind() (Kind, error)

	// Scalar reads a string, number, boolean or null.
	Scalar() (Scalar, error)

	// Object calls fn for each member in source order. Member values that fn
	// does not read are skipped.
	Object(fn func(name string, v Value) error) error

	// Array calls fn for each element.
	Array(fn func(v Value) error) error

	Skip() error

	Path() string
}

// FromDocument returns the Value of a materialized object.
func FromDocument(doc Document) Value {
	return &docValue{v: map[string]any(doc), path: "$"}
}

// FromAny returns the Value of any decoded JSON value.
func FromAny(v any) Value {
	return &docValue{v: v, path: "$"}
}

// FromReader returns the Value at the current position of a token stream.
func FromReader(r TokenReader) Value {
	return &streamValue{r: r}
}

type docValue struct {
	v    any
	path string
}

func (d *docValue) Path() string {
	return d.path
}

func (d *docValue) Kind() (Kind, error) {
	switch v := d.v.(type) {
	case nil:
		return KindNull, nil
	case bool:
		return KindBool, nil
	case string:
		return KindString, nil
	case gojson.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindNumber, nil
	case map[string]any, Document:
		return KindObject, nil
	case []any, []map[string]any, []Document:
		return KindArray, nil
	default:
		return KindInvalid, errors.NewSchemaMappingError("", "", "JSON value", fmt.Sprintf("%T at %s", v, d.path))
	}
}

func (d *docValue) Scalar() (Scalar, error) {
	switch v := d.v.(type) {
	case nil:
		return Scalar{Kind: KindNull}, nil
	case bool:
		return Scalar{Kind: KindBool, Bool: v}, nil
	case string:
		return Scalar{Kind: KindString, Text: v}, nil
	case gojson.Number:
		return Scalar{Kind: KindNumber, Text: v.String()}, nil
	case float64:
		return Scalar{Kind: KindNumber, Text: strconv.FormatFloat(v, 'g', -1, 64)}, nil
	case float32:
		return Scalar{Kind: KindNumber, Text: strconv.FormatFloat(float64(v), 'g', -1, 32)}, nil
	case int:
		return Scalar{Kind: KindNumber, Text: strconv.FormatInt(int64(v), 10)}, nil
	case int8:
		return Scalar{Kind: KindNumber, Text: strconv.FormatInt(int64(v), 10)}, nil
	case int16:
		return Scalar{Kind: KindNumber, Text: strconv.FormatInt(int64(v), 10)}, nil
	case int32:
		return Scalar{Kind: KindNumber, Text: strconv.FormatInt(int64(v), 10)}, nil
	case int64:
		return Scalar{Kind: KindNumber, Text: strconv.FormatInt(v, 10)}, nil
	case uint:
		return Scalar{Kind: KindNumber, Text: strconv.FormatUint(uint64(v), 10)}, nil
	case uint8:
		return Scalar{Kind: KindNumber, Text: strconv.FormatUint(uint64(v), 10)}, nil
	case uint16:
		return Scalar{Kind: KindNumber, Text: strconv.FormatUint(uint64(v), 10)}, nil
	case uint32:
		return Scalar{Kind: KindNumber, Text: strconv.FormatUint(uint64(v), 10)}, nil
	case uint64:
		return Scalar{Kind: KindNumber, Text: strconv.FormatUint(v, 10)}, nil
	}
	kind, _ := d.Kind()
	return Scalar{}, fmt.Errorf("expected a scalar at %s but found %s", d.path, kind)
}

func (d *docValue) Object(fn func(name string, v Value) error) error {
	var m map[string]any
	switch v := d.v.(type) {
	case map[string]any:
		m = v
	case Document:
		m = v
	default:
		return fmt.Errorf("expected an object at %s", d.path)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := fn(k, &docValue{v: m[k], path: d.path + "." + k}); err != nil {
			return err
		}
	}
	return nil
}

func (d *docValue) Array(fn func(v Value) error) error {
	var items []any
	switch v := d.v.(type) {
	case []any:
		items = v
	case []map[string]any:
		for _, e := range v {
			items = append(items, e)
		}
	case []Document:
		for _, e := range v {
			items = append(items, e)
		}
	default:
		return fmt.Errorf("expected an array at %s", d.path)
	}

	for i, e := range items {
		if err := fn(&docValue{v: e, path: fmt.Sprintf("%s[%d]", d.path, i)}); err != nil {
			return err
		}
	}
	return nil
}

func (d *docValue) Skip() error {
	return nil
}

type streamValue struct {
	r    TokenReader
	used bool
}

func (s *streamValue) Path() string {
	return s.r.Path()
}

func (s *streamValue) wrap(err error) error {
	if err == nil {
		return nil
	}
	return errors.NewStreamReadError(s.r.Path(), err)
}

// Kind fails with a StreamReadError when no value is left at the current
// position, e.g. on an exhausted stream.
func (s *streamValue) Kind() (Kind, error) {
	kind, err := s.r.Peek()
	if err != nil {
		return KindInvalid, s.wrap(err)
	}
	switch kind {
	case KindEnd:
		return KindInvalid, s.wrap(io.ErrUnexpectedEOF)
	case KindEndObject, KindEndArray:
		return KindInvalid, s.wrap(fmt.Errorf("expected a value but found %s", kind))
	}
	return kind, nil
}

func (s *streamValue) Scalar() (Scalar, error) {
	s.used = true
	kind, err := s.r.Peek()
	if err != nil {
		return Scalar{}, s.wrap(err)
	}

	switch kind {
	case KindString:
		text, err := s.r.NextString()
		return Scalar{Kind: kind, Text: text}, s.wrap(err)
	case KindNumber:
		text, err := s.r.NextNumber()
		return Scalar{Kind: kind, Text: text}, s.wrap(err)
	case KindBool:
		b, err := s.r.NextBool()
		return Scalar{Kind: kind, Bool: b}, s.wrap(err)
	case KindNull:
		return Scalar{Kind: kind}, s.wrap(s.r.NextNull())
	}
	return Scalar{}, s.wrap(fmt.Errorf("expected a scalar but found %s", kind))
}

func (s *streamValue) Object(fn func(name string, v Value) error) error {
	s.used = true
	if err := s.r.BeginObject(); err != nil {
		return s.wrap(err)
	}
	for {
		more, err := s.r.HasNext()
		if err != nil {
			return s.wrap(err)
		}
		if !more {
			break
		}
		name, err := s.r.NextName()
		if err != nil {
			return s.wrap(err)
		}

		member := &streamValue{r: s.r}
		if err := fn(name, member); err != nil {
			return err
		}
		if !member.used {
			if err := s.r.Skip(); err != nil {
				return s.wrap(err)
			}
		}
	}
	return s.wrap(s.r.EndObject())
}

func (s *streamValue) Array(fn func(v Value) error) error {
	s.used = true
	if err := s.r.BeginArray(); err != nil {
		return s.wrap(err)
	}
	for {
		more, err := s.r.HasNext()
		if err != nil {
			return s.wrap(err)
		}
		if !more {
			break
		}

		elem := &streamValue{r: s.r}
		if err := fn(elem); err != nil {
			return err
		}
		if !elem.used {
			if err := s.r.Skip(); err != nil {
				return s.wrap(err)
			}
		}
	}
	return s.wrap(s.r.EndArray())
}

func (s *streamValue) Skip() error {
	s.used = true
	return s.wrap(s.r.Skip())
}
