/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package jsonio

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/suparena/proxystore/errors"
)

// TokenReader is a forward-only JSON token stream. Implementations report
// malformed or truncated input as a StreamReadError.
type TokenReader interface {
	// Peek returns the kind of the next token without consuming it.
	Peek() (Kind, error)

	BeginObject() error
	EndObject() error
	BeginArray() error
	EndArray() error

	// HasNext reports whether the current object or array has more elements.
	HasNext() (bool, error)

	NextName() (string, error)
	NextString() (string, error)

	// NextNumber returns the literal text of a number.
	NextNumber() (string, error)
	NextBool() (bool, error)
	NextNull() error

	// Skip consumes the next value, including nested objects and arrays.
	Skip() error

	// Path describes the current position, e.g. $.dog.tags[2].
	Path() string
}

type frame struct {
	array      bool
	name       string
	index      int
	expectName bool
}

// Reader is a TokenReader over an io.Reader.
type Reader struct {
	src    *syntaxReader
	dec    *gojson.Decoder
	next   gojson.Token
	kind   Kind
	peeked bool
	stack  []frame
	err    error
}

// NewReader creates a Reader. The input may hold several top-level values.
func NewReader(r io.Reader) *Reader {
	src := newSyntaxReader(r)
	dec := gojson.NewDecoder(src)
	dec.UseNumber()
	return &Reader{src: src, dec: dec}
}

func (r *Reader) Path() string {
	var b strings.Builder
	b.WriteString("$")
	for _, f := range r.stack {
		if f.array {
			fmt.Fprintf(&b, "[%d]", f.index)
		} else if f.name != "" {
			b.WriteString(".")
			b.WriteString(f.name)
		}
	}
	return b.String()
}

func (r *Reader) fail(err error) error {
	if r.err == nil {
		r.err = errors.NewStreamReadError(r.Path(), err)
	}
	return r.err
}

func (r *Reader) Peek() (Kind, error) {
	if r.err != nil {
		return KindInvalid, r.err
	}
	if r.peeked {
		return r.kind, nil
	}

	tok, err := r.dec.Token()
	if err != nil {
		if cause := r.src.failure(); cause != nil {
			return KindInvalid, r.fail(cause)
		}
	}
	if err == io.EOF {
		if len(r.stack) > 0 {
			return KindInvalid, r.fail(io.ErrUnexpectedEOF)
		}
		r.next, r.kind, r.peeked = nil, KindEnd, true
		return KindEnd, nil
	}
	if err != nil {
		return KindInvalid, r.fail(err)
	}

	kind := KindInvalid
	switch t := tok.(type) {
	case gojson.Delim:
		switch t {
		case '{':
			kind = KindObject
		case '}':
			kind = KindEndObject
		case '[':
			kind = KindArray
		case ']':
			kind = KindEndArray
		}
	case string:
		kind = KindString
		if n := len(r.stack); n > 0 && !r.stack[n-1].array && r.stack[n-1].expectName {
			kind = KindName
		}
	case gojson.Number, float64:
		kind = KindNumber
	case bool:
		kind = KindBool
	case nil:
		kind = KindNull
	}
	if kind == KindInvalid {
		return KindInvalid, r.fail(fmt.Errorf("unexpected token %v", tok))
	}

	r.next, r.kind, r.peeked = tok, kind, true
	return kind, nil
}

func (r *Reader) expect(want Kind) (gojson.Token, error) {
	kind, err := r.Peek()
	if err != nil {
		return nil, err
	}
	if kind != want {
		return nil, r.fail(fmt.Errorf("expected %s but found %s", want, kind))
	}
	tok := r.next
	r.next, r.peeked = nil, false
	return tok, nil
}

// valueDone advances the enclosing frame past a completed value.
func (r *Reader) valueDone() {
	if n := len(r.stack); n > 0 {
		f := &r.stack[n-1]
		if f.array {
			f.index++
		} else {
			f.expectName = true
		}
	}
}

func (r *Reader) BeginObject() error {
	if _, err := r.expect(KindObject); err != nil {
		return err
	}
	r.stack = append(r.stack, frame{expectName: true})
	return nil
}

func (r *Reader) EndObject() error {
	if _, err := r.expect(KindEndObject); err != nil {
		return err
	}
	r.stack = r.stack[:len(r.stack)-1]
	r.valueDone()
	return nil
}

func (r *Reader) BeginArray() error {
	if _, err := r.expect(KindArray); err != nil {
		return err
	}
	r.stack = append(r.stack, frame{array: true})
	return nil
}

func (r *Reader) EndArray() error {
	if _, err := r.expect(KindEndArray); err != nil {
		return err
	}
	r.stack = r.stack[:len(r.stack)-1]
	r.valueDone()
	return nil
}

func (r *Reader) HasNext() (bool, error) {
	kind, err := r.Peek()
	if err != nil {
		return false, err
	}
	return kind != KindEndObject && kind != KindEndArray && kind != KindEnd, nil
}

func (r *Reader) NextName() (string, error) {
	tok, err := r.expect(KindName)
	if err != nil {
		return "", err
	}
	f := &r.stack[len(r.stack)-1]
	f.name = tok.(string)
	f.expectName = false
	return f.name, nil
}

func (r *Reader) NextString() (string, error) {
	tok, err := r.expect(KindString)
	if err != nil {
		return "", err
	}
	r.valueDone()
	return tok.(string), nil
}

func (r *Reader) NextNumber() (string, error) {
	tok, err := r.expect(KindNumber)
	if err != nil {
		return "", err
	}
	r.valueDone()
	switch n := tok.(type) {
	case gojson.Number:
		// the decoder's number tokens share its read buffer
		return strings.Clone(n.String()), nil
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64), nil
	}
	return "", r.fail(fmt.Errorf("unexpected number token %v", tok))
}

func (r *Reader) NextBool() (bool, error) {
	tok, err := r.expect(KindBool)
	if err != nil {
		return false, err
	}
	r.valueDone()
	return tok.(bool), nil
}

func (r *Reader) NextNull() error {
	if _, err := r.expect(KindNull); err != nil {
		return err
	}
	r.valueDone()
	return nil
}

func (r *Reader) Skip() error {
	kind, err := r.Peek()
	if err != nil {
		return err
	}
	switch kind {
	case KindObject:
		if err := r.BeginObject(); err != nil {
			return err
		}
		for {
			more, err := r.HasNext()
			if err != nil {
				return err
			}
			if !more {
				break
			}
			if _, err := r.NextName(); err != nil {
				return err
			}
			if err := r.Skip(); err != nil {
				return err
			}
		}
		return r.EndObject()
	case KindArray:
		if err := r.BeginArray(); err != nil {
			return err
		}
		for {
			more, err := r.HasNext()
			if err != nil {
				return err
			}
			if !more {
				break
			}
			if err := r.Skip(); err != nil {
				return err
			}
		}
		return r.EndArray()
	case KindString, KindNumber, KindBool, KindNull:
		r.next, r.peeked = nil, false
		r.valueDone()
		return nil
	default:
		return r.fail(fmt.Errorf("cannot skip %s", kind))
	}
}

// Mark is a position in the stream, taken before reading a value.
type Mark struct {
	depth int
	index int
}

// Mark returns the current position.
func (r *Reader) Mark() Mark {
	m := Mark{depth: len(r.stack)}
	if m.depth > 0 {
		m.index = r.stack[m.depth-1].index
	}
	return m
}

// SkipRest consumes whatever remains of the value that started at m, so that
// reading can resume with the next value after a failed one.
func (r *Reader) SkipRest(m Mark) error {
	for len(r.stack) > m.depth {
		kind, err := r.Peek()
		if err != nil {
			return err
		}
		switch kind {
		case KindEndObject:
			err = r.EndObject()
		case KindEndArray:
			err = r.EndArray()
		case KindName:
			_, err = r.NextName()
		default:
			err = r.Skip()
		}
		if err != nil {
			return err
		}
	}
	if m.depth > 0 && r.stack[m.depth-1].index == m.index {
		return r.Skip()
	}
	return nil
}
