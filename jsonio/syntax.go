/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package jsonio

import (
	"fmt"
	"io"
)

// SyntaxError is malformed JSON found in a token stream.
type SyntaxError struct {
	Offset int64
	msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.msg, e.Offset)
}

type scanState int

const (
	scanTop scanState = iota
	scanValue
	scanValueOrEnd
	scanNameOrEnd
	scanName
	scanColon
	scanAfterValue
	scanString
	scanEscape
	scanUnicode
	scanNeg
	scanZero
	scanInt
	scanDot
	scanFrac
	scanExp
	scanExpSign
	scanExpDigits
	scanLiteral
)

// scanner checks JSON grammar one byte at a time. The decoder's tokenizer
// passes over ',' and ':' without checking where they appear, so every byte
// it reads goes through a scanner first.
type scanner struct {
	state   scanState
	stack   []byte
	name    bool
	hex     int
	lit     string
	offset  int64
	started bool
}

func (s *scanner) inScalar() bool {
	return s.state >= scanString
}

func (s *scanner) fail(c byte, context string) error {
	return &SyntaxError{Offset: s.offset, msg: fmt.Sprintf("invalid character %q %s", c, context)}
}

func (s *scanner) endValue() {
	if len(s.stack) == 0 {
		s.state = scanTop
	} else {
		s.state = scanAfterValue
	}
}

func (s *scanner) numberEnds() bool {
	switch s.state {
	case scanZero, scanInt, scanFrac, scanExpDigits:
		return true
	}
	return false
}

func (s *scanner) beginValue(c byte) error {
	s.started = true
	switch {
	case c == '{':
		s.stack = append(s.stack, '{')
		s.state = scanNameOrEnd
	case c == '[':
		s.stack = append(s.stack, '[')
		s.state = scanValueOrEnd
	case c == '"':
		s.state, s.name = scanString, false
	case c == '-':
		s.state = scanNeg
	case c == '0':
		s.state = scanZero
	case '1' <= c && c <= '9':
		s.state = scanInt
	case c == 't':
		s.state, s.lit = scanLiteral, "rue"
	case c == 'f':
		s.state, s.lit = scanLiteral, "alse"
	case c == 'n':
		s.state, s.lit = scanLiteral, "ull"
	default:
		s.started = false
		return s.fail(c, "looking for beginning of value")
	}
	return nil
}

func (s *scanner) close(c byte) bool {
	n := len(s.stack)
	if n == 0 || (c == '}' && s.stack[n-1] != '{') || (c == ']' && s.stack[n-1] != '[') {
		return false
	}
	s.stack = s.stack[:n-1]
	s.endValue()
	return true
}

// step checks c, the byte at s.offset.
func (s *scanner) step(c byte) error {
	switch s.state {
	case scanString:
		switch {
		case c == '"':
			if s.name {
				s.state = scanColon
			} else {
				s.endValue()
			}
		case c == '\\':
			s.state = scanEscape
		case c < 0x20:
			return s.fail(c, "in string literal")
		}
		return nil
	case scanEscape:
		switch c {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
			s.state = scanString
		case 'u':
			s.state, s.hex = scanUnicode, 0
		default:
			return s.fail(c, "in string escape code")
		}
		return nil
	case scanUnicode:
		if !isHex(c) {
			return s.fail(c, "in \\u hexadecimal character escape")
		}
		if s.hex++; s.hex == 4 {
			s.state = scanString
		}
		return nil
	case scanLiteral:
		if c != s.lit[0] {
			return s.fail(c, "in literal")
		}
		if s.lit = s.lit[1:]; s.lit == "" {
			s.endValue()
		}
		return nil
	case scanNeg:
		switch {
		case c == '0':
			s.state = scanZero
		case '1' <= c && c <= '9':
			s.state = scanInt
		default:
			return s.fail(c, "in numeric literal")
		}
		return nil
	case scanZero, scanInt:
		switch {
		case s.state == scanInt && isDigit(c):
		case c == '.':
			s.state = scanDot
		case c == 'e' || c == 'E':
			s.state = scanExp
		default:
			s.endValue()
			return s.step(c)
		}
		return nil
	case scanDot:
		if !isDigit(c) {
			return s.fail(c, "after decimal point in numeric literal")
		}
		s.state = scanFrac
		return nil
	case scanFrac:
		switch {
		case isDigit(c):
		case c == 'e' || c == 'E':
			s.state = scanExp
		default:
			s.endValue()
			return s.step(c)
		}
		return nil
	case scanExp:
		switch {
		case c == '+' || c == '-':
			s.state = scanExpSign
		case isDigit(c):
			s.state = scanExpDigits
		default:
			return s.fail(c, "in exponent of numeric literal")
		}
		return nil
	case scanExpSign:
		if !isDigit(c) {
			return s.fail(c, "in exponent of numeric literal")
		}
		s.state = scanExpDigits
		return nil
	case scanExpDigits:
		if !isDigit(c) {
			s.endValue()
			return s.step(c)
		}
		return nil
	}

	if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
		return nil
	}

	switch s.state {
	case scanTop, scanValue:
		return s.beginValue(c)
	case scanValueOrEnd:
		if c == ']' && s.close(c) {
			return nil
		}
		return s.beginValue(c)
	case scanNameOrEnd, scanName:
		if c == '"' {
			s.state, s.name, s.started = scanString, true, true
			return nil
		}
		if c == '}' && s.state == scanNameOrEnd && s.close(c) {
			return nil
		}
		return s.fail(c, "looking for beginning of object key string")
	case scanColon:
		if c != ':' {
			return s.fail(c, "after object key")
		}
		s.state = scanValue
		return nil
	case scanAfterValue:
		inObject := s.stack[len(s.stack)-1] == '{'
		if c == ',' {
			if inObject {
				s.state = scanName
			} else {
				s.state = scanValue
			}
			return nil
		}
		if (c == '}' || c == ']') && s.close(c) {
			return nil
		}
		if inObject {
			return s.fail(c, "after object key:value pair")
		}
		return s.fail(c, "after array element")
	}
	return s.fail(c, "")
}

// eof ends a number left open by the end of input.
func (s *scanner) eof() {
	if s.numberEnds() {
		s.endValue()
	}
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// syntaxReader passes on only the well-formed prefix of its source. Bytes
// of a string, number or literal are held back until the token is complete,
// so the decoder never sees a token cut short by a syntax error. Once the
// valid bytes are drained, Read returns the error.
type syntaxReader struct {
	src   io.Reader
	sc    scanner
	chunk []byte
	out   []byte
	pos   int
	hold  []byte
	err   error
}

func newSyntaxReader(r io.Reader) *syntaxReader {
	return &syntaxReader{src: r, chunk: make([]byte, 4096)}
}

func (r *syntaxReader) Read(p []byte) (int, error) {
	for len(r.out) == 0 && r.err == nil {
		n, err := r.src.Read(r.chunk)
		r.scan(r.chunk[:n])
		if r.err != nil {
			break
		}
		if err != nil {
			if err == io.EOF {
				r.sc.eof()
				r.out = append(r.out, r.hold...)
				r.hold = r.hold[:0]
			}
			r.err = err
		}
	}

	if len(r.out) == 0 {
		return 0, r.err
	}
	n := copy(p, r.out[r.pos:])
	if r.pos += n; r.pos == len(r.out) {
		r.out, r.pos = r.out[:0], 0
	}
	return n, nil
}

func (r *syntaxReader) scan(b []byte) {
	for _, c := range b {
		was := r.sc.inScalar()
		r.sc.started = false
		err := r.sc.step(c)
		if err != nil {
			r.err = err
			return
		}
		r.sc.offset++
		if was && (!r.sc.inScalar() || r.sc.started) {
			r.out = append(r.out, r.hold...)
			r.hold = r.hold[:0]
		}
		if r.sc.inScalar() {
			r.hold = append(r.hold, c)
		} else {
			r.out = append(r.out, c)
		}
	}
}

// failure returns the syntax or read error that ended the stream early.
func (r *syntaxReader) failure() error {
	if r.err == io.EOF {
		return nil
	}
	return r.err
}
