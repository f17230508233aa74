/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package jsonio

// Kind classifies the next token or value.
type Kind int

const (
	KindInvalid Kind = iota
	KindObject
	KindArray
	KindString
	KindNumber
	KindBool
	KindNull
	KindName
	KindEndObject
	KindEndArray
	KindEnd
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindObject:    "object",
	KindArray:     "array",
	KindString:    "string",
	KindNumber:    "number",
	KindBool:      "boolean",
	KindNull:      "null",
	KindName:      "name",
	KindEndObject: "end of object",
	KindEndArray:  "end of array",
	KindEnd:       "end of input",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// IsScalar reports whether the kind is a string, number, boolean or null.
func (k Kind) IsScalar() bool {
	switch k {
	case KindString, KindNumber, KindBool, KindNull:
		return true
	}
	return false
}

// Scalar is a leaf JSON value. Numbers keep their literal text so that
// integer precision survives until the target field type is known.
type Scalar struct {
	Kind Kind
	Text string
	Bool bool
}
