/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"fmt"
	"strconv"
	"time"

	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/schema"
)

// ZeroValue is the value a new row holds in a column.
func ZeroValue(c schema.Column) any {
	if c.Nullable || c.Type == schema.FieldTypeObject {
		return nil
	}
	switch c.Type {
	case schema.FieldTypeInteger:
		return int64(0)
	case schema.FieldTypeBoolean:
		return false
	case schema.FieldTypeFloat:
		return float32(0)
	case schema.FieldTypeDouble:
		return float64(0)
	case schema.FieldTypeString:
		return ""
	case schema.FieldTypeBinary:
		return []byte{}
	case schema.FieldTypeDate:
		return time.UnixMilli(0).UTC()
	case schema.FieldTypeList:
		return []int64{}
	default:
		return nil
	}
}

// NormalizeValue checks that v has the Go type stored for the column and
// returns the value a backend should keep: slices are copied and dates are
// truncated to milliseconds in UTC.
func NormalizeValue(c schema.Column, v any) (any, error) {
	if v == nil {
		if c.Type == schema.FieldTypeList {
			return []int64{}, nil
		}
		if !c.Nullable && c.Type != schema.FieldTypeObject {
			return nil, errors.NewValidationError(c.Name, "column is not nullable")
		}
		return nil, nil
	}

	ok := false
	switch c.Type {
	case schema.FieldTypeInteger:
		_, ok = v.(int64)
	case schema.FieldTypeBoolean:
		_, ok = v.(bool)
	case schema.FieldTypeFloat:
		_, ok = v.(float32)
	case schema.FieldTypeDouble:
		_, ok = v.(float64)
	case schema.FieldTypeString:
		_, ok = v.(string)
	case schema.FieldTypeBinary:
		if b, isBytes := v.([]byte); isBytes {
			return append([]byte{}, b...), nil
		}
	case schema.FieldTypeDate:
		if t, isTime := v.(time.Time); isTime {
			return time.UnixMilli(t.UnixMilli()).UTC(), nil
		}
	case schema.FieldTypeObject:
		_, ok = v.(int64)
	case schema.FieldTypeList:
		if l, isList := v.([]int64); isList {
			return append([]int64{}, l...), nil
		}
	}
	if !ok {
		return nil, errors.NewValidationError(c.Name, fmt.Sprintf("%T is not a valid %s value", v, c.Type))
	}
	return v, nil
}

// CloneValue copies slice values so callers cannot alias stored cells.
func CloneValue(v any) any {
	switch tv := v.(type) {
	case []byte:
		return append([]byte{}, tv...)
	case []int64:
		return append([]int64{}, tv...)
	default:
		return v
	}
}

// KeyString renders a primary key value for use in index keys and errors.
func KeyString(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case int64:
		return strconv.FormatInt(tv, 10)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", tv)
	}
}
