/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"fmt"
	"strconv"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/suparena/proxystore/schema"
)

// toSQL converts a normalized cell value to its column representation.
// Booleans are stored as 0/1, dates as Unix milliseconds and lists as JSON
// arrays of row indices.
func toSQL(c schema.Column, v any) (any, error) {
	switch tv := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if tv {
			return int64(1), nil
		}
		return int64(0), nil
	case float32:
		return float64(tv), nil
	case time.Time:
		return tv.UnixMilli(), nil
	case []int64:
		b, err := gojson.Marshal(tv)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", c.Name, err)
		}
		return string(b), nil
	default:
		return v, nil
	}
}

// fromSQL converts a scanned column value back to the cell value.
func fromSQL(c schema.Column, raw any) (any, error) {
	if raw == nil {
		if c.Type == schema.FieldTypeList {
			return []int64{}, nil
		}
		return nil, nil
	}

	switch c.Type {
	case schema.FieldTypeInteger, schema.FieldTypeObject:
		return asInt64(c, raw)
	case schema.FieldTypeBoolean:
		n, err := asInt64(c, raw)
		if err != nil {
			return nil, err
		}
		return n != 0, nil
	case schema.FieldTypeFloat:
		f, err := asFloat64(c, raw)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case schema.FieldTypeDouble:
		return asFloat64(c, raw)
	case schema.FieldTypeString:
		switch tv := raw.(type) {
		case string:
			return tv, nil
		case []byte:
			return string(tv), nil
		}
	case schema.FieldTypeBinary:
		switch tv := raw.(type) {
		case []byte:
			return append([]byte{}, tv...), nil
		case string:
			return []byte(tv), nil
		}
	case schema.FieldTypeDate:
		ms, err := asInt64(c, raw)
		if err != nil {
			return nil, err
		}
		return time.UnixMilli(ms).UTC(), nil
	case schema.FieldTypeList:
		var text []byte
		switch tv := raw.(type) {
		case string:
			text = []byte(tv)
		case []byte:
			text = tv
		default:
			return nil, badValue(c, raw)
		}
		indices := []int64{}
		if err := gojson.Unmarshal(text, &indices); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", c.Name, err)
		}
		return indices, nil
	}
	return nil, badValue(c, raw)
}

func asInt64(c schema.Column, raw any) (int64, error) {
	switch tv := raw.(type) {
	case int64:
		return tv, nil
	case int32:
		return int64(tv), nil
	case int:
		return int64(tv), nil
	case uint64:
		return int64(tv), nil
	case bool:
		if tv {
			return 1, nil
		}
		return 0, nil
	case float64:
		return int64(tv), nil
	case []byte:
		return strconv.ParseInt(string(tv), 10, 64)
	case string:
		return strconv.ParseInt(tv, 10, 64)
	}
	return 0, badValue(c, raw)
}

func asFloat64(c schema.Column, raw any) (float64, error) {
	switch tv := raw.(type) {
	case float64:
		return tv, nil
	case float32:
		return float64(tv), nil
	case int64:
		return float64(tv), nil
	case []byte:
		return strconv.ParseFloat(string(tv), 64)
	case string:
		return strconv.ParseFloat(tv, 64)
	}
	return 0, badValue(c, raw)
}

func badValue(c schema.Column, raw any) error {
	return fmt.Errorf("column %s holds %T, cannot read it as %s", c.Name, raw, c.Type)
}
