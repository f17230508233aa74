/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/proxystore/schema"
)

// encodeCell converts a normalized cell value to an attribute value. Dates
// are stored as Unix milliseconds and lists as lists of numbers.
func encodeCell(v any) (types.AttributeValue, error) {
	switch tv := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case int64:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(tv, 10)}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: tv}, nil
	case float32:
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(float64(tv), 'g', -1, 32)}, nil
	case float64:
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(tv, 'g', -1, 64)}, nil
	case string:
		return &types.AttributeValueMemberS{Value: tv}, nil
	case []byte:
		return &types.AttributeValueMemberB{Value: append([]byte{}, tv...)}, nil
	case time.Time:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(tv.UnixMilli(), 10)}, nil
	case []int64:
		items := make([]types.AttributeValue, len(tv))
		for i, n := range tv {
			items[i] = &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
		}
		return &types.AttributeValueMemberL{Value: items}, nil
	}
	return nil, fmt.Errorf("cannot store %T", v)
}

// decodeCell converts an attribute value back to the cell value of a column.
func decodeCell(c schema.Column, av types.AttributeValue) (any, error) {
	if _, isNull := av.(*types.AttributeValueMemberNULL); av == nil || isNull {
		if c.Type == schema.FieldTypeList {
			return []int64{}, nil
		}
		return nil, nil
	}

	switch c.Type {
	case schema.FieldTypeInteger, schema.FieldTypeObject:
		return decodeInt(c, av)
	case schema.FieldTypeBoolean:
		if b, ok := av.(*types.AttributeValueMemberBOOL); ok {
			return b.Value, nil
		}
	case schema.FieldTypeFloat:
		if n, ok := av.(*types.AttributeValueMemberN); ok {
			f, err := strconv.ParseFloat(n.Value, 32)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c.Name, err)
			}
			return float32(f), nil
		}
	case schema.FieldTypeDouble:
		if n, ok := av.(*types.AttributeValueMemberN); ok {
			f, err := strconv.ParseFloat(n.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c.Name, err)
			}
			return f, nil
		}
	case schema.FieldTypeString:
		if s, ok := av.(*types.AttributeValueMemberS); ok {
			return s.Value, nil
		}
	case schema.FieldTypeBinary:
		if b, ok := av.(*types.AttributeValueMemberB); ok {
			return append([]byte{}, b.Value...), nil
		}
	case schema.FieldTypeDate:
		ms, err := decodeInt(c, av)
		if err != nil {
			return nil, err
		}
		return time.UnixMilli(ms).UTC(), nil
	case schema.FieldTypeList:
		if l, ok := av.(*types.AttributeValueMemberL); ok {
			indices := make([]int64, 0, len(l.Value))
			for _, item := range l.Value {
				n, err := decodeInt(c, item)
				if err != nil {
					return nil, err
				}
				indices = append(indices, n)
			}
			return indices, nil
		}
	}
	return nil, fmt.Errorf("column %s holds %T, cannot read it as %s", c.Name, av, c.Type)
}

func decodeInt(c schema.Column, av types.AttributeValue) (int64, error) {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("column %s holds %T, expected a number", c.Name, av)
	}
	v, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", c.Name, err)
	}
	return v, nil
}
