/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Key templates of the single-table layout. Macros in braces are replaced
// with the values of the item being addressed.
var (
	schemaKey  = keyTemplate{PK: "SCHEMA", SK: "TABLE#{Table}"}
	counterKey = keyTemplate{PK: "COUNTER", SK: "TABLE#{Table}"}
	rowKey     = keyTemplate{PK: "ROW#{Table}", SK: "IDX#{Index}"}
	pkeyKey    = keyTemplate{PK: "PKEY#{Table}", SK: "{Key}"}
)

const (
	attrPK        = "PK"
	attrSK        = "SK"
	attrNextIndex = "NextIndex"
	attrIndex     = "Index"
	attrCells     = "Cells"
)

type keyTemplate struct {
	PK string
	SK string
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// expandMacros replaces every {Name} macro of template with vars[Name].
// Unknown macros expand to the empty string.
func expandMacros(template string, vars map[string]string) string {
	return macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
		return vars[strings.Trim(macro, "{}")]
	})
}

// key builds the primary key attributes of an item.
func (k keyTemplate) key(vars map[string]string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: expandMacros(k.PK, vars)},
		attrSK: &types.AttributeValueMemberS{Value: expandMacros(k.SK, vars)},
	}
}

// partition returns the partition key value of a template.
func (k keyTemplate) partition(vars map[string]string) string {
	return expandMacros(k.PK, vars)
}

func tableVars(table string) map[string]string {
	return map[string]string{"Table": table}
}

// rowVars zero-pads the index so that row items sort by index.
func rowVars(table string, index int64) map[string]string {
	return map[string]string{"Table": table, "Index": fmt.Sprintf("%019d", index)}
}

func pkeyVars(table, key string) map[string]string {
	return map[string]string{"Table": table, "Key": key}
}
