/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"

	gojson "github.com/goccy/go-json"

	"github.com/suparena/proxystore/errors"
)

// Compare reports the first difference between the schema a model declares
// and the schema stored with its table as a SchemaMismatchError.
// A nil stored schema means the table does not exist.
func Compare(declared, stored *TableSchema) error {
	if stored == nil {
		return errors.NewSchemaMismatchError(declared.Name, "", "table does not exist")
	}
	if stored.Name != declared.Name {
		return errors.NewSchemaMismatchError(declared.Name, "",
			fmt.Sprintf("stored table is named %q", stored.Name))
	}
	if len(stored.Columns) != len(declared.Columns) {
		return errors.NewSchemaMismatchError(declared.Name, "",
			fmt.Sprintf("table has %d columns, model declares %d", len(stored.Columns), len(declared.Columns)))
	}

	for i, want := range declared.Columns {
		got := stored.Columns[i]
		if got.Name != want.Name {
			return errors.NewSchemaMismatchError(declared.Name, want.Name,
				fmt.Sprintf("column %d is %q", i, got.Name))
		}
		if got.Type != want.Type {
			return errors.NewSchemaMismatchError(declared.Name, want.Name,
				fmt.Sprintf("type is %s, model declares %s", got.Type, want.Type))
		}
		if got.LinkTarget != want.LinkTarget {
			return errors.NewSchemaMismatchError(declared.Name, want.Name,
				fmt.Sprintf("links to %q, model declares %q", got.LinkTarget, want.LinkTarget))
		}
		if got.Nullable != want.Nullable {
			return errors.NewSchemaMismatchError(declared.Name, want.Name,
				fmt.Sprintf("nullable is %t, model declares %t", got.Nullable, want.Nullable))
		}
		if got.Indexed != want.Indexed {
			return errors.NewSchemaMismatchError(declared.Name, want.Name,
				fmt.Sprintf("indexed is %t, model declares %t", got.Indexed, want.Indexed))
		}
	}

	if stored.PrimaryKey != declared.PrimaryKey {
		return errors.NewSchemaMismatchError(declared.Name, declared.PrimaryKey,
			fmt.Sprintf("primary key is %q, model declares %q", stored.PrimaryKey, declared.PrimaryKey))
	}
	return nil
}

// Marshal encodes a schema for storage alongside its table.
func Marshal(s *TableSchema) ([]byte, error) {
	data, err := gojson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema %s: %w", s.Name, err)
	}
	return data, nil
}

// Unmarshal decodes a schema written by Marshal.
func Unmarshal(data []byte) (*TableSchema, error) {
	var s TableSchema
	if err := gojson.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	return &s, nil
}
