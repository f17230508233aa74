/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"

	"github.com/suparena/proxystore/errors"
)

// TablePrefix is prepended to a model name to form its storage table name.
const TablePrefix = "class_"

// TableNameFor returns the canonical table name for a model name.
func TableNameFor(model string) string {
	return TablePrefix + model
}

// FieldType is the storage type tag of a persisted field.
type FieldType int

const (
	FieldTypeInteger FieldType = iota + 1
	FieldTypeBoolean
	FieldTypeFloat
	FieldTypeDouble
	FieldTypeString
	FieldTypeBinary
	FieldTypeDate
	FieldTypeObject
	FieldTypeList
)

var fieldTypeNames = map[FieldType]string{
	FieldTypeInteger: "integer",
	FieldTypeBoolean: "boolean",
	FieldTypeFloat:   "float",
	FieldTypeDouble:  "double",
	FieldTypeString:  "string",
	FieldTypeBinary:  "binary",
	FieldTypeDate:    "date",
	FieldTypeObject:  "object",
	FieldTypeList:    "list",
}

func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// IsLink reports whether values of this type reference rows of another table.
func (t FieldType) IsLink() bool {
	return t == FieldTypeObject || t == FieldTypeList
}

// ParseFieldType converts a type tag back to a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	for t, name := range fieldTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown field type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t FieldType) MarshalText() ([]byte, error) {
	name, ok := fieldTypeNames[t]
	if !ok {
		return nil, fmt.Errorf("unknown field type %d", int(t))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *FieldType) UnmarshalText(text []byte) error {
	parsed, err := ParseFieldType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Column is a single persisted field of a model.
type Column struct {
	// Name is the un-obfuscated field name.
	Name string `json:"name" yaml:"name"`

	// Type is the storage type tag.
	Type FieldType `json:"type" yaml:"type"`

	// Nullable allows null values. Object links are always nullable.
	Nullable bool `json:"nullable,omitempty" yaml:"nullable,omitempty"`

	// Indexed requests a search index on the column.
	Indexed bool `json:"indexed,omitempty" yaml:"indexed,omitempty"`

	// LinkTarget is the model name referenced by Object and List columns.
	LinkTarget string `json:"linkTarget,omitempty" yaml:"linkTarget,omitempty"`
}

// TableSchema is the column layout and constraints of one model's table.
type TableSchema struct {
	// Model is the model name, e.g. "Person".
	Model string `json:"model" yaml:"model"`

	// Name is the storage table name, e.g. "class_Person".
	Name string `json:"name" yaml:"name"`

	// PrimaryKey names the primary key column, or is empty.
	PrimaryKey string `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`

	// Columns are the persisted fields in declaration order.
	Columns []Column `json:"columns" yaml:"columns"`
}

// Column returns the named column and its position.
func (s *TableSchema) Column(name string) (Column, int, bool) {
	for i, c := range s.Columns {
		if c.Name == name {
			return c, i, true
		}
	}
	return Column{}, -1, false
}

// PrimaryKeyColumn returns the primary key column, if the model declares one.
func (s *TableSchema) PrimaryKeyColumn() (Column, int, bool) {
	if s.PrimaryKey == "" {
		return Column{}, -1, false
	}
	return s.Column(s.PrimaryKey)
}

// FieldNames returns the column names in declaration order.
func (s *TableSchema) FieldNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndices builds the field-name to column-position map.
func (s *TableSchema) ColumnIndices() ColumnIndices {
	return NewColumnIndices(s.FieldNames())
}

// Clone returns a deep copy.
func (s *TableSchema) Clone() *TableSchema {
	c := *s
	c.Columns = append([]Column(nil), s.Columns...)
	return &c
}

// Validate checks that the schema is internally consistent.
func (s *TableSchema) Validate() error {
	if s.Model == "" {
		return errors.NewValidationError("model", "model name is required")
	}
	if s.Name == "" {
		return errors.NewValidationError("name", "table name is required")
	}
	if len(s.Columns) == 0 {
		return errors.NewValidationError("columns", fmt.Sprintf("table %s has no columns", s.Name))
	}

	seen := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		if c.Name == "" {
			return errors.NewValidationError("columns", "column name is required")
		}
		if _, dup := seen[c.Name]; dup {
			return errors.NewValidationError(c.Name, "duplicate column")
		}
		seen[c.Name] = struct{}{}

		if _, ok := fieldTypeNames[c.Type]; !ok {
			return errors.NewValidationError(c.Name, fmt.Sprintf("invalid type %d", int(c.Type)))
		}
		if c.Type.IsLink() && c.LinkTarget == "" {
			return errors.NewValidationError(c.Name, "link columns require a target model")
		}
		if !c.Type.IsLink() && c.LinkTarget != "" {
			return errors.NewValidationError(c.Name, "only link columns may declare a target model")
		}
		if c.Type == FieldTypeList && c.Nullable {
			return errors.NewValidationError(c.Name, "list columns cannot be nullable")
		}
	}

	if s.PrimaryKey != "" {
		pk, _, ok := s.Column(s.PrimaryKey)
		if !ok {
			return errors.NewValidationError("primaryKey", fmt.Sprintf("%q is not a declared column", s.PrimaryKey))
		}
		if pk.Type != FieldTypeInteger && pk.Type != FieldTypeString {
			return errors.NewValidationError("primaryKey", fmt.Sprintf("type %s cannot be a primary key", pk.Type))
		}
		if pk.Nullable {
			return errors.NewValidationError("primaryKey", "primary key cannot be nullable")
		}
	}
	return nil
}
