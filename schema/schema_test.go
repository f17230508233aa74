/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/proxystore/errors"
)

func personSchema() *TableSchema {
	return &TableSchema{
		Model:      "Person",
		Name:       TableNameFor("Person"),
		PrimaryKey: "id",
		Columns: []Column{
			{Name: "id", Type: FieldTypeInteger, Indexed: true},
			{Name: "name", Type: FieldTypeString},
			{Name: "email", Type: FieldTypeString, Nullable: true},
			{Name: "dog", Type: FieldTypeObject, Nullable: true, LinkTarget: "Dog"},
			{Name: "tags", Type: FieldTypeList, LinkTarget: "Tag"},
		},
	}
}

func TestTableNameFor(t *testing.T) {
	assert.Equal(t, "class_Person", TableNameFor("Person"))
}

func TestFieldTypeText(t *testing.T) {
	for ft := FieldTypeInteger; ft <= FieldTypeList; ft++ {
		text, err := ft.MarshalText()
		require.NoError(t, err)

		var back FieldType
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, ft, back)
	}

	_, err := ParseFieldType("decimal")
	assert.Error(t, err)
	assert.Equal(t, "FieldType(99)", FieldType(99).String())
}

func TestFieldNamesAndIndicesAgree(t *testing.T) {
	s := personSchema()
	names := s.FieldNames()
	ci := s.ColumnIndices()

	require.Equal(t, len(names), ci.Len())
	for i, n := range names {
		idx, ok := ci.Index(n)
		require.True(t, ok, n)
		assert.Equal(t, i, idx)
	}
	assert.Equal(t, names, ci.Names())

	_, ok := ci.Index("missing")
	assert.False(t, ok)
}

func TestColumnIndicesImmutable(t *testing.T) {
	names := []string{"a", "b"}
	ci := NewColumnIndices(names)
	names[0] = "z"

	got := ci.Names()
	got[1] = "c"

	_, ok := ci.Index("z")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, ci.Names())
	idx, ok := ci.Index("a")
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestValidate(t *testing.T) {
	require.NoError(t, personSchema().Validate())

	tests := []struct {
		name   string
		mutate func(s *TableSchema)
	}{
		{"missing model", func(s *TableSchema) { s.Model = "" }},
		{"no columns", func(s *TableSchema) { s.Columns = nil }},
		{"duplicate column", func(s *TableSchema) { s.Columns[1].Name = "id" }},
		{"link without target", func(s *TableSchema) { s.Columns[3].LinkTarget = "" }},
		{"scalar with target", func(s *TableSchema) { s.Columns[1].LinkTarget = "Dog" }},
		{"nullable list", func(s *TableSchema) { s.Columns[4].Nullable = true }},
		{"unknown primary key", func(s *TableSchema) { s.PrimaryKey = "nope" }},
		{"link primary key", func(s *TableSchema) { s.PrimaryKey = "dog" }},
		{"nullable primary key", func(s *TableSchema) { s.Columns[0].Nullable = true }},
		{"invalid type", func(s *TableSchema) { s.Columns[1].Type = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := personSchema()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestCompare(t *testing.T) {
	require.NoError(t, Compare(personSchema(), personSchema()))

	tests := []struct {
		name   string
		mutate func(s *TableSchema)
		field  string
	}{
		{"column count", func(s *TableSchema) { s.Columns = s.Columns[:4] }, ""},
		{"column order", func(s *TableSchema) { s.Columns[1], s.Columns[2] = s.Columns[2], s.Columns[1] }, "name"},
		{"column type", func(s *TableSchema) { s.Columns[1].Type = FieldTypeInteger }, "name"},
		{"nullability", func(s *TableSchema) { s.Columns[2].Nullable = false }, "email"},
		{"index", func(s *TableSchema) { s.Columns[0].Indexed = false }, "id"},
		{"link target", func(s *TableSchema) { s.Columns[3].LinkTarget = "Cat" }, "dog"},
		{"primary key", func(s *TableSchema) { s.PrimaryKey = "" }, "id"},
		{"table name", func(s *TableSchema) { s.Name = "class_People" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored := personSchema()
			tt.mutate(stored)

			err := Compare(personSchema(), stored)
			require.Error(t, err)
			assert.True(t, errors.IsSchemaMismatch(err))

			var sme *errors.SchemaMismatchError
			require.ErrorAs(t, err, &sme)
			assert.Equal(t, "class_Person", sme.Table)
			assert.Equal(t, tt.field, sme.Field)
		})
	}

	err := Compare(personSchema(), nil)
	assert.True(t, errors.IsSchemaMismatch(err))
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Marshal(personSchema())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"object"`)

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.NoError(t, Compare(personSchema(), back))

	_, err = Unmarshal([]byte(`{"columns":[{"name":"x","type":"decimal"}]}`))
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	s := personSchema()
	c := s.Clone()
	c.Columns[0].Name = "changed"
	assert.Equal(t, "id", s.Columns[0].Name)
}
