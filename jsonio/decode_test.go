/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package jsonio

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/schema"
)

var testSchemas = map[string]*schema.TableSchema{
	"Person": {
		Model:      "Person",
		Name:       "class_Person",
		PrimaryKey: "id",
		Columns: []schema.Column{
			{Name: "id", Type: schema.FieldTypeInteger, Indexed: true},
			{Name: "name", Type: schema.FieldTypeString},
			{Name: "age", Type: schema.FieldTypeInteger},
			{Name: "email", Type: schema.FieldTypeString, Nullable: true},
			{Name: "active", Type: schema.FieldTypeBoolean},
			{Name: "score", Type: schema.FieldTypeDouble},
			{Name: "birthday", Type: schema.FieldTypeDate},
			{Name: "dog", Type: schema.FieldTypeObject, LinkTarget: "Dog"},
			{Name: "tags", Type: schema.FieldTypeList, LinkTarget: "Tag"},
		},
	},
	"Dog": {
		Model: "Dog",
		Name:  "class_Dog",
		Columns: []schema.Column{
			{Name: "name", Type: schema.FieldTypeString},
			{Name: "weight", Type: schema.FieldTypeFloat},
			{Name: "photo", Type: schema.FieldTypeBinary, Nullable: true},
		},
	},
	"Tag": {
		Model:      "Tag",
		Name:       "class_Tag",
		PrimaryKey: "name",
		Columns: []schema.Column{
			{Name: "name", Type: schema.FieldTypeString},
		},
	},
}

var testResolver = ResolverFunc(func(model string) (*schema.TableSchema, error) {
	s, ok := testSchemas[model]
	if !ok {
		return nil, errors.NewUnknownTypeError(model)
	}
	return s, nil
})

const personJSON = `{
	"id": 7,
	"name": "Ann",
	"age": "30",
	"email": null,
	"active": "true",
	"score": 4.25,
	"birthday": "/Date(86400000)/",
	"unknown": {"deep": [1, 2, {"x": null}]},
	"dog": {"name": "Rex", "weight": 12.5, "photo": "AQID"},
	"tags": [{"name": "a"}, {"name": "b"}]
}`

func decodeBoth(t *testing.T, model, input string) (*Record, *Record) {
	t.Helper()

	doc, err := ParseDocument([]byte(input))
	require.NoError(t, err)
	fromDoc, err := Decode(FromDocument(doc), testSchemas[model], testResolver)
	require.NoError(t, err)

	fromStream, err := Decode(FromReader(NewReader(strings.NewReader(input))), testSchemas[model], testResolver)
	require.NoError(t, err)
	return fromDoc, fromStream
}

func TestDecodePerson(t *testing.T) {
	rec, _ := decodeBoth(t, "Person", personJSON)

	assert.Equal(t, "Person", rec.Model())
	pk, ok := rec.PrimaryKey()
	require.True(t, ok)
	assert.Equal(t, int64(7), pk)

	want := map[string]any{
		"id":       int64(7),
		"name":     "Ann",
		"age":      int64(30),
		"email":    nil,
		"active":   true,
		"score":    4.25,
		"birthday": time.UnixMilli(86400000).UTC(),
	}
	for name, value := range want {
		f, ok := rec.Field(name)
		require.True(t, ok, name)
		assert.Equal(t, value, f.Value, name)
	}

	dog, ok := rec.Field("dog")
	require.True(t, ok)
	require.NotNil(t, dog.Link)
	assert.Equal(t, "Dog", dog.Link.Model())
	photo, _ := dog.Link.Field("photo")
	assert.Equal(t, []byte{1, 2, 3}, photo.Value)
	weight, _ := dog.Link.Field("weight")
	assert.Equal(t, float32(12.5), weight.Value)

	tags, ok := rec.Field("tags")
	require.True(t, ok)
	require.Len(t, tags.List, 2)
	name, _ := tags.List[1].Field("name")
	assert.Equal(t, "b", name.Value)

	for i := 1; i < len(rec.Fields); i++ {
		assert.Less(t, rec.Fields[i-1].Column, rec.Fields[i].Column)
	}
}

func TestDocumentAndStreamAgree(t *testing.T) {
	inputs := []string{
		personJSON,
		`{"id": 1}`,
		`{"id": 12345678901234567, "name": 42, "dog": null, "tags": null}`,
		`{"name": "x", "id": 2, "name": "y", "birthday": "2024-02-29T12:30:00.123Z"}`,
	}

	for _, input := range inputs {
		fromDoc, fromStream := decodeBoth(t, "Person", input)
		assert.Equal(t, fromDoc, fromStream, input)
	}
}

func TestDecodeLargeIntegerKeepsPrecision(t *testing.T) {
	rec, _ := decodeBoth(t, "Person", `{"id": 12345678901234567}`)
	pk, _ := rec.PrimaryKey()
	assert.Equal(t, int64(12345678901234567), pk)
}

func TestDecodeNullLinks(t *testing.T) {
	rec, _ := decodeBoth(t, "Person", `{"id": 1, "dog": null, "tags": null}`)

	dog, ok := rec.Field("dog")
	require.True(t, ok)
	assert.Nil(t, dog.Link)

	tags, ok := rec.Field("tags")
	require.True(t, ok)
	assert.Empty(t, tags.List)
}

func TestDecodeMappingErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"bool for string", `{"id": 1, "name": true}`, "name"},
		{"text for integer", `{"id": 1, "age": "thirty"}`, "age"},
		{"fraction for integer", `{"id": 1, "age": 30.5}`, "age"},
		{"null for non-nullable", `{"id": 1, "name": null}`, "name"},
		{"number for bool", `{"id": 1, "active": 1}`, "active"},
		{"bad date", `{"id": 1, "birthday": "yesterday"}`, "birthday"},
		{"array for object", `{"id": 1, "dog": []}`, "dog"},
		{"object for list", `{"id": 1, "tags": {}}`, "tags"},
		{"object for scalar", `{"id": 1, "score": {}}`, "score"},
		{"bad base64", `{"id": 1, "dog": {"photo": "***"}}`, "photo"},
		{"missing primary key", `{"name": "x"}`, "id"},
		{"missing nested primary key", `{"id": 1, "tags": [{}]}`, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tt.input))
			require.NoError(t, err)

			sources := map[string]Value{
				"document": FromDocument(doc),
				"stream":   FromReader(NewReader(strings.NewReader(tt.input))),
			}
			for source, v := range sources {
				_, err := Decode(v, testSchemas["Person"], testResolver)
				require.Error(t, err, source)
				assert.True(t, errors.IsSchemaMapping(err), "%s: %v", source, err)

				var sme *errors.SchemaMappingError
				require.ErrorAs(t, err, &sme)
				assert.Equal(t, tt.field, sme.Field, source)
			}
		})
	}
}

func TestDecodeUnknownLinkTarget(t *testing.T) {
	s := &schema.TableSchema{
		Model: "Owner",
		Name:  "class_Owner",
		Columns: []schema.Column{
			{Name: "cat", Type: schema.FieldTypeObject, LinkTarget: "Cat"},
		},
	}
	doc, err := ParseDocument([]byte(`{"cat": {"name": "Tom"}}`))
	require.NoError(t, err)

	_, err = Decode(FromDocument(doc), s, testResolver)
	assert.True(t, errors.IsUnknownType(err))
}

func TestDecodeTruncatedStream(t *testing.T) {
	input := `{"id": 1, "dog": {"name": "Rex"`
	_, err := Decode(FromReader(NewReader(strings.NewReader(input))), testSchemas["Person"], testResolver)
	require.Error(t, err)
	assert.True(t, errors.IsStreamRead(err))
}

func TestDecodeExhaustedStream(t *testing.T) {
	for _, input := range []string{"", "  \n"} {
		_, err := Decode(FromReader(NewReader(strings.NewReader(input))), testSchemas["Tag"], testResolver)
		require.Error(t, err, "%q", input)
		assert.True(t, errors.IsStreamRead(err), "%q: %v", input, err)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	}

	r := NewReader(strings.NewReader(`{"name": "a"}`))
	_, err := Decode(FromReader(r), testSchemas["Tag"], testResolver)
	require.NoError(t, err)
	_, err = Decode(FromReader(r), testSchemas["Tag"], testResolver)
	assert.True(t, errors.IsStreamRead(err), "got %v", err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	r = NewReader(strings.NewReader(`[]`))
	require.NoError(t, r.BeginArray())
	_, err = Decode(FromReader(r), testSchemas["Tag"], testResolver)
	assert.True(t, errors.IsStreamRead(err), "got %v", err)
}

func TestDecodeUnsupportedDocumentValue(t *testing.T) {
	doc := Document{"id": 1, "name": "Ann", "dog": make(chan int)}
	_, err := Decode(FromDocument(doc), testSchemas["Person"], testResolver)
	require.Error(t, err)
	require.True(t, errors.IsSchemaMapping(err), "got %v", err)

	var sme *errors.SchemaMappingError
	require.ErrorAs(t, err, &sme)
	assert.Equal(t, "Person", sme.Model)
	assert.Equal(t, "dog", sme.Field)
	assert.Contains(t, sme.Actual, "chan int")
	assert.Contains(t, sme.Actual, "$.dog")

	_, err = Decode(FromAny(struct{}{}), testSchemas["Tag"], testResolver)
	assert.True(t, errors.IsSchemaMapping(err))
}

func TestDecodeRequiresObject(t *testing.T) {
	_, err := Decode(FromAny([]any{}), testSchemas["Tag"], testResolver)
	assert.True(t, errors.IsSchemaMapping(err))
}

func TestDocumentAcceptsGoValues(t *testing.T) {
	doc := Document{
		"id":     int64(3),
		"score":  float32(1.5),
		"age":    uint8(9),
		"active": false,
		"dog":    map[string]any{"name": "Rex", "weight": 3},
		"tags":   []Document{{"name": "t"}},
	}
	rec, err := Decode(FromDocument(doc), testSchemas["Person"], testResolver)
	require.NoError(t, err)

	score, _ := rec.Field("score")
	assert.Equal(t, 1.5, score.Value)
	age, _ := rec.Field("age")
	assert.Equal(t, int64(9), age.Value)
	tags, _ := rec.Field("tags")
	assert.Len(t, tags.List, 1)
}

func TestCoerceDates(t *testing.T) {
	col := schema.Column{Name: "at", Type: schema.FieldTypeDate}
	want := time.Date(2024, 2, 29, 12, 30, 0, 123000000, time.UTC)

	tests := []Scalar{
		{Kind: KindNumber, Text: "1709209800123"},
		{Kind: KindString, Text: "1709209800123"},
		{Kind: KindString, Text: "/Date(1709209800123)/"},
		{Kind: KindString, Text: "/Date(1709209800123+0100)/"},
		{Kind: KindString, Text: "2024-02-29T12:30:00.123Z"},
		{Kind: KindString, Text: "2024-02-29T13:30:00.123456+01:00"},
	}
	for _, sc := range tests {
		v, err := Coerce("Event", col, sc)
		require.NoError(t, err, sc.Text)
		assert.Equal(t, want, v, sc.Text)
	}
}

func TestParseDocumentRejectsTrailingData(t *testing.T) {
	_, err := ParseDocument([]byte(`{"a": 1} {"b": 2}`))
	assert.Error(t, err)

	_, err = ParseDocument([]byte(`null`))
	assert.Error(t, err)

	docs, err := ParseArray([]byte(`[{"a": 1}, {"b": 2}]`))
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}
