/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package proxy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/proxystore"
	"github.com/suparena/proxystore/datastore/memory"
	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/internal/sample"
	"github.com/suparena/proxystore/jsonio"
	"github.com/suparena/proxystore/mediator"
	"github.com/suparena/proxystore/proxy"
	"github.com/suparena/proxystore/schema"
)

func openTx(t *testing.T) *proxystore.Tx {
	t.Helper()
	ctx := context.Background()

	m, err := mediator.FromRegistry()
	require.NoError(t, err)
	db, err := proxystore.Open(ctx, memory.New(), m)
	require.NoError(t, err)
	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(ctx) })
	return tx
}

func TestUnmanagedObject(t *testing.T) {
	p := &sample.PersonProxy{}
	assert.False(t, p.IsManaged())
	assert.Nil(t, p.Store())
	assert.Nil(t, p.Row())
	assert.Nil(t, p.Value("name"))
	assert.True(t, errors.IsValidationError(p.SetValue("name", "x")))
	assert.False(t, proxy.SameRecord(p, p))
}

func TestBaseValues(t *testing.T) {
	ctx := context.Background()
	tx := openTx(t)

	o, err := tx.CopyToStore(ctx, &sample.Person{ID: 1, Name: "Ann", Age: 3})
	require.NoError(t, err)
	p := o.(*sample.PersonProxy)

	assert.True(t, p.IsManaged())
	assert.Equal(t, int64(3), p.Value("age"))
	assert.Nil(t, p.Value("missing"))
	assert.True(t, errors.IsValidationError(p.SetValue("missing", 1)))
	assert.True(t, errors.IsValidationError(p.SetValue("age", "old")))

	require.NoError(t, p.SetAge(4))
	assert.Equal(t, 4, p.Age())

	again, err := tx.FindByPrimaryKey(ctx, sample.PersonType, 1)
	require.NoError(t, err)
	assert.True(t, proxy.SameRecord(p, again))
	assert.NotSame(t, p, again)

	other, err := tx.CopyToStore(ctx, &sample.Person{ID: 2})
	require.NoError(t, err)
	assert.False(t, proxy.SameRecord(p, other))
}

func TestCopyCache(t *testing.T) {
	ctx := context.Background()
	tx := openTx(t)

	src := &sample.Tag{Name: "a"}
	cache := make(proxy.CopyCache)
	_, ok := cache.Lookup(src)
	assert.False(t, ok)

	o, err := tx.CopyOrUpdate(ctx, src, false, cache)
	require.NoError(t, err)

	cached, ok := cache.Lookup(src)
	require.True(t, ok)
	assert.Same(t, o, cached)

	again, err := tx.FindByPrimaryKey(ctx, sample.TagType, "a")
	require.NoError(t, err)
	cache.Put(again, o)
	byRow, ok := cache.Lookup(o)
	require.True(t, ok)
	assert.Same(t, o, byRow)

	_, ok = cache.Lookup(&sample.Tag{Name: "a"})
	assert.False(t, ok)
}

func TestCopyArguments(t *testing.T) {
	ctx := context.Background()
	tx := openTx(t)
	spec := proxy.CopySpec{Type: sample.TagType, PrimaryKey: "a", Fill: func(proxy.Object) error { return nil }}

	_, err := proxy.Copy(ctx, tx, nil, spec, false, make(proxy.CopyCache))
	assert.True(t, errors.IsNullArgument(err))

	_, err = proxy.Copy(ctx, tx, &sample.Tag{Name: "a"}, spec, false, nil)
	assert.True(t, errors.IsNullArgument(err))

	link, err := proxy.CopyLink(ctx, tx, nil, false, make(proxy.CopyCache))
	require.NoError(t, err)
	assert.Nil(t, link)

	links, err := proxy.CopyLinks(ctx, tx, []*sample.Tag{{Name: "x"}, {Name: "y"}}, false, make(proxy.CopyCache))
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestAcquireRow(t *testing.T) {
	ctx := context.Background()
	tx := openTx(t)

	people, err := tx.Table(ctx, sample.PersonType)
	require.NoError(t, err)

	first, err := proxy.AcquireRow(ctx, people, int64(5), false)
	require.NoError(t, err)

	same, err := proxy.AcquireRow(ctx, people, int64(5), true)
	require.NoError(t, err)
	assert.Equal(t, first.Index(), same.Index())

	_, err = proxy.AcquireRow(ctx, people, int64(5), false)
	assert.True(t, errors.IsAlreadyExists(err))

	fresh, err := proxy.AcquireRow(ctx, people, int64(6), true)
	require.NoError(t, err)
	assert.NotEqual(t, first.Index(), fresh.Index())

	dogs, err := tx.Table(ctx, sample.DogType)
	require.NoError(t, err)
	a, err := proxy.AcquireRow(ctx, dogs, nil, true)
	require.NoError(t, err)
	b, err := proxy.AcquireRow(ctx, dogs, nil, true)
	require.NoError(t, err)
	assert.NotEqual(t, a.Index(), b.Index())
}

func TestApplyRecord(t *testing.T) {
	ctx := context.Background()
	tx := openTx(t)

	s, err := tx.TableSchema("Person")
	require.NoError(t, err)

	doc := jsonio.Document{
		"id":   int64(1),
		"name": "Ann",
		"dog":  map[string]any{"name": "Rex", "owner": nil},
		"tags": []any{map[string]any{"name": "t"}},
	}
	rec, err := jsonio.Decode(jsonio.FromDocument(doc), s, tx)
	require.NoError(t, err)

	o, err := proxy.ApplyRecord(ctx, tx, rec, false)
	require.NoError(t, err)
	p := o.(*sample.PersonProxy)
	assert.Equal(t, "Ann", p.Name())

	dog, err := p.Dog(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Rex", dog.Name())

	partial, err := jsonio.Decode(jsonio.FromDocument(jsonio.Document{"id": 1, "dog": nil}), s, tx)
	require.NoError(t, err)
	o, err = proxy.ApplyRecord(ctx, tx, partial, true)
	require.NoError(t, err)
	p = o.(*sample.PersonProxy)

	dog, err = p.Dog(ctx)
	require.NoError(t, err)
	assert.Nil(t, dog)
	tags, err := p.Tags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
	assert.Equal(t, "Ann", p.Name())
}

func TestApplyRecordChecksKeysBeforeWriting(t *testing.T) {
	ctx := context.Background()
	tx := openTx(t)

	_, err := tx.CopyToStore(ctx, &sample.Tag{Name: "a"})
	require.NoError(t, err)

	s, err := tx.TableSchema("Person")
	require.NoError(t, err)

	tests := []struct {
		name string
		doc  jsonio.Document
	}{
		{"taken child key", jsonio.Document{"id": 1, "name": "Ann", "tags": []any{map[string]any{"name": "a"}}}},
		{"repeated child key", jsonio.Document{"id": 2, "name": "Bea", "tags": []any{
			map[string]any{"name": "x"}, map[string]any{"name": "x"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := jsonio.Decode(jsonio.FromDocument(tt.doc), s, tx)
			require.NoError(t, err)

			_, err = proxy.ApplyRecord(ctx, tx, rec, false)
			assert.True(t, errors.IsAlreadyExists(err), "got %v", err)

			n, err := tx.Count(ctx, sample.PersonType)
			require.NoError(t, err)
			assert.Zero(t, n)
			n, err = tx.Count(ctx, sample.TagType)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
		})
	}
}

func TestTypeInfo(t *testing.T) {
	ctx := context.Background()
	s := &schema.TableSchema{
		Model:      "Note",
		Name:       schema.TableNameFor("Note"),
		PrimaryKey: "id",
		Columns: []schema.Column{
			{Name: "id", Type: schema.FieldTypeInteger},
			{Name: "body", Type: schema.FieldTypeString},
		},
	}
	ti := proxy.NewTypeInfo("Note", s)

	assert.Equal(t, proxy.ModelType("Note"), ti.ModelType())
	assert.Equal(t, "class_Note", ti.TableName())
	assert.Equal(t, []string{"id", "body"}, ti.FieldNames())
	assert.Equal(t, 2, ti.ColumnIndices().Len())

	clone := ti.Schema()
	clone.Columns[0].Name = "changed"
	assert.Equal(t, "id", ti.Schema().Columns[0].Name)

	backend := memory.New()
	tx, err := backend.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	assert.True(t, errors.IsSchemaMismatch(ti.ValidateTable(ctx, tx)))
	_, err = ti.CreateTable(ctx, tx)
	require.NoError(t, err)
	require.NoError(t, ti.ValidateTable(ctx, tx))

	assert.Panics(t, func() {
		proxy.NewTypeInfo("Broken", &schema.TableSchema{Model: "Broken"})
	})
}
