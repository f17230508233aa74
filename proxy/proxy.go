/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package proxy

import (
	"context"

	"github.com/suparena/proxystore/datastore"
	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/schema"
)

// ModelType is the stable identifier the code generator assigns to a model.
// It does not depend on Go type names.
type ModelType string

// Model is implemented by standalone model values and by their proxies.
// Standalone models must be pointers so they can key a CopyCache.
type Model interface {
	ModelType() ModelType
}

// Object is a managed record: a generated proxy bound to a stored row.
// Only types embedding Base can implement it.
type Object interface {
	Model

	// Store returns the store the object is bound to, or nil.
	Store() Store

	// Row returns the backing row, or nil for an unbound proxy.
	Row() datastore.Row

	IsManaged() bool

	bind(s Store, row datastore.Row, cols schema.ColumnIndices)
}

// Store is the managed side of a copy or ingestion: an open transaction
// together with the set of model types it can hold.
type Store interface {
	// Table returns the table of a model type.
	Table(ctx context.Context, t ModelType) (datastore.Table, error)

	// ColumnIndices returns the column positions of a model type.
	ColumnIndices(t ModelType) (schema.ColumnIndices, error)

	// TableSchema returns the declared schema of a model by name.
	TableSchema(model string) (*schema.TableSchema, error)

	// Instance returns a proxy bound to row.
	Instance(ctx context.Context, t ModelType, row datastore.Row) (Object, error)

	// CopyOrUpdate copies a model of any supported type into the store.
	CopyOrUpdate(ctx context.Context, obj Model, update bool, cache CopyCache) (Object, error)
}

// Bind attaches a proxy to a row of s.
func Bind(o Object, s Store, row datastore.Row, cols schema.ColumnIndices) {
	o.bind(s, row, cols)
}

// Base carries the binding of a generated proxy and implements the generic
// accessors its getters and setters are written against.
type Base struct {
	store Store
	row   datastore.Row
	cols  schema.ColumnIndices
}

func (b *Base) bind(s Store, row datastore.Row, cols schema.ColumnIndices) {
	b.store = s
	b.row = row
	b.cols = cols
}

func (b *Base) Store() Store {
	return b.store
}

func (b *Base) Row() datastore.Row {
	return b.row
}

func (b *Base) IsManaged() bool {
	return b.row != nil
}

func (b *Base) column(field string) (int, error) {
	if b.row == nil {
		return 0, errors.NewValidationError(field, "object is not managed")
	}
	col, ok := b.cols.Index(field)
	if !ok {
		return 0, errors.NewValidationError(field, "no such field")
	}
	return col, nil
}

// Value returns the stored value of a field, or nil for an unbound proxy.
func (b *Base) Value(field string) any {
	col, err := b.column(field)
	if err != nil {
		return nil
	}
	return b.row.Get(col)
}

// SetValue stores a field value.
func (b *Base) SetValue(field string, v any) error {
	col, err := b.column(field)
	if err != nil {
		return err
	}
	return b.row.Set(col, v)
}

// Link returns the object an object field points to, or nil.
func (b *Base) Link(ctx context.Context, field string, target ModelType) (Object, error) {
	col, err := b.column(field)
	if err != nil {
		return nil, err
	}
	index, ok := b.row.Get(col).(int64)
	if !ok {
		return nil, nil
	}
	return b.instance(ctx, target, index)
}

// SetLink points an object field at o. A nil o clears the link.
func (b *Base) SetLink(field string, o Object) error {
	col, err := b.column(field)
	if err != nil {
		return err
	}
	if o == nil {
		return b.row.Set(col, nil)
	}
	if err := b.checkLinkable(field, o); err != nil {
		return err
	}
	return b.row.Set(col, o.Row().Index())
}

// LinkList returns the objects a list field points to.
func (b *Base) LinkList(ctx context.Context, field string, target ModelType) ([]Object, error) {
	col, err := b.column(field)
	if err != nil {
		return nil, err
	}
	indices, _ := b.row.Get(col).([]int64)

	objs := make([]Object, 0, len(indices))
	for _, index := range indices {
		o, err := b.instance(ctx, target, index)
		if err != nil {
			return nil, err
		}
		objs = append(objs, o)
	}
	return objs, nil
}

// SetLinkList replaces the contents of a list field.
func (b *Base) SetLinkList(field string, objs []Object) error {
	col, err := b.column(field)
	if err != nil {
		return err
	}
	indices := make([]int64, 0, len(objs))
	for _, o := range objs {
		if o == nil {
			return errors.NewValidationError(field, "list elements cannot be nil")
		}
		if err := b.checkLinkable(field, o); err != nil {
			return err
		}
		indices = append(indices, o.Row().Index())
	}
	return b.row.Set(col, indices)
}

func (b *Base) checkLinkable(field string, o Object) error {
	if !o.IsManaged() || o.Store() != b.store {
		return errors.NewValidationError(field, "linked objects must be managed by the same store")
	}
	return nil
}

func (b *Base) instance(ctx context.Context, t ModelType, index int64) (Object, error) {
	table, err := b.store.Table(ctx, t)
	if err != nil {
		return nil, err
	}
	row, err := table.Row(ctx, index)
	if err != nil {
		return nil, err
	}
	return b.store.Instance(ctx, t, row)
}

// SameRecord reports whether two objects are bound to the same stored row.
func SameRecord(a, b Object) bool {
	if a == nil || b == nil || !a.IsManaged() || !b.IsManaged() {
		return false
	}
	return a.Store() == b.Store() &&
		a.ModelType() == b.ModelType() &&
		a.Row().Index() == b.Row().Index()
}
