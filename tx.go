/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package proxystore

import (
	"context"
	"fmt"
	"io"

	"github.com/suparena/proxystore/datastore"
	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/jsonio"
	"github.com/suparena/proxystore/proxy"
	"github.com/suparena/proxystore/schema"
)

// Tx is a write transaction on a DB. It implements proxy.Store, and the
// objects it returns are valid until it is committed or rolled back.
// A Tx must not be used from several goroutines at once.
type Tx struct {
	db     *DB
	tx     datastore.Transaction
	tables map[proxy.ModelType]datastore.Table
}

var _ proxy.Store = (*Tx)(nil)

func newTx(db *DB, tx datastore.Transaction) *Tx {
	return &Tx{
		db:     db,
		tx:     tx,
		tables: make(map[proxy.ModelType]datastore.Table),
	}
}

// Table returns the table of a model type.
func (t *Tx) Table(ctx context.Context, mt proxy.ModelType) (datastore.Table, error) {
	if table, ok := t.tables[mt]; ok {
		return table, nil
	}
	name, err := t.db.mediator.TableName(mt)
	if err != nil {
		return nil, err
	}
	table, err := t.tx.Table(ctx, name)
	if err != nil {
		return nil, err
	}
	t.tables[mt] = table
	return table, nil
}

func (t *Tx) ColumnIndices(mt proxy.ModelType) (schema.ColumnIndices, error) {
	return t.db.mediator.ColumnIndices(mt)
}

func (t *Tx) TableSchema(model string) (*schema.TableSchema, error) {
	return t.db.mediator.TableSchema(model)
}

// Instance returns a proxy of mt bound to row.
func (t *Tx) Instance(ctx context.Context, mt proxy.ModelType, row datastore.Row) (proxy.Object, error) {
	o, err := t.db.mediator.NewInstance(mt)
	if err != nil {
		return nil, err
	}
	cols, err := t.db.mediator.ColumnIndices(mt)
	if err != nil {
		return nil, err
	}
	proxy.Bind(o, t, row, cols)
	return o, nil
}

func (t *Tx) CopyOrUpdate(ctx context.Context, obj proxy.Model, update bool, cache proxy.CopyCache) (proxy.Object, error) {
	return t.db.mediator.CopyOrUpdate(ctx, t, obj, update, cache)
}

// CopyToStore copies a standalone object graph into the store.
func (t *Tx) CopyToStore(ctx context.Context, obj proxy.Model) (proxy.Object, error) {
	return t.CopyOrUpdate(ctx, obj, false, make(proxy.CopyCache))
}

// CopyToStoreOrUpdate copies a standalone object graph into the store,
// updating records that already hold the same primary keys.
func (t *Tx) CopyToStoreOrUpdate(ctx context.Context, obj proxy.Model) (proxy.Object, error) {
	return t.CopyOrUpdate(ctx, obj, true, make(proxy.CopyCache))
}

// CopyAllToStore copies several graphs, sharing one cache so that objects
// reachable from more than one of them are copied once.
func (t *Tx) CopyAllToStore(ctx context.Context, objs []proxy.Model) ([]proxy.Object, error) {
	return t.copyAll(ctx, objs, false)
}

// CopyAllToStoreOrUpdate is CopyAllToStore with updates of existing records.
func (t *Tx) CopyAllToStoreOrUpdate(ctx context.Context, objs []proxy.Model) ([]proxy.Object, error) {
	return t.copyAll(ctx, objs, true)
}

func (t *Tx) copyAll(ctx context.Context, objs []proxy.Model, update bool) ([]proxy.Object, error) {
	cache := make(proxy.CopyCache)
	out := make([]proxy.Object, 0, len(objs))
	for _, obj := range objs {
		o, err := t.CopyOrUpdate(ctx, obj, update, cache)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// CreateObjectFromJSON creates a record of mt from a JSON object.
func (t *Tx) CreateObjectFromJSON(ctx context.Context, mt proxy.ModelType, data []byte) (proxy.Object, error) {
	return t.objectFromJSON(ctx, mt, data, false)
}

// CreateOrUpdateObjectFromJSON creates a record of mt from a JSON object, or
// updates the fields present in it on the record holding the same primary
// key.
func (t *Tx) CreateOrUpdateObjectFromJSON(ctx context.Context, mt proxy.ModelType, data []byte) (proxy.Object, error) {
	return t.objectFromJSON(ctx, mt, data, true)
}

func (t *Tx) objectFromJSON(ctx context.Context, mt proxy.ModelType, data []byte, update bool) (proxy.Object, error) {
	if _, err := t.db.mediator.TableName(mt); err != nil {
		return nil, err
	}
	doc, err := jsonio.ParseDocument(data)
	if err != nil {
		return nil, errors.NewValidationError("json", err.Error())
	}
	return t.db.mediator.CreateOrUpdateUsingJSONObject(ctx, mt, t, doc, update)
}

// CreateObjectFromJSONStream creates a record of mt from the JSON object r
// holds, without materializing it first.
func (t *Tx) CreateObjectFromJSONStream(ctx context.Context, mt proxy.ModelType, r io.Reader) (proxy.Object, error) {
	if r == nil {
		return nil, errors.NewNullArgumentError("reader")
	}
	return t.db.mediator.CreateUsingJSONStream(ctx, mt, t, jsonio.NewReader(r))
}

// Object returns the record of mt stored at a row index.
func (t *Tx) Object(ctx context.Context, mt proxy.ModelType, index int64) (proxy.Object, error) {
	table, err := t.Table(ctx, mt)
	if err != nil {
		return nil, err
	}
	row, err := table.Row(ctx, index)
	if err != nil {
		return nil, err
	}
	return t.Instance(ctx, mt, row)
}

// FindByPrimaryKey returns the record of mt holding a primary key value.
// Integer keys may be given as any Go integer type.
func (t *Tx) FindByPrimaryKey(ctx context.Context, mt proxy.ModelType, key any) (proxy.Object, error) {
	table, err := t.Table(ctx, mt)
	if err != nil {
		return nil, err
	}
	row, err := table.FindByPrimaryKey(ctx, normalizeKey(key))
	if err != nil {
		return nil, err
	}
	return t.Instance(ctx, mt, row)
}

// Count returns the number of records of mt.
func (t *Tx) Count(ctx context.Context, mt proxy.ModelType) (int64, error) {
	table, err := t.Table(ctx, mt)
	if err != nil {
		return 0, err
	}
	return table.Size(ctx)
}

// Commit makes the transaction's writes durable.
func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	t.db.logger.Debug().Msg("transaction committed")
	return nil
}

// Rollback discards the transaction's writes.
func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	t.db.logger.Debug().Msg("transaction rolled back")
	return nil
}

func normalizeKey(key any) any {
	switch k := key.(type) {
	case int:
		return int64(k)
	case int8:
		return int64(k)
	case int16:
		return int64(k)
	case int32:
		return int64(k)
	case uint8:
		return int64(k)
	case uint16:
		return int64(k)
	case uint32:
		return int64(k)
	default:
		return key
	}
}
