/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/proxystore/schema"
)

// Backend opens write transactions against a store.
type Backend interface {
	// Begin opens a transaction. Backends allow one open write transaction
	// at a time; Begin blocks until the previous one ends.
	Begin(ctx context.Context) (Transaction, error)

	Close() error
}

// Transaction is one mutation scope on the backing store.
type Transaction interface {
	HasTable(ctx context.Context, name string) (bool, error)

	// Table returns an existing table, or a NotFoundError.
	Table(ctx context.Context, name string) (Table, error)

	// CreateTable creates a table and records its schema with it.
	CreateTable(ctx context.Context, s *schema.TableSchema) (Table, error)

	Commit(ctx context.Context) error

	Rollback(ctx context.Context) error
}

// Table gives row access to one model's table.
type Table interface {
	Name() string

	// Schema returns the schema recorded when the table was created.
	Schema() *schema.TableSchema

	// AddRow appends a row with zero values. For tables with a primary key,
	// primaryKey is stored in the key column and must be unique; otherwise it
	// is ignored.
	AddRow(ctx context.Context, primaryKey any) (Row, error)

	// Row returns the row at index, or a NotFoundError.
	Row(ctx context.Context, index int64) (Row, error)

	// FindByPrimaryKey returns the row holding value in the key column, or a
	// NotFoundError.
	FindByPrimaryKey(ctx context.Context, value any) (Row, error)

	Size(ctx context.Context) (int64, error)
}

// Row is a view of one stored row. Cell values use these Go types:
//
//	integer int64, boolean bool, float float32, double float64,
//	string string, binary []byte, date time.Time,
//	object int64 (target row index), list []int64.
//
// A nil value is null.
type Row interface {
	Index() int64

	Get(col int) any

	// Set stores a value. Setting the primary key column to a value held by
	// another row fails with an AlreadyExistsError.
	Set(col int, value any) error
}
