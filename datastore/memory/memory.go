/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides an in-memory implementation of the datastore contracts
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/suparena/proxystore/datastore"
	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/schema"
)

// Backend is an in-memory datastore.Backend. Each transaction works on a
// snapshot of all tables that replaces the committed state on Commit.
type Backend struct {
	mu     sync.RWMutex
	tables map[string]*table
	closed bool

	// writer holds a token while a transaction is open.
	writer chan struct{}

	beginError       error
	commitError      error
	createTableError error
}

type table struct {
	schema *schema.TableSchema
	rows   [][]any
	keys   map[string]int64
}

// New creates an empty Backend
func New() *Backend {
	return &Backend{
		tables: make(map[string]*table),
		writer: make(chan struct{}, 1),
	}
}

// WithBeginError makes Begin return an error
func (b *Backend) WithBeginError(err error) *Backend {
	b.beginError = err
	return b
}

// WithCommitError makes Commit return an error and discard the transaction
func (b *Backend) WithCommitError(err error) *Backend {
	b.commitError = err
	return b
}

// WithCreateTableError makes CreateTable return an error
func (b *Backend) WithCreateTableError(err error) *Backend {
	b.createTableError = err
	return b
}

// Begin opens a snapshot transaction, waiting for any open one to finish.
func (b *Backend) Begin(ctx context.Context) (datastore.Transaction, error) {
	if b.beginError != nil {
		return nil, b.beginError
	}

	select {
	case b.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		<-b.writer
		return nil, fmt.Errorf("memory backend is closed")
	}

	snapshot := make(map[string]*table, len(b.tables))
	for name, t := range b.tables {
		snapshot[name] = t.clone()
	}
	return &transaction{backend: b, tables: snapshot}, nil
}

// Close releases the stored tables.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.tables = make(map[string]*table)
	return nil
}

// Helper methods for testing

// TableNames returns the names of the committed tables
func (b *Backend) TableNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.tables))
	for name := range b.tables {
		names = append(names, name)
	}
	return names
}

// Rows returns a copy of the committed rows of a table
func (b *Backend) Rows(name string) [][]any {
	b.mu.RLock()
	defer b.mu.RUnlock()

	t, ok := b.tables[name]
	if !ok {
		return nil
	}
	return t.clone().rows
}

// PutSchema replaces the committed schema of a table, creating the table if
// needed. It lets tests simulate a store written by another model version.
func (b *Backend) PutSchema(s *schema.TableSchema) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.tables[s.Name]; ok {
		t.schema = s.Clone()
		return
	}
	b.tables[s.Name] = &table{schema: s.Clone(), keys: make(map[string]int64)}
}

func (t *table) clone() *table {
	c := &table{
		schema: t.schema,
		rows:   make([][]any, len(t.rows)),
		keys:   make(map[string]int64, len(t.keys)),
	}
	for i, r := range t.rows {
		row := make([]any, len(r))
		for j, v := range r {
			row[j] = datastore.CloneValue(v)
		}
		c.rows[i] = row
	}
	for k, v := range t.keys {
		c.keys[k] = v
	}
	return c
}

type transaction struct {
	backend *Backend
	tables  map[string]*table
	done    bool
}

func (tx *transaction) check() error {
	if tx.done {
		return fmt.Errorf("transaction is closed")
	}
	return nil
}

func (tx *transaction) HasTable(ctx context.Context, name string) (bool, error) {
	if err := tx.check(); err != nil {
		return false, err
	}
	_, ok := tx.tables[name]
	return ok, nil
}

func (tx *transaction) Table(ctx context.Context, name string) (datastore.Table, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	t, ok := tx.tables[name]
	if !ok {
		return nil, errors.NewNotFoundError("table", name)
	}
	return &tableView{tx: tx, name: name, t: t}, nil
}

func (tx *transaction) CreateTable(ctx context.Context, s *schema.TableSchema) (datastore.Table, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	if tx.backend.createTableError != nil {
		return nil, tx.backend.createTableError
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if _, exists := tx.tables[s.Name]; exists {
		return nil, errors.NewAlreadyExistsError("table", s.Name)
	}

	t := &table{schema: s.Clone(), keys: make(map[string]int64)}
	tx.tables[s.Name] = t
	return &tableView{tx: tx, name: s.Name, t: t}, nil
}

func (tx *transaction) Commit(ctx context.Context) error {
	if err := tx.check(); err != nil {
		return err
	}
	defer tx.finish()

	if tx.backend.commitError != nil {
		return tx.backend.commitError
	}

	tx.backend.mu.Lock()
	defer tx.backend.mu.Unlock()
	if tx.backend.closed {
		return fmt.Errorf("memory backend is closed")
	}
	tx.backend.tables = tx.tables
	return nil
}

func (tx *transaction) Rollback(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.finish()
	return nil
}

func (tx *transaction) finish() {
	tx.done = true
	tx.tables = nil
	<-tx.backend.writer
}

type tableView struct {
	tx   *transaction
	name string
	t    *table
}

func (v *tableView) Name() string {
	return v.name
}

func (v *tableView) Schema() *schema.TableSchema {
	return v.t.schema.Clone()
}

func (v *tableView) AddRow(ctx context.Context, primaryKey any) (datastore.Row, error) {
	if err := v.tx.check(); err != nil {
		return nil, err
	}

	cells := make([]any, len(v.t.schema.Columns))
	for i, c := range v.t.schema.Columns {
		cells[i] = datastore.ZeroValue(c)
	}

	index := int64(len(v.t.rows))
	if pkCol, pos, ok := v.t.schema.PrimaryKeyColumn(); ok {
		pk, err := datastore.NormalizeValue(pkCol, primaryKey)
		if err != nil {
			return nil, err
		}
		key := datastore.KeyString(pk)
		if _, exists := v.t.keys[key]; exists {
			return nil, errors.NewAlreadyExistsError(v.name, key)
		}
		cells[pos] = pk
		v.t.keys[key] = index
	}

	v.t.rows = append(v.t.rows, cells)
	return &row{view: v, index: index}, nil
}

func (v *tableView) Row(ctx context.Context, index int64) (datastore.Row, error) {
	if err := v.tx.check(); err != nil {
		return nil, err
	}
	if index < 0 || index >= int64(len(v.t.rows)) {
		return nil, errors.NewNotFoundError(v.name, fmt.Sprintf("row %d", index))
	}
	return &row{view: v, index: index}, nil
}

func (v *tableView) FindByPrimaryKey(ctx context.Context, value any) (datastore.Row, error) {
	if err := v.tx.check(); err != nil {
		return nil, err
	}
	if v.t.schema.PrimaryKey == "" {
		return nil, errors.NewValidationError("primaryKey", fmt.Sprintf("table %s has no primary key", v.name))
	}
	key := datastore.KeyString(value)
	index, ok := v.t.keys[key]
	if !ok {
		return nil, errors.NewNotFoundError(v.name, key)
	}
	return &row{view: v, index: index}, nil
}

func (v *tableView) Size(ctx context.Context) (int64, error) {
	if err := v.tx.check(); err != nil {
		return 0, err
	}
	return int64(len(v.t.rows)), nil
}

type row struct {
	view  *tableView
	index int64
}

func (r *row) Index() int64 {
	return r.index
}

func (r *row) Get(col int) any {
	if r.view.tx.done {
		return nil
	}
	return datastore.CloneValue(r.view.t.rows[r.index][col])
}

func (r *row) Set(col int, value any) error {
	if err := r.view.tx.check(); err != nil {
		return err
	}
	t := r.view.t
	if col < 0 || col >= len(t.schema.Columns) {
		return errors.NewValidationError("column", fmt.Sprintf("column %d out of range", col))
	}

	c := t.schema.Columns[col]
	v, err := datastore.NormalizeValue(c, value)
	if err != nil {
		return err
	}

	if c.Name == t.schema.PrimaryKey {
		oldKey := datastore.KeyString(t.rows[r.index][col])
		newKey := datastore.KeyString(v)
		if oldKey != newKey {
			if _, exists := t.keys[newKey]; exists {
				return errors.NewAlreadyExistsError(r.view.name, newKey)
			}
			delete(t.keys, oldKey)
			t.keys[newKey] = r.index
		}
	}

	t.rows[r.index][col] = v
	return nil
}
