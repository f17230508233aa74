/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/suparena/proxystore/datastore"
	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/schema"
)

type transaction struct {
	// ctx is the context the transaction was begun with; row writes, which
	// take no context of their own, run under it.
	ctx     context.Context
	backend *Backend
	tx      *sql.Tx
	done    bool

	schemas map[string]*schema.TableSchema
	// cells caches loaded rows so that every Row of a record sees writes
	// made through the others.
	cells map[string]map[int64][]any
}

func newTransaction(ctx context.Context, b *Backend, tx *sql.Tx) *transaction {
	return &transaction{
		ctx:     ctx,
		backend: b,
		tx:      tx,
		schemas: make(map[string]*schema.TableSchema),
		cells:   make(map[string]map[int64][]any),
	}
}

func (t *transaction) check() error {
	if t.done {
		return fmt.Errorf("transaction is closed")
	}
	return nil
}

func (t *transaction) q(ident string) string {
	return t.backend.dialect.Quote(ident)
}

// loadSchema returns the stored schema of a table, or nil if the table does
// not exist.
func (t *transaction) loadSchema(ctx context.Context, name string) (*schema.TableSchema, error) {
	if s, ok := t.schemas[name]; ok {
		return s, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", t.q("definition"), t.q(MetaTable), t.q("name"))
	var definition string
	err := t.tx.QueryRowContext(ctx, query, name).Scan(&definition)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schema of %s: %w", name, err)
	}

	s, err := schema.Unmarshal([]byte(definition))
	if err != nil {
		return nil, fmt.Errorf("failed to decode schema of %s: %w", name, err)
	}
	t.schemas[name] = s
	return s, nil
}

func (t *transaction) HasTable(ctx context.Context, name string) (bool, error) {
	if err := t.check(); err != nil {
		return false, err
	}
	s, err := t.loadSchema(ctx, name)
	return s != nil, err
}

func (t *transaction) Table(ctx context.Context, name string) (datastore.Table, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	s, err := t.loadSchema(ctx, name)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.NewNotFoundError("table", name)
	}
	return &table{tx: t, schema: s}, nil
}

func (t *transaction) CreateTable(ctx context.Context, s *schema.TableSchema) (datastore.Table, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	existing, err := t.loadSchema(ctx, s.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.NewAlreadyExistsError("table", s.Name)
	}

	definition, err := schema.Marshal(s)
	if err != nil {
		return nil, err
	}

	d := t.backend.dialect
	cols := []string{t.q(rowColumn) + " " + d.RowColumnType()}
	for _, c := range s.Columns {
		key := c.Name == s.PrimaryKey
		def := t.q(c.Name) + " " + d.ColumnType(c, key)
		if key {
			def += " UNIQUE"
		}
		cols = append(cols, def)
	}

	stmts := []string{
		fmt.Sprintf("CREATE TABLE %s (%s)", t.q(s.Name), strings.Join(cols, ", ")),
	}
	for _, c := range s.Columns {
		if c.Indexed && c.Name != s.PrimaryKey {
			stmts = append(stmts, fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
				t.q("idx_"+s.Name+"_"+c.Name), t.q(s.Name), t.q(c.Name)))
		}
	}
	stmts = append(stmts, fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (?, ?)",
		t.q(MetaTable), t.q("name"), t.q("definition")))

	for i, stmt := range stmts {
		var args []any
		if i == len(stmts)-1 {
			args = []any{s.Name, string(definition)}
		}
		if _, err := t.tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, fmt.Errorf("failed to create table %s: %w", s.Name, err)
		}
	}

	stored := s.Clone()
	t.schemas[s.Name] = stored
	t.backend.logger.Debug().Str("table", s.Name).Str("dialect", d.Name()).Msg("table created")
	return &table{tx: t, schema: stored}, nil
}

func (t *transaction) Commit(ctx context.Context) error {
	if err := t.check(); err != nil {
		return err
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	t.backend.logger.Debug().Msg("transaction committed")
	return nil
}

func (t *transaction) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !stderrors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	t.backend.logger.Debug().Msg("transaction rolled back")
	return nil
}

type table struct {
	tx     *transaction
	schema *schema.TableSchema
}

func (tb *table) Name() string {
	return tb.schema.Name
}

func (tb *table) Schema() *schema.TableSchema {
	return tb.schema.Clone()
}

func (tb *table) columnList() string {
	names := make([]string, len(tb.schema.Columns))
	for i, c := range tb.schema.Columns {
		names[i] = tb.tx.q(c.Name)
	}
	return strings.Join(names, ", ")
}

func (tb *table) rowCache() map[int64][]any {
	cache, ok := tb.tx.cells[tb.schema.Name]
	if !ok {
		cache = make(map[int64][]any)
		tb.tx.cells[tb.schema.Name] = cache
	}
	return cache
}

func (tb *table) AddRow(ctx context.Context, primaryKey any) (datastore.Row, error) {
	if err := tb.tx.check(); err != nil {
		return nil, err
	}

	cells := make([]any, len(tb.schema.Columns))
	for i, c := range tb.schema.Columns {
		cells[i] = datastore.ZeroValue(c)
	}

	if pkCol, pos, ok := tb.schema.PrimaryKeyColumn(); ok {
		pk, err := datastore.NormalizeValue(pkCol, primaryKey)
		if err != nil {
			return nil, err
		}
		if _, found, err := tb.lookup(ctx, pkCol, pk); err != nil {
			return nil, err
		} else if found {
			return nil, errors.NewAlreadyExistsError(tb.schema.Name, datastore.KeyString(pk))
		}
		cells[pos] = pk
	}

	index, err := tb.Size(ctx)
	if err != nil {
		return nil, err
	}

	args := []any{index}
	placeholders := []string{"?"}
	for i, c := range tb.schema.Columns {
		v, err := toSQL(c, cells[i])
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		placeholders = append(placeholders, "?")
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%s)",
		tb.tx.q(tb.schema.Name), tb.tx.q(rowColumn), tb.columnList(), strings.Join(placeholders, ", "))
	if _, err := tb.tx.tx.ExecContext(ctx, stmt, args...); err != nil {
		if tb.tx.backend.dialect.IsUniqueViolation(err) {
			return nil, errors.NewAlreadyExistsError(tb.schema.Name, datastore.KeyString(primaryKey))
		}
		return nil, fmt.Errorf("failed to insert into %s: %w", tb.schema.Name, err)
	}

	tb.rowCache()[index] = cells
	return &row{table: tb, index: index}, nil
}

// lookup returns the index of the row holding value in a column.
func (tb *table) lookup(ctx context.Context, c schema.Column, value any) (int64, bool, error) {
	v, err := toSQL(c, value)
	if err != nil {
		return 0, false, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		tb.tx.q(rowColumn), tb.tx.q(tb.schema.Name), tb.tx.q(c.Name))

	var index int64
	err = tb.tx.tx.QueryRowContext(ctx, query, v).Scan(&index)
	if stderrors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query %s: %w", tb.schema.Name, err)
	}
	return index, true, nil
}

func (tb *table) Row(ctx context.Context, index int64) (datastore.Row, error) {
	if err := tb.tx.check(); err != nil {
		return nil, err
	}
	if _, err := tb.load(ctx, index); err != nil {
		return nil, err
	}
	return &row{table: tb, index: index}, nil
}

func (tb *table) load(ctx context.Context, index int64) ([]any, error) {
	cache := tb.rowCache()
	if cells, ok := cache[index]; ok {
		return cells, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		tb.columnList(), tb.tx.q(tb.schema.Name), tb.tx.q(rowColumn))
	raw := make([]any, len(tb.schema.Columns))
	dest := make([]any, len(raw))
	for i := range raw {
		dest[i] = &raw[i]
	}
	err := tb.tx.tx.QueryRowContext(ctx, query, index).Scan(dest...)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError(tb.schema.Name, fmt.Sprintf("row %d", index))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load row %d of %s: %w", index, tb.schema.Name, err)
	}

	cells := make([]any, len(raw))
	for i, c := range tb.schema.Columns {
		v, err := fromSQL(c, raw[i])
		if err != nil {
			return nil, err
		}
		cells[i] = v
	}
	cache[index] = cells
	return cells, nil
}

func (tb *table) FindByPrimaryKey(ctx context.Context, value any) (datastore.Row, error) {
	if err := tb.tx.check(); err != nil {
		return nil, err
	}
	pkCol, _, ok := tb.schema.PrimaryKeyColumn()
	if !ok {
		return nil, errors.NewValidationError("primaryKey", fmt.Sprintf("table %s has no primary key", tb.schema.Name))
	}

	key := datastore.KeyString(value)
	pk, err := datastore.NormalizeValue(pkCol, value)
	if err != nil {
		return nil, errors.NewNotFoundError(tb.schema.Name, key)
	}
	index, found, err := tb.lookup(ctx, pkCol, pk)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NewNotFoundError(tb.schema.Name, key)
	}
	return tb.Row(ctx, index)
}

func (tb *table) Size(ctx context.Context) (int64, error) {
	if err := tb.tx.check(); err != nil {
		return 0, err
	}
	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", tb.tx.q(tb.schema.Name))
	if err := tb.tx.tx.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", tb.schema.Name, err)
	}
	return n, nil
}

type row struct {
	table *table
	index int64
}

func (r *row) Index() int64 {
	return r.index
}

func (r *row) Get(col int) any {
	if r.table.tx.done {
		return nil
	}
	cells, err := r.table.load(r.table.tx.ctx, r.index)
	if err != nil || col < 0 || col >= len(cells) {
		return nil
	}
	return datastore.CloneValue(cells[col])
}

func (r *row) Set(col int, value any) error {
	tx := r.table.tx
	if err := tx.check(); err != nil {
		return err
	}
	s := r.table.schema
	if col < 0 || col >= len(s.Columns) {
		return errors.NewValidationError("column", fmt.Sprintf("column %d out of range", col))
	}

	c := s.Columns[col]
	v, err := datastore.NormalizeValue(c, value)
	if err != nil {
		return err
	}
	cells, err := r.table.load(tx.ctx, r.index)
	if err != nil {
		return err
	}

	if c.Name == s.PrimaryKey && datastore.KeyString(cells[col]) != datastore.KeyString(v) {
		index, found, err := r.table.lookup(tx.ctx, c, v)
		if err != nil {
			return err
		}
		if found && index != r.index {
			return errors.NewAlreadyExistsError(s.Name, datastore.KeyString(v))
		}
	}

	arg, err := toSQL(c, v)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?", tx.q(s.Name), tx.q(c.Name), tx.q(rowColumn))
	if _, err := tx.tx.ExecContext(tx.ctx, stmt, arg, r.index); err != nil {
		if tx.backend.dialect.IsUniqueViolation(err) {
			return errors.NewAlreadyExistsError(s.Name, datastore.KeyString(v))
		}
		return fmt.Errorf("failed to update row %d of %s: %w", r.index, s.Name, err)
	}

	cells[col] = v
	return nil
}
