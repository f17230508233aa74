/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/proxystore/datastore"
	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/schema"
)

type schemaItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	Definition string `dynamodbav:"Definition"`
}

type keyItem struct {
	PK    string `dynamodbav:"PK"`
	SK    string `dynamodbav:"SK"`
	Index int64  `dynamodbav:"Index"`
}

type rowState struct {
	cells []any
	dirty bool
}

// tableState is what a transaction knows about one table.
type tableState struct {
	schema  *schema.TableSchema
	created bool
	rows    map[int64]*rowState
	added   int64

	// keys and released track primary keys assigned and given up in this
	// transaction.
	keys     map[string]int64
	released map[string]bool
}

type transaction struct {
	// ctx is the context the transaction was begun with; row reads and
	// writes, which take no context of their own, run under it.
	ctx     context.Context
	backend *Backend
	done    bool
	tables  map[string]*tableState
}

func newTransaction(ctx context.Context, b *Backend) *transaction {
	return &transaction{
		ctx:     ctx,
		backend: b,
		tables:  make(map[string]*tableState),
	}
}

func newTableState(s *schema.TableSchema, created bool) *tableState {
	return &tableState{
		schema:   s,
		created:  created,
		rows:     make(map[int64]*rowState),
		keys:     make(map[string]int64),
		released: make(map[string]bool),
	}
}

func (t *transaction) check() error {
	if t.done {
		return fmt.Errorf("transaction is closed")
	}
	return nil
}

func (t *transaction) getItem(ctx context.Context, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	out, err := t.backend.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &t.backend.tableName,
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	return out.Item, nil
}

// state returns the table state, loading the stored schema on first use.
// It returns nil if the table does not exist.
func (t *transaction) state(ctx context.Context, name string) (*tableState, error) {
	if ts, ok := t.tables[name]; ok {
		return ts, nil
	}

	item, err := t.getItem(ctx, schemaKey.key(tableVars(name)))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	var si schemaItem
	if err := attributevalue.UnmarshalMap(item, &si); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema of %s: %w", name, err)
	}
	s, err := schema.Unmarshal([]byte(si.Definition))
	if err != nil {
		return nil, fmt.Errorf("failed to decode schema of %s: %w", name, err)
	}

	ts := newTableState(s, false)
	t.tables[name] = ts
	return ts, nil
}

func (t *transaction) HasTable(ctx context.Context, name string) (bool, error) {
	if err := t.check(); err != nil {
		return false, err
	}
	ts, err := t.state(ctx, name)
	return ts != nil, err
}

func (t *transaction) Table(ctx context.Context, name string) (datastore.Table, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	ts, err := t.state(ctx, name)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, errors.NewNotFoundError("table", name)
	}
	return &table{tx: t, name: name, state: ts}, nil
}

func (t *transaction) CreateTable(ctx context.Context, s *schema.TableSchema) (datastore.Table, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	existing, err := t.state(ctx, s.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.NewAlreadyExistsError("table", s.Name)
	}

	ts := newTableState(s.Clone(), true)
	t.tables[s.Name] = ts
	return &table{tx: t, name: s.Name, state: ts}, nil
}

// writes collects the buffered changes as write requests.
func (t *transaction) writes() ([]types.WriteRequest, error) {
	names := make([]string, 0, len(t.tables))
	for name := range t.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	var requests []types.WriteRequest
	put := func(item map[string]types.AttributeValue) {
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	for _, name := range names {
		ts := t.tables[name]

		if ts.created {
			definition, err := schema.Marshal(ts.schema)
			if err != nil {
				return nil, err
			}
			vars := tableVars(name)
			item, err := attributevalue.MarshalMap(schemaItem{
				PK:         expandMacros(schemaKey.PK, vars),
				SK:         expandMacros(schemaKey.SK, vars),
				Definition: string(definition),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to marshal schema of %s: %w", name, err)
			}
			put(item)
		}

		indices := make([]int64, 0, len(ts.rows))
		for index, rs := range ts.rows {
			if rs.dirty {
				indices = append(indices, index)
			}
		}
		sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
		for _, index := range indices {
			item, err := encodeRow(ts.schema, name, index, ts.rows[index].cells)
			if err != nil {
				return nil, err
			}
			put(item)
		}

		keys := make([]string, 0, len(ts.keys))
		for k := range ts.keys {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			vars := pkeyVars(name, k)
			item, err := attributevalue.MarshalMap(keyItem{
				PK:    expandMacros(pkeyKey.PK, vars),
				SK:    expandMacros(pkeyKey.SK, vars),
				Index: ts.keys[k],
			})
			if err != nil {
				return nil, fmt.Errorf("failed to marshal key of %s: %w", name, err)
			}
			put(item)
		}

		released := make([]string, 0, len(ts.released))
		for k := range ts.released {
			if _, reassigned := ts.keys[k]; !reassigned {
				released = append(released, k)
			}
		}
		sort.Strings(released)
		for _, k := range released {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: pkeyKey.key(pkeyVars(name, k))},
			})
		}
	}
	return requests, nil
}

func (t *transaction) Commit(ctx context.Context) error {
	if err := t.check(); err != nil {
		return err
	}
	defer t.finish()

	requests, err := t.writes()
	if err != nil {
		return err
	}
	if err := t.backend.batchWrite(ctx, requests); err != nil {
		return err
	}
	t.backend.logger.Debug().Int("items", len(requests)).Msg("transaction committed")
	return nil
}

func (t *transaction) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.finish()
	t.backend.logger.Debug().Msg("transaction rolled back")
	return nil
}

func (t *transaction) finish() {
	t.done = true
	t.tables = nil
	<-t.backend.writer
}

func encodeRow(s *schema.TableSchema, name string, index int64, cells []any) (map[string]types.AttributeValue, error) {
	encoded := make(map[string]types.AttributeValue, len(cells))
	for i, c := range s.Columns {
		av, err := encodeCell(cells[i])
		if err != nil {
			return nil, fmt.Errorf("column %s of %s: %w", c.Name, name, err)
		}
		encoded[c.Name] = av
	}

	item := rowKey.key(rowVars(name, index))
	item[attrIndex] = &types.AttributeValueMemberN{Value: strconv.FormatInt(index, 10)}
	item[attrCells] = &types.AttributeValueMemberM{Value: encoded}
	return item, nil
}

type table struct {
	tx    *transaction
	name  string
	state *tableState
}

func (tb *table) Name() string {
	return tb.name
}

func (tb *table) Schema() *schema.TableSchema {
	return tb.state.schema.Clone()
}

// nextIndex allocates a row index. Indices of rolled back rows are not
// reused.
func (tb *table) nextIndex(ctx context.Context) (int64, error) {
	out, err := tb.tx.backend.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                 &tb.tx.backend.tableName,
		Key:                       counterKey.key(tableVars(tb.name)),
		UpdateExpression:          aws.String("ADD #n :one"),
		ExpressionAttributeNames:  map[string]string{"#n": attrNextIndex},
		ExpressionAttributeValues: map[string]types.AttributeValue{":one": &types.AttributeValueMemberN{Value: "1"}},
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to allocate row of %s: %w", tb.name, err)
	}

	var next struct {
		NextIndex int64 `dynamodbav:"NextIndex"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &next); err != nil {
		return 0, fmt.Errorf("failed to read row counter of %s: %w", tb.name, err)
	}
	return next.NextIndex - 1, nil
}

// lookup returns the index of the row holding a primary key.
func (tb *table) lookup(ctx context.Context, key string) (int64, bool, error) {
	ts := tb.state
	if index, ok := ts.keys[key]; ok {
		return index, true, nil
	}
	if ts.released[key] || ts.created {
		return 0, false, nil
	}

	item, err := tb.tx.getItem(ctx, pkeyKey.key(pkeyVars(tb.name, key)))
	if err != nil {
		return 0, false, err
	}
	if item == nil {
		return 0, false, nil
	}
	var ki keyItem
	if err := attributevalue.UnmarshalMap(item, &ki); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal key of %s: %w", tb.name, err)
	}
	return ki.Index, true, nil
}

func (tb *table) AddRow(ctx context.Context, primaryKey any) (datastore.Row, error) {
	if err := tb.tx.check(); err != nil {
		return nil, err
	}
	ts := tb.state

	cells := make([]any, len(ts.schema.Columns))
	for i, c := range ts.schema.Columns {
		cells[i] = datastore.ZeroValue(c)
	}

	var key string
	pkCol, pos, hasKey := ts.schema.PrimaryKeyColumn()
	if hasKey {
		pk, err := datastore.NormalizeValue(pkCol, primaryKey)
		if err != nil {
			return nil, err
		}
		key = datastore.KeyString(pk)
		if _, found, err := tb.lookup(ctx, key); err != nil {
			return nil, err
		} else if found {
			return nil, errors.NewAlreadyExistsError(tb.name, key)
		}
		cells[pos] = pk
	}

	index, err := tb.nextIndex(ctx)
	if err != nil {
		return nil, err
	}
	if hasKey {
		ts.keys[key] = index
	}
	ts.rows[index] = &rowState{cells: cells, dirty: true}
	ts.added++
	return &row{table: tb, index: index}, nil
}

func (tb *table) load(ctx context.Context, index int64) (*rowState, error) {
	ts := tb.state
	if rs, ok := ts.rows[index]; ok {
		return rs, nil
	}
	if ts.created {
		return nil, errors.NewNotFoundError(tb.name, fmt.Sprintf("row %d", index))
	}

	item, err := tb.tx.getItem(ctx, rowKey.key(rowVars(tb.name, index)))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.NewNotFoundError(tb.name, fmt.Sprintf("row %d", index))
	}

	stored, _ := item[attrCells].(*types.AttributeValueMemberM)
	cells := make([]any, len(ts.schema.Columns))
	for i, c := range ts.schema.Columns {
		var av types.AttributeValue
		if stored != nil {
			av = stored.Value[c.Name]
		}
		v, err := decodeCell(c, av)
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", index, tb.name, err)
		}
		cells[i] = v
	}

	rs := &rowState{cells: cells}
	ts.rows[index] = rs
	return rs, nil
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

func (tb *table) FindByPrimaryKey(ctx context.Context, value any) (datastore.Row, error) {
	if err := tb.tx.check(); err != nil {
		return nil, err
	}
	if tb.state.schema.PrimaryKey == "" {
		return nil, errors.NewValidationError("primaryKey", fmt.Sprintf("table %s has no primary key", tb.name))
	}

	key := datastore.KeyString(value)
	index, found, err := tb.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NewNotFoundError(tb.name, key)
	}
	return tb.Row(ctx, index)
}

// Size counts the committed rows plus the rows added in this transaction.
func (tb *table) Size(ctx context.Context) (int64, error) {
	if err := tb.tx.check(); err != nil {
		return 0, err
	}
	if tb.state.created {
		return tb.state.added, nil
	}

	var count int64
	input := &sdk.QueryInput{
		TableName:                 &tb.tx.backend.tableName,
		KeyConditionExpression:    aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":pk": &types.AttributeValueMemberS{Value: rowKey.partition(tableVars(tb.name))}},
		Select:                    types.SelectCount,
		ConsistentRead:            aws.Bool(true),
	}
	for {
		out, err := tb.tx.backend.client.Query(ctx, input)
		if err != nil {
			return 0, fmt.Errorf("Query error: %w", err)
		}
		count += int64(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return count + tb.state.added, nil
}

type row struct {
	table *table
	index int64
}

func (r *row) Index() int64 {
	return r.index
}

func (r *row) Get(col int) any {
	tx := r.table.tx
	if tx.done {
		return nil
	}
	rs, err := r.table.load(tx.ctx, r.index)
	if err != nil || col < 0 || col >= len(rs.cells) {
		return nil
	}
	return datastore.CloneValue(rs.cells[col])
}

func (r *row) Set(col int, value any) error {
	tx := r.table.tx
	if err := tx.check(); err != nil {
		return err
	}
	ts := r.table.state
	if col < 0 || col >= len(ts.schema.Columns) {
		return errors.NewValidationError("column", fmt.Sprintf("column %d out of range", col))
	}

	c := ts.schema.Columns[col]
	v, err := datastore.NormalizeValue(c, value)
	if err != nil {
		return err
	}
	rs, err := r.table.load(tx.ctx, r.index)
	if err != nil {
		return err
	}

	if c.Name == ts.schema.PrimaryKey {
		oldKey := datastore.KeyString(rs.cells[col])
		newKey := datastore.KeyString(v)
		if oldKey != newKey {
			index, found, err := r.table.lookup(tx.ctx, newKey)
			if err != nil {
				return err
			}
			if found && index != r.index {
				return errors.NewAlreadyExistsError(r.table.name, newKey)
			}
			delete(ts.keys, oldKey)
			ts.released[oldKey] = true
			ts.keys[newKey] = r.index
		}
	}

	rs.cells[col] = v
	rs.dirty = true
	return nil
}
