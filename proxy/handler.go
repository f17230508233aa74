/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package proxy

import (
	"context"

	"github.com/suparena/proxystore/datastore"
	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/jsonio"
	"github.com/suparena/proxystore/schema"
)

// Handler is the per-model behavior generated code supplies. The mediator
// routes every operation to the Handler of the requested model type.
type Handler interface {
	ModelType() ModelType
	TableName() string

	// Schema returns a copy of the declared schema.
	Schema() *schema.TableSchema

	FieldNames() []string
	ColumnIndices() schema.ColumnIndices

	CreateTable(ctx context.Context, tx datastore.Transaction) (datastore.Table, error)
	ValidateTable(ctx context.Context, tx datastore.Transaction) error

	// NewInstance returns an unbound proxy of the model.
	NewInstance() Object

	CopyOrUpdate(ctx context.Context, s Store, obj Model, update bool, cache CopyCache) (Object, error)

	// CreateOrUpdateFromJSON decodes one JSON object and writes it to s.
	CreateOrUpdateFromJSON(ctx context.Context, s Store, v jsonio.Value, update bool) (Object, error)
}

// TypeInfo implements the schema and JSON parts of Handler from a declared
// schema. Generated handlers embed it and add NewInstance and CopyOrUpdate.
type TypeInfo struct {
	modelType ModelType
	schema    *schema.TableSchema
	cols      schema.ColumnIndices
}

// NewTypeInfo builds the TypeInfo of a model. It panics if the schema is
// invalid, since declared schemas are fixed at build time.
func NewTypeInfo(t ModelType, s *schema.TableSchema) TypeInfo {
	if err := s.Validate(); err != nil {
		panic("proxy: invalid schema for " + string(t) + ": " + err.Error())
	}
	return TypeInfo{
		modelType: t,
		schema:    s.Clone(),
		cols:      s.ColumnIndices(),
	}
}

func (ti TypeInfo) ModelType() ModelType {
	return ti.modelType
}

func (ti TypeInfo) TableName() string {
	return ti.schema.Name
}

func (ti TypeInfo) Schema() *schema.TableSchema {
	return ti.schema.Clone()
}

func (ti TypeInfo) FieldNames() []string {
	return ti.schema.FieldNames()
}

func (ti TypeInfo) ColumnIndices() schema.ColumnIndices {
	return ti.cols
}

func (ti TypeInfo) CreateTable(ctx context.Context, tx datastore.Transaction) (datastore.Table, error) {
	return CreateTable(ctx, tx, ti.schema)
}

func (ti TypeInfo) ValidateTable(ctx context.Context, tx datastore.Transaction) error {
	return ValidateTable(ctx, tx, ti.schema)
}

func (ti TypeInfo) CreateOrUpdateFromJSON(ctx context.Context, s Store, v jsonio.Value, update bool) (Object, error) {
	rec, err := jsonio.Decode(v, ti.schema, s)
	if err != nil {
		return nil, err
	}
	return ApplyRecord(ctx, s, rec, update)
}

// CreateTable creates the table of a schema, or returns the existing one.
func CreateTable(ctx context.Context, tx datastore.Transaction, s *schema.TableSchema) (datastore.Table, error) {
	exists, err := tx.HasTable(ctx, s.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return tx.Table(ctx, s.Name)
	}
	return tx.CreateTable(ctx, s)
}

// ValidateTable checks the stored table against a declared schema.
func ValidateTable(ctx context.Context, tx datastore.Transaction, s *schema.TableSchema) error {
	exists, err := tx.HasTable(ctx, s.Name)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewSchemaMismatchError(s.Name, "", "table does not exist")
	}
	table, err := tx.Table(ctx, s.Name)
	if err != nil {
		return err
	}
	return schema.Compare(s, table.Schema())
}
