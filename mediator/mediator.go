/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mediator

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/suparena/proxystore/datastore"
	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/jsonio"
	"github.com/suparena/proxystore/proxy"
	"github.com/suparena/proxystore/registry"
	"github.com/suparena/proxystore/schema"
)

// Mediator routes model-agnostic operations to the handler of the requested
// model type. Its set of handlers is fixed at construction and it holds no
// other state, so one Mediator may serve concurrent callers that each bring
// their own transaction and CopyCache.
type Mediator struct {
	handlers map[proxy.ModelType]proxy.Handler
	types    []proxy.ModelType
	logger   zerolog.Logger
}

// Option configures a Mediator.
type Option func(*Mediator)

// WithLogger sets the logger used for table lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Mediator) {
		m.logger = l
	}
}

// New creates a Mediator over the given handlers.
func New(handlers []proxy.Handler, opts ...Option) (*Mediator, error) {
	m := &Mediator{
		handlers: make(map[proxy.ModelType]proxy.Handler, len(handlers)),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, h := range handlers {
		if h == nil {
			return nil, errors.NewNullArgumentError("handler")
		}
		t := h.ModelType()
		if t == "" {
			return nil, errors.NewValidationError("modelType", "handler has an empty model type")
		}
		if model := h.Schema().Model; model != string(t) {
			return nil, errors.NewValidationError("modelType",
				fmt.Sprintf("handler %s declares a schema for model %s", t, model))
		}
		if _, dup := m.handlers[t]; dup {
			return nil, errors.NewValidationError("modelType", fmt.Sprintf("model type %s registered twice", t))
		}
		m.handlers[t] = h
		m.types = append(m.types, t)
	}
	sort.Slice(m.types, func(i, j int) bool { return m.types[i] < m.types[j] })
	return m, nil
}

// FromRegistry creates a Mediator over every registered handler.
func FromRegistry(opts ...Option) (*Mediator, error) {
	return New(registry.Handlers(), opts...)
}

// Filter returns a Mediator restricted to the given model types.
func (m *Mediator) Filter(types ...proxy.ModelType) (*Mediator, error) {
	hs := make([]proxy.Handler, 0, len(types))
	for _, t := range types {
		h, err := m.handler(t)
		if err != nil {
			return nil, err
		}
		hs = append(hs, h)
	}
	return New(hs, WithLogger(m.logger))
}

func (m *Mediator) handler(t proxy.ModelType) (proxy.Handler, error) {
	if t == "" {
		return nil, errors.NewNullArgumentError("modelType")
	}
	h, ok := m.handlers[t]
	if !ok {
		return nil, errors.NewUnknownTypeError(string(t))
	}
	return h, nil
}

// Has reports whether t is supported.
func (m *Mediator) Has(t proxy.ModelType) bool {
	_, ok := m.handlers[t]
	return ok
}

// ModelTypes returns the supported model types in sorted order.
func (m *Mediator) ModelTypes() []proxy.ModelType {
	return append([]proxy.ModelType(nil), m.types...)
}

// CreateTable creates the table of t, or returns it if it already exists.
func (m *Mediator) CreateTable(ctx context.Context, t proxy.ModelType, tx datastore.Transaction) (datastore.Table, error) {
	h, err := m.handler(t)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, errors.NewNullArgumentError("transaction")
	}

	table, err := h.CreateTable(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to create table %s: %w", h.TableName(), err)
	}
	m.logger.Debug().Str("model", string(t)).Str("table", table.Name()).Msg("table ready")
	return table, nil
}

// ValidateTable checks that the stored table of t matches its declared
// schema, failing with a SchemaMismatchError otherwise.
func (m *Mediator) ValidateTable(ctx context.Context, t proxy.ModelType, tx datastore.Transaction) error {
	h, err := m.handler(t)
	if err != nil {
		return err
	}
	if tx == nil {
		return errors.NewNullArgumentError("transaction")
	}

	if err := h.ValidateTable(ctx, tx); err != nil {
		if errors.IsSchemaMismatch(err) {
			m.logger.Warn().Err(err).Str("model", string(t)).Msg("schema mismatch")
		}
		return err
	}
	m.logger.Debug().Str("model", string(t)).Str("table", h.TableName()).Msg("table validated")
	return nil
}

// FieldNames returns the persisted field names of t in declaration order.
func (m *Mediator) FieldNames(t proxy.ModelType) ([]string, error) {
	h, err := m.handler(t)
	if err != nil {
		return nil, err
	}
	return h.FieldNames(), nil
}

// ColumnIndices returns the field-name to column-position map of t.
func (m *Mediator) ColumnIndices(t proxy.ModelType) (schema.ColumnIndices, error) {
	h, err := m.handler(t)
	if err != nil {
		return schema.ColumnIndices{}, err
	}
	return h.ColumnIndices(), nil
}

// TableName returns the storage table name of t.
func (m *Mediator) TableName(t proxy.ModelType) (string, error) {
	h, err := m.handler(t)
	if err != nil {
		return "", err
	}
	return h.TableName(), nil
}

// Schema returns a copy of the declared schema of t.
func (m *Mediator) Schema(t proxy.ModelType) (*schema.TableSchema, error) {
	h, err := m.handler(t)
	if err != nil {
		return nil, err
	}
	return h.Schema(), nil
}

// TableSchema resolves a model name to its declared schema.
func (m *Mediator) TableSchema(model string) (*schema.TableSchema, error) {
	return m.Schema(proxy.ModelType(model))
}

// NewInstance returns an unbound proxy of t.
func (m *Mediator) NewInstance(t proxy.ModelType) (proxy.Object, error) {
	h, err := m.handler(t)
	if err != nil {
		return nil, err
	}
	return h.NewInstance(), nil
}

// CopyOrUpdate copies obj and everything it links to into s. With update
// set, models with a primary key overwrite the stored record holding the
// same key. Models already in cache are not copied again; a nil cache is
// replaced by a fresh one.
func (m *Mediator) CopyOrUpdate(ctx context.Context, s proxy.Store, obj proxy.Model, update bool, cache proxy.CopyCache) (proxy.Object, error) {
	if obj == nil {
		return nil, errors.NewNullArgumentError("object")
	}
	if s == nil {
		return nil, errors.NewNullArgumentError("store")
	}
	if cache == nil {
		cache = make(proxy.CopyCache)
	}
	if cached, ok := cache.Lookup(obj); ok {
		return cached, nil
	}

	h, err := m.handler(obj.ModelType())
	if err != nil {
		return nil, err
	}
	return h.CopyOrUpdate(ctx, s, obj, update, cache)
}

// CreateOrUpdateUsingJSONObject creates a record of t from a parsed JSON
// object. With update set, a record holding the same primary key is updated
// instead, and fields absent from doc keep their stored values.
func (m *Mediator) CreateOrUpdateUsingJSONObject(ctx context.Context, t proxy.ModelType, s proxy.Store, doc jsonio.Document, update bool) (proxy.Object, error) {
	h, err := m.handler(t)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.NewNullArgumentError("store")
	}
	if doc == nil {
		return nil, errors.NewNullArgumentError("json")
	}
	return h.CreateOrUpdateFromJSON(ctx, s, jsonio.FromDocument(doc), update)
}

// CreateUsingJSONStream creates a record of t from the next object of a
// token stream. It never updates existing records.
func (m *Mediator) CreateUsingJSONStream(ctx context.Context, t proxy.ModelType, s proxy.Store, r jsonio.TokenReader) (proxy.Object, error) {
	h, err := m.handler(t)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.NewNullArgumentError("store")
	}
	if r == nil {
		return nil, errors.NewNullArgumentError("reader")
	}
	return h.CreateOrUpdateFromJSON(ctx, s, jsonio.FromReader(r), false)
}
