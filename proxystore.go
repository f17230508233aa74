/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package proxystore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/suparena/proxystore/datastore"
	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/mediator"
)

// DB is an open store: a backend whose tables have been checked against the
// model types of a Mediator.
type DB struct {
	backend  datastore.Backend
	mediator *mediator.Mediator
	logger   zerolog.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger for store and import events.
func WithLogger(l zerolog.Logger) Option {
	return func(db *DB) {
		db.logger = l
	}
}

// Open prepares backend for the model types of m. Missing tables are
// created and existing ones validated in a single transaction; a table that
// does not match its model aborts opening with a SchemaMismatchError.
func Open(ctx context.Context, backend datastore.Backend, m *mediator.Mediator, opts ...Option) (*DB, error) {
	if backend == nil {
		return nil, errors.NewNullArgumentError("backend")
	}
	if m == nil {
		return nil, errors.NewNullArgumentError("mediator")
	}

	db := &DB{
		backend:  backend,
		mediator: m,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(db)
	}

	tx, err := backend.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	created := 0
	for _, t := range m.ModelTypes() {
		name, err := m.TableName(t)
		if err != nil {
			_ = tx.Rollback(ctx)
			return nil, err
		}
		exists, err := tx.HasTable(ctx, name)
		if err != nil {
			_ = tx.Rollback(ctx)
			return nil, err
		}

		if exists {
			err = m.ValidateTable(ctx, t, tx)
		} else {
			_, err = m.CreateTable(ctx, t, tx)
			created++
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit schema: %w", err)
	}

	db.logger.Info().
		Int("models", len(m.ModelTypes())).
		Int("created", created).
		Msg("store opened")
	return db, nil
}

// Mediator returns the mediator the store was opened with.
func (db *DB) Mediator() *mediator.Mediator {
	return db.mediator
}

// Begin opens a write transaction.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := db.backend.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return newTx(db, tx), nil
}

// Update runs fn in a transaction, committing if fn returns nil and rolling
// back otherwise.
func (db *DB) Update(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			db.logger.Error().Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	return tx.Commit(ctx)
}

// Close closes the backend.
func (db *DB) Close() error {
	return db.backend.Close()
}
