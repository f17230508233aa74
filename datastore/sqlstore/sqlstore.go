/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"github.com/suparena/proxystore/datastore"
)

// MetaTable holds the schema of every model table.
const MetaTable = "proxystore_schema"

// rowColumn is the column holding a row's index.
const rowColumn = "_row"

// Backend is a datastore.Backend on a database/sql connection pool.
type Backend struct {
	db      *sql.DB
	dialect Dialect
	logger  zerolog.Logger
}

var _ datastore.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger for transaction events.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Backend) {
		b.logger = l
	}
}

// New creates a Backend on an open database, creating the metadata table if
// needed.
func New(ctx context.Context, db *sql.DB, dialect Dialect, opts ...Option) (*Backend, error) {
	b := &Backend{
		db:      db,
		dialect: dialect,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	q := dialect.Quote
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s VARCHAR(191) NOT NULL PRIMARY KEY, %s TEXT NOT NULL)",
		q(MetaTable), q("name"), q("definition"))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", MetaTable, err)
	}
	return b, nil
}

// OpenSQLite opens or creates a SQLite database file.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*Backend, error) {
	db, err := sql.Open(SQLite.Driver(), path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also serializes Begin.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	b, err := New(ctx, db, SQLite, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// MySQLConfig holds the connection settings of a MySQL database.
type MySQLConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Timeout  time.Duration
}

// DSN renders the configuration as a driver data source name.
func (c MySQLConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	cfg.DBName = c.Database
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Timeout = c.Timeout
	return cfg.FormatDSN()
}

// OpenMySQL connects to a MySQL database. MySQL commits DDL implicitly, so
// tables created inside a transaction survive its rollback.
func OpenMySQL(ctx context.Context, c MySQLConfig, opts ...Option) (*Backend, error) {
	db, err := sql.Open(MySQL.Driver(), c.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	b, err := New(ctx, db, MySQL, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// Begin opens a transaction. Writes go through to the database as they are
// made and become visible to others on Commit.
func (b *Backend) Begin(ctx context.Context) (datastore.Transaction, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return newTransaction(ctx, b, tx), nil
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	return b.db.Close()
}

// DB returns the underlying database.
func (b *Backend) DB() *sql.DB {
	return b.db
}
