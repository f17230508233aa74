/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	stderrors "errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"

	"github.com/suparena/proxystore/schema"
)

// Dialect is the SQL flavor a Backend speaks.
type Dialect interface {
	// Name identifies the dialect in logs and errors.
	Name() string

	// Driver is the database/sql driver name.
	Driver() string

	// Quote quotes an identifier.
	Quote(ident string) string

	// ColumnType returns the column definition of a model field.
	ColumnType(c schema.Column, key bool) string

	// RowColumnType returns the definition of the row index column.
	RowColumnType() string

	// IsUniqueViolation reports whether err is a unique constraint failure.
	IsUniqueViolation(err error) bool
}

// SQLite is the dialect of github.com/mattn/go-sqlite3.
var SQLite Dialect = sqliteDialect{}

// MySQL is the dialect of github.com/go-sql-driver/mysql.
var MySQL Dialect = mysqlDialect{}

type sqliteDialect struct{}

func (sqliteDialect) Name() string   { return "sqlite" }
func (sqliteDialect) Driver() string { return "sqlite3" }

func (sqliteDialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (sqliteDialect) ColumnType(c schema.Column, key bool) string {
	switch c.Type {
	case schema.FieldTypeFloat, schema.FieldTypeDouble:
		return "REAL"
	case schema.FieldTypeString, schema.FieldTypeList:
		return "TEXT"
	case schema.FieldTypeBinary:
		return "BLOB"
	default:
		return "INTEGER"
	}
}

func (sqliteDialect) RowColumnType() string {
	return "INTEGER PRIMARY KEY"
}

func (sqliteDialect) IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !stderrors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
		se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string   { return "mysql" }
func (mysqlDialect) Driver() string { return "mysql" }

func (mysqlDialect) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (mysqlDialect) ColumnType(c schema.Column, key bool) string {
	switch c.Type {
	case schema.FieldTypeBoolean:
		return "TINYINT(1)"
	case schema.FieldTypeFloat:
		return "FLOAT"
	case schema.FieldTypeDouble:
		return "DOUBLE"
	case schema.FieldTypeString:
		// MySQL can only index a prefix of TEXT columns.
		if key || c.Indexed {
			return "VARCHAR(191)"
		}
		return "TEXT"
	case schema.FieldTypeBinary:
		return "LONGBLOB"
	case schema.FieldTypeList:
		return "LONGTEXT"
	default:
		return "BIGINT"
	}
}

func (mysqlDialect) RowColumnType() string {
	return "BIGINT NOT NULL PRIMARY KEY"
}

// ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

func (mysqlDialect) IsUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	return stderrors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
