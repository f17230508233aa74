/*
Package datastore defines the storage contracts the proxy runtime is built on.

	type Backend interface {
	    Begin(ctx context.Context) (Transaction, error)
	    Close() error
	}

A Transaction creates and opens tables; a Table adds, finds and loads rows;
a Row exposes cells by column position. Every table stores the
schema.TableSchema it was created with so that stores can be validated
against the models of the running build.

Implementations:
  - memory: in-memory backend with snapshot transactions, used by tests
  - sqlstore: database/sql backend for SQLite and MySQL
  - ddb: DynamoDB single-table backend

Link columns store row indices of the target table: an int64 for object
links and a []int64 for lists.
*/
package datastore
