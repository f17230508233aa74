/*
Package proxystore persists object graphs of generated model types without
runtime reflection.

The library follows a build-time → runtime workflow:
  - Build-time: the code generator emits, per model, a standalone struct, a
    proxy type bound to stored rows, and a proxy.Handler registered in init()
  - Runtime: a mediator.Mediator routes every operation by proxy.ModelType to
    the handler of that model

Key Features:
  - Uniform dispatch over a closed, build-time set of model types
  - Copy-or-update of standalone object graphs, cycles included
  - JSON ingestion from parsed documents or token streams with one set of
    mapping rules
  - Schema validation against stored tables on open
  - In-memory, SQLite/MySQL and DynamoDB backends
  - Semantic error types for better error handling

Basic Usage:

	m, _ := mediator.FromRegistry()
	db, err := proxystore.Open(ctx, memory.New(), m)

	err = db.Update(ctx, func(tx *proxystore.Tx) error {
	    _, err := tx.CopyToStore(ctx, &sample.Person{ID: 1, Name: "Ann"})
	    return err
	})

Objects returned by a Tx are bound to it and must not be used after it is
committed or rolled back.
*/
package proxystore
