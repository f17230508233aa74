/*
Package errors provides semantic error types for the proxystore library.

The package defines the error kinds reported by the mediator and the storage
runtime. Each kind has a sentinel that can be checked with the standard
errors.Is() function or the provided helper functions.

Sentinels:

	var (
	    ErrUnknownType    = errors.New("unknown model type")
	    ErrNullArgument   = errors.New("required argument missing")
	    ErrSchemaMismatch = errors.New("schema mismatch")
	    ErrSchemaMapping  = errors.New("schema mapping failed")
	    ErrStreamRead     = errors.New("stream read failed")
	    ErrNotFound       = errors.New("entity not found")
	    ErrAlreadyExists  = errors.New("entity already exists")
	    ErrInvalidInput   = errors.New("invalid input")
	)

Usage:

	obj, err := tx.CreateOrUpdateObjectFromJSON(ctx, sample.PersonType, data)
	if err != nil {
	    if errors.IsSchemaMapping(err) {
	        // The document does not fit the model; skip this record.
	        return nil
	    }
	    return err
	}

	// Create typed errors
	err := errors.NewUnknownTypeError("Invoice")
	err := errors.NewSchemaMismatchError("class_Person", "name", "type changed from string to integer")
	err := errors.NewSchemaMappingError("Person", "age", "integer", "string \"ten\"")

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
None of the operations in this module retry; recovery policy belongs to the
caller.
*/
package errors
