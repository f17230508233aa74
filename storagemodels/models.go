/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
)

// RecordError is the failure of one record of a bulk import.
type RecordError struct {
	// Index is the 0-based position of the record in the input array.
	Index int64
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// ImportResult summarizes a bulk import.
type ImportResult[T any] struct {
	// Objects holds the written records in input order.
	Objects []T
	// Skipped holds the errors of records the error handler chose to skip.
	Skipped []*RecordError
	// Progress is the final progress report.
	Progress ImportProgress
}
