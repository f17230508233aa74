/*
Package storagemodels defines the data structures shared by bulk operations.

Key Types:

ImportOptions:
Configuration for bulk JSON imports:

	opts := []ImportOption{
	    WithProgressInterval(500),
	    WithProgressHandler(func(p ImportProgress) {
	        log.Printf("%d records, %.0f/s", p.RecordsRead, p.CurrentRate)
	    }),
	    WithErrorHandler(func(err error) bool {
	        return errors.IsSchemaMapping(err)
	    }),
	}

An error handler returning true skips the failing record and continues; a
nil handler or a false return stops the import at the first failure.

ImportResult:
The outcome of a bulk import: the written objects, the skipped records as
RecordError values and the final ImportProgress.
*/
package storagemodels
