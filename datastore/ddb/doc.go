/*
Package ddb provides a DynamoDB implementation of datastore.Backend.

All model tables share one DynamoDB table in a single-table design. Item
keys are built from macro templates such as "ROW#{Table}" whose {Name}
placeholders are replaced per item:

	SCHEMA       / TABLE#{Table}   the stored table schema as JSON
	COUNTER      / TABLE#{Table}   row index allocation
	ROW#{Table}  / IDX#{Index}     the cells of one row
	PKEY#{Table} / {Key}           primary key to row index

Transactions:
Reads go straight to DynamoDB with consistent reads. Writes are buffered in
the transaction and flushed on Commit with BatchWriteItem in chunks of 25,
retrying unprocessed items and throttling errors with a linear backoff:

	backend := ddb.New(client, "proxystore",
	    ddb.WithRetries(5, 200*time.Millisecond),
	    ddb.WithLogger(logger),
	)

Row indices come from an atomic counter, so indices of rolled back rows
are never reused and a table may have gaps. A Backend runs one
transaction at a time; primary key uniqueness is only enforced among
writers sharing a Backend.
*/
package ddb
