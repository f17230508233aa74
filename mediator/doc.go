/*
Package mediator dispatches model-agnostic operations to generated model
handlers.

A Mediator is built from a fixed set of proxy.Handler values, usually every
handler the registry collected during init:

	m, err := mediator.FromRegistry(mediator.WithLogger(logger))

Every operation takes a proxy.ModelType selector. An empty selector fails
with a NullArgumentError and a type outside the set with an
UnknownTypeError, before any handler runs.

CopyOrUpdate copies standalone object graphs, cycles included, into a store.
CreateOrUpdateUsingJSONObject and CreateUsingJSONStream ingest JSON through
the same decoding rules, so a parsed document and its token stream always
produce the same stored values.
*/
package mediator
