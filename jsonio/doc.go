/*
Package jsonio reads JSON input for model ingestion.

Two sources are supported: a materialized Document and a forward-only
TokenReader. Both are adapted to the Value interface, and Decode turns a
Value into a Record using a single set of mapping rules, so a document and
its token stream always decode to the same Record:

	doc, _ := jsonio.ParseDocument(data)
	rec, err := jsonio.Decode(jsonio.FromDocument(doc), personSchema, resolver)

	r := jsonio.NewReader(file)
	rec, err = jsonio.Decode(jsonio.FromReader(r), personSchema, resolver)

Numbers keep their literal text until the target column type is known.
Malformed or truncated token streams fail with a StreamReadError; values
that do not fit a column fail with a SchemaMappingError.
*/
package jsonio
