/*
Package schema describes the persisted shape of model types.

A TableSchema is declared by the generated code of each model and stored with
its table when the table is created. Opening a store compares the two with
Compare; any divergence is reported as a SchemaMismatchError so that a store
written by an incompatible model version is never opened silently.

	var personSchema = &schema.TableSchema{
	    Model:      "Person",
	    Name:       schema.TableNameFor("Person"),
	    PrimaryKey: "id",
	    Columns: []schema.Column{
	        {Name: "id", Type: schema.FieldTypeInteger, Indexed: true},
	        {Name: "name", Type: schema.FieldTypeString},
	        {Name: "dog", Type: schema.FieldTypeObject, Nullable: true, LinkTarget: "Dog"},
	    },
	}

ColumnIndices maps field names to column positions. Positions follow
declaration order, which Compare guarantees matches the stored order.
*/
package schema
