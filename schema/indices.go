/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

// ColumnIndices maps logical field names to column positions in a table.
// The zero value is empty. Values are immutable once built and safe to share.
type ColumnIndices struct {
	byName map[string]int
	names  []string
}

// NewColumnIndices assigns positions to names in order.
func NewColumnIndices(names []string) ColumnIndices {
	ci := ColumnIndices{
		byName: make(map[string]int, len(names)),
		names:  append([]string(nil), names...),
	}
	for i, n := range names {
		ci.byName[n] = i
	}
	return ci
}

// Index returns the column position of a field.
func (ci ColumnIndices) Index(name string) (int, bool) {
	i, ok := ci.byName[name]
	return i, ok
}

// Len returns the number of columns.
func (ci ColumnIndices) Len() int {
	return len(ci.names)
}

// Names returns the field names in column order.
func (ci ColumnIndices) Names() []string {
	return append([]string(nil), ci.names...)
}
