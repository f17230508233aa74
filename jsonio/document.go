/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package jsonio

import (
	"bytes"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"
)

// Document is a materialized JSON object. Values are nil, bool, string,
// gojson.Number (or any Go integer or float type), []any, map[string]any or
// Document.
type Document map[string]any

// ParseDocument decodes a single JSON object.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := decodeExact(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse json object: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("failed to parse json object: input is null")
	}
	return doc, nil
}

// ParseArray decodes a JSON array of objects.
func ParseArray(data []byte) ([]Document, error) {
	var docs []Document
	if err := decodeExact(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse json array: %w", err)
	}
	for i, d := range docs {
		if d == nil {
			return nil, fmt.Errorf("failed to parse json array: element %d is null", i)
		}
	}
	return docs, nil
}

func decodeExact(data []byte, v any) error {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return fmt.Errorf("unexpected data after top-level value")
	}
	return nil
}
