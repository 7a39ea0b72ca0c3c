// Package jsondata infers a schema from sampled JSON records instead of
// parsing a declaration. Input is a JSON array of records, newline
// delimited JSON, or a single object. Records fold through the union
// algebra, and the presence set is read back off the merged tree: a
// field is required when no sample omitted it.
package jsondata

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/FocuswithJustin/SchemaScope/core/errors"
	"github.com/FocuswithJustin/SchemaScope/core/merge"
	"github.com/FocuswithJustin/SchemaScope/core/typetree"
	"github.com/FocuswithJustin/SchemaScope/internal/dialects"
)

// Name is the registry key for this dialect.
const Name = "jsondata"

func init() {
	dialects.Register(&dialects.Dialect{
		Name:       Name,
		Extensions: []string{".ndjson", ".jsonl"},
		Parse:      Parse,
	})
}

// Parse decodes the records and merges them into one tree.
func Parse(src []byte, opts dialects.Options) (*dialects.Result, error) {
	records, err := decodeRecords(src, opts.Path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.NewParse(Name, opts.Path, 0, "no records found")
	}

	tree := merge.Samples(records, merge.Options{MaxRecords: opts.MaxRecords})
	root, ok := tree.(typetree.Object)
	if !ok {
		root = typetree.NewObject(typetree.Field{Name: "value", Type: tree})
	}
	return &dialects.Result{
		Root:     root,
		Required: typetree.RequiredFromTree(root),
		Label:    "samples",
	}, nil
}

// decodeRecords accepts one top-level array (each element a record) or a
// stream of top-level values (NDJSON, or a single document). Numbers
// stay json.Number so integers survive.
func decodeRecords(src []byte, path string) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(src))
	dec.UseNumber()

	var first any
	if err := dec.Decode(&first); err != nil {
		if err == io.EOF {
			return nil, errors.NewParse(Name, path, 0, "empty input")
		}
		return nil, errors.NewParse(Name, path, 0, err.Error())
	}

	records, isArray := first.([]any)
	if !isArray {
		records = []any{first}
	}
	for {
		var next any
		err := dec.Decode(&next)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, errors.NewParse(Name, path, 0, err.Error())
		}
		if isArray {
			// Mixing a top-level array with trailing values is malformed.
			return nil, errors.NewParse(Name, path, 0, "unexpected data after records array")
		}
		records = append(records, next)
	}
}
