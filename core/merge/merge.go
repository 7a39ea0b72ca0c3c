// Package merge folds sampled data records into one inferred type tree using
// the same union algebra normalization uses, so a schema inferred from data
// compares cleanly against a schema parsed from a declaration.
package merge

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/FocuswithJustin/SchemaScope/core/typetree"
)

// Options configures a merge run. The zero value is ready to use; callers
// pass it explicitly, there is no global default.
type Options struct {
	// MaxRecords caps how many records are folded. 0 means no cap. Input
	// size bounding is the caller's responsibility; this is the only knob.
	MaxRecords int
}

// Samples merges decoded records into one inferred tree. An empty input
// degrades to Scalar(any). The result is normalized.
func Samples(records []any, opts Options) typetree.Node {
	if opts.MaxRecords > 0 && len(records) > opts.MaxRecords {
		records = records[:opts.MaxRecords]
	}
	var tree typetree.Node
	for _, rec := range records {
		v := FromValue(rec)
		if tree == nil {
			tree = v
			continue
		}
		tree = typetree.Merge(tree, v)
	}
	return typetree.Normalize(tree)
}

// FromValue converts one decoded JSON value into a type tree:
//   - nil (JSON null) becomes missing, so a null field unions into
//     union(T|missing) exactly like an absent one
//   - numbers are int when integral, float otherwise
//   - an empty array is the unknown-element sentinel, which loses to any
//     populated shape during merging
//   - object keys are sorted for determinism
func FromValue(v any) typetree.Node {
	switch val := v.(type) {
	case nil:
		return typetree.NewScalar(typetree.KindMissing)
	case bool:
		return typetree.NewScalar(typetree.KindBool)
	case string:
		return typetree.NewScalar(typetree.KindStr)
	case json.Number:
		if strings.ContainsAny(val.String(), ".eE") {
			return typetree.NewScalar(typetree.KindFloat)
		}
		return typetree.NewScalar(typetree.KindInt)
	case float64:
		return typetree.NewScalar(typetree.KindFloat)
	case int, int32, int64:
		return typetree.NewScalar(typetree.KindInt)
	case []any:
		if len(val) == 0 {
			return typetree.UnknownArray()
		}
		var elem typetree.Node
		for _, item := range val {
			t := FromValue(item)
			if elem == nil {
				elem = t
				continue
			}
			elem = typetree.Merge(elem, t)
		}
		return typetree.NewArray(elem)
	case map[string]any:
		names := make([]string, 0, len(val))
		for name := range val {
			names = append(names, name)
		}
		sort.Strings(names)
		fields := make([]typetree.Field, len(names))
		for i, name := range names {
			fields[i] = typetree.Field{Name: name, Type: FromValue(val[name])}
		}
		return typetree.NewObject(fields...)
	}
	return typetree.NewScalar(typetree.KindAny)
}
