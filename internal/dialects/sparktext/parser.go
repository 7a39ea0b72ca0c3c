// Package sparktext parses the indented text Spark's printSchema() emits
// into the canonical type tree. The format is line-oriented: depth comes
// from the pipe prefix, nullability from the trailing annotation.
package sparktext

import (
	"regexp"
	"strings"

	"github.com/FocuswithJustin/SchemaScope/core/errors"
	"github.com/FocuswithJustin/SchemaScope/core/typetree"
	"github.com/FocuswithJustin/SchemaScope/internal/dialects"
)

// Name is the registry key for this dialect.
const Name = "sparktext"

func init() {
	dialects.Register(&dialects.Dialect{
		Name:           Name,
		ContentMarkers: []string{"|--"},
		Parse:          Parse,
	})
}

// typeKinds maps Spark type tokens (precision stripped) to canonical kinds.
var typeKinds = map[string]typetree.Kind{
	"string":    typetree.KindStr,
	"varchar":   typetree.KindStr,
	"char":      typetree.KindStr,
	"binary":    typetree.KindStr,
	"byte":      typetree.KindInt,
	"short":     typetree.KindInt,
	"integer":   typetree.KindInt,
	"int":       typetree.KindInt,
	"long":      typetree.KindInt,
	"bigint":    typetree.KindInt,
	"float":     typetree.KindFloat,
	"double":    typetree.KindFloat,
	"decimal":   typetree.KindFloat,
	"boolean":   typetree.KindBool,
	"date":      typetree.KindDate,
	"timestamp": typetree.KindTimestamp,
	"void":      typetree.KindAny,
	"null":      typetree.KindMissing,
}

// entry is one parsed "|-- name: type (nullable = x)" line.
type entry struct {
	depth    int
	name     string
	typeName string
	nullable bool
	line     int
}

var lineRe = regexp.MustCompile(`^([\s|]*)--\s*([^:]+):\s*([A-Za-z_]+(?:\([^)]*\))?)\s*(?:\((?:nullable|containsNull|valueContainsNull)\s*=\s*(true|false)\))?`)

// Parse converts printSchema output. The root line is optional; anything
// that is not a schema line is skipped, so pasted logs parse too.
func Parse(src []byte, opts dialects.Options) (*dialects.Result, error) {
	var entries []entry
	for i, raw := range strings.Split(string(src), "\n") {
		m := lineRe.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		nullable := m[4] != "false"
		entries = append(entries, entry{
			depth:    strings.Count(m[1], "|") - 1,
			name:     strings.TrimSpace(m[2]),
			typeName: strings.TrimSpace(m[3]),
			nullable: nullable,
			line:     i + 1,
		})
	}
	if len(entries) == 0 {
		return nil, errors.NewParse(Name, opts.Path, 0, "no schema lines found")
	}

	required := typetree.NewPathSet()
	fields, _ := buildFields(entries, 0, "", required)
	return &dialects.Result{
		Root:     typetree.NewObject(fields...),
		Required: required,
		Label:    "root",
	}, nil
}

// buildFields consumes entries at the given depth, recursing into struct,
// array, and map children. It returns the remaining entries above depth.
func buildFields(entries []entry, depth int, prefix string, required typetree.PathSet) ([]typetree.Field, []entry) {
	var fields []typetree.Field
	for len(entries) > 0 {
		e := entries[0]
		if e.depth < depth {
			break
		}
		if e.depth > depth {
			// Orphan child with no parent line; tolerate by skipping.
			entries = entries[1:]
			continue
		}
		entries = entries[1:]

		// Element and map entry lines are shapes, not fields: they carry no
		// presence and contribute no path segment.
		shape := e.name == "element" || e.name == "value" || e.name == "key"
		path := prefix
		if !shape {
			path = typetree.JoinPath(prefix, e.name)
		}

		var node typetree.Node
		node, entries = buildNode(e, entries, depth, path, required)
		fields = append(fields, typetree.Field{Name: e.name, Type: node})
		if !e.nullable && !shape {
			required.Add(path)
		}
	}
	return fields, entries
}

func buildNode(e entry, entries []entry, depth int, path string, required typetree.PathSet) (typetree.Node, []entry) {
	base := strings.ToLower(e.typeName)
	if i := strings.IndexByte(base, '('); i > 0 {
		base = base[:i]
	}

	switch base {
	case "struct":
		fields, rest := buildFields(entries, depth+1, path, required)
		return typetree.NewObject(fields...), rest
	case "array":
		children, rest := buildFields(entries, depth+1, path, required)
		for _, f := range children {
			if f.Name == "element" {
				return typetree.NewArray(f.Type), rest
			}
		}
		return typetree.UnknownArray(), rest
	case "map":
		// Key/value children are consumed but the shape stays opaque.
		_, rest := buildFields(entries, depth+1, path, required)
		return typetree.NewScalar(typetree.KindObject), rest
	}

	if kind, ok := typeKinds[base]; ok {
		return typetree.NewScalar(kind), entries
	}
	return typetree.NewScalar(typetree.KindAny), entries
}
