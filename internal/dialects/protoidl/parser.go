// Package protoidl parses Protocol Buffer IDL (.proto) files into the
// canonical type tree for one selected message.
//
// Parsing is two-pass: a structural scan records every message, enum, and
// field with its declaring scope, then a resolution pass expands the
// selected message, resolving type references through proto's lexical
// scoping rules. Messages referenced by fields are inlined recursively; a
// recursive or mutually recursive reference is cut with the opaque "object"
// placeholder rather than expanding forever.
package protoidl

import (
	"sort"
	"strings"

	"github.com/FocuswithJustin/SchemaScope/core/errors"
	"github.com/FocuswithJustin/SchemaScope/core/typetree"
	"github.com/FocuswithJustin/SchemaScope/internal/dialects"
)

// Name is the registry key for this dialect.
const Name = "protoidl"

func init() {
	dialects.Register(&dialects.Dialect{
		Name:           Name,
		Extensions:     []string{".proto"},
		ContentMarkers: []string{"message "},
		Parse:          Parse,
	})
}

// scalarKinds maps proto scalar type tokens to canonical kinds. Enum and
// message references are resolved separately; anything unresolved is "any".
var scalarKinds = map[string]typetree.Kind{
	"double":   typetree.KindFloat,
	"float":    typetree.KindFloat,
	"int32":    typetree.KindInt,
	"int64":    typetree.KindInt,
	"uint32":   typetree.KindInt,
	"uint64":   typetree.KindInt,
	"sint32":   typetree.KindInt,
	"sint64":   typetree.KindInt,
	"fixed32":  typetree.KindInt,
	"fixed64":  typetree.KindInt,
	"sfixed32": typetree.KindInt,
	"sfixed64": typetree.KindInt,
	"bool":     typetree.KindBool,
	"string":   typetree.KindStr,
	"bytes":    typetree.KindStr,
}

// protoField is one field declaration recorded by the structural pass.
type protoField struct {
	name     string
	typeName string // raw type token; empty for map fields
	isMap    bool
	repeated bool
	required bool
	scope    string // FQN of the declaring message
	line     int
}

// protoMessage is one message definition.
type protoMessage struct {
	fqn    string
	fields []protoField
}

// fileIndex is everything the structural pass learned about one .proto file.
type fileIndex struct {
	pkg      string
	messages map[string]*protoMessage
	enums    map[string]bool

	// children indexes nested type definitions (as opposed to usages):
	// parent message FQN to the FQNs of the messages and enums defined
	// inside it, in declaration order.
	children map[string][]string

	// topLevel lists top-level message FQNs in declaration order.
	topLevel []string
}

// Parse extracts one message from proto source. The selector may be an
// exact fully qualified name, an absolute dotted path (leading dot), or a
// unique unqualified suffix; an ambiguous suffix is an error. With no
// selector the lexicographically first top-level message is chosen.
func Parse(src []byte, opts dialects.Options) (*dialects.Result, error) {
	idx, err := scanFile(string(src), opts.Path)
	if err != nil {
		return nil, err
	}
	if len(idx.messages) == 0 {
		return nil, errors.NewParse(Name, opts.Path, 0, "no message definitions found")
	}

	fqn, err := idx.selectMessage(opts.Selector)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	root := idx.buildMessageTree(fqn, seen)

	required := typetree.NewPathSet()
	idx.collectRequired(fqn, "", make(map[string]bool), required)

	label := strings.TrimPrefix(fqn, idx.pkg+".")
	return &dialects.Result{Root: root, Required: required, Label: label}, nil
}

// selectMessage resolves the requested message name against the known set.
func (idx *fileIndex) selectMessage(selector string) (string, error) {
	if selector == "" {
		if len(idx.topLevel) == 0 {
			return "", errors.NewParse(Name, "", 0, "no top-level message to default to")
		}
		sorted := append([]string(nil), idx.topLevel...)
		sort.Strings(sorted)
		return sorted[0], nil
	}

	sel := strings.TrimPrefix(selector, ".")
	if _, ok := idx.messages[sel]; ok {
		return sel, nil
	}
	if qualified := idx.pkg + "." + sel; idx.pkg != "" {
		if _, ok := idx.messages[qualified]; ok {
			return qualified, nil
		}
	}

	var suffix []string
	for fqn := range idx.messages {
		if strings.HasSuffix(fqn, "."+sel) {
			suffix = append(suffix, fqn)
		}
	}
	sort.Strings(suffix)
	switch len(suffix) {
	case 0:
		return "", errors.NewSelector(selector, nil)
	case 1:
		return suffix[0], nil
	}
	return "", errors.NewSelector(selector, suffix)
}

// buildMessageTree expands one message into an object tree. seen carries
// the FQNs on the current expansion path: re-entering one is a recursive
// reference and yields the opaque object placeholder instead of a tree.
func (idx *fileIndex) buildMessageTree(fqn string, seen map[string]bool) typetree.Object {
	seen[fqn] = true
	defer delete(seen, fqn)

	msg := idx.messages[fqn]
	var fields []typetree.Field
	referenced := make(map[string]bool)

	for _, f := range msg.fields {
		node := idx.fieldNode(f, seen, referenced)
		fields = append(fields, typetree.Field{Name: f.name, Type: node})
	}

	// Nested definitions never referenced by a field are still exposed as
	// extra properties, keyed by their short name: a nested message used
	// only as a namespace still contributes its shape.
	for _, child := range idx.children[fqn] {
		if referenced[child] {
			continue
		}
		short := child[strings.LastIndexByte(child, '.')+1:]
		if idx.enums[child] {
			fields = append(fields, typetree.Field{Name: short, Type: typetree.NewScalar(typetree.KindStr)})
			continue
		}
		var node typetree.Node = typetree.NewScalar(typetree.KindObject)
		if !seen[child] {
			node = idx.buildMessageTree(child, seen)
		}
		fields = append(fields, typetree.Field{Name: short, Type: node})
	}
	return typetree.NewObject(fields...)
}

// fieldNode resolves one field into its type node, recording which nested
// definitions its type reference reaches.
func (idx *fileIndex) fieldNode(f protoField, seen, referenced map[string]bool) typetree.Node {
	var node typetree.Node

	switch {
	case f.isMap:
		// map<K,V> flattens to an opaque object: key/value shapes are not
		// modeled.
		node = typetree.NewScalar(typetree.KindObject)
	default:
		if kind, ok := scalarKinds[f.typeName]; ok {
			node = typetree.NewScalar(kind)
			break
		}
		ref, kind := idx.resolve(f.typeName, f.scope)
		switch kind {
		case refEnum:
			referenced[ref] = true
			node = typetree.NewScalar(typetree.KindStr)
		case refMessage:
			referenced[ref] = true
			if seen[ref] {
				node = typetree.NewScalar(typetree.KindObject)
			} else {
				node = idx.buildMessageTree(ref, seen)
			}
		default:
			node = typetree.NewScalar(typetree.KindAny)
		}
	}

	if f.repeated {
		return typetree.NewArray(node)
	}
	return node
}

type refKind int

const (
	refNone refKind = iota
	refMessage
	refEnum
)

// resolve applies proto's lexical scoping to a type reference: starting at
// the declaring scope, try scope.Type, then each enclosing ancestor scope,
// then package.Type, then the bare name. The first FQN present in the known
// types wins. An absolute reference (leading dot) bypasses scoping.
func (idx *fileIndex) resolve(token, scope string) (string, refKind) {
	if strings.HasPrefix(token, ".") {
		return idx.lookup(strings.TrimPrefix(token, "."))
	}

	for s := scope; s != ""; s = parentScope(s) {
		if fqn, kind := idx.lookup(s + "." + token); kind != refNone {
			return fqn, kind
		}
		if s == idx.pkg {
			break
		}
	}
	if idx.pkg != "" {
		if fqn, kind := idx.lookup(idx.pkg + "." + token); kind != refNone {
			return fqn, kind
		}
	}
	return idx.lookup(token)
}

func (idx *fileIndex) lookup(fqn string) (string, refKind) {
	if _, ok := idx.messages[fqn]; ok {
		return fqn, refMessage
	}
	if idx.enums[fqn] {
		return fqn, refEnum
	}
	return "", refNone
}

func parentScope(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return ""
}

// collectRequired mirrors tree resolution to build dotted presence paths:
// required fields add their own path, message-typed fields recurse (arrays
// do not add a segment), and unreferenced nested definitions are walked
// under their short name, skipping any child already reachable via a field.
func (idx *fileIndex) collectRequired(fqn, prefix string, seen map[string]bool, out typetree.PathSet) {
	seen[fqn] = true
	defer delete(seen, fqn)

	msg := idx.messages[fqn]
	referenced := make(map[string]bool)

	for _, f := range msg.fields {
		path := typetree.JoinPath(prefix, f.name)
		if f.required {
			out.Add(path)
		}
		if f.isMap {
			continue
		}
		if _, ok := scalarKinds[f.typeName]; ok {
			continue
		}
		ref, kind := idx.resolve(f.typeName, f.scope)
		if kind == refNone {
			continue
		}
		referenced[ref] = true
		if kind == refMessage && !seen[ref] {
			idx.collectRequired(ref, path, seen, out)
		}
	}

	for _, child := range idx.children[fqn] {
		if referenced[child] || idx.enums[child] || seen[child] {
			continue
		}
		short := child[strings.LastIndexByte(child, '.')+1:]
		idx.collectRequired(child, typetree.JoinPath(prefix, short), seen, out)
	}
}
