package typetree

import (
	"encoding/json"
	"sort"
	"strings"
)

// PathSet is a set of dotted field paths (e.g. "user.address.city") that are
// required (non-nullable) at the object level. Array elements never carry
// presence: the path of a field inside a repeated group omits any index
// segment, and wrapping an optional array field wraps the whole array type.
type PathSet map[string]struct{}

// NewPathSet returns a path set containing the given paths.
func NewPathSet(paths ...string) PathSet {
	s := make(PathSet, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

// Add inserts a path into the set.
func (s PathSet) Add(path string) {
	s[path] = struct{}{}
}

// Contains reports whether the path is in the set.
func (s PathSet) Contains(path string) bool {
	_, ok := s[path]
	return ok
}

// Sorted returns the paths in lexicographic order.
func (s PathSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted JSON array.
func (s PathSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a JSON array of paths.
func (s *PathSet) UnmarshalJSON(data []byte) error {
	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		return err
	}
	*s = NewPathSet(paths...)
	return nil
}

// JoinPath appends a field name to a dotted path prefix.
func JoinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// SplitPath splits a dotted path into its segments.
func SplitPath(path string) []string {
	return strings.Split(path, ".")
}

// LeafName returns the last segment of a dotted path.
func LeafName(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Paths enumerates every field path in the tree: intermediate object fields
// and leaves alike. Traversal passes through array elements and union
// members without adding a segment.
func Paths(n Node) PathSet {
	out := make(PathSet)
	collectPaths(n, "", out)
	return out
}

func collectPaths(n Node, prefix string, out PathSet) {
	switch v := n.(type) {
	case Object:
		for _, f := range v.Fields {
			path := JoinPath(prefix, f.Name)
			out.Add(path)
			collectPaths(f.Type, path, out)
		}
	case Array:
		if v.Elem != nil {
			collectPaths(v.Elem, prefix, out)
		}
	case Union:
		for _, m := range v.Members {
			collectPaths(m, prefix, out)
		}
	}
}

// InjectPresence rewrites every field whose path is not in required to
// union(T|missing), leaving required fields as pure types. This makes a
// reference schema's declared NOT-NULL columns comparable against
// data-derived schemas, which encode optionality the same way through the
// union algebra. The transform is idempotent: a field already unioned with
// missing is unchanged.
func InjectPresence(n Node, required PathSet) Node {
	if n == nil {
		return Scalar{Kind: KindAny}
	}
	obj, ok := n.(Object)
	if !ok {
		return n
	}
	return injectObject(obj, "", required)
}

func injectObject(o Object, prefix string, required PathSet) Object {
	fields := make([]Field, len(o.Fields))
	for i, f := range o.Fields {
		path := JoinPath(prefix, f.Name)
		t := injectInner(f.Type, path, required)
		if !required.Contains(path) {
			t = ensureMissing(t)
		}
		fields[i] = Field{Name: f.Name, Type: t}
	}
	return Object{Fields: fields}
}

// injectInner recurses through containers so nested fields get their own
// presence treatment, without wrapping the container itself.
func injectInner(n Node, prefix string, required PathSet) Node {
	switch v := n.(type) {
	case Object:
		return injectObject(v, prefix, required)
	case Array:
		if v.Elem == nil {
			return v
		}
		return Array{Elem: injectInner(v.Elem, prefix, required)}
	case Union:
		members := make([]Node, len(v.Members))
		for i, m := range v.Members {
			members[i] = injectInner(m, prefix, required)
		}
		return canonicalizeUnion(members)
	}
	return n
}

// RequiredFromTree recovers a presence set from a tree that encodes
// optionality through the union algebra: every field whose type is not a
// union containing missing is considered required. For a declared schema
// after InjectPresence this is the inverse transform; for a data-derived
// tree it yields the fields present in every sample.
func RequiredFromTree(n Node) PathSet {
	out := make(PathSet)
	collectRequired(n, "", out)
	return out
}

func collectRequired(n Node, prefix string, out PathSet) {
	switch v := n.(type) {
	case Object:
		for _, f := range v.Fields {
			path := JoinPath(prefix, f.Name)
			if u, ok := f.Type.(Union); !ok || !u.Contains(string(KindMissing)) {
				out.Add(path)
			}
			collectRequired(f.Type, path, out)
		}
	case Array:
		if v.Elem != nil {
			collectRequired(v.Elem, prefix, out)
		}
	case Union:
		for _, m := range v.Members {
			collectRequired(m, prefix, out)
		}
	}
}

// ensureMissing wraps t as union(t|missing) unless it already is one.
func ensureMissing(t Node) Node {
	if u, ok := t.(Union); ok && u.Contains(string(KindMissing)) {
		return u
	}
	return canonicalizeUnion([]Node{t, Scalar{Kind: KindMissing}})
}
