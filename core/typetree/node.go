// Package typetree defines the canonical type-tree representation shared by
// every schema dialect, together with the union algebra, normalization, and
// presence-injection transforms that operate on it.
//
// All dialect parsers should produce these types rather than defining their
// own. Trees are immutable values: every transform rebuilds and returns a new
// tree, so a parsed tree may be reused across any number of comparisons.
package typetree

import (
	"sort"
	"strings"
)

// Kind identifies a scalar leaf type.
type Kind string

// Scalar kind constants.
const (
	KindInt       Kind = "int"
	KindFloat     Kind = "float"
	KindBool      Kind = "bool"
	KindStr       Kind = "str"
	KindDate      Kind = "date"
	KindTime      Kind = "time"
	KindTimestamp Kind = "timestamp"

	// KindAny matches every type. Unknown dialect type tokens degrade to it.
	KindAny Kind = "any"

	// KindMissing marks a field absent from some samples, or an optional
	// field after presence injection. It only ever appears inside a Union.
	KindMissing Kind = "missing"

	// KindObject is an opaque object: structure is present but its fields
	// are not modeled (struct columns, proto map values, cycle placeholders).
	KindObject Kind = "object"
)

// validKinds is the set of valid scalar kinds.
var validKinds = map[Kind]bool{
	KindInt:       true,
	KindFloat:     true,
	KindBool:      true,
	KindStr:       true,
	KindDate:      true,
	KindTime:      true,
	KindTimestamp: true,
	KindAny:       true,
	KindMissing:   true,
	KindObject:    true,
}

// IsValid returns true if the kind is one of the defined scalar kinds.
func (k Kind) IsValid() bool {
	return validKinds[k]
}

// Node is the canonical type-tree value. It is a closed sum: the only
// implementations are Scalar, Array, Object, and Union. Every transform in
// this package switches exhaustively over these four variants.
type Node interface {
	// Key returns the canonical equality form of the node. Object fields are
	// sorted by name, union members are sorted lexicographically: two trees
	// are equal exactly when their keys are equal.
	Key() string

	// String returns the display form. It differs from Key only for
	// objects, where insertion order is preserved.
	String() string

	sealed()
}

// Scalar is a leaf type.
type Scalar struct {
	Kind Kind
}

// NewScalar returns a scalar node of the given kind.
func NewScalar(k Kind) Scalar {
	return Scalar{Kind: k}
}

func (s Scalar) Key() string    { return string(s.Kind) }
func (s Scalar) String() string { return string(s.Kind) }
func (s Scalar) sealed()        {}

// Array is a homogeneous sequence type with exactly one element shape.
type Array struct {
	// Elem is the element shape. It is nil only when Unknown is set.
	Elem Node

	// Unknown marks an array whose element shape has not been observed
	// (an empty sample array, an unparsed ARRAY token). Normalize collapses
	// it to Array{Elem: any}.
	Unknown bool
}

// NewArray returns an array node with the given element shape.
func NewArray(elem Node) Array {
	return Array{Elem: elem}
}

// UnknownArray returns the empty-array sentinel.
func UnknownArray() Array {
	return Array{Unknown: true}
}

func (a Array) Key() string {
	if a.Unknown || a.Elem == nil {
		return "[]"
	}
	return "[" + a.Elem.Key() + "]"
}

func (a Array) String() string {
	if a.Unknown || a.Elem == nil {
		return "[]"
	}
	return "[" + a.Elem.String() + "]"
}

func (a Array) sealed() {}

// Field is a named member of an Object.
type Field struct {
	Name string
	Type Node
}

// Object is a record type with named fields. Field order is preserved for
// display but is irrelevant to equality.
type Object struct {
	Fields []Field
}

// NewObject returns an object node with the given fields in order.
func NewObject(fields ...Field) Object {
	return Object{Fields: fields}
}

// Get returns the type of the named field.
func (o Object) Get(name string) (Node, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// Names returns the field names in insertion order.
func (o Object) Names() []string {
	names := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		names[i] = f.Name
	}
	return names
}

func (o Object) Key() string {
	parts := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		t := "any"
		if f.Type != nil {
			t = f.Type.Key()
		}
		parts[i] = f.Name + ":" + t
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

func (o Object) String() string {
	parts := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		t := "any"
		if f.Type != nil {
			t = f.Type.String()
		}
		parts[i] = f.Name + ": " + t
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (o Object) sealed() {}

// Union is a set of at least two distinct alternative types. Unions are
// always canonical: flattened, deduplicated, members sorted by Key, with
// "any" dropped whenever a more specific member is present. Construct unions
// with Merge or canonicalizeUnion, never by hand.
type Union struct {
	Members []Node
}

func (u Union) Key() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.Key()
	}
	return "union(" + strings.Join(parts, "|") + ")"
}

func (u Union) String() string {
	return u.Key()
}

func (u Union) sealed() {}

// Contains reports whether the union has a member with the given key.
func (u Union) Contains(key string) bool {
	for _, m := range u.Members {
		if m.Key() == key {
			return true
		}
	}
	return false
}

// Equal reports whether two trees are structurally equal, ignoring object
// field order.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}
