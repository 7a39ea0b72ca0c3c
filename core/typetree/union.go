package typetree

import "sort"

// Merge combines two type trees observed from different samples or sources
// into one. It is commutative and associative, and never fails: nil inputs
// degrade to Scalar(any).
//
// Rules, in order:
//   - identical trees return themselves
//   - two objects merge key-wise; a key absent on either side contributes
//     Scalar(missing), so the merged field becomes union(T|missing)
//   - two arrays merge element shapes; a populated shape always wins over
//     an unknown (empty) one
//   - everything else becomes a union of both sides, with an object reduced
//     to the opaque "object" scalar when it meets a non-object partner
//     other than missing
func Merge(a, b Node) Node {
	if a == nil {
		a = Scalar{Kind: KindAny}
	}
	if b == nil {
		b = Scalar{Kind: KindAny}
	}
	if a.Key() == b.Key() {
		return a
	}

	ao, aIsObj := a.(Object)
	bo, bIsObj := b.(Object)
	if aIsObj && bIsObj {
		return mergeObjects(ao, bo)
	}

	aa, aIsArr := a.(Array)
	ba, bIsArr := b.(Array)
	if aIsArr && bIsArr {
		return mergeArrays(aa, ba)
	}

	members := append(flatten(a), flatten(b)...)
	return canonicalizeUnion(members)
}

// MergeAll folds Merge over its arguments. No arguments yield Scalar(any).
func MergeAll(nodes ...Node) Node {
	if len(nodes) == 0 {
		return Scalar{Kind: KindAny}
	}
	out := nodes[0]
	for _, n := range nodes[1:] {
		out = Merge(out, n)
	}
	return out
}

func mergeObjects(a, b Object) Node {
	fields := make([]Field, 0, len(a.Fields))
	seen := make(map[string]bool, len(a.Fields))

	for _, f := range a.Fields {
		seen[f.Name] = true
		if other, ok := b.Get(f.Name); ok {
			fields = append(fields, Field{Name: f.Name, Type: Merge(f.Type, other)})
		} else {
			fields = append(fields, Field{Name: f.Name, Type: Merge(f.Type, Scalar{Kind: KindMissing})})
		}
	}
	for _, f := range b.Fields {
		if seen[f.Name] {
			continue
		}
		fields = append(fields, Field{Name: f.Name, Type: Merge(f.Type, Scalar{Kind: KindMissing})})
	}
	return Object{Fields: fields}
}

func mergeArrays(a, b Array) Node {
	// Populated element shape wins over the empty-array sentinel.
	if a.Unknown || a.Elem == nil {
		return b
	}
	if b.Unknown || b.Elem == nil {
		return a
	}
	return Array{Elem: Merge(a.Elem, b.Elem)}
}

// flatten returns the member list a node contributes to a union.
func flatten(n Node) []Node {
	if u, ok := n.(Union); ok {
		return u.Members
	}
	return []Node{n}
}

// canonicalizeUnion builds the canonical union of the given members:
// object and array members of the same variant are merged pair-wise,
// duplicates are dropped, "any" is dropped when a more specific member
// exists, and a single surviving member is returned bare. An empty member
// list degrades to Scalar(any).
func canonicalizeUnion(members []Node) Node {
	var out []Node
	for _, m := range members {
		out = insertMember(out, m)
	}

	// An object alongside non-missing, non-object alternatives degrades to
	// the opaque object scalar: the structure is no longer comparable
	// field-wise once the field is not reliably an object.
	if len(out) > 1 {
		others := 0
		objIdx := -1
		for i, m := range out {
			switch v := m.(type) {
			case Object:
				objIdx = i
			case Scalar:
				if v.Kind != KindMissing && v.Kind != KindAny {
					others++
				}
			default:
				others++
			}
		}
		if objIdx >= 0 && others > 0 {
			out = insertMember(deleteMember(out, objIdx), Scalar{Kind: KindObject})
		}
	}

	// Drop "any" when any more specific member survives.
	if len(out) > 1 {
		kept := out[:0]
		for _, m := range out {
			if s, ok := m.(Scalar); ok && s.Kind == KindAny {
				continue
			}
			kept = append(kept, m)
		}
		if len(kept) > 0 {
			out = kept
		}
	}

	switch len(out) {
	case 0:
		return Scalar{Kind: KindAny}
	case 1:
		return out[0]
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return Union{Members: out}
}

// insertMember adds m to the member list, merging it with an existing member
// of the same variant where the algebra defines a merge.
func insertMember(members []Node, m Node) []Node {
	switch v := m.(type) {
	case Object:
		for i, existing := range members {
			if o, ok := existing.(Object); ok {
				merged := mergeObjects(o, v)
				return replaceMember(members, i, merged)
			}
		}
	case Array:
		for i, existing := range members {
			if a, ok := existing.(Array); ok {
				merged := mergeArrays(a, v)
				return replaceMember(members, i, merged)
			}
		}
	case Union:
		for _, inner := range v.Members {
			members = insertMember(members, inner)
		}
		return members
	}
	key := m.Key()
	for _, existing := range members {
		if existing.Key() == key {
			return members
		}
	}
	return append(members, m)
}

func replaceMember(members []Node, i int, m Node) []Node {
	out := make([]Node, 0, len(members))
	out = append(out, members[:i]...)
	out = append(out, members[i+1:]...)
	return insertMember(out, m)
}

func deleteMember(members []Node, i int) []Node {
	out := make([]Node, 0, len(members)-1)
	out = append(out, members[:i]...)
	out = append(out, members[i+1:]...)
	return out
}
