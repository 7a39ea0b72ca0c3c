package typetree

// Normalize rewrites a tree into its canonical form:
//   - the empty-array sentinel collapses to Array(any)
//   - unions are flattened, deduplicated, and sorted, with "any" dropped
//     when a more specific member exists
//   - a union left with a single member collapses to that member
//
// Normalize is idempotent and never fails; a nil tree degrades to
// Scalar(any).
func Normalize(n Node) Node {
	if n == nil {
		return Scalar{Kind: KindAny}
	}
	switch v := n.(type) {
	case Scalar:
		if !v.Kind.IsValid() {
			return Scalar{Kind: KindAny}
		}
		return v
	case Array:
		if v.Unknown || v.Elem == nil {
			return Array{Elem: Scalar{Kind: KindAny}}
		}
		return Array{Elem: Normalize(v.Elem)}
	case Object:
		fields := make([]Field, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = Field{Name: f.Name, Type: Normalize(f.Type)}
		}
		return Object{Fields: fields}
	case Union:
		members := make([]Node, len(v.Members))
		for i, m := range v.Members {
			members[i] = Normalize(m)
		}
		return canonicalizeUnion(members)
	}
	return Scalar{Kind: KindAny}
}
