package typetree

import "testing"

func TestNormalizeIdempotent(t *testing.T) {
	trees := sampleTrees()
	trees = append(trees,
		NewArray(UnknownArray()),
		NewObject(Field{Name: "items", Type: UnknownArray()}),
		canonicalizeUnion([]Node{NewScalar(KindAny), NewScalar(KindMissing)}),
	)
	for _, tree := range trees {
		once := Normalize(tree)
		twice := Normalize(once)
		if once.Key() != twice.Key() {
			t.Errorf("Normalize not idempotent for %s: %s vs %s", tree, once, twice)
		}
	}
}

func TestNormalizeCollapsesUnknownArray(t *testing.T) {
	got := Normalize(UnknownArray())
	if got.Key() != "[any]" {
		t.Errorf("Normalize([]) = %s, want [any]", got)
	}
}

func TestNormalizeArrayOfAnyUnion(t *testing.T) {
	// Array(Union{any}) collapses to the generic Array(any).
	got := Normalize(Array{Elem: Union{Members: []Node{NewScalar(KindAny)}}})
	if got.Key() != "[any]" {
		t.Errorf("Normalize([union(any)]) = %s, want [any]", got)
	}
}

func TestNormalizeDropsAnyFromUnion(t *testing.T) {
	u := Union{Members: []Node{NewScalar(KindAny), NewScalar(KindInt), NewScalar(KindStr)}}
	got := Normalize(u)
	if got.Key() != "union(int|str)" {
		t.Errorf("Normalize = %s, want union(int|str)", got)
	}
}

func TestNormalizeFlattensNestedUnion(t *testing.T) {
	inner := Union{Members: []Node{NewScalar(KindInt), NewScalar(KindStr)}}
	outer := Union{Members: []Node{inner, NewScalar(KindBool)}}
	got := Normalize(outer)
	if got.Key() != "union(bool|int|str)" {
		t.Errorf("Normalize = %s, want union(bool|int|str)", got)
	}
}

func TestNormalizeNilDegradesToAny(t *testing.T) {
	if got := Normalize(nil); got.Key() != "any" {
		t.Errorf("Normalize(nil) = %s, want any", got)
	}
}

func TestNormalizeInvalidKindDegradesToAny(t *testing.T) {
	if got := Normalize(Scalar{Kind: Kind("varchar")}); got.Key() != "any" {
		t.Errorf("Normalize(varchar) = %s, want any", got)
	}
}
