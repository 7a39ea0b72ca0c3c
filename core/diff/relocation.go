package diff

import (
	"sort"

	"github.com/FocuswithJustin/SchemaScope/core/typetree"
)

// relocations detects leaf names that were added on one side and removed on
// the other: the classic "field moved into a nested group" change. Each
// relocation reports the full set of paths holding that name in each tree,
// so a duplicate leaf name under several parents stays distinguishable.
func relocations(leftIndex, rightIndex map[string]typetree.Node, onlyLeft, onlyRight []string) []Relocation {
	leftGone := leafNames(onlyLeft)
	rightNew := leafNames(onlyRight)

	var names []string
	for name := range leftGone {
		if _, ok := rightNew[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]Relocation, 0, len(names))
	for _, name := range names {
		left := pathsWithLeaf(leftIndex, name)
		right := pathsWithLeaf(rightIndex, name)
		if equalPathSets(left, right) {
			continue
		}
		out = append(out, Relocation{Name: name, LeftPaths: left, RightPaths: right})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func leafNames(paths []string) map[string]bool {
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		out[typetree.LeafName(p)] = true
	}
	return out
}

func pathsWithLeaf(index map[string]typetree.Node, name string) []string {
	var out []string
	for path := range index {
		if typetree.LeafName(path) == name {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

func equalPathSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
