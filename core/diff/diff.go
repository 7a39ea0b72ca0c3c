// Package diff compares two normalized type trees and classifies every
// difference into structural adds/removes, true type mismatches,
// presence-only changes, and same-name field relocations.
//
// The engine never fails: any two valid trees produce a report, however
// dissimilar they are.
package diff

import (
	"sort"
	"strings"

	"github.com/FocuswithJustin/SchemaScope/core/typetree"
)

// Mismatch is a common path whose two sides disagree.
type Mismatch struct {
	Path  string `json:"path"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Relocation is a leaf field name that exists on both sides but at
// different dotted paths.
type Relocation struct {
	Name       string   `json:"name"`
	LeftPaths  []string `json:"left_paths"`
	RightPaths []string `json:"right_paths"`
}

// Report is the categorized outcome of comparing two trees.
type Report struct {
	OnlyInLeft      []string     `json:"only_in_left"`
	OnlyInRight     []string     `json:"only_in_right"`
	TypeMismatches  []Mismatch   `json:"type_mismatches"`
	PresenceIssues  []Mismatch   `json:"presence_issues"`
	PathRelocations []Relocation `json:"path_relocations"`
}

// Empty reports whether the two schemas compared equal.
func (r *Report) Empty() bool {
	return len(r.OnlyInLeft) == 0 &&
		len(r.OnlyInRight) == 0 &&
		len(r.TypeMismatches) == 0 &&
		len(r.PresenceIssues) == 0 &&
		len(r.PathRelocations) == 0
}

// Diff normalizes both trees, injects presence from each side's required
// set, and classifies every difference. A nil required set skips presence
// injection for that side (the tree is taken as already encoding its own
// optionality).
func Diff(left typetree.Node, leftRequired typetree.PathSet, right typetree.Node, rightRequired typetree.PathSet) *Report {
	l := prepare(left, leftRequired)
	r := prepare(right, rightRequired)

	leftIndex := indexFields(l)
	rightIndex := indexFields(r)

	report := &Report{}

	var common []string
	for path := range leftIndex {
		if _, ok := rightIndex[path]; ok {
			common = append(common, path)
		} else {
			report.OnlyInLeft = append(report.OnlyInLeft, path)
		}
	}
	for path := range rightIndex {
		if _, ok := leftIndex[path]; !ok {
			report.OnlyInRight = append(report.OnlyInRight, path)
		}
	}
	sort.Strings(report.OnlyInLeft)
	sort.Strings(report.OnlyInRight)
	sort.Strings(common)

	for _, path := range common {
		ln := leftIndex[path]
		rn := rightIndex[path]
		if ln.Key() == rn.Key() {
			continue
		}
		lb := stripMissing(ln)
		rb := stripMissing(rn)
		switch {
		case shapeKey(lb) != shapeKey(rb):
			if matchesEverything(lb) || matchesEverything(rb) {
				// "any" on either side is compatible with every type.
				continue
			}
			report.TypeMismatches = append(report.TypeMismatches, Mismatch{
				Path: path, Left: ln.String(), Right: rn.String(),
			})
		case isOptional(ln) != isOptional(rn):
			report.PresenceIssues = append(report.PresenceIssues, Mismatch{
				Path: path, Left: ln.String(), Right: rn.String(),
			})
		default:
			// Same shape, same optionality: whatever differs lives inside a
			// container, on child paths the index reports individually.
		}
	}

	report.PathRelocations = relocations(leftIndex, rightIndex, report.OnlyInLeft, report.OnlyInRight)
	return report
}

func prepare(n typetree.Node, required typetree.PathSet) typetree.Node {
	t := typetree.Normalize(n)
	if required != nil {
		t = typetree.Normalize(typetree.InjectPresence(t, required))
	}
	return t
}

// indexFields maps every dotted field path to its type node, descending
// through arrays and union members without adding segments.
func indexFields(n typetree.Node) map[string]typetree.Node {
	out := make(map[string]typetree.Node)
	collectIndex(n, "", out)
	return out
}

func collectIndex(n typetree.Node, prefix string, out map[string]typetree.Node) {
	switch v := n.(type) {
	case typetree.Object:
		for _, f := range v.Fields {
			path := typetree.JoinPath(prefix, f.Name)
			out[path] = f.Type
			collectIndex(f.Type, path, out)
		}
	case typetree.Array:
		if v.Elem != nil {
			collectIndex(v.Elem, prefix, out)
		}
	case typetree.Union:
		for _, m := range v.Members {
			collectIndex(m, prefix, out)
		}
	}
}

// stripMissing removes the missing member from a union, yielding the base
// type a presence-degraded field would have when present.
func stripMissing(n typetree.Node) typetree.Node {
	u, ok := n.(typetree.Union)
	if !ok {
		return n
	}
	var kept []typetree.Node
	for _, m := range u.Members {
		if s, isScalar := m.(typetree.Scalar); isScalar && s.Kind == typetree.KindMissing {
			continue
		}
		kept = append(kept, m)
	}
	switch len(kept) {
	case 0:
		return typetree.NewScalar(typetree.KindMissing)
	case 1:
		return kept[0]
	}
	return typetree.Union{Members: kept}
}

// shapeKey describes a node's outer shape only: scalar kinds in full,
// objects collapsed to one token. A nested field change therefore never
// bleeds into its container's classification.
func shapeKey(n typetree.Node) string {
	switch v := n.(type) {
	case typetree.Scalar:
		return string(v.Kind)
	case typetree.Object:
		return "{}"
	case typetree.Array:
		if v.Unknown || v.Elem == nil {
			return "[]"
		}
		return "[" + shapeKey(v.Elem) + "]"
	case typetree.Union:
		parts := make([]string, len(v.Members))
		for i, m := range v.Members {
			parts[i] = shapeKey(m)
		}
		sort.Strings(parts)
		return "union(" + strings.Join(parts, "|") + ")"
	}
	return string(typetree.KindAny)
}

// isOptional reports whether the node admits absence: a union with a
// missing member, or the bare missing scalar.
func isOptional(n typetree.Node) bool {
	switch v := n.(type) {
	case typetree.Scalar:
		return v.Kind == typetree.KindMissing
	case typetree.Union:
		for _, m := range v.Members {
			if s, ok := m.(typetree.Scalar); ok && s.Kind == typetree.KindMissing {
				return true
			}
		}
	}
	return false
}

func matchesEverything(n typetree.Node) bool {
	s, ok := n.(typetree.Scalar)
	return ok && s.Kind == typetree.KindAny
}
