// Package dialects defines the contract every schema dialect parser
// satisfies, and the registry the CLI resolves parsers through.
//
// A dialect converts one external schema representation (SQL DDL, Protobuf
// IDL, Spark printSchema text, JSON Schema, dbt manifests, XSD, sampled JSON
// records) into the universal parse result: a canonical type tree rooted at
// an object, the set of required paths, and a label naming what was parsed.
package dialects

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/FocuswithJustin/SchemaScope/core/errors"
	"github.com/FocuswithJustin/SchemaScope/core/typetree"
)

// Result is the universal output contract of every dialect parser. Root is
// always an object at top level: a parser whose native form is a loose list
// of fields coerces it to an object keyed by field name first.
type Result struct {
	Root     typetree.Object
	Required typetree.PathSet
	Label    string
}

// Options configures one parse call. Callers pass it explicitly; dialects
// hold no global state.
type Options struct {
	// Selector names the table or message to extract when the source
	// declares more than one. Empty means the dialect's default choice.
	Selector string

	// Path is the source file path, used for error reporting only.
	Path string

	// MaxRecords caps sample-record dialects. 0 means no cap.
	MaxRecords int
}

// ParseFunc parses raw source bytes into a Result.
type ParseFunc func(src []byte, opts Options) (*Result, error)

// Dialect describes one registered schema dialect.
type Dialect struct {
	// Name is the registry key (e.g. "sqlddl", "protoidl").
	Name string

	// Extensions lists file extensions the dialect claims (e.g. ".sql").
	Extensions []string

	// ContentMarkers are substrings whose presence in the input identifies
	// the dialect when the extension is ambiguous.
	ContentMarkers []string

	// Parse converts source bytes into the universal result.
	Parse ParseFunc
}

var (
	mu       sync.RWMutex
	registry = make(map[string]*Dialect)
)

// Register adds a dialect to the registry. Dialect packages call it from
// init; importing a dialect package is what makes it available.
func Register(d *Dialect) {
	if d == nil || d.Name == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[d.Name] = d
}

// Get returns a dialect by name.
func Get(name string) (*Dialect, error) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := registry[name]
	if !ok {
		return nil, errors.NewUnsupported("dialect "+name, "no parser registered")
	}
	return d, nil
}

// Names returns the registered dialect names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Detect picks the dialect for a source file: first the unique extension
// claimant, then content markers. An explicit --dialect flag should bypass
// this entirely.
func Detect(path string, data []byte) (*Dialect, error) {
	mu.RLock()
	defer mu.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	var byExt []*Dialect
	for _, d := range sortedDialects() {
		for _, e := range d.Extensions {
			if ext == strings.ToLower(e) {
				byExt = append(byExt, d)
			}
		}
	}
	if len(byExt) == 1 {
		return byExt[0], nil
	}

	content := string(data)
	candidates := byExt
	if len(candidates) == 0 {
		candidates = sortedDialects()
	}
	for _, d := range candidates {
		for _, marker := range d.ContentMarkers {
			if strings.Contains(content, marker) {
				return d, nil
			}
		}
	}
	return nil, errors.NewUnsupported("input "+path, "no dialect detected; pass one explicitly")
}

// sortedDialects returns registered dialects in name order so detection is
// deterministic. Callers must hold mu.
func sortedDialects() []*Dialect {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Dialect, len(names))
	for i, name := range names {
		out[i] = registry[name]
	}
	return out
}
