// Command schemascope is the CLI tool for SchemaScope.
// It parses schemas from heterogeneous sources into one canonical type
// tree, compares them, and tracks them over time as snapshots.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/SchemaScope/core/diff"
	"github.com/FocuswithJustin/SchemaScope/core/sqlite"
	"github.com/FocuswithJustin/SchemaScope/core/typetree"
	"github.com/FocuswithJustin/SchemaScope/internal/dialects"
	"github.com/FocuswithJustin/SchemaScope/internal/fileutil"
	"github.com/FocuswithJustin/SchemaScope/internal/logging"
	"github.com/FocuswithJustin/SchemaScope/internal/store"

	// Import the dialect registry to register all built-in parsers
	_ "github.com/FocuswithJustin/SchemaScope/internal/dialects/all"
)

const version = "0.2.0"

// CLI defines the command-line interface for schemascope.
var CLI struct {
	// Global flags
	Verbose bool `short:"v" help:"Enable info-level logging"`
	Debug   bool `help:"Enable debug-level logging"`
	LogJSON bool `name:"log-json" help:"Emit logs as JSON"`

	// Commands
	Parse    ParseCmd      `cmd:"" help:"Parse a schema source into the canonical tree"`
	Diff     DiffCmd       `cmd:"" help:"Compare two schema sources"`
	Merge    MergeCmd      `cmd:"" help:"Merge several schema sources into one tree"`
	Snapshot SnapshotGroup `cmd:"" help:"Snapshot store operations (save, list, diff)"`
	Dialects DialectsCmd   `cmd:"" help:"List registered dialects"`
	Version  VersionCmd    `cmd:"" help:"Print version information"`
}

// setupLogging applies the global flags before any command runs.
func setupLogging() {
	level := logging.LevelWarn
	if CLI.Verbose {
		level = logging.LevelInfo
	}
	if CLI.Debug {
		level = logging.LevelDebug
	}
	format := logging.FormatText
	if CLI.LogJSON {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)
}

// loadSchema reads one source and parses it. An empty dialect name means
// detection by extension and content markers; "-" as path reads stdin.
func loadSchema(path, dialectName, selector string, maxRecords int) (*dialects.Result, string, error) {
	var (
		data    []byte
		logical string
		err     error
	)
	if path == "-" {
		data, err = fileutil.ReadAll(os.Stdin)
		logical = "stdin"
	} else {
		data, logical, err = fileutil.ReadInput(path)
	}
	if err != nil {
		return nil, "", err
	}

	var d *dialects.Dialect
	if dialectName != "" {
		d, err = dialects.Get(dialectName)
	} else {
		d, err = dialects.Detect(logical, data)
	}
	if err != nil {
		return nil, "", err
	}

	start := time.Now()
	res, err := d.Parse(data, dialects.Options{
		Selector:   selector,
		Path:       logical,
		MaxRecords: maxRecords,
	})
	if err != nil {
		logging.ParseError(d.Name, logical, err)
		return nil, "", err
	}
	logging.ParseEvent(d.Name, logical, res.Label, len(res.Root.Fields), time.Since(start))
	return res, d.Name, nil
}

// schemaJSON is the JSON shape parse and merge emit.
type schemaJSON struct {
	Label       string           `json:"label"`
	Dialect     string           `json:"dialect,omitempty"`
	Fingerprint string           `json:"fingerprint"`
	Tree        json.RawMessage  `json:"tree"`
	Required    typetree.PathSet `json:"required"`
}

func printSchemaJSON(label, dialectName string, root typetree.Object, required typetree.PathSet) error {
	tree, err := typetree.MarshalNode(root)
	if err != nil {
		return err
	}
	if required == nil {
		required = typetree.NewPathSet()
	}
	out, err := json.MarshalIndent(schemaJSON{
		Label:       label,
		Dialect:     dialectName,
		Fingerprint: typetree.Fingerprint(root),
		Tree:        tree,
		Required:    required,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func printSchemaText(label, dialectName string, root typetree.Object, required typetree.PathSet) {
	if label != "" {
		fmt.Printf("Schema: %s\n", label)
	} else {
		fmt.Println("Schema:")
	}
	if dialectName != "" {
		fmt.Printf("  Dialect: %s\n", dialectName)
	}
	fmt.Printf("  Fingerprint: %s\n", typetree.Fingerprint(root))
	fmt.Printf("  Fields:\n")
	printFields(root, "    ", "", required)
}

// printFields renders an object one field per line, nesting into objects
// and arrays of objects. Required fields carry a trailing marker.
func printFields(obj typetree.Object, indent, prefix string, required typetree.PathSet) {
	for _, f := range obj.Fields {
		path := typetree.JoinPath(prefix, f.Name)
		marker := ""
		if required != nil && required.Contains(path) {
			marker = "  (required)"
		}
		switch t := f.Type.(type) {
		case typetree.Object:
			fmt.Printf("%s%s: object%s\n", indent, f.Name, marker)
			printFields(t, indent+"  ", path, required)
		case typetree.Array:
			if inner, ok := t.Elem.(typetree.Object); ok {
				fmt.Printf("%s%s: [object]%s\n", indent, f.Name, marker)
				printFields(inner, indent+"  ", path, required)
				continue
			}
			fmt.Printf("%s%s: %s%s\n", indent, f.Name, f.Type.String(), marker)
		default:
			fmt.Printf("%s%s: %s%s\n", indent, f.Name, f.Type.String(), marker)
		}
	}
}

// ParseCmd parses one schema source.
type ParseCmd struct {
	Path       string `arg:"" help:"Schema file path, or - for stdin"`
	Dialect    string `help:"Dialect name (default: auto-detect)"`
	Selector   string `help:"Table or message to extract when the source declares several"`
	MaxRecords int    `name:"max-records" help:"Record cap for sampled-data dialects"`
	JSON       bool   `help:"Output as JSON"`
}

func (c *ParseCmd) Run() error {
	setupLogging()
	res, dialectName, err := loadSchema(c.Path, c.Dialect, c.Selector, c.MaxRecords)
	if err != nil {
		return err
	}
	if c.JSON {
		return printSchemaJSON(res.Label, dialectName, res.Root, res.Required)
	}
	printSchemaText(res.Label, dialectName, res.Root, res.Required)
	return nil
}

// DiffCmd compares two schema sources.
type DiffCmd struct {
	Left  string `arg:"" help:"Left schema file path"`
	Right string `arg:"" help:"Right schema file path"`

	LeftDialect   string `help:"Dialect of the left source (default: auto-detect)"`
	RightDialect  string `help:"Dialect of the right source (default: auto-detect)"`
	LeftSelector  string `help:"Selector for the left source"`
	RightSelector string `help:"Selector for the right source"`
	MaxRecords    int    `name:"max-records" help:"Record cap for sampled-data dialects"`

	JSON bool `help:"Output as JSON"`
	Fail bool `name:"fail-on-diff" help:"Exit non-zero when the schemas differ"`
}

func (c *DiffCmd) Run() error {
	setupLogging()
	left, _, err := loadSchema(c.Left, c.LeftDialect, c.LeftSelector, c.MaxRecords)
	if err != nil {
		return err
	}
	right, _, err := loadSchema(c.Right, c.RightDialect, c.RightSelector, c.MaxRecords)
	if err != nil {
		return err
	}

	report := diff.Diff(left.Root, left.Required, right.Root, right.Required)
	logging.DiffEvent(c.Left, c.Right,
		len(report.OnlyInLeft), len(report.OnlyInRight),
		len(report.TypeMismatches), len(report.PresenceIssues), len(report.PathRelocations))

	if c.JSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		printReport(c.Left, c.Right, report)
	}

	if c.Fail && !report.Empty() {
		return fmt.Errorf("schemas differ")
	}
	return nil
}

func printReport(left, right string, report *diff.Report) {
	fmt.Printf("Comparing: %s vs %s\n\n", left, right)
	if report.Empty() {
		fmt.Println("Schemas are equivalent.")
		return
	}
	if len(report.OnlyInLeft) > 0 {
		fmt.Println("Only in left:")
		for _, p := range report.OnlyInLeft {
			fmt.Printf("  - %s\n", p)
		}
		fmt.Println()
	}
	if len(report.OnlyInRight) > 0 {
		fmt.Println("Only in right:")
		for _, p := range report.OnlyInRight {
			fmt.Printf("  + %s\n", p)
		}
		fmt.Println()
	}
	if len(report.TypeMismatches) > 0 {
		fmt.Println("Type mismatches:")
		for _, m := range report.TypeMismatches {
			fmt.Printf("  %s: %s vs %s\n", m.Path, m.Left, m.Right)
		}
		fmt.Println()
	}
	if len(report.PresenceIssues) > 0 {
		fmt.Println("Presence issues:")
		for _, m := range report.PresenceIssues {
			fmt.Printf("  %s: %s vs %s\n", m.Path, m.Left, m.Right)
		}
		fmt.Println()
	}
	if len(report.PathRelocations) > 0 {
		fmt.Println("Path relocations:")
		for _, r := range report.PathRelocations {
			fmt.Printf("  %s: %s -> %s\n", r.Name,
				strings.Join(r.LeftPaths, ", "), strings.Join(r.RightPaths, ", "))
		}
	}
}

// MergeCmd merges several schema sources into one tree. Each source's
// presence set is folded in first so optionality survives the merge.
type MergeCmd struct {
	Paths      []string `arg:"" help:"Schema file paths"`
	Dialect    string   `help:"Dialect for all sources (default: auto-detect each)"`
	Selector   string   `help:"Selector applied to every source"`
	MaxRecords int      `name:"max-records" help:"Record cap for sampled-data dialects"`
	JSON       bool     `help:"Output as JSON"`
}

func (c *MergeCmd) Run() error {
	setupLogging()
	if len(c.Paths) < 2 {
		return fmt.Errorf("merge needs at least two sources")
	}

	var merged typetree.Node
	var labels []string
	for _, path := range c.Paths {
		res, _, err := loadSchema(path, c.Dialect, c.Selector, c.MaxRecords)
		if err != nil {
			return err
		}
		if res.Label != "" {
			labels = append(labels, res.Label)
		}
		injected := typetree.InjectPresence(res.Root, res.Required)
		if merged == nil {
			merged = injected
			continue
		}
		merged = typetree.Merge(merged, injected)
	}

	tree := typetree.Normalize(merged)
	root, ok := tree.(typetree.Object)
	if !ok {
		root = typetree.NewObject(typetree.Field{Name: "value", Type: tree})
	}
	required := typetree.RequiredFromTree(root)
	label := strings.Join(dedupe(labels), "+")

	if c.JSON {
		return printSchemaJSON(label, "", root, required)
	}
	printSchemaText(label, "", root, required)
	return nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// SnapshotGroup contains snapshot store operations.
type SnapshotGroup struct {
	Save SnapshotSaveCmd `cmd:"" help:"Parse a source and store the result"`
	List SnapshotListCmd `cmd:"" help:"List stored snapshots"`
	Diff SnapshotDiffCmd `cmd:"" help:"Compare two stored snapshots"`
}

// defaultStorePath is where the snapshot database lives unless --db
// says otherwise.
func defaultStorePath() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(dir, ".schemascope", "snapshots.db")
	}
	return "snapshots.db"
}

func openStore(path string) (*store.Store, error) {
	if path == "" {
		path = defaultStorePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return store.Open(path)
}

// SnapshotSaveCmd parses a source and stores the snapshot.
type SnapshotSaveCmd struct {
	Path       string `arg:"" help:"Schema file path"`
	Label      string `help:"Snapshot label (default: the parsed label)"`
	Dialect    string `help:"Dialect name (default: auto-detect)"`
	Selector   string `help:"Table or message to extract"`
	MaxRecords int    `name:"max-records" help:"Record cap for sampled-data dialects"`
	DB         string `name:"db" help:"Snapshot database path" type:"path"`
}

func (c *SnapshotSaveCmd) Run() error {
	setupLogging()
	res, dialectName, err := loadSchema(c.Path, c.Dialect, c.Selector, c.MaxRecords)
	if err != nil {
		return err
	}
	label := c.Label
	if label == "" {
		label = res.Label
	}
	if label == "" {
		label = filepath.Base(c.Path)
	}

	s, err := openStore(c.DB)
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.Save(context.Background(), label, dialectName, res.Root, res.Required)
	if err != nil {
		return err
	}
	logging.SnapshotEvent("save", snap.ID, snap.Label)

	fmt.Printf("Snapshot: %s\n", snap.ID)
	fmt.Printf("  Label: %s\n", snap.Label)
	fmt.Printf("  Dialect: %s\n", snap.Dialect)
	fmt.Printf("  Fingerprint: %s\n", snap.Fingerprint)
	fmt.Printf("  Created: %s\n", snap.CreatedAt.Format(time.RFC3339))
	return nil
}

// SnapshotListCmd lists stored snapshots.
type SnapshotListCmd struct {
	Label string `help:"Only list snapshots under this label"`
	DB    string `name:"db" help:"Snapshot database path" type:"path"`
}

func (c *SnapshotListCmd) Run() error {
	setupLogging()
	s, err := openStore(c.DB)
	if err != nil {
		return err
	}
	defer s.Close()

	snaps, err := s.List(context.Background(), c.Label)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println("No snapshots stored.")
		return nil
	}
	for _, snap := range snaps {
		fmt.Printf("%s  %-20s %-10s %s  %s\n",
			snap.CreatedAt.Format(time.RFC3339), snap.Label, snap.Dialect,
			snap.Fingerprint[:16], snap.ID)
	}
	fmt.Printf("\nTotal: %d snapshot(s)\n", len(snaps))
	return nil
}

// SnapshotDiffCmd compares two stored snapshots. Each ref is a snapshot
// ID or a label, in which case the latest snapshot under it is used.
type SnapshotDiffCmd struct {
	Left  string `arg:"" help:"Snapshot ID or label"`
	Right string `arg:"" help:"Snapshot ID or label"`
	DB    string `name:"db" help:"Snapshot database path" type:"path"`
	JSON  bool   `help:"Output as JSON"`
	Fail  bool   `name:"fail-on-diff" help:"Exit non-zero when the snapshots differ"`
}

func (c *SnapshotDiffCmd) Run() error {
	setupLogging()
	s, err := openStore(c.DB)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	left, err := resolveSnapshot(ctx, s, c.Left)
	if err != nil {
		return err
	}
	right, err := resolveSnapshot(ctx, s, c.Right)
	if err != nil {
		return err
	}

	report := diff.Diff(left.Root, left.Required, right.Root, right.Required)
	logging.DiffEvent(c.Left, c.Right,
		len(report.OnlyInLeft), len(report.OnlyInRight),
		len(report.TypeMismatches), len(report.PresenceIssues), len(report.PathRelocations))

	if c.JSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		printReport(c.Left, c.Right, report)
	}
	if c.Fail && !report.Empty() {
		return fmt.Errorf("snapshots differ")
	}
	return nil
}

func resolveSnapshot(ctx context.Context, s *store.Store, ref string) (*store.Snapshot, error) {
	if snap, err := s.Load(ctx, ref); err == nil {
		return snap, nil
	}
	return s.Latest(ctx, ref)
}

// DialectsCmd lists registered dialects.
type DialectsCmd struct{}

func (c *DialectsCmd) Run() error {
	for _, name := range dialects.Names() {
		fmt.Println(name)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct {
	JSON bool `help:"Output as JSON"`
}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	if c.JSON {
		out, err := json.MarshalIndent(map[string]any{
			"version":  version,
			"dialects": dialects.Names(),
			"sqlite":   info,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	fmt.Printf("schemascope %s\n", version)
	fmt.Printf("  Dialects: %s\n", strings.Join(dialects.Names(), ", "))
	fmt.Printf("  SQLite: %s (%s)\n", info.Package, info.DriverType)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("schemascope"),
		kong.Description("SchemaScope - schema ingestion, normalization, and diffing"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
