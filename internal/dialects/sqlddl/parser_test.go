package sqlddl

import (
	"errors"
	"testing"

	scerrors "github.com/FocuswithJustin/SchemaScope/core/errors"
	"github.com/FocuswithJustin/SchemaScope/core/typetree"
	"github.com/FocuswithJustin/SchemaScope/internal/dialects"
)

func parse(t *testing.T, sql string, opts dialects.Options) *dialects.Result {
	t.Helper()
	res, err := Parse([]byte(sql), opts)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return res
}

func TestParseBasicTable(t *testing.T) {
	res := parse(t, `CREATE TABLE t (id INT NOT NULL, name TEXT);`, dialects.Options{})
	id, _ := res.Root.Get("id")
	if id == nil || id.Key() != "int" {
		t.Errorf("id = %v, want int", id)
	}
	name, _ := res.Root.Get("name")
	if name == nil || name.Key() != "str" {
		t.Errorf("name = %v, want str", name)
	}
	if !res.Required.Contains("id") || res.Required.Contains("name") {
		t.Errorf("required = %v, want exactly {id}", res.Required.Sorted())
	}
	if res.Label != "t" {
		t.Errorf("label = %q, want t", res.Label)
	}
}

func TestParseMultiLineTable(t *testing.T) {
	sql := `
CREATE TABLE users (
    id BIGINT NOT NULL,
    email VARCHAR(255) NOT NULL,
    age SMALLINT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (id)
);`
	res := parse(t, sql, dialects.Options{})
	want := map[string]string{
		"id":         "int",
		"email":      "str",
		"age":        "int",
		"created_at": "timestamp",
	}
	if len(res.Root.Fields) != len(want) {
		t.Fatalf("fields = %v, want %d columns", res.Root.Names(), len(want))
	}
	for col, kind := range want {
		got, ok := res.Root.Get(col)
		if !ok || got.Key() != kind {
			t.Errorf("column %s = %v, want %s", col, got, kind)
		}
	}
	if !res.Required.Contains("email") {
		t.Error("email should be required")
	}
	if res.Required.Contains("created_at") {
		t.Error("DEFAULT without NOT NULL is still optional")
	}
}

func TestParseNestedArrayStruct(t *testing.T) {
	res := parse(t, `CREATE TABLE t (col ARRAY<STRUCT<a INT64, b STRING>>);`, dialects.Options{})
	col, _ := res.Root.Get("col")
	if col == nil || col.Key() != "[object]" {
		t.Errorf("col = %v, want [object]: struct fields are never exploded", col)
	}
}

func TestParseColumnTypeSpanningLines(t *testing.T) {
	// BigQuery DDL is commonly formatted with one struct field per line.
	sql := `
CREATE TABLE events (
    id INT64 NOT NULL,
    payload ARRAY<STRUCT<
        kind STRING,
        at TIMESTAMP
    >>,
    name STRING
);`
	res := parse(t, sql, dialects.Options{})
	if len(res.Root.Fields) != 3 {
		t.Fatalf("fields = %v, want 3 columns", res.Root.Names())
	}
	payload, ok := res.Root.Get("payload")
	if !ok || payload.Key() != "[object]" {
		t.Errorf("payload = %v, want [object]", payload)
	}
	name, ok := res.Root.Get("name")
	if !ok || name.Key() != "str" {
		t.Errorf("name = %v, want str", name)
	}
}

func TestParseArrayOfScalars(t *testing.T) {
	res := parse(t, `CREATE TABLE t (ids ARRAY<INT64>, names ARRAY<ARRAY<STRING>>);`, dialects.Options{})
	ids, _ := res.Root.Get("ids")
	if ids.Key() != "[int]" {
		t.Errorf("ids = %v, want [int]", ids)
	}
	names, _ := res.Root.Get("names")
	if names.Key() != "[[str]]" {
		t.Errorf("names = %v, want [[str]]", names)
	}
}

func TestParsePostgresArraySuffix(t *testing.T) {
	res := parse(t, `CREATE TABLE t (tags TEXT[], scores INTEGER[]);`, dialects.Options{})
	tags, _ := res.Root.Get("tags")
	if tags.Key() != "[str]" {
		t.Errorf("tags = %v, want [str]", tags)
	}
	scores, _ := res.Root.Get("scores")
	if scores.Key() != "[int]" {
		t.Errorf("scores = %v, want [int]", scores)
	}
}

func TestParsePrecisionStripped(t *testing.T) {
	res := parse(t, `CREATE TABLE t (price NUMERIC(10,2), code CHAR(4) NOT NULL);`, dialects.Options{})
	price, _ := res.Root.Get("price")
	if price.Key() != "float" {
		t.Errorf("price = %v, want float", price)
	}
	code, _ := res.Root.Get("code")
	if code.Key() != "str" {
		t.Errorf("code = %v, want str", code)
	}
	if !res.Required.Contains("code") {
		t.Error("code should be required")
	}
}

func TestParseUnknownTypeDegradesToAny(t *testing.T) {
	res := parse(t, `CREATE TABLE t (geo GEOGRAPHY, v HSTORE);`, dialects.Options{})
	for _, col := range []string{"geo", "v"} {
		got, _ := res.Root.Get(col)
		if got.Key() != "any" {
			t.Errorf("%s = %v, want any (unknown tokens never fail)", col, got)
		}
	}
}

func TestParseSkipsTableConstraints(t *testing.T) {
	sql := `CREATE TABLE t (
    id INT NOT NULL,
    parent_id INT,
    CONSTRAINT fk FOREIGN KEY (parent_id) REFERENCES t(id),
    UNIQUE (id),
    CHECK (id > 0)
);`
	res := parse(t, sql, dialects.Options{})
	if len(res.Root.Fields) != 2 {
		t.Errorf("fields = %v, want only id and parent_id", res.Root.Names())
	}
}

func TestParseComments(t *testing.T) {
	sql := `-- users table
CREATE TABLE t (
    id INT NOT NULL, /* the key,
       spans lines */
    note TEXT -- trailing
);`
	res := parse(t, sql, dialects.Options{})
	if len(res.Root.Fields) != 2 {
		t.Errorf("fields = %v, want [id note]", res.Root.Names())
	}
}

func TestParseSelectsTableByName(t *testing.T) {
	sql := `
CREATE TABLE beta (b INT);
CREATE TABLE alpha (a INT);`
	res := parse(t, sql, dialects.Options{Selector: "beta"})
	if res.Label != "beta" {
		t.Errorf("label = %q, want beta", res.Label)
	}
	if _, ok := res.Root.Get("b"); !ok {
		t.Error("selected table should have column b")
	}
}

func TestParseSelectorCaseInsensitiveAndQualified(t *testing.T) {
	sql := `CREATE TABLE analytics.Events (id INT);`
	for _, sel := range []string{"ANALYTICS.EVENTS", "events", "Events"} {
		res := parse(t, sql, dialects.Options{Selector: sel})
		if res.Label != "analytics.Events" {
			t.Errorf("selector %q: label = %q", sel, res.Label)
		}
	}
}

func TestParseDefaultsToFirstTableLexicographically(t *testing.T) {
	sql := `
CREATE TABLE zulu (z INT);
CREATE TABLE alpha (a INT);`
	res := parse(t, sql, dialects.Options{})
	if res.Label != "alpha" {
		t.Errorf("label = %q, want alpha (lexicographically first)", res.Label)
	}
}

func TestParseMissingTableIsError(t *testing.T) {
	_, err := Parse([]byte(`CREATE TABLE t (id INT);`), dialects.Options{Selector: "users"})
	if err == nil {
		t.Fatal("requesting an absent table should fail")
	}
	if !errors.Is(err, scerrors.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestParseLooseColumnList(t *testing.T) {
	sql := `
id INT NOT NULL,
name TEXT
`
	res := parse(t, sql, dialects.Options{})
	if len(res.Root.Fields) != 2 {
		t.Fatalf("fields = %v, want [id name]", res.Root.Names())
	}
	if !res.Required.Contains("id") {
		t.Error("id should be required")
	}
	if res.Label != "" {
		t.Errorf("loose column list has no label, got %q", res.Label)
	}
}

func TestParseUnbalancedAngleBrackets(t *testing.T) {
	_, err := Parse([]byte(`CREATE TABLE t (col ARRAY<STRUCT<a INT64>);`), dialects.Options{})
	if err == nil {
		t.Fatal("unbalanced angle brackets should fail fast")
	}
	var perr *scerrors.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("err = %T, want *ParseError", err)
	}
}

func TestParseQuotedIdentifiers(t *testing.T) {
	sql := "CREATE TABLE t (\"order\" INT NOT NULL, `select` TEXT);"
	res := parse(t, sql, dialects.Options{})
	if _, ok := res.Root.Get("order"); !ok {
		t.Errorf("quoted identifier not parsed: %v", res.Root.Names())
	}
	if _, ok := res.Root.Get("select"); !ok {
		t.Errorf("backtick identifier not parsed: %v", res.Root.Names())
	}
}

func TestParseEmptyInputFails(t *testing.T) {
	_, err := Parse([]byte("  \n\n"), dialects.Options{})
	if err == nil {
		t.Fatal("empty input should fail")
	}
}

func TestKindOf(t *testing.T) {
	cases := map[string]typetree.Kind{
		"INT64":                    typetree.KindInt,
		"varchar":                  typetree.KindStr,
		"Double Precision":         typetree.KindFloat,
		"TIMESTAMP WITH TIME ZONE": typetree.KindTimestamp,
		"JSONB":                    typetree.KindObject,
		"GEOGRAPHY":                typetree.KindAny,
	}
	for token, want := range cases {
		if got := KindOf(token); got != want {
			t.Errorf("KindOf(%q) = %s, want %s", token, got, want)
		}
	}
}
