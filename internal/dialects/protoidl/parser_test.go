package protoidl

import (
	"errors"
	"testing"

	scerrors "github.com/FocuswithJustin/SchemaScope/core/errors"
	"github.com/FocuswithJustin/SchemaScope/core/typetree"
	"github.com/FocuswithJustin/SchemaScope/internal/dialects"
)

func parse(t *testing.T, proto string, opts dialects.Options) *dialects.Result {
	t.Helper()
	res, err := Parse([]byte(proto), opts)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return res
}

func TestParseScalarFields(t *testing.T) {
	proto := `
syntax = "proto3";

message User {
  int64 id = 1;
  string name = 2;
  double score = 3;
  bool active = 4;
  bytes avatar = 5;
}`
	res := parse(t, proto, dialects.Options{})
	want := map[string]string{
		"id":     "int",
		"name":   "str",
		"score":  "float",
		"active": "bool",
		"avatar": "str",
	}
	for field, kind := range want {
		got, ok := res.Root.Get(field)
		if !ok || got.Key() != kind {
			t.Errorf("field %s = %v, want %s", field, got, kind)
		}
	}
	if res.Label != "User" {
		t.Errorf("label = %q, want User", res.Label)
	}
}

func TestParseRepeatedMessage(t *testing.T) {
	proto := `
message M { repeated N items = 1; }
message N { int32 x = 1; }`
	res := parse(t, proto, dialects.Options{Selector: "M"})
	items, _ := res.Root.Get("items")
	if items == nil || items.Key() != "[{x:int}]" {
		t.Errorf("items = %v, want [{x:int}]", items)
	}
}

func TestParseNestedMessageResolution(t *testing.T) {
	proto := `
package acme;

message Outer {
  Inner inner = 1;
  message Inner {
    string v = 1;
  }
}`
	res := parse(t, proto, dialects.Options{Selector: "Outer"})
	inner, ok := res.Root.Get("inner")
	if !ok {
		t.Fatal("inner field missing")
	}
	obj, ok := inner.(typetree.Object)
	if !ok {
		t.Fatalf("inner = %T, want inlined Object", inner)
	}
	if v, _ := obj.Get("v"); v == nil || v.Key() != "str" {
		t.Errorf("inner.v = %v, want str", v)
	}
	// Inner is referenced by a field, so it must not also appear as an
	// extra namespace property.
	if len(res.Root.Fields) != 1 {
		t.Errorf("fields = %v, want only inner", res.Root.Names())
	}
}

func TestParseLexicalScopingPrefersInnermost(t *testing.T) {
	proto := `
package acme;

message Thing { string which = 1; }

message Holder {
  Thing t = 1;
  message Thing { int32 which = 1; }
}`
	res := parse(t, proto, dialects.Options{Selector: "Holder"})
	tf, _ := res.Root.Get("t")
	obj, ok := tf.(typetree.Object)
	if !ok {
		t.Fatalf("t = %T, want Object", tf)
	}
	which, _ := obj.Get("which")
	if which.Key() != "int" {
		t.Errorf("t.which = %s, want int (nested Thing shadows the outer one)", which)
	}
}

func TestParseAbsoluteReferenceBypassesScoping(t *testing.T) {
	proto := `
package acme;

message Thing { string which = 1; }

message Holder {
  .acme.Thing t = 1;
  message Thing { int32 which = 1; }
}`
	res := parse(t, proto, dialects.Options{Selector: "Holder"})
	tf, _ := res.Root.Get("t")
	obj := tf.(typetree.Object)
	which, _ := obj.Get("which")
	if which.Key() != "str" {
		t.Errorf("t.which = %s, want str (absolute path picks the package-level Thing)", which)
	}
}

func TestParseEnumBecomesString(t *testing.T) {
	proto := `
message Job {
  Status status = 1;
  enum Status {
    UNKNOWN = 0;
    RUNNING = 1;
  }
}`
	res := parse(t, proto, dialects.Options{})
	status, _ := res.Root.Get("status")
	if status.Key() != "str" {
		t.Errorf("status = %v, want str", status)
	}
}

func TestParseMapFlattensToObject(t *testing.T) {
	proto := `
message Env {
  map<string, string> vars = 1;
  map<string, Nested> nested = 2;
  message Nested { int32 x = 1; }
}`
	res := parse(t, proto, dialects.Options{})
	vars, _ := res.Root.Get("vars")
	if vars.Key() != "object" {
		t.Errorf("vars = %v, want opaque object", vars)
	}
	nested, _ := res.Root.Get("nested")
	if nested.Key() != "object" {
		t.Errorf("nested = %v, want opaque object", nested)
	}
}

func TestParseOneofFieldsAreOrdinaryOptionalFields(t *testing.T) {
	proto := `
message Event {
  required string id = 1;
  oneof payload {
    string text = 2;
    int64 count = 3;
  }
}`
	res := parse(t, proto, dialects.Options{})
	text, ok := res.Root.Get("text")
	if !ok || text.Key() != "str" {
		t.Errorf("oneof member text = %v, want str", text)
	}
	count, ok := res.Root.Get("count")
	if !ok || count.Key() != "int" {
		t.Errorf("oneof member count = %v, want int", count)
	}
	if res.Required.Contains("text") || res.Required.Contains("count") {
		t.Error("oneof members are never required")
	}
	if !res.Required.Contains("id") {
		t.Error("required label should add the field path")
	}
}

func TestParseRequiredPathsRecurse(t *testing.T) {
	proto := `
message Profile {
  required Account account = 1;
  repeated Job jobs = 2;
}
message Account { required string email = 1; }
message Job { required int64 id = 1; string title = 2; }`
	res := parse(t, proto, dialects.Options{Selector: "Profile"})
	for _, path := range []string{"account", "account.email", "jobs.id"} {
		if !res.Required.Contains(path) {
			t.Errorf("required should contain %q, got %v", path, res.Required.Sorted())
		}
	}
	if res.Required.Contains("jobs.title") {
		t.Error("jobs.title has no required label")
	}
}

func TestParseUnreferencedNestedDefinitionExposed(t *testing.T) {
	proto := `
message Catalog {
  string name = 1;
  message Entry { required int32 sku = 1; }
}`
	res := parse(t, proto, dialects.Options{})
	entry, ok := res.Root.Get("Entry")
	if !ok {
		t.Fatalf("unreferenced nested definition should appear as a property: %v", res.Root.Names())
	}
	obj := entry.(typetree.Object)
	if sku, _ := obj.Get("sku"); sku == nil || sku.Key() != "int" {
		t.Errorf("Entry.sku = %v, want int", sku)
	}
	if !res.Required.Contains("Entry.sku") {
		t.Errorf("required should walk unreferenced children: %v", res.Required.Sorted())
	}
}

func TestParseRecursiveMessageIsCut(t *testing.T) {
	proto := `
message TreeNode {
  string value = 1;
  repeated TreeNode children = 2;
}`
	res := parse(t, proto, dialects.Options{})
	children, _ := res.Root.Get("children")
	if children == nil || children.Key() != "[object]" {
		t.Errorf("recursive reference = %v, want [object] placeholder", children)
	}
}

func TestParseMutuallyRecursiveMessages(t *testing.T) {
	proto := `
message A { B b = 1; }
message B { A a = 1; }`
	res, err := Parse([]byte(proto), dialects.Options{Selector: "A"})
	if err != nil {
		t.Fatalf("mutual recursion must not fail: %v", err)
	}
	b, _ := res.Root.Get("b")
	obj, ok := b.(typetree.Object)
	if !ok {
		t.Fatalf("b = %T, want Object", b)
	}
	a, _ := obj.Get("a")
	if a.Key() != "object" {
		t.Errorf("b.a = %v, want object placeholder at the cycle", a)
	}
}

func TestParseAmbiguousSuffixSelector(t *testing.T) {
	proto := `
package acme;
message Red { message Item { int32 x = 1; } }
message Blue { message Item { int32 y = 1; } }`
	_, err := Parse([]byte(proto), dialects.Options{Selector: "Item"})
	if err == nil {
		t.Fatal("ambiguous suffix should fail")
	}
	if !errors.Is(err, scerrors.ErrAmbiguous) {
		t.Errorf("err = %v, want ErrAmbiguous", err)
	}
	var serr *scerrors.SelectorError
	if !errors.As(err, &serr) || len(serr.Candidates) != 2 {
		t.Errorf("selector error should list both candidates: %v", err)
	}
}

func TestParseUnknownMessageSelector(t *testing.T) {
	_, err := Parse([]byte(`message M { int32 x = 1; }`), dialects.Options{Selector: "Nope"})
	if !errors.Is(err, scerrors.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestParseUnknownTypeReferenceDegradesToAny(t *testing.T) {
	proto := `
message M {
  google.protobuf.Timestamp created = 1;
}`
	res := parse(t, proto, dialects.Options{})
	created, _ := res.Root.Get("created")
	if created.Key() != "any" {
		t.Errorf("unresolved reference = %v, want any", created)
	}
}

func TestParseCommentsAndOptionsIgnored(t *testing.T) {
	proto := `
// leading comment
message M {
  /* block
     comment */
  int32 x = 1 [deprecated = true]; // trailing
  option (custom) = "message {";
}`
	res := parse(t, proto, dialects.Options{})
	if len(res.Root.Fields) != 1 {
		t.Errorf("fields = %v, want only x", res.Root.Names())
	}
}

func TestParseOneLineMessage(t *testing.T) {
	res := parse(t, `message P { int32 a = 1; string b = 2; }`, dialects.Options{})
	if len(res.Root.Fields) != 2 {
		t.Errorf("fields = %v, want [a b]", res.Root.Names())
	}
}

func TestParseUnbalancedBraces(t *testing.T) {
	_, err := Parse([]byte(`message M { int32 x = 1;`), dialects.Options{})
	if err == nil {
		t.Fatal("unterminated block should fail fast")
	}
	var perr *scerrors.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("err = %T, want *ParseError", err)
	}
}

func TestParseNoMessages(t *testing.T) {
	_, err := Parse([]byte(`syntax = "proto3";`), dialects.Options{})
	if err == nil {
		t.Fatal("a file with no messages should fail")
	}
}

func TestParseDefaultSelectorPicksFirstLexicographically(t *testing.T) {
	proto := `
message Zebra { int32 z = 1; }
message Aardvark { int32 a = 1; }`
	res := parse(t, proto, dialects.Options{})
	if res.Label != "Aardvark" {
		t.Errorf("label = %q, want Aardvark", res.Label)
	}
}
