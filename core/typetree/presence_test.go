package typetree

import (
	"reflect"
	"testing"
)

func profileTree() Object {
	return NewObject(
		Field{Name: "id", Type: NewScalar(KindInt)},
		Field{Name: "user", Type: NewObject(
			Field{Name: "email", Type: NewScalar(KindStr)},
			Field{Name: "address", Type: NewObject(
				Field{Name: "city", Type: NewScalar(KindStr)},
			)},
		)},
		Field{Name: "tags", Type: NewArray(NewScalar(KindStr))},
	)
}

func TestPathsEnumeratesAllFields(t *testing.T) {
	got := Paths(profileTree()).Sorted()
	want := []string{"id", "tags", "user", "user.address", "user.address.city", "user.email"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Paths = %v, want %v", got, want)
	}
}

func TestPathsThroughArrayElements(t *testing.T) {
	tree := NewObject(
		Field{Name: "experience", Type: NewArray(NewObject(
			Field{Name: "company_id", Type: NewScalar(KindInt)},
		))},
	)
	got := Paths(tree)
	if !got.Contains("experience.company_id") {
		t.Errorf("array element fields should keep the holder's path, got %v", got.Sorted())
	}
	for _, p := range got.Sorted() {
		if len(p) > 0 && (p[0] >= '0' && p[0] <= '9') {
			t.Errorf("no index segments may ever appear in a path: %q", p)
		}
	}
}

func TestInjectPresenceAllRequiredIsNoop(t *testing.T) {
	tree := profileTree()
	got := InjectPresence(tree, Paths(tree))
	if got.Key() != tree.Key() {
		t.Errorf("InjectPresence with all paths required should be a no-op: %s vs %s", got, tree)
	}
}

func TestInjectPresenceEmptyRequiredWrapsEveryLeaf(t *testing.T) {
	tree := NewObject(
		Field{Name: "id", Type: NewScalar(KindInt)},
		Field{Name: "name", Type: NewScalar(KindStr)},
	)
	got, ok := InjectPresence(tree, NewPathSet()).(Object)
	if !ok {
		t.Fatal("InjectPresence should keep the object root")
	}
	for _, f := range got.Fields {
		u, ok := f.Type.(Union)
		if !ok || !u.Contains("missing") {
			t.Errorf("field %s = %s, want union with missing", f.Name, f.Type)
		}
	}
}

func TestInjectPresenceIdempotent(t *testing.T) {
	tree := profileTree()
	required := NewPathSet("id", "user")
	once := InjectPresence(tree, required)
	twice := InjectPresence(once, required)
	if once.Key() != twice.Key() {
		t.Errorf("InjectPresence not idempotent: %s vs %s", once, twice)
	}
}

func TestInjectPresenceWrapsWholeArrayField(t *testing.T) {
	tree := NewObject(Field{Name: "tags", Type: NewArray(NewScalar(KindStr))})
	got := InjectPresence(tree, NewPathSet()).(Object)
	tags, _ := got.Get("tags")
	u, ok := tags.(Union)
	if !ok {
		t.Fatalf("optional array field = %T, want Union of the whole array", tags)
	}
	if !u.Contains("[str]") || !u.Contains("missing") {
		t.Errorf("got %s, want union([str]|missing)", u)
	}
}

func TestInjectPresenceRequiredFieldsStayPure(t *testing.T) {
	tree := NewObject(
		Field{Name: "id", Type: NewScalar(KindInt)},
		Field{Name: "name", Type: NewScalar(KindStr)},
	)
	got := InjectPresence(tree, NewPathSet("id")).(Object)
	id, _ := got.Get("id")
	if id.Key() != "int" {
		t.Errorf("required field = %s, want int", id)
	}
	name, _ := got.Get("name")
	if name.Key() != "union(missing|str)" {
		t.Errorf("optional field = %s, want union(missing|str)", name)
	}
}

func TestLeafName(t *testing.T) {
	cases := map[string]string{
		"company_id":            "company_id",
		"experience.company_id": "company_id",
		"a.b.c":                 "c",
	}
	for path, want := range cases {
		if got := LeafName(path); got != want {
			t.Errorf("LeafName(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestPathSetJSONRoundTrip(t *testing.T) {
	s := NewPathSet("b", "a.c", "a")
	data, err := s.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var back PathSet
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !reflect.DeepEqual(s.Sorted(), back.Sorted()) {
		t.Errorf("round trip changed the set: %v vs %v", s.Sorted(), back.Sorted())
	}
}
