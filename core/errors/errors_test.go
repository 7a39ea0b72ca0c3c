package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestParseErrorMessage(t *testing.T) {
	err := NewParse("sqlddl", "schema.sql", 12, "unbalanced angle brackets")
	msg := err.Error()
	if !strings.Contains(msg, "sqlddl") || !strings.Contains(msg, "schema.sql:12") {
		t.Errorf("message should carry dialect and location: %q", msg)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ParseError should unwrap to ErrInvalidInput")
	}
}

func TestParseErrorWithoutLocation(t *testing.T) {
	err := NewParse("protoidl", "", 0, "missing message")
	msg := err.Error()
	if strings.Contains(msg, ":0") {
		t.Errorf("zero line number should not be printed: %q", msg)
	}
}

func TestSelectorErrorAmbiguous(t *testing.T) {
	err := NewSelector("User", []string{"pkg.User", "pkg.Inner.User"})
	if !errors.Is(err, ErrAmbiguous) {
		t.Error("multi-candidate selector should unwrap to ErrAmbiguous")
	}
	msg := err.Error()
	if !strings.Contains(msg, "pkg.User") || !strings.Contains(msg, "pkg.Inner.User") {
		t.Errorf("message should list candidates: %q", msg)
	}
}

func TestSelectorErrorNoMatch(t *testing.T) {
	err := NewSelector("users", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Error("zero-candidate selector should unwrap to ErrNotFound")
	}
}

func TestIOErrorUnwrap(t *testing.T) {
	inner := errors.New("disk gone")
	err := NewIO("read", "/tmp/x.sql", inner)
	if !errors.Is(err, inner) {
		t.Error("IOError should unwrap to the underlying error")
	}
	if !strings.Contains(err.Error(), "/tmp/x.sql") {
		t.Errorf("message should carry the path: %q", err.Error())
	}
}

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupported("dialect avro", "no parser registered")
	if !errors.Is(err, ErrUnsupported) {
		t.Error("UnsupportedError should unwrap to ErrUnsupported")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
}

func TestAs(t *testing.T) {
	var target *SelectorError
	err := Wrap(NewSelector("t", nil), "selecting table")
	if !As(err, &target) {
		t.Fatal("As should find the SelectorError through the wrap")
	}
	if target.Selector != "t" {
		t.Errorf("Selector = %q, want %q", target.Selector, "t")
	}
}
