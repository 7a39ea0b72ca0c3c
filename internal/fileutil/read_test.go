package fileutil

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"
)

const sample = "CREATE TABLE t (id INT NOT NULL);\n"

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func gzipped(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(sample)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func xzipped(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := zw.Write([]byte(sample)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadInputPlain(t *testing.T) {
	path := writeFile(t, "schema.sql", []byte(sample))
	data, logical, err := ReadInput(path)
	if err != nil {
		t.Fatalf("ReadInput: %v", err)
	}
	if string(data) != sample {
		t.Fatalf("data = %q", data)
	}
	if logical != path {
		t.Fatalf("logical = %q, want %q", logical, path)
	}
}

func TestReadInputGzip(t *testing.T) {
	path := writeFile(t, "schema.sql.gz", gzipped(t))
	data, logical, err := ReadInput(path)
	if err != nil {
		t.Fatalf("ReadInput: %v", err)
	}
	if string(data) != sample {
		t.Fatalf("data = %q", data)
	}
	if filepath.Ext(logical) != ".sql" {
		t.Fatalf("logical = %q, want .sql suffix", logical)
	}
}

func TestReadInputXZ(t *testing.T) {
	path := writeFile(t, "schema.sql.xz", xzipped(t))
	data, logical, err := ReadInput(path)
	if err != nil {
		t.Fatalf("ReadInput: %v", err)
	}
	if string(data) != sample {
		t.Fatalf("data = %q", data)
	}
	if filepath.Ext(logical) != ".sql" {
		t.Fatalf("logical = %q", logical)
	}
}

func TestReadInputMissingFile(t *testing.T) {
	if _, _, err := ReadInput(filepath.Join(t.TempDir(), "nope.sql")); err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestReadInputCorruptGzip(t *testing.T) {
	path := writeFile(t, "bad.sql.gz", []byte("not gzip"))
	if _, _, err := ReadInput(path); err == nil {
		t.Fatal("want error for corrupt gzip")
	}
}

func TestReadAllSniffsCompression(t *testing.T) {
	for name, data := range map[string][]byte{
		"plain": []byte(sample),
		"gzip":  gzipped(t),
		"xz":    xzipped(t),
	} {
		got, err := ReadAll(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%s: ReadAll: %v", name, err)
		}
		if string(got) != sample {
			t.Fatalf("%s: data = %q", name, got)
		}
	}
}
