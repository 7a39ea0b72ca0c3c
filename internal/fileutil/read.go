// Package fileutil reads schema inputs from disk, transparently
// decompressing .gz and .xz files so compressed DDL dumps and record
// samples parse like plain ones.
package fileutil

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/SchemaScope/core/errors"
)

// maxInputSize caps how much a single input may decompress to. Schema
// files are small; anything larger is a mistake or a bomb.
const maxInputSize = 256 << 20

// ReadInput reads path and returns its contents along with the logical
// name: the path with any compression suffix stripped, which is what
// extension-based dialect detection should see.
func ReadInput(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", errors.NewIO("open", path, err)
	}
	defer f.Close()

	logical := path
	var r io.Reader = f
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, "", errors.NewIO("decompress", path, err)
		}
		defer zr.Close()
		r = zr
		logical = strings.TrimSuffix(path, filepath.Ext(path))
	case ".xz":
		zr, err := xz.NewReader(f)
		if err != nil {
			return nil, "", errors.NewIO("decompress", path, err)
		}
		r = zr
		logical = strings.TrimSuffix(path, filepath.Ext(path))
	}

	data, err := readCapped(r, maxInputSize)
	if err != nil {
		return nil, "", errors.NewIO("read", path, err)
	}
	return data, logical, nil
}

// ReadAll decompresses an already-open stream by sniffing magic bytes.
// Used for stdin, where there is no extension to go by.
func ReadAll(r io.Reader) ([]byte, error) {
	data, err := readCapped(r, maxInputSize)
	if err != nil {
		return nil, errors.NewIO("read", "stdin", err)
	}
	switch {
	case bytes.HasPrefix(data, []byte{0x1f, 0x8b}):
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.NewIO("decompress", "stdin", err)
		}
		defer zr.Close()
		return readCapped(zr, maxInputSize)
	case bytes.HasPrefix(data, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}):
		zr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.NewIO("decompress", "stdin", err)
		}
		return readCapped(zr, maxInputSize)
	}
	return data, nil
}

func readCapped(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errors.ErrInvalidInput
	}
	return data, nil
}
