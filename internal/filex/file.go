// Package filex contains small filesystem helpers shared by the CLI.
package filex

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// ErrTooLarge is returned by ReadLimited when a file exceeds the limit.
var ErrTooLarge = errors.New("file too large")

// EnsureDir creates dir (and parents) if needed and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}

// LocalFile is a file read from disk together with its sniffed content type.
type LocalFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadLimited stats path first and refuses files larger than limit without
// reading them; otherwise it reads the file and sniffs its content type.
func ReadLimited(path string, limit int64) (*LocalFile, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if fi.Size() > limit {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, fi.Size(), limit)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &LocalFile{
		Name:        filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

// SaveInDir writes data to dir under the base of name, creating dir when
// needed. Names that do not resolve to a plain file name fall back to
// fallback. It returns the written path.
func SaveInDir(dir, name, fallback string, data []byte) (string, error) {
	abs, err := EnsureDir(dir)
	if err != nil {
		return "", err
	}
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." {
		base = fallback
	}
	path := filepath.Join(abs, base)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
