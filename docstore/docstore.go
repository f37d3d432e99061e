// Package docstore persists uploaded supporting documents and hands back
// the reference paths recorded on claims.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUnsupportedType signals a disallowed file extension.
	ErrUnsupportedType = errors.New("docstore: unsupported file type")
	// ErrTooLarge signals the upload exceeds the size limit.
	ErrTooLarge = errors.New("docstore: file too large")
)

// DefaultMaxSize is the upload size ceiling: 5 MiB.
const DefaultMaxSize = 5 << 20

// Upload carries an incoming supporting document. Size is the declared byte
// length; the content is re-checked against the limit while writing.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// Store persists supporting documents.
type Store interface {
	Save(ctx context.Context, up Upload) (string, error)
	Remove(refPath string) error
}

// Dir stores documents on the local filesystem under a base directory.
// Files are renamed to a generated unique name with the original extension
// preserved; the original filename is discarded so it can neither collide nor
// traverse paths.
type Dir struct {
	base    string
	maxSize int64
	allowed map[string]bool
	nameFn  func() string
}

// NewDir creates a filesystem document store rooted at base.
func NewDir(base string) *Dir {
	return &Dir{
		base:    base,
		maxSize: DefaultMaxSize,
		allowed: map[string]bool{".pdf": true, ".doc": true, ".docx": true},
		nameFn:  uuid.NewString,
	}
}

// WithMaxSize overrides the upload size ceiling.
func (d *Dir) WithMaxSize(n int64) *Dir {
	d.maxSize = n
	return d
}

// WithNameGenerator overrides the unique-name source, primarily for tests.
func (d *Dir) WithNameGenerator(fn func() string) *Dir {
	d.nameFn = fn
	return d
}

// Save validates the upload and writes it under a generated name, returning
// the reference path to record on the claim. Nothing is written when
// validation fails, and a failed write leaves no partial file behind.
func (d *Dir) Save(ctx context.Context, up Upload) (string, error) {
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if !d.allowed[ext] {
		return "", ErrUnsupportedType
	}
	if up.Size > d.maxSize {
		return "", ErrTooLarge
	}

	if err := os.MkdirAll(d.base, 0o755); err != nil {
		return "", fmt.Errorf("docstore: create upload dir: %w", err)
	}

	name := d.nameFn() + ext
	full := filepath.Join(d.base, name)

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("docstore: create file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(up.Content, d.maxSize+1))
	if err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("docstore: write file: %w", err)
	}
	if n > d.maxSize {
		f.Close()
		os.Remove(full)
		return "", ErrTooLarge
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("docstore: close file: %w", err)
	}

	return "/uploads/" + name, nil
}

// Remove deletes the file behind a reference path returned by Save.
func (d *Dir) Remove(refPath string) error {
	name := path.Base(refPath)
	if name == "." || name == "/" || name == "" {
		return fmt.Errorf("docstore: invalid reference path %q", refPath)
	}
	if err := os.Remove(filepath.Join(d.base, name)); err != nil {
		return fmt.Errorf("docstore: remove %s: %w", name, err)
	}
	return nil
}
