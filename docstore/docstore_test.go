package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir_SaveGeneratesUniqueNameKeepingExtension(t *testing.T) {
	dir := t.TempDir()
	names := []string{"first", "second"}
	idx := 0
	store := NewDir(dir).WithNameGenerator(func() string {
		name := names[idx]
		idx++
		return name
	})

	ctx := context.Background()

	ref1, err := store.Save(ctx, Upload{Filename: "Timesheet.PDF", Size: 9, Content: strings.NewReader("pdf bytes")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if ref1 != "/uploads/first.pdf" {
		t.Fatalf("expected /uploads/first.pdf, got %s", ref1)
	}

	ref2, err := store.Save(ctx, Upload{Filename: "Timesheet.PDF", Size: 9, Content: strings.NewReader("pdf bytes")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if ref2 == ref1 {
		t.Fatalf("expected distinct reference paths, both %s", ref1)
	}

	data, err := os.ReadFile(filepath.Join(dir, "first.pdf"))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Fatalf("unexpected file content %q", data)
	}
}

func TestDir_RejectsUnsupportedExtension(t *testing.T) {
	store := NewDir(t.TempDir())

	_, err := store.Save(context.Background(), Upload{Filename: "notes.txt", Size: 4, Content: strings.NewReader("text")})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestDir_RejectsDeclaredOversize(t *testing.T) {
	store := NewDir(t.TempDir()).WithMaxSize(16)

	_, err := store.Save(context.Background(), Upload{Filename: "big.pdf", Size: 17, Content: strings.NewReader("irrelevant")})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestDir_RejectsActualOversizeAndLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	store := NewDir(dir).WithMaxSize(8)

	// Declared size lies; the write-side check catches the real length.
	_, err := store.Save(context.Background(), Upload{Filename: "big.pdf", Size: 4, Content: strings.NewReader("well over eight bytes")})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no partial file, found %d entries", len(entries))
	}
}

func TestDir_RemoveDeletesSavedFile(t *testing.T) {
	dir := t.TempDir()
	store := NewDir(dir)

	ref, err := store.Save(context.Background(), Upload{Filename: "doc.docx", Size: 3, Content: strings.NewReader("abc")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.Remove(ref); err != nil {
		t.Fatalf("remove: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty dir after remove, found %d entries", len(entries))
	}
}
