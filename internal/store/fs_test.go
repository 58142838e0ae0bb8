package store

import (
	"context"
	"io"
	"path/filepath"
	"testing"
)

func TestFS_WriteExistsOpen(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	key := "report_1.pdf"

	exists, err := fs.Exists(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("key should not exist before write")
	}

	location, err := fs.Write(ctx, key, []byte("%PDF fake"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if location != filepath.Join(dir, key) {
		t.Errorf("unexpected location %q", location)
	}

	exists, err = fs.Exists(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("key should exist after write")
	}

	rc, err := fs.Open(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "%PDF fake" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestFS_WriteOverwrites(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	key := "report_2.pdf"

	if _, err := fs.Write(ctx, key, []byte("old")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Перезапись того же ключа — штатный путь повторной генерации
	if _, err := fs.Write(ctx, key, []byte("new")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rc, err := fs.Open(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "new" {
		t.Errorf("expected overwritten content, got %q", data)
	}
}

func TestFS_Location(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := fs.Location("x.pdf"); got != filepath.Join(dir, "x.pdf") {
		t.Errorf("unexpected location %q", got)
	}
}
