package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	if err := b.Put(ctx, "originals/abc/photo.jpg", "image/jpeg", strings.NewReader("data")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rc, err := b.Open(ctx, "originals/abc/photo.jpg")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(got) != "data" {
		t.Errorf("Open content = %q, want %q", got, "data")
	}

	if err := b.Delete(ctx, "originals/abc/photo.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := b.Open(ctx, "originals/abc/photo.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open after Delete err = %v, want ErrNotFound", err)
	}
	if err := b.Delete(ctx, "originals/abc/photo.jpg"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestLocal(t *testing.T) {
	dir := t.TempDir()
	b, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	exerciseBackend(t, b)
}

func TestLocal_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	b, err := NewLocal(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ctx := context.Background()

	if err := b.Put(ctx, "../escape.txt", "", strings.NewReader("x")); err == nil {
		t.Error("Put with traversal key should fail")
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); !os.IsNotExist(err) {
		t.Error("file escaped the uploads directory")
	}
	if _, err := b.Open(ctx, "../../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open traversal err = %v, want ErrNotFound", err)
	}
}

func TestLocal_OpenDirectory(t *testing.T) {
	b, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ctx := context.Background()
	if err := b.Put(ctx, "previews/x/a.jpg", "", strings.NewReader("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := b.Open(ctx, "previews/x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open(dir) err = %v, want ErrNotFound", err)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	exerciseBackend(t, m)
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}
