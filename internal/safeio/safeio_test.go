package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSafeFSAllowsAbsoluteUnderRoot(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.json")
	if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs, err := NewSafeFS(dir)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	if _, err := fs.ReadFile(p); err != nil {
		t.Fatalf("ReadFile absolute: %v", err)
	}
	if !fs.Exists("a.json") {
		t.Fatalf("expected a.json to exist")
	}
}

func TestSafeFSRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewSafeFS(dir)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	if _, err := fs.ReadFile("../etc/passwd"); !errors.Is(err, ErrTraversal) {
		t.Fatalf("expected ErrTraversal, got %v", err)
	}
	if fs.Exists("../x") {
		t.Fatalf("traversal must not report existence")
	}
}

func TestSafeFSRejectsAbsoluteOutsideRoot(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	p := filepath.Join(other, "b.json")
	if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs, err := NewSafeFS(root)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	if _, err := fs.ReadFile(p); err == nil {
		t.Fatalf("expected error for path outside root")
	}
}
