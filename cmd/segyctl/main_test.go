package main

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile %s: %v", path, err)
	}
}

func TestExpandInputsDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.sgy"))
	touch(t, filepath.Join(dir, "a.segy"))
	touch(t, filepath.Join(dir, "c.SEG"))
	touch(t, filepath.Join(dir, "notes.txt"))
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(dir, "nested", "d.segy"))

	paths, err := expandInputs(dir)
	if err != nil {
		t.Fatalf("expandInputs: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.segy"),
		filepath.Join(dir, "b.sgy"),
		filepath.Join(dir, "c.SEG"),
	}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v", paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
}

func TestExpandInputsFileList(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.segy")
	b := filepath.Join(dir, "b.sgy")
	touch(t, a)
	touch(t, b)

	paths, err := expandInputs(a + ", " + b)
	if err != nil {
		t.Fatalf("expandInputs: %v", err)
	}
	if len(paths) != 2 || paths[0] != a || paths[1] != b {
		t.Fatalf("paths = %v", paths)
	}
}

func TestExpandInputsMissingFile(t *testing.T) {
	if _, err := expandInputs(filepath.Join(t.TempDir(), "nope.segy")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
