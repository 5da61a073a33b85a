package segy_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"example.com/segygate/internal/segy"
	"example.com/segygate/internal/segy/segytest"
)

func TestPrepareOutputSeparateFolder(t *testing.T) {
	dir := t.TempDir()
	src := segytest.Build(t, dir, "line1.segy", segytest.FileSpec{})
	outDir := filepath.Join(dir, "out")

	opts := segy.OutputOptions{Mode: segy.OutputSeparateFolder, OutputDir: outDir}
	editPath, err := segy.PrepareOutput(src, opts)
	if err != nil {
		t.Fatalf("PrepareOutput: %v", err)
	}
	if editPath != filepath.Join(outDir, "line1.segy") {
		t.Fatalf("editPath = %s", editPath)
	}
	srcData, _ := os.ReadFile(src)
	cpData, err := os.ReadFile(editPath)
	if err != nil {
		t.Fatalf("copy missing: %v", err)
	}
	if len(srcData) != len(cpData) {
		t.Fatalf("copy size %d, source %d", len(cpData), len(srcData))
	}

	// Second run without overwrite must refuse.
	if _, err := segy.PrepareOutput(src, opts); !errors.Is(err, segy.ErrOutputConflict) {
		t.Fatalf("err = %v, want ErrOutputConflict", err)
	}
	opts.Overwrite = true
	if _, err := segy.PrepareOutput(src, opts); err != nil {
		t.Fatalf("overwrite run: %v", err)
	}
}

func TestPrepareOutputInPlaceBackup(t *testing.T) {
	dir := t.TempDir()
	src := segytest.Build(t, dir, "line2.segy", segytest.FileSpec{})

	opts := segy.OutputOptions{Mode: segy.OutputInPlaceBackup}
	editPath, err := segy.PrepareOutput(src, opts)
	if err != nil {
		t.Fatalf("PrepareOutput: %v", err)
	}
	if editPath != src {
		t.Fatalf("in-place mode must edit the original, got %s", editPath)
	}
	if _, err := os.Stat(src + ".bak"); err != nil {
		t.Fatalf("backup snapshot missing: %v", err)
	}
}

func TestCheckOutputConflicts(t *testing.T) {
	dir := t.TempDir()
	src := segytest.Build(t, dir, "line3.segy", segytest.FileSpec{})
	outDir := filepath.Join(dir, "out")
	opts := segy.OutputOptions{Mode: segy.OutputSeparateFolder, OutputDir: outDir}

	conflicts, err := segy.CheckOutputConflicts([]string{src}, opts)
	if err != nil || len(conflicts) != 0 {
		t.Fatalf("clean check: %v %v", conflicts, err)
	}

	if _, err := segy.PrepareOutput(src, opts); err != nil {
		t.Fatal(err)
	}
	conflicts, err = segy.CheckOutputConflicts([]string{src}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(conflicts) != 1 || conflicts[0] != filepath.Join(outDir, "line3.segy") {
		t.Fatalf("conflicts = %v", conflicts)
	}

	opts.Overwrite = true
	conflicts, err = segy.CheckOutputConflicts([]string{src}, opts)
	if err != nil || conflicts != nil {
		t.Fatalf("overwrite check: %v %v", conflicts, err)
	}

	if _, err := segy.CheckOutputConflicts([]string{src}, segy.OutputOptions{Mode: "weird"}); !errors.Is(err, segy.ErrBadOutputMode) {
		t.Fatalf("bad mode err = %v", err)
	}
}
