package edit_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"example.com/segygate/internal/edit"
	"example.com/segygate/internal/segy"
	"example.com/segygate/internal/segy/segytest"
)

func TestWriterApplySeparateFolder(t *testing.T) {
	dir := t.TempDir()
	src := segytest.Build(t, dir, "line.segy", segytest.FileSpec{
		TraceCount:     3,
		SampleInterval: 2000,
	})
	outDir := filepath.Join(dir, "out")
	logPath := filepath.Join(dir, "changes.jsonl")

	w := &edit.Writer{Log: edit.NewChangeLog(logPath)}
	job := &edit.Job{
		Binary: []edit.BinaryHeaderEdit{
			{Field: "sample_interval", Mode: edit.ModeSet, Value: 4000},
		},
		Trace: []edit.TraceHeaderEdit{
			{Field: "trace_id", Mode: edit.ModeSet, Value: 1},
		},
		Output: segy.OutputOptions{Mode: segy.OutputSeparateFolder, OutputDir: outDir},
	}
	res, err := w.Apply(src, job)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.EditPath != filepath.Join(outDir, "line.segy") {
		t.Fatalf("EditPath = %s", res.EditPath)
	}
	if !res.Changed() || res.Stats.Changed != 3 {
		t.Fatalf("result = %+v", res)
	}

	// Original untouched, copy edited.
	if v := binValue(t, src, "sample_interval"); v != 2000 {
		t.Fatalf("source modified: %d", v)
	}
	if v := binValue(t, res.EditPath, "sample_interval"); v != 4000 {
		t.Fatalf("copy sample_interval = %d", v)
	}

	recs, err := edit.ReadChangeLog(logPath)
	if err != nil {
		t.Fatalf("ReadChangeLog: %v", err)
	}
	if len(recs) != 4 { // one binary + three trace changes
		t.Fatalf("changelog records = %d", len(recs))
	}
	if recs[0].Scope != edit.ScopeBinaryHeader || recs[0].Old != "2000" || recs[0].New != "4000" {
		t.Errorf("first record = %+v", recs[0])
	}
}

func TestWriterApplyInPlaceBackup(t *testing.T) {
	dir := t.TempDir()
	src := segytest.Build(t, dir, "line.segy", segytest.FileSpec{SampleInterval: 2000})

	w := &edit.Writer{}
	job := &edit.Job{
		Binary: []edit.BinaryHeaderEdit{
			{Field: "sample_interval", Mode: edit.ModeSet, Value: 1000},
		},
		Output: segy.OutputOptions{Mode: segy.OutputInPlaceBackup},
	}
	res, err := w.Apply(src, job)
	if err != nil {
		t.Fatal(err)
	}
	if res.EditPath != src {
		t.Fatalf("EditPath = %s", res.EditPath)
	}
	if v := binValue(t, src, "sample_interval"); v != 1000 {
		t.Fatalf("original not edited: %d", v)
	}
	if v := binValue(t, src+".bak", "sample_interval"); v != 2000 {
		t.Fatalf("backup altered: %d", v)
	}
}

func TestWriterDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	src := segytest.Build(t, dir, "line.segy", segytest.FileSpec{TraceCount: 2})
	before, _ := os.ReadFile(src)
	logPath := filepath.Join(dir, "changes.jsonl")

	w := &edit.Writer{Log: edit.NewChangeLog(logPath)}
	res, err := w.DryRun(src, &edit.Job{
		Trace: []edit.TraceHeaderEdit{
			{Field: "trace_id", Mode: edit.ModeSet, Value: 3},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.DryRun || res.Stats.Changed != 2 || len(res.Records) != 2 {
		t.Fatalf("result = %+v", res)
	}
	after, _ := os.ReadFile(src)
	if string(before) != string(after) {
		t.Fatal("dry run modified the file")
	}
	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Fatal("dry run wrote the changelog")
	}
}

func TestWriterEmptyJob(t *testing.T) {
	w := &edit.Writer{}
	if _, err := w.Apply("whatever.segy", &edit.Job{}); !errors.Is(err, edit.ErrNothingToEdit) {
		t.Fatalf("err = %v", err)
	}
}

func TestJobEditedFields(t *testing.T) {
	job := &edit.Job{
		Binary: []edit.BinaryHeaderEdit{{Field: "sample_interval", Mode: edit.ModeSet, Value: 1}},
		Trace: []edit.TraceHeaderEdit{
			{Field: "source_x", Mode: edit.ModeSet, Value: 1},
			{Field: "source_y", Mode: edit.ModeSet, Value: 1},
		},
	}
	bin, trc := job.EditedFields()
	if len(bin) != 1 || bin[0] != "sample_interval" {
		t.Errorf("binary fields = %v", bin)
	}
	if len(trc) != 2 || trc[0] != "source_x" || trc[1] != "source_y" {
		t.Errorf("trace fields = %v", trc)
	}
}

func TestChangeLogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "log.jsonl")
	log := edit.NewChangeLog(logPath)

	err := log.Append(
		edit.ChangeRecord{File: "a.segy", Scope: edit.ScopeBinaryHeader, Field: "sample_interval", TraceIndex: -1, Old: "2000", New: "4000"},
		edit.ChangeRecord{File: "a.segy", Scope: edit.ScopeTraceHeader, Field: "source_x", TraceIndex: 3, Old: "1", New: "2", Sampled: true},
	)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	recs, err := edit.ReadChangeLog(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d", len(recs))
	}
	if recs[0].Time.IsZero() {
		t.Error("timestamp not filled")
	}
	if recs[1].TraceIndex != 3 || !recs[1].Sampled {
		t.Errorf("record 1 = %+v", recs[1])
	}

	// A nil log is a sink.
	var nilLog *edit.ChangeLog
	if err := nilLog.Append(edit.ChangeRecord{Field: "x"}); err != nil {
		t.Fatalf("nil log append: %v", err)
	}
}
