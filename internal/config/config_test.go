package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"example.com/segygate/internal/edit"
	"example.com/segygate/internal/segy"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputMode != "separate_folder" {
		t.Errorf("OutputMode = %q", cfg.OutputMode)
	}
	if cfg.OutputDir != filepath.Join(dir, "output") {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.BackupSuffix != ".bak" {
		t.Errorf("BackupSuffix = %q", cfg.BackupSuffix)
	}
	v := cfg.Validator()
	if v.SkipStructure || v.SkipBinaryHeader || v.SkipTraceHeader {
		t.Error("default validator must run the main check groups")
	}
	if !v.SkipCoordinateRange {
		t.Error("coordinate range check must default off")
	}
}

func TestLoadBackupShorthand(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "backup: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OutputMode != string(segy.OutputInPlaceBackup) {
		t.Fatalf("OutputMode = %q", cfg.OutputMode)
	}
}

func TestLoadFullConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
output_mode: separate_folder
output_dir: fixed
overwrite: true
changelog: logs/changes.jsonl
validations:
  check_trace_header: false
  check_coordinate_range: true
  coordinate_bounds:
    x_min: 100000
    x_max: 900000
edits:
  - type: ebcdic
    text: "C01 CLIENT {{client}}"
    replacements:
      client: ACME
  - type: binary_header
    fields:
      - name: sample_interval
        value: 4000
      - name: line_number
        expression: "job_id + 1"
  - type: trace_header
    condition: "trace_index < 100"
    fields:
      - name: source_x
        expression: "source_x * 10"
      - name: group_x
        copy_from: source_x
      - name: inline
        csv_file: inline.csv
        csv_column: inline
      - name: trace_id
        value: 1
`)
	// Static validation of the built job stats the referenced CSV.
	if err := os.WriteFile(filepath.Join(dir, "inline.csv"), []byte("inline\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Overwrite || cfg.OutputDir != filepath.Join(dir, "fixed") {
		t.Errorf("output settings = %+v", cfg)
	}
	if cfg.Changelog != filepath.Join(dir, "logs/changes.jsonl") {
		t.Errorf("Changelog = %q", cfg.Changelog)
	}

	v := cfg.Validator()
	if !v.SkipTraceHeader {
		t.Error("check_trace_header: false not honored")
	}
	if v.SkipCoordinateRange {
		t.Error("check_coordinate_range: true not honored")
	}
	if v.CoordinateBounds == nil || v.CoordinateBounds.XMin == nil || *v.CoordinateBounds.XMin != 100000 {
		t.Errorf("bounds = %+v", v.CoordinateBounds)
	}

	job, err := cfg.BuildJob()
	if err != nil {
		t.Fatalf("BuildJob: %v", err)
	}
	if job.Ebcdic == nil || job.Ebcdic.Text == "" || job.Ebcdic.Replacements["client"] != "ACME" {
		t.Errorf("ebcdic = %+v", job.Ebcdic)
	}
	if len(job.Binary) != 2 {
		t.Fatalf("binary edits = %+v", job.Binary)
	}
	if job.Binary[0].Mode != edit.ModeSet || job.Binary[0].Value != 4000 {
		t.Errorf("binary[0] = %+v", job.Binary[0])
	}
	if job.Binary[1].Mode != edit.ModeExpression {
		t.Errorf("binary[1] = %+v", job.Binary[1])
	}
	if len(job.Trace) != 4 {
		t.Fatalf("trace edits = %+v", job.Trace)
	}
	wantModes := []edit.Mode{edit.ModeExpression, edit.ModeCopy, edit.ModeCSVImport, edit.ModeSet}
	for i, want := range wantModes {
		if job.Trace[i].Mode != want {
			t.Errorf("trace[%d].Mode = %s, want %s", i, job.Trace[i].Mode, want)
		}
		if job.Trace[i].Condition != "trace_index < 100" {
			t.Errorf("trace[%d] missing block condition", i)
		}
	}
	if job.Trace[2].CSVFile != filepath.Join(dir, "inline.csv") {
		t.Errorf("csv path = %q", job.Trace[2].CSVFile)
	}
	if job.Output.Mode != segy.OutputSeparateFolder || !job.Output.Overwrite {
		t.Errorf("job output = %+v", job.Output)
	}
}

func TestBuildJobByteOffsetField(t *testing.T) {
	cfg := Default()
	cfg.Edits = []EditDef{{Type: "trace_header", Fields: []FieldDef{{ByteOffset: 21, Value: 7}}}}
	job, err := cfg.BuildJob()
	if err != nil {
		t.Fatalf("BuildJob: %v", err)
	}
	if job.Trace[0].ByteOffset != 21 || job.Trace[0].Mode != edit.ModeSet {
		t.Fatalf("trace[0] = %+v", job.Trace[0])
	}
	_, trace := job.EditedFields()
	if len(trace) != 1 || trace[0] != "cdp" {
		t.Fatalf("edited fields = %v", trace)
	}
}

func TestBuildJobRejectsUnknownType(t *testing.T) {
	cfg := Default()
	cfg.Edits = []EditDef{{Type: "sample_data"}}
	if _, err := cfg.BuildJob(); !errors.Is(err, ErrUnknownEditType) {
		t.Fatalf("err = %v", err)
	}
}

func TestBuildJobRejectsInvalidEdit(t *testing.T) {
	cfg := Default()
	cfg.Edits = []EditDef{{
		Type:   "trace_header",
		Fields: []FieldDef{{Name: "no_such_field", Value: 1}},
	}}
	if _, err := cfg.BuildJob(); !errors.Is(err, edit.ErrUnknownField) {
		t.Fatalf("err = %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Backup = true
	cfg.applyDefaults()
	cfg.Edits = []EditDef{{
		Type:   "binary_header",
		Fields: []FieldDef{{Name: "sample_interval", Value: 2000}},
	}}

	out := filepath.Join(dir, "saved", "config.yaml")
	if err := cfg.Save(out); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.OutputMode != string(segy.OutputInPlaceBackup) {
		t.Errorf("OutputMode = %q", got.OutputMode)
	}
	if len(got.Edits) != 1 || got.Edits[0].Fields[0].Name != "sample_interval" {
		t.Errorf("edits = %+v", got.Edits)
	}
}
