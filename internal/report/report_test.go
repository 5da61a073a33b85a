package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"example.com/segygate/internal/edit"
	"example.com/segygate/internal/engine"
	"example.com/segygate/internal/rules"
)

func sampleResults() []engine.BatchResult {
	return []engine.BatchResult{
		{
			Filename: "a.segy",
			Status:   engine.BatchSuccess,
			Message:  "2 change(s) applied",
			Records: []edit.ChangeRecord{
				{Time: time.Now().UTC(), File: "a.segy", Scope: edit.ScopeBinaryHeader, Field: "sample_interval", TraceIndex: -1, Old: "2000", New: "4000"},
				{Time: time.Now().UTC(), File: "a.segy", Scope: edit.ScopeTraceHeader, Field: "source_x", TraceIndex: 0, Old: "1", New: "2"},
			},
			ValidationBefore: &rules.Result{Filename: "a.segy", Overall: rules.Pass},
			ValidationAfter:  &rules.Result{Filename: "a.segy", Overall: rules.Pass},
			Duration:         120 * time.Millisecond,
		},
		{Filename: "b.segy", Status: engine.BatchSkipped, Message: "skipped: pre-edit validation failed",
			ValidationBefore: &rules.Result{
				Filename: "b.segy", Overall: rules.Fail,
				Checks: []rules.Check{{Name: "File Size Consistency", Status: rules.Fail, Message: "mismatch"}},
			}},
		{Filename: "c.segy", Status: engine.BatchFailure, Message: "open failed"},
	}
}

func TestNewBatchReportSummary(t *testing.T) {
	rep := NewBatchReport(sampleResults())
	if rep.Summary != (Summary{Total: 3, Success: 1, Failure: 1, Skipped: 1, Changes: 2}) {
		t.Fatalf("summary = %+v", rep.Summary)
	}
	if rep.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}

func TestBatchJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "report.json")
	rep := NewBatchReport(sampleResults())
	if err := SaveBatchJSON(rep, out); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadBatchJSON(out)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Summary != rep.Summary {
		t.Fatalf("summary = %+v, want %+v", got.Summary, rep.Summary)
	}
	if len(got.Results) != 3 || got.Results[0].Records[0].Field != "sample_interval" {
		t.Fatalf("results = %+v", got.Results)
	}
}

func TestWriteChangelogCSV(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "changes.csv")
	recs := sampleResults()[0].Records

	if err := WriteChangelogCSV(recs, out); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0][0] != "filename" || rows[0][4] != "trace_index" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][3] != "sample_interval" || rows[1][5] != "2000" || rows[1][6] != "4000" {
		t.Fatalf("row 1 = %v", rows[1])
	}
	if rows[2][4] != "0" {
		t.Fatalf("row 2 = %v", rows[2])
	}
}

func TestWriteChangelogCSVEmptyStillHasHeader(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "empty.csv")
	if err := WriteChangelogCSV(nil, out); err != nil {
		t.Fatal(err)
	}
	f, _ := os.Open(out)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows = %v, err = %v", rows, err)
	}
}

func TestAppendChangelogCSV(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "append.csv")
	recs := sampleResults()[0].Records

	if err := AppendChangelogCSV(recs[:1], out); err != nil {
		t.Fatal(err)
	}
	if err := AppendChangelogCSV(recs[1:], out); err != nil {
		t.Fatal(err)
	}
	f, _ := os.Open(out)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// One header plus two data rows; the second append must not repeat the
	// header.
	if len(rows) != 3 || rows[0][0] != "filename" || rows[2][3] != "source_x" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestChangelogHashToQR(t *testing.T) {
	png, err := ChangelogHashToQR("deadbeef0123", 0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("empty png")
	}
	if _, err := ChangelogHashToQR("   ", 64); err == nil {
		t.Fatal("blank hash must error")
	}
}

func TestSanitizeHash(t *testing.T) {
	if got := sanitizeHash(" dead-beef 42 "); got != "DEADBEEF42" {
		t.Fatalf("got %q", got)
	}
	if got := sanitizeHash("zz"); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestSaveBatchPDF(t *testing.T) {
	dir := t.TempDir()
	changelog := filepath.Join(dir, "changes.jsonl")
	if err := os.WriteFile(changelog, []byte(`{"field":"x"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "report.pdf")
	rep := NewBatchReport(sampleResults())
	if err := SaveBatchPDF(rep, changelog, out); err != nil {
		t.Fatalf("SaveBatchPDF: %v", err)
	}
	st, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if st.Size() == 0 {
		t.Fatal("empty pdf")
	}
}

func TestSaveValidationPDF(t *testing.T) {
	res := &rules.Result{
		Filename: "line1.segy",
		Overall:  rules.Warning,
		Checks: []rules.Check{
			{Name: "File Size", Status: rules.Pass, Message: "size matches header geometry"},
			{Name: "Bounds Check: source_x", Status: rules.Warning, Message: "below bound", Details: "trace 3"},
		},
	}
	out := filepath.Join(t.TempDir(), "validation.pdf")
	if err := SaveValidationPDF(res, out); err != nil {
		t.Fatalf("SaveValidationPDF: %v", err)
	}
	st, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if st.Size() == 0 {
		t.Fatal("empty pdf")
	}
}
