package segy_test

import (
	"os"
	"strings"
	"testing"

	"example.com/segygate/internal/segy"
	"example.com/segygate/internal/segy/segytest"
)

func truncate(path string, size int64) error {
	return os.Truncate(path, size)
}

func TestReadInfo(t *testing.T) {
	dir := t.TempDir()
	path := segytest.Build(t, dir, "survey.segy", segytest.FileSpec{
		TraceCount:      4,
		SamplesPerTrace: 50,
		FormatCode:      1,
		SampleInterval:  2000,
		HeaderText:      "CLIENT ACME AREA BLOCK 7",
		Trace: func(i int) map[string]int {
			return map[string]int{
				"source_x": 100 + 10*i, // 100,110,120,130
				"cdp":      7,
			}
		},
	})

	info, err := segy.ReadInfo(path)
	if err != nil {
		t.Fatalf("ReadInfo: %v", err)
	}
	if info.Filename != "survey.segy" {
		t.Errorf("Filename = %q", info.Filename)
	}
	if info.TraceCount != 4 || info.SamplesPerTrace != 50 || info.FormatCode != 1 {
		t.Errorf("geometry = %d traces, %d samples, format %d",
			info.TraceCount, info.SamplesPerTrace, info.FormatCode)
	}
	if info.SampleInterval != 2000 {
		t.Errorf("SampleInterval = %d", info.SampleInterval)
	}
	if info.ExpectedFileSize != info.FileSizeBytes {
		t.Errorf("expected size %d vs actual %d", info.ExpectedFileSize, info.FileSizeBytes)
	}
	if info.TextEncoding != segy.EncodingEBCDIC {
		t.Errorf("TextEncoding = %s", info.TextEncoding)
	}
	if !strings.HasPrefix(info.TextLines[0], "CLIENT ACME") {
		t.Errorf("text line 1 = %q", info.TextLines[0])
	}
	if info.BinaryHeader["format_code"] != 1 {
		t.Errorf("binary header snapshot: %v", info.BinaryHeader["format_code"])
	}

	sx, ok := info.TraceStats["source_x"]
	if !ok {
		t.Fatal("missing source_x stats")
	}
	if sx.Min != 100 || sx.Max != 130 || sx.Mean != 115 {
		t.Errorf("source_x stats = %+v", sx)
	}
	if sx.Std < 11.1 || sx.Std > 11.2 {
		t.Errorf("source_x std = %v, want ~11.18", sx.Std)
	}
	if cdp := info.TraceStats["cdp"]; cdp.Std != 0 || cdp.Mean != 7 {
		t.Errorf("constant cdp stats = %+v", cdp)
	}
}

func TestReadAllTraceHeaders(t *testing.T) {
	dir := t.TempDir()
	path := segytest.Build(t, dir, "cols.segy", segytest.FileSpec{
		TraceCount: 3,
		Trace: func(i int) map[string]int {
			return map[string]int{"inline": 200 + i, "crossline": 300 - i}
		},
	})

	table, err := segy.ReadAllTraceHeaders(path, []string{"inline", "crossline"})
	if err != nil {
		t.Fatalf("ReadAllTraceHeaders: %v", err)
	}
	wantIdx := []int{0, 1, 2}
	for i, v := range table["trace_index"] {
		if v != wantIdx[i] {
			t.Errorf("trace_index[%d] = %d", i, v)
		}
	}
	for i, v := range table["inline"] {
		if v != 200+i {
			t.Errorf("inline[%d] = %d", i, v)
		}
	}
	for i, v := range table["crossline"] {
		if v != 300-i {
			t.Errorf("crossline[%d] = %d", i, v)
		}
	}

	// Default field set includes coordinates and the index column.
	table, err = segy.ReadAllTraceHeaders(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, col := range []string{"trace_index", "source_x", "cdp_y", "samples"} {
		if _, ok := table[col]; !ok {
			t.Errorf("default set missing %q", col)
		}
	}

	if _, err := segy.ReadAllTraceHeaders(path, []string{"no_such_field"}); err == nil {
		t.Fatal("expected unknown field error")
	}
}
