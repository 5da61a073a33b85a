package common

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.Start()
	m.SetTotalTraces(100)
	m.AddTraces(25)
	m.AddChange()
	m.AddChange()
	m.IncFallback()
	m.Stop()

	snap := m.Snapshot()
	if snap.Traces != 25 || snap.TotalTraces != 100 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Changes != 2 || snap.Fallbacks != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Duration <= 0 {
		t.Fatalf("duration = %v", snap.Duration)
	}
	if c := snap.Completion(); c != 0.25 {
		t.Fatalf("completion = %v", c)
	}
}

func TestMetricsAddTracesIgnoresNonPositive(t *testing.T) {
	m := NewMetrics()
	m.AddTraces(0)
	m.AddTraces(-5)
	if got := m.Snapshot().Traces; got != 0 {
		t.Fatalf("traces = %d", got)
	}
}

func TestCompletionClamps(t *testing.T) {
	s := MetricsSnapshot{Traces: 200, TotalTraces: 100}
	if c := s.Completion(); c != 1 {
		t.Fatalf("completion = %v", c)
	}
	s = MetricsSnapshot{Traces: 5}
	if c := s.Completion(); c != 0 {
		t.Fatalf("completion = %v", c)
	}
}

func TestFormatCount(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tc := range cases {
		if got := FormatCount(tc.in); got != tc.want {
			t.Errorf("FormatCount(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSha256OfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	hash, size, err := Sha256OfFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if size != 3 {
		t.Fatalf("size = %d", size)
	}
	if hash != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("hash = %s", hash)
	}
}

func TestCopyFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	if err := os.WriteFile(src, []byte("payload"), 0o600); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "nested", "out", "dst.bin")
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Fatalf("copied = %q", got)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v", info.Mode())
	}
}
