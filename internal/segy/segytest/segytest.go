// Package segytest builds small synthetic SEG-Y files for tests.
package segytest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"example.com/segygate/internal/segy"
)

// FileSpec describes a synthetic file. Zero values get sensible defaults:
// 3 traces of 50 samples, IBM float format, 2000 us sample interval.
type FileSpec struct {
	TraceCount      int
	SamplesPerTrace int
	FormatCode      int
	SampleInterval  int
	Encoding        segy.Encoding
	HeaderText      string // becomes line 1 of the textual header
	Binary          map[string]int
	Trace           func(i int) map[string]int
	ExtraBytes      int // trailing bytes appended to break geometry
}

func (s *FileSpec) applyDefaults() {
	if s.TraceCount == 0 {
		s.TraceCount = 3
	}
	if s.SamplesPerTrace == 0 {
		s.SamplesPerTrace = 50
	}
	if s.FormatCode == 0 {
		s.FormatCode = 1
	}
	if s.SampleInterval == 0 {
		s.SampleInterval = 2000
	}
	if s.Encoding == "" {
		s.Encoding = segy.EncodingEBCDIC
	}
	if s.HeaderText == "" {
		s.HeaderText = "CLIENT TEST LINE 001"
	}
}

// Build writes the synthetic file under dir and returns its path.
func Build(t *testing.T, dir, name string, spec FileSpec) string {
	t.Helper()
	spec.applyDefaults()

	lines := make([]string, segy.TextLines)
	for i := range lines {
		lines[i] = strings.Repeat(" ", segy.TextCols)
	}
	line1 := spec.HeaderText
	if len(line1) > segy.TextCols {
		line1 = line1[:segy.TextCols]
	}
	lines[0] = line1 + strings.Repeat(" ", segy.TextCols-len(line1))
	text, err := segy.EncodeTextualHeader(lines, spec.Encoding)
	if err != nil {
		t.Fatalf("encode textual header: %v", err)
	}

	binHdr := make([]byte, segy.BinaryHeaderSize)
	putBin := func(name string, v int) {
		f, ok := segy.BinaryFields.Lookup(name)
		if !ok {
			t.Fatalf("unknown binary field %q", name)
		}
		putField(binHdr, f, v)
	}
	putBin("sample_interval", spec.SampleInterval)
	putBin("samples_per_trace", spec.SamplesPerTrace)
	putBin("format_code", spec.FormatCode)
	for name, v := range spec.Binary {
		putBin(name, v)
	}

	bps := segy.BytesPerSample(spec.FormatCode)
	buf := make([]byte, 0, segy.DataStart+spec.TraceCount*(segy.TraceHeaderSize+spec.SamplesPerTrace*bps))
	buf = append(buf, text...)
	buf = append(buf, binHdr...)
	for i := 0; i < spec.TraceCount; i++ {
		hdr := make([]byte, segy.TraceHeaderSize)
		put := func(name string, v int) {
			f, ok := segy.TraceFields.Lookup(name)
			if !ok {
				t.Fatalf("unknown trace field %q", name)
			}
			putField(hdr, f, v)
		}
		put("trace_sequence_line", i+1)
		put("samples", spec.SamplesPerTrace)
		put("sample_interval", spec.SampleInterval)
		if spec.Trace != nil {
			for name, v := range spec.Trace(i) {
				put(name, v)
			}
		}
		buf = append(buf, hdr...)
		buf = append(buf, make([]byte, spec.SamplesPerTrace*bps)...)
	}
	if spec.ExtraBytes > 0 {
		buf = append(buf, make([]byte, spec.ExtraBytes)...)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write synthetic file: %v", err)
	}
	return path
}

func putField(block []byte, f segy.Field, v int) {
	at := f.Offset - 1
	switch f.Dtype.Size() {
	case 2:
		binary.BigEndian.PutUint16(block[at:], uint16(v))
	default:
		binary.BigEndian.PutUint32(block[at:], uint32(v))
	}
}
