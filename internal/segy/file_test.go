package segy_test

import (
	"errors"
	"testing"

	"example.com/segygate/internal/segy"
	"example.com/segygate/internal/segy/segytest"
)

func TestOpenGeometry(t *testing.T) {
	dir := t.TempDir()
	path := segytest.Build(t, dir, "clean.segy", segytest.FileSpec{
		TraceCount:      4,
		SamplesPerTrace: 100,
		FormatCode:      5,
	})

	h, err := segy.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	if got := h.TraceCount(); got != 4 {
		t.Errorf("TraceCount = %d, want 4", got)
	}
	if got := h.SamplesPerTrace(); got != 100 {
		t.Errorf("SamplesPerTrace = %d, want 100", got)
	}
	if got := h.BytesPerSample(); got != 4 {
		t.Errorf("BytesPerSample = %d, want 4", got)
	}
	if h.RelaxedGeometry() {
		t.Error("clean file should open under strict geometry")
	}
	if got, want := h.ExpectedSize(), h.Size(); got != want {
		t.Errorf("ExpectedSize = %d, file size %d", got, want)
	}
}

func TestOpenRelaxedGeometryFallback(t *testing.T) {
	dir := t.TempDir()
	path := segytest.Build(t, dir, "ragged.segy", segytest.FileSpec{
		TraceCount: 2,
		ExtraBytes: 17, // partial trailing trace
	})

	h, err := segy.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	if !h.RelaxedGeometry() {
		t.Error("expected relaxed geometry fallback")
	}
	if got := h.TraceCount(); got != 2 {
		t.Errorf("TraceCount = %d, want 2 (partial trace ignored)", got)
	}
	if h.ExpectedSize() >= h.Size() {
		t.Errorf("ExpectedSize %d should be below actual %d", h.ExpectedSize(), h.Size())
	}
}

func TestOpenTooSmall(t *testing.T) {
	dir := t.TempDir()
	path := segytest.Build(t, dir, "stub.segy", segytest.FileSpec{TraceCount: 1})
	// Truncate below the header region.
	if err := truncate(path, 1000); err != nil {
		t.Fatal(err)
	}
	_, err := segy.Open(path)
	if !errors.Is(err, segy.ErrFileTooSmall) {
		t.Fatalf("err = %v, want ErrFileTooSmall", err)
	}
}

func TestFieldReadWrite(t *testing.T) {
	dir := t.TempDir()
	path := segytest.Build(t, dir, "rw.segy", segytest.FileSpec{
		TraceCount: 3,
		Trace: func(i int) map[string]int {
			return map[string]int{
				"source_x":          500000 + i*25,
				"coordinate_scalar": -100,
			}
		},
	})

	h, err := segy.OpenRW(path)
	if err != nil {
		t.Fatalf("OpenRW: %v", err)
	}
	defer h.Close()

	interval, _ := segy.BinaryFields.Lookup("sample_interval")
	if v, err := h.BinField(interval); err != nil || v != 2000 {
		t.Fatalf("sample_interval = %d, %v; want 2000", v, err)
	}
	if err := h.SetBinField(interval, 4000); err != nil {
		t.Fatalf("SetBinField: %v", err)
	}
	if v, _ := h.BinField(interval); v != 4000 {
		t.Fatalf("sample_interval after write = %d", v)
	}

	srcX, _ := segy.TraceFields.Lookup("source_x")
	if v, err := h.TraceField(1, srcX); err != nil || v != 500025 {
		t.Fatalf("trace 1 source_x = %d, %v", v, err)
	}
	if err := h.SetTraceField(1, srcX, -42); err != nil {
		t.Fatalf("SetTraceField: %v", err)
	}
	if v, _ := h.TraceField(1, srcX); v != -42 {
		t.Fatalf("negative int32 round trip = %d", v)
	}

	scalar, _ := segy.TraceFields.Lookup("coordinate_scalar")
	if v, _ := h.TraceField(0, scalar); v != -100 {
		t.Fatalf("negative int16 read = %d, want -100", v)
	}

	if _, err := h.TraceField(3, srcX); !errors.Is(err, segy.ErrTraceOutOfRange) {
		t.Fatalf("out of range err = %v", err)
	}
}

func TestReadOnlyRefusesWrites(t *testing.T) {
	dir := t.TempDir()
	path := segytest.Build(t, dir, "ro.segy", segytest.FileSpec{})
	h, err := segy.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	interval, _ := segy.BinaryFields.Lookup("sample_interval")
	if err := h.SetBinField(interval, 1); !errors.Is(err, segy.ErrReadOnly) {
		t.Fatalf("err = %v, want ErrReadOnly", err)
	}
}

func TestAttributes(t *testing.T) {
	dir := t.TempDir()
	path := segytest.Build(t, dir, "cols.segy", segytest.FileSpec{
		TraceCount: 5,
		Trace: func(i int) map[string]int {
			return map[string]int{"cdp": 100 + i}
		},
	})
	h, err := segy.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	cdp, _ := segy.TraceFields.Lookup("cdp")
	col, err := h.Attributes(cdp)
	if err != nil {
		t.Fatalf("Attributes: %v", err)
	}
	if len(col) != 5 {
		t.Fatalf("len = %d", len(col))
	}
	for i, v := range col {
		if v != 100+i {
			t.Errorf("col[%d] = %d, want %d", i, v, 100+i)
		}
	}
}
