package segy

import (
	"fmt"
	"math"
	"path/filepath"
)

// statFields are the trace header fields summarized into FileInfo.TraceStats.
var statFields = []string{
	"trace_sequence_line", "trace_sequence_file", "field_record",
	"trace_number", "energy_source_point", "cdp", "cdp_trace", "trace_id",
	"offset",
	"receiver_elevation", "source_surface_elevation", "source_depth",
	"datum_elevation_receiver", "datum_elevation_source",
	"water_depth_source", "water_depth_receiver",
	"elevation_scalar", "coordinate_scalar",
	"source_x", "source_y", "group_x", "group_y", "cdp_x", "cdp_y",
	"inline", "crossline", "shotpoint", "shotpoint_scalar",
	"delay_recording_time", "mute_time_start", "mute_time_end",
	"samples", "sample_interval",
	"source_static", "receiver_static", "total_static",
}

// DefaultHeaderFields are the columns ReadAllTraceHeaders extracts when the
// caller does not name its own set.
var DefaultHeaderFields = []string{
	"trace_sequence_line", "source_x", "source_y", "group_x", "group_y",
	"cdp_x", "cdp_y", "coordinate_scalar", "elevation_scalar",
	"inline", "crossline", "offset", "delay_recording_time",
	"samples", "sample_interval",
}

// ReadInfo opens path, walks every trace header once, and returns the file
// summary that validation and reporting run against.
func ReadInfo(path string) (*FileInfo, error) {
	h, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return ReadInfoFrom(h)
}

// ReadInfoFrom builds the summary from an already open handle. The handle
// position is not used; all reads are absolute.
func ReadInfoFrom(h *File) (*FileInfo, error) {
	raw, err := h.TextHeaderRaw()
	if err != nil {
		return nil, err
	}
	lines, enc, err := DecodeTextualHeader(raw)
	if err != nil {
		return nil, err
	}

	binHdr := make(map[string]int, BinaryFields.Len())
	for _, name := range BinaryFields.Names() {
		f, _ := BinaryFields.Lookup(name)
		v, err := h.BinField(f)
		if err != nil {
			return nil, err
		}
		binHdr[name] = v
	}

	stats, err := collectTraceStats(h)
	if err != nil {
		return nil, err
	}

	// The scalar of the first trace stands for the file; the consistency
	// check flags files where it varies.
	coordScalar := 0
	if h.TraceCount() > 0 {
		f, _ := TraceFields.Lookup("coordinate_scalar")
		if coordScalar, err = h.TraceField(0, f); err != nil {
			return nil, err
		}
	}

	return &FileInfo{
		Path:             h.Path(),
		Filename:         filepath.Base(h.Path()),
		FileSizeBytes:    h.Size(),
		TextLines:        lines,
		TextEncoding:     enc,
		FormatCode:       h.FormatCode(),
		BytesPerSample:   h.BytesPerSample(),
		SampleInterval:   binHdr["sample_interval"],
		SamplesPerTrace:  h.SamplesPerTrace(),
		TraceCount:       h.TraceCount(),
		ExpectedFileSize: h.ExpectedSize(),
		LittleEndian:     h.LittleEndian(),
		CoordinateScalar: coordScalar,
		BinaryHeader:     binHdr,
		TraceStats:       stats,
	}, nil
}

type statAcc struct {
	min, max, sum, sumSq float64
}

// collectTraceStats makes one pass over all trace headers, decoding each
// header buffer once and folding every stat field into min/max/mean/std.
func collectTraceStats(h *File) (map[string]Stats, error) {
	fields := make([]Field, 0, len(statFields))
	for _, name := range statFields {
		f, ok := TraceFields.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		fields = append(fields, f)
	}

	n := h.TraceCount()
	acc := make([]statAcc, len(fields))
	for i := range acc {
		acc[i].min = math.Inf(1)
		acc[i].max = math.Inf(-1)
	}
	for i := 0; i < n; i++ {
		raw, err := h.ReadTraceHeaderRaw(i)
		if err != nil {
			return nil, err
		}
		for j, f := range fields {
			v := float64(h.DecodeTraceField(raw, f))
			a := &acc[j]
			if v < a.min {
				a.min = v
			}
			if v > a.max {
				a.max = v
			}
			a.sum += v
			a.sumSq += v * v
		}
	}

	out := make(map[string]Stats, len(fields))
	for j, f := range fields {
		if n == 0 {
			out[f.Name] = Stats{}
			continue
		}
		a := acc[j]
		mean := a.sum / float64(n)
		variance := a.sumSq/float64(n) - mean*mean
		if variance < 0 {
			variance = 0
		}
		out[f.Name] = Stats{Min: a.min, Max: a.max, Mean: mean, Std: math.Sqrt(variance)}
	}
	return out, nil
}

// ReadAllTraceHeaders extracts the named trace header columns for every
// trace, plus a trace_index column. A nil or empty fields slice selects
// DefaultHeaderFields.
func ReadAllTraceHeaders(path string, fields []string) (map[string][]int, error) {
	if len(fields) == 0 {
		fields = DefaultHeaderFields
	}
	h, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	resolved := make([]Field, 0, len(fields))
	for _, name := range fields {
		f, ok := TraceFields.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		resolved = append(resolved, f)
	}

	n := h.TraceCount()
	out := make(map[string][]int, len(resolved)+1)
	idx := make([]int, n)
	cols := make([][]int, len(resolved))
	for j := range cols {
		cols[j] = make([]int, n)
	}
	for i := 0; i < n; i++ {
		idx[i] = i
		raw, err := h.ReadTraceHeaderRaw(i)
		if err != nil {
			return nil, err
		}
		for j, f := range resolved {
			cols[j][i] = h.DecodeTraceField(raw, f)
		}
	}
	out["trace_index"] = idx
	for j, f := range resolved {
		out[f.Name] = cols[j]
	}
	return out, nil
}
