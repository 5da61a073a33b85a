package segy

import "fmt"

// Dtype names the declared numeric width of a header field.
type Dtype string

const (
	Int16  Dtype = "int16"
	Int32  Dtype = "int32"
	Uint16 Dtype = "uint16"
	Uint32 Dtype = "uint32"
)

// Size returns the encoded width in bytes.
func (d Dtype) Size() int {
	switch d {
	case Int16, Uint16:
		return 2
	case Int32, Uint32:
		return 4
	default:
		return 0
	}
}

// Field describes one entry of a header field map. Offset is the 1-based byte
// position within the field's header block, per the SEG-Y standard tables.
type Field struct {
	Name   string
	Dtype  Dtype
	Offset int
}

// FieldMap is an ordered, immutable name -> Field table. Offsets are unique
// within a map; both tables are process-wide constants built at init.
type FieldMap struct {
	names  []string
	byName map[string]Field
}

func newFieldMap(fields []Field) *FieldMap {
	m := &FieldMap{byName: make(map[string]Field, len(fields))}
	seen := make(map[int]string, len(fields))
	for _, f := range fields {
		if _, dup := m.byName[f.Name]; dup {
			panic(fmt.Sprintf("segy: duplicate field name %q", f.Name))
		}
		if prev, dup := seen[f.Offset]; dup {
			panic(fmt.Sprintf("segy: field %q reuses offset %d of %q", f.Name, f.Offset, prev))
		}
		if f.Dtype.Size() == 0 {
			panic(fmt.Sprintf("segy: field %q has unknown dtype %q", f.Name, f.Dtype))
		}
		seen[f.Offset] = f.Name
		m.names = append(m.names, f.Name)
		m.byName[f.Name] = f
	}
	return m
}

// Lookup returns the field registered under name.
func (m *FieldMap) Lookup(name string) (Field, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// ByOffset scans for the field declared at the given 1-based byte offset.
func (m *FieldMap) ByOffset(offset int) (Field, bool) {
	for _, name := range m.names {
		f := m.byName[name]
		if f.Offset == offset {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the field names in declaration order.
func (m *FieldMap) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

func (m *FieldMap) Len() int {
	return len(m.names)
}

// BinaryFields maps symbolic names to fields of the 400-byte binary file
// header. Offsets are relative to the start of the binary header (byte 3201
// of the file is offset 1).
var BinaryFields = newFieldMap([]Field{
	{"job_id", Int32, 1},
	{"line_number", Int32, 5},
	{"reel_number", Int32, 9},
	{"traces_per_ensemble", Int16, 13},
	{"aux_traces_per_ensemble", Int16, 15},
	{"sample_interval", Int16, 17},
	{"sample_interval_original", Int16, 19},
	{"samples_per_trace", Int16, 21},
	{"samples_per_trace_orig", Int16, 23},
	{"format_code", Int16, 25},
	{"ensemble_fold", Int16, 27},
	{"trace_sorting", Int16, 29},
	{"vertical_sum", Int16, 31},
	{"sweep_freq_start", Int16, 33},
	{"sweep_freq_end", Int16, 35},
	{"sweep_length", Int16, 37},
	{"sweep_type", Int16, 39},
	{"sweep_trace_number", Int16, 41},
	{"sweep_taper_start", Int16, 43},
	{"sweep_taper_end", Int16, 45},
	{"taper_type", Int16, 47},
	{"correlated", Int16, 49},
	{"binary_gain", Int16, 51},
	{"amplitude_recovery", Int16, 53},
	{"measurement_system", Int16, 55},
	{"impulse_polarity", Int16, 57},
	{"vibratory_polarity", Int16, 59},
	{"segy_revision", Int16, 301},
	{"fixed_length_trace", Int16, 303},
	{"extended_headers", Int16, 305},
})

// TraceFields maps symbolic names to fields of the 240-byte trace header.
// Offsets are relative to the start of each trace header.
var TraceFields = newFieldMap([]Field{
	{"trace_sequence_line", Int32, 1},
	{"trace_sequence_file", Int32, 5},
	{"field_record", Int32, 9},
	{"trace_number", Int32, 13},
	{"energy_source_point", Int32, 17},
	{"cdp", Int32, 21},
	{"cdp_trace", Int32, 25},
	{"trace_id", Int16, 29},
	{"vertically_summed", Int16, 31},
	{"horizontally_stacked", Int16, 33},
	{"data_use", Int16, 35},
	{"offset", Int32, 37},
	{"receiver_elevation", Int32, 41},
	{"source_surface_elevation", Int32, 45},
	{"source_depth", Int32, 49},
	{"datum_elevation_receiver", Int32, 53},
	{"datum_elevation_source", Int32, 57},
	{"water_depth_source", Int32, 61},
	{"water_depth_receiver", Int32, 65},
	{"elevation_scalar", Int16, 69},
	{"coordinate_scalar", Int16, 71},
	{"source_x", Int32, 73},
	{"source_y", Int32, 77},
	{"group_x", Int32, 81},
	{"group_y", Int32, 85},
	{"coordinate_units", Int16, 89},
	{"weathering_velocity", Int16, 91},
	{"subweathering_velocity", Int16, 93},
	{"uphole_time_source", Int16, 95},
	{"uphole_time_receiver", Int16, 97},
	{"source_static", Int16, 99},
	{"receiver_static", Int16, 101},
	{"total_static", Int16, 103},
	{"lag_time_a", Int16, 105},
	{"lag_time_b", Int16, 107},
	{"delay_recording_time", Int16, 109},
	{"mute_time_start", Int16, 111},
	{"mute_time_end", Int16, 113},
	{"samples", Int16, 115},
	{"sample_interval", Int16, 117},
	{"cdp_x", Int32, 181},
	{"cdp_y", Int32, 185},
	{"inline", Int32, 189},
	{"crossline", Int32, 193},
	{"shotpoint", Int32, 197},
	{"shotpoint_scalar", Int16, 201},
})
