package segy

// Layout constants of the SEG-Y rev 1 file structure.
const (
	TextHeaderSize   = 3200
	BinaryHeaderSize = 400
	TraceHeaderSize  = 240
	DataStart        = TextHeaderSize + BinaryHeaderSize
)

// FormatBPS maps the binary header data format code to bytes per sample.
// Unknown codes fall back to 4 when sizing traces.
var FormatBPS = map[int]int{
	1: 4, // 4-byte IBM float
	2: 4, // 4-byte two's complement integer
	3: 2, // 2-byte two's complement integer
	5: 4, // 4-byte IEEE float
	6: 8, // 8-byte IEEE float
	8: 1, // 1-byte two's complement integer
}

// FormatNames gives a human readable label per format code.
var FormatNames = map[int]string{
	1: "4-byte IBM floating point",
	2: "4-byte two's complement integer",
	3: "2-byte two's complement integer",
	5: "4-byte IEEE floating point",
	6: "8-byte IEEE floating point",
	8: "1-byte two's complement integer",
}

// BytesPerSample resolves a format code, defaulting to 4 for unknown codes.
func BytesPerSample(formatCode int) int {
	if bps, ok := FormatBPS[formatCode]; ok {
		return bps
	}
	return 4
}

// Stats summarizes one trace header field across all traces of a file.
type Stats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// FileInfo is the read-only summary the reader extracts from a file. It is
// what validation rules and reports consume; no sample payloads are decoded.
type FileInfo struct {
	Path             string           `json:"path"`
	Filename         string           `json:"filename"`
	FileSizeBytes    int64            `json:"file_size_bytes"`
	TextLines        []string         `json:"text_lines"`
	TextEncoding     Encoding         `json:"text_encoding"`
	FormatCode       int              `json:"format_code"`
	BytesPerSample   int              `json:"bytes_per_sample"`
	SampleInterval   int              `json:"sample_interval"`
	SamplesPerTrace  int              `json:"samples_per_trace"`
	TraceCount       int              `json:"trace_count"`
	ExpectedFileSize int64            `json:"expected_file_size"`
	LittleEndian     bool             `json:"little_endian,omitempty"`
	CoordinateScalar int              `json:"coordinate_scalar"`
	BinaryHeader     map[string]int   `json:"binary_header"`
	TraceStats       map[string]Stats `json:"trace_stats"`
}
