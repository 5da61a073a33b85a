package segy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

var (
	ErrFileTooSmall    = errors.New("file smaller than SEG-Y header region")
	ErrOpenFailed      = errors.New("file does not parse as SEG-Y under any byte order")
	ErrReadOnly        = errors.New("file opened read-only")
	ErrTraceOutOfRange = errors.New("trace index out of range")
	ErrUnknownField    = errors.New("unknown header field")
)

// openStrategy is one attempt at interpreting a file: a byte order plus
// whether the trace geometry must divide the data region exactly.
type openStrategy struct {
	order          binary.ByteOrder
	ignoreGeometry bool
}

// Strategies are tried in order; the strict big-endian read covers standard
// files, the relaxed and little-endian fallbacks cover vendor quirks.
var openStrategies = []openStrategy{
	{binary.BigEndian, false},
	{binary.BigEndian, true},
	{binary.LittleEndian, false},
	{binary.LittleEndian, true},
}

// File is a random-access handle over one SEG-Y file. Header fields are read
// and written in place through ReadAt/WriteAt; sample payloads are sized but
// never decoded.
type File struct {
	f               *os.File
	path            string
	order           binary.ByteOrder
	size            int64
	formatCode      int
	samplesPerTrace int
	bytesPerSample  int
	traceCount      int
	relaxedGeometry bool
	writable        bool
}

// Open opens path read-only.
func Open(path string) (*File, error) {
	return open(path, false)
}

// OpenRW opens path for in-place header editing.
func OpenRW(path string) (*File, error) {
	return open(path, true)
}

func open(path string, writable bool) (*File, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	size := st.Size()
	if size < DataStart {
		f.Close()
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFileTooSmall, path, size)
	}

	var lastErr error
	for _, s := range openStrategies {
		h := &File{
			f: f, path: path, order: s.order, size: size,
			relaxedGeometry: s.ignoreGeometry, writable: writable,
		}
		if err := h.probe(s.ignoreGeometry); err != nil {
			lastErr = err
			continue
		}
		return h, nil
	}
	f.Close()
	return nil, fmt.Errorf("%w: %s: %v", ErrOpenFailed, path, lastErr)
}

// probe reads the geometry fields of the binary header and checks that they
// describe the file under the handle's byte order.
func (h *File) probe(ignoreGeometry bool) error {
	samplesField, _ := BinaryFields.Lookup("samples_per_trace")
	formatField, _ := BinaryFields.Lookup("format_code")
	samples, err := h.BinField(samplesField)
	if err != nil {
		return err
	}
	format, err := h.BinField(formatField)
	if err != nil {
		return err
	}
	if samples <= 0 {
		return fmt.Errorf("samples per trace %d", samples)
	}
	bps := BytesPerSample(format)
	traceSize := int64(TraceHeaderSize + samples*bps)
	data := h.size - DataStart
	if !ignoreGeometry && data%traceSize != 0 {
		return fmt.Errorf("data region %d not divisible by trace size %d", data, traceSize)
	}
	h.formatCode = format
	h.samplesPerTrace = samples
	h.bytesPerSample = bps
	h.traceCount = int(data / traceSize)
	return nil
}

func (h *File) Path() string          { return h.path }
func (h *File) Size() int64           { return h.size }
func (h *File) FormatCode() int       { return h.formatCode }
func (h *File) SamplesPerTrace() int  { return h.samplesPerTrace }
func (h *File) BytesPerSample() int   { return h.bytesPerSample }
func (h *File) TraceCount() int       { return h.traceCount }
func (h *File) LittleEndian() bool    { return h.order == binary.ByteOrder(binary.LittleEndian) }
func (h *File) RelaxedGeometry() bool { return h.relaxedGeometry }

// TraceSize is the on-disk span of one trace including its header.
func (h *File) TraceSize() int64 {
	return int64(TraceHeaderSize + h.samplesPerTrace*h.bytesPerSample)
}

// ExpectedSize is the file size implied by the binary header geometry.
func (h *File) ExpectedSize() int64 {
	return DataStart + int64(h.traceCount)*h.TraceSize()
}

func (h *File) traceOffset(i int) int64 {
	return DataStart + int64(i)*h.TraceSize()
}

func (h *File) readInt(off int64, d Dtype) (int, error) {
	buf := make([]byte, d.Size())
	if _, err := h.f.ReadAt(buf, off); err != nil {
		return 0, fmt.Errorf("read %s at %d: %w", h.path, off, err)
	}
	return h.decode(buf, d), nil
}

func (h *File) decode(buf []byte, d Dtype) int {
	switch d {
	case Int16:
		return int(int16(h.order.Uint16(buf)))
	case Uint16:
		return int(h.order.Uint16(buf))
	case Int32:
		return int(int32(h.order.Uint32(buf)))
	default:
		return int(h.order.Uint32(buf))
	}
}

func (h *File) writeInt(off int64, d Dtype, v int) error {
	if !h.writable {
		return fmt.Errorf("%w: %s", ErrReadOnly, h.path)
	}
	buf := make([]byte, d.Size())
	switch d {
	case Int16, Uint16:
		h.order.PutUint16(buf, uint16(v))
	default:
		h.order.PutUint32(buf, uint32(v))
	}
	if _, err := h.f.WriteAt(buf, off); err != nil {
		return fmt.Errorf("write %s at %d: %w", h.path, off, err)
	}
	return nil
}

// BinField reads one binary header field.
func (h *File) BinField(f Field) (int, error) {
	return h.readInt(TextHeaderSize+int64(f.Offset-1), f.Dtype)
}

// SetBinField writes one binary header field in place.
func (h *File) SetBinField(f Field, v int) error {
	return h.writeInt(TextHeaderSize+int64(f.Offset-1), f.Dtype, v)
}

// TraceField reads one field of trace i's header.
func (h *File) TraceField(i int, f Field) (int, error) {
	if i < 0 || i >= h.traceCount {
		return 0, fmt.Errorf("%w: %d of %d", ErrTraceOutOfRange, i, h.traceCount)
	}
	return h.readInt(h.traceOffset(i)+int64(f.Offset-1), f.Dtype)
}

// SetTraceField writes one field of trace i's header in place.
func (h *File) SetTraceField(i int, f Field, v int) error {
	if i < 0 || i >= h.traceCount {
		return fmt.Errorf("%w: %d of %d", ErrTraceOutOfRange, i, h.traceCount)
	}
	return h.writeInt(h.traceOffset(i)+int64(f.Offset-1), f.Dtype, v)
}

// ReadTraceHeaderRaw returns the full 240-byte header of trace i.
func (h *File) ReadTraceHeaderRaw(i int) ([]byte, error) {
	if i < 0 || i >= h.traceCount {
		return nil, fmt.Errorf("%w: %d of %d", ErrTraceOutOfRange, i, h.traceCount)
	}
	buf := make([]byte, TraceHeaderSize)
	if _, err := h.f.ReadAt(buf, h.traceOffset(i)); err != nil {
		return nil, fmt.Errorf("read trace %d header: %w", i, err)
	}
	return buf, nil
}

// DecodeTraceField extracts one field from a raw header buffer previously
// read with ReadTraceHeaderRaw. It avoids a syscall per field when many
// fields of the same trace are wanted.
func (h *File) DecodeTraceField(raw []byte, f Field) int {
	return h.decode(raw[f.Offset-1:f.Offset-1+f.Dtype.Size()], f.Dtype)
}

// Attributes reads one trace header field across every trace of the file.
func (h *File) Attributes(f Field) ([]int, error) {
	out := make([]int, h.traceCount)
	for i := 0; i < h.traceCount; i++ {
		v, err := h.readInt(h.traceOffset(i)+int64(f.Offset-1), f.Dtype)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// TextHeaderRaw returns the raw 3200-byte textual header.
func (h *File) TextHeaderRaw() ([]byte, error) {
	buf := make([]byte, TextHeaderSize)
	if _, err := h.f.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("read textual header of %s: %w", h.path, err)
	}
	return buf, nil
}

// WriteTextHeaderRaw replaces the raw 3200-byte textual header.
func (h *File) WriteTextHeaderRaw(raw []byte) error {
	if len(raw) != TextHeaderSize {
		return fmt.Errorf("%w: got %d", ErrTextHeaderSize, len(raw))
	}
	if !h.writable {
		return fmt.Errorf("%w: %s", ErrReadOnly, h.path)
	}
	if _, err := h.f.WriteAt(raw, 0); err != nil {
		return fmt.Errorf("write textual header of %s: %w", h.path, err)
	}
	return nil
}

// Sync flushes pending writes to disk.
func (h *File) Sync() error {
	return h.f.Sync()
}

func (h *File) Close() error {
	return h.f.Close()
}
