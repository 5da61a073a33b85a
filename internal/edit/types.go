// Package edit applies textual, binary header, and trace header edits to
// SEG-Y files and records every change it makes.
package edit

import (
	"errors"
	"fmt"
	"time"

	"example.com/segygate/internal/segy"
)

var (
	ErrUnknownEditMode = errors.New("unknown edit mode")
	ErrUnknownField    = errors.New("unknown header field")
	ErrMissingValue    = errors.New("edit is missing a value for its mode")
	ErrNothingToEdit   = errors.New("edit job contains no edits")
)

// Mode selects how a header edit computes its new value.
type Mode string

const (
	ModeSet        Mode = "set"
	ModeExpression Mode = "expression"
	ModeCopy       Mode = "copy"
	ModeCSVImport  Mode = "csv_import"
)

// Scope names which part of the file a change touched.
type Scope string

const (
	ScopeTextual      Scope = "textual"
	ScopeBinaryHeader Scope = "binary_header"
	ScopeTraceHeader  Scope = "trace_header"
)

// ChangeRecord is one recorded modification. TraceIndex is -1 for file-level
// scopes. Old and New are strings so textual and numeric changes share one
// record shape in the changelog.
type ChangeRecord struct {
	Time       time.Time `json:"ts"`
	File       string    `json:"file"`
	Scope      Scope     `json:"scope"`
	Field      string    `json:"field"`
	TraceIndex int       `json:"trace_index"`
	Old        string    `json:"old"`
	New        string    `json:"new"`
	Sampled    bool      `json:"sampled,omitempty"`
}

// EbcdicEdit replaces or patches the 3200-byte textual header. Exactly one
// of TemplateFile, Text, or LineEdits drives the content; Replacements fills
// {{placeholder}} markers when a template is used. Encoding, when set, forces
// the on-disk encoding instead of preserving the detected one.
type EbcdicEdit struct {
	TemplateFile string
	Text         string
	Replacements map[string]string
	LineEdits    map[int]string // 1-based line number
	Encoding     segy.Encoding
}

// BinaryHeaderEdit sets one binary header field, either to a literal value
// or to an expression over the current binary header fields. The target is
// addressed by Field name or, when the name is unknown, by ByteOffset.
type BinaryHeaderEdit struct {
	Field      string
	ByteOffset int // 1-based offset within the binary header
	Mode       Mode
	Value      int
	Expression string
}

// TraceHeaderEdit modifies one trace header field across all traces that
// satisfy Condition (empty condition means every trace).
type TraceHeaderEdit struct {
	Field      string
	ByteOffset int // 1-based offset within the trace header
	Mode       Mode
	Value      int
	Expression string
	CopyFrom   string // source field for ModeCopy
	CSVFile    string
	CSVColumn  string // column name; empty means the edited field's name
	Condition  string
}

// Job bundles every edit applied to one file in a single pass.
type Job struct {
	Ebcdic *EbcdicEdit
	Binary []BinaryHeaderEdit
	Trace  []TraceHeaderEdit
	Output segy.OutputOptions
}

// Empty reports whether the job carries no edits at all.
func (j *Job) Empty() bool {
	return j.Ebcdic == nil && len(j.Binary) == 0 && len(j.Trace) == 0
}

// EditedFields lists the binary and trace header fields the job writes,
// which post-edit validation uses to separate intended from unintended
// changes. Fields addressed by offset report their canonical name.
func (j *Job) EditedFields() (binary, trace []string) {
	for _, e := range j.Binary {
		if f, err := resolveField(segy.BinaryFields, e.Field, e.ByteOffset); err == nil {
			binary = append(binary, f.Name)
		}
	}
	for _, e := range j.Trace {
		if f, err := resolveField(segy.TraceFields, e.Field, e.ByteOffset); err == nil {
			trace = append(trace, f.Name)
		}
	}
	return binary, trace
}

// resolveField finds the header field an edit addresses. Name lookup wins;
// the byte offset is the fallback so configs can address fields either way.
func resolveField(m *segy.FieldMap, name string, offset int) (segy.Field, error) {
	if f, ok := m.Lookup(name); ok {
		return f, nil
	}
	if f, ok := m.ByOffset(offset); ok {
		return f, nil
	}
	return segy.Field{}, fmt.Errorf("%w: cannot resolve name %q or byte offset %d", ErrUnknownField, name, offset)
}

// Progress is called during long trace loops with traces processed so far
// and the total.
type Progress func(done, total int)
