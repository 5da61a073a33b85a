package edit

import (
	"fmt"
	"strings"
	"time"

	"example.com/segygate/internal/segy"
)

// ValidateEbcdicEdit checks that exactly one content source is set. Line
// numbers outside the 40-line grid are not an error; the apply path ignores
// them so templated line maps can carry entries for larger grids.
func ValidateEbcdicEdit(e *EbcdicEdit) error {
	sources := 0
	if e.TemplateFile != "" {
		sources++
	}
	if e.Text != "" {
		sources++
	}
	if len(e.LineEdits) > 0 {
		sources++
	}
	if sources == 0 {
		return fmt.Errorf("%w: textual edit has no template, text, or line edits", ErrMissingValue)
	}
	if sources > 1 {
		return fmt.Errorf("%w: textual edit must use exactly one of template, text, or line edits", ErrMissingValue)
	}
	if e.Encoding != "" && e.Encoding != segy.EncodingEBCDIC && e.Encoding != segy.EncodingASCII {
		return fmt.Errorf("unknown textual encoding %q", e.Encoding)
	}
	return nil
}

// ApplyEbcdic rewrites the textual header per the edit. The detected on-disk
// encoding is preserved unless the edit forces one. Records carry C01..C40
// card names for changed lines; a byte-identical result writes nothing.
func ApplyEbcdic(h *segy.File, e *EbcdicEdit, dry bool) ([]ChangeRecord, error) {
	if err := ValidateEbcdicEdit(e); err != nil {
		return nil, err
	}
	raw, err := h.TextHeaderRaw()
	if err != nil {
		return nil, err
	}
	oldLines, detected, err := segy.DecodeTextualHeader(raw)
	if err != nil {
		return nil, err
	}

	var newLines []string
	switch {
	case e.TemplateFile != "":
		tpl, err := segy.LoadTemplateFile(e.TemplateFile)
		if err != nil {
			return nil, err
		}
		newLines = segy.ApplyTemplate(tpl, e.Replacements)
	case e.Text != "":
		newLines = segy.ApplyTemplate(e.Text, e.Replacements)
	default:
		newLines = make([]string, len(oldLines))
		copy(newLines, oldLines)
		for line, content := range e.LineEdits {
			if line < 1 || line > segy.TextLines {
				continue
			}
			if len(content) > segy.TextCols {
				content = content[:segy.TextCols]
			}
			newLines[line-1] = content + strings.Repeat(" ", segy.TextCols-len(content))
		}
	}

	enc := detected
	if e.Encoding != "" {
		enc = e.Encoding
	}
	encoded, err := segy.EncodeTextualHeader(newLines, enc)
	if err != nil {
		return nil, err
	}
	if string(encoded) == string(raw) {
		return nil, nil
	}

	now := time.Now().UTC()
	var records []ChangeRecord
	if enc != detected {
		records = append(records, ChangeRecord{
			Time: now, File: h.Path(), Scope: ScopeTextual,
			Field: "encoding", TraceIndex: -1,
			Old: string(detected), New: string(enc),
		})
	}
	for i := range newLines {
		if newLines[i] == oldLines[i] {
			continue
		}
		records = append(records, ChangeRecord{
			Time: now, File: h.Path(), Scope: ScopeTextual,
			Field: fmt.Sprintf("C%02d", i+1), TraceIndex: -1,
			Old: strings.TrimRight(oldLines[i], " "),
			New: strings.TrimRight(newLines[i], " "),
		})
	}

	if !dry {
		if err := h.WriteTextHeaderRaw(encoded); err != nil {
			return nil, err
		}
	}
	return records, nil
}
