package edit

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"example.com/segygate/internal/expr"
	"example.com/segygate/internal/segy"
)

// ValidateBinaryEdit statically checks an edit: the field must resolve by
// name or byte offset, the mode must be set or expression, and an expression
// must parse and reference only binary header fields.
func ValidateBinaryEdit(e BinaryHeaderEdit) error {
	f, err := resolveField(segy.BinaryFields, e.Field, e.ByteOffset)
	if err != nil {
		return err
	}
	switch e.Mode {
	case ModeSet:
		return nil
	case ModeExpression:
		if e.Expression == "" {
			return fmt.Errorf("%w: expression mode for %s", ErrMissingValue, f.Name)
		}
		return expr.Validate(e.Expression, segy.BinaryFields.Names())
	default:
		return fmt.Errorf("%w: %q for binary header field %s", ErrUnknownEditMode, e.Mode, f.Name)
	}
}

// ApplyBinary applies edits to the 400-byte binary header in order. Each
// expression sees the values produced by earlier edits in the same batch.
// Writes that would not change the stored value are suppressed.
func ApplyBinary(h *segy.File, edits []BinaryHeaderEdit, dry bool) ([]ChangeRecord, error) {
	if len(edits) == 0 {
		return nil, nil
	}
	env := make(map[string]float64, segy.BinaryFields.Len())
	for _, name := range segy.BinaryFields.Names() {
		f, _ := segy.BinaryFields.Lookup(name)
		v, err := h.BinField(f)
		if err != nil {
			return nil, err
		}
		env[name] = float64(v)
	}

	var records []ChangeRecord
	for _, e := range edits {
		if err := ValidateBinaryEdit(e); err != nil {
			return records, err
		}
		f, _ := resolveField(segy.BinaryFields, e.Field, e.ByteOffset)
		old := int(env[f.Name])

		newVal := e.Value
		if e.Mode == ModeExpression {
			v, err := expr.Eval(e.Expression, env)
			if err != nil {
				return records, fmt.Errorf("binary header field %s: %w", f.Name, err)
			}
			newVal = int(math.Round(v))
		}
		if newVal == old {
			continue
		}
		if !dry {
			if err := h.SetBinField(f, newVal); err != nil {
				return records, err
			}
		}
		env[f.Name] = float64(newVal)
		records = append(records, ChangeRecord{
			Time: time.Now().UTC(), File: h.Path(), Scope: ScopeBinaryHeader,
			Field: f.Name, TraceIndex: -1,
			Old: strconv.Itoa(old), New: strconv.Itoa(newVal),
		})
	}
	return records, nil
}
