package edit

import (
	"fmt"
	"math"

	"example.com/segygate/internal/expr"
	"example.com/segygate/internal/segy"
)

// DefaultPreviewTraces bounds how many traces a preview samples when the
// caller does not say.
const DefaultPreviewTraces = 20

// PreviewRow is one trace of a bounded preview: the stored value, what the
// edit would write, and whether the condition skipped the trace.
type PreviewRow struct {
	Trace   int    `json:"trace"`
	Field   string `json:"field"`
	Current int    `json:"current"`
	New     int    `json:"new"`
	Changed bool   `json:"changed"`
	Skipped bool   `json:"skipped"`
}

// PreviewTraceEdit evaluates the edit over the first maxTraces traces
// without writing anything. Skipped traces keep a row so the table shows
// which traces the condition excluded. maxTraces <= 0 means
// DefaultPreviewTraces.
func PreviewTraceEdit(h *segy.File, e TraceHeaderEdit, maxTraces int) ([]PreviewRow, error) {
	if err := ValidateTraceEdit(e); err != nil {
		return nil, err
	}
	if maxTraces <= 0 {
		maxTraces = DefaultPreviewTraces
	}
	target, _ := resolveField(segy.TraceFields, e.Field, e.ByteOffset)

	var cond, valueExpr *expr.Expr
	var err error
	if e.Condition != "" {
		if cond, err = expr.Parse(e.Condition); err != nil {
			return nil, fmt.Errorf("condition: %w", err)
		}
	}
	if e.Mode == ModeExpression {
		if valueExpr, err = expr.Parse(e.Expression); err != nil {
			return nil, err
		}
	}
	var copyCol, csvCol []int
	if e.Mode == ModeCopy {
		src, _ := segy.TraceFields.Lookup(e.CopyFrom)
		if copyCol, err = h.Attributes(src); err != nil {
			return nil, fmt.Errorf("read copy source %s: %w", e.CopyFrom, err)
		}
	}
	if e.Mode == ModeCSVImport {
		col := e.CSVColumn
		if col == "" {
			col = target.Name
		}
		if csvCol, err = LoadCSVColumn(e.CSVFile, col); err != nil {
			return nil, err
		}
	}

	fieldNames := segy.TraceFields.Names()
	fields := make([]segy.Field, len(fieldNames))
	for i, name := range fieldNames {
		fields[i], _ = segy.TraceFields.Lookup(name)
	}
	env := make(map[string]float64, len(fields)+1)

	n := h.TraceCount()
	if n > maxTraces {
		n = maxTraces
	}
	rows := make([]PreviewRow, 0, n)
	for i := 0; i < n; i++ {
		raw, err := h.ReadTraceHeaderRaw(i)
		if err != nil {
			return rows, fmt.Errorf("trace %d: %w", i, err)
		}
		for j, f := range fields {
			env[fieldNames[j]] = float64(h.DecodeTraceField(raw, f))
		}
		env["trace_index"] = float64(i)

		row := PreviewRow{Trace: i, Field: target.Name, Current: h.DecodeTraceField(raw, target)}
		row.New = row.Current
		if cond != nil {
			v, err := cond.Eval(env)
			if err != nil {
				return rows, fmt.Errorf("trace %d condition: %w", i, err)
			}
			if v == 0 {
				row.Skipped = true
				rows = append(rows, row)
				continue
			}
		}
		switch e.Mode {
		case ModeSet:
			row.New = e.Value
		case ModeExpression:
			v, err := valueExpr.Eval(env)
			if err != nil {
				return rows, fmt.Errorf("trace %d: %w", i, err)
			}
			row.New = int(math.Round(v))
		case ModeCopy:
			row.New = copyCol[i]
		case ModeCSVImport:
			if i < len(csvCol) {
				row.New = csvCol[i]
			}
		}
		row.Changed = row.New != row.Current
		rows = append(rows, row)
	}
	return rows, nil
}
