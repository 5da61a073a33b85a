package edit

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"example.com/segygate/internal/common"
	"example.com/segygate/internal/expr"
	"example.com/segygate/internal/segy"
)

const (
	progressEvery      = 500
	maxCollectedErrors = 10
	maxReportedErrors  = 5
)

// ApplyOptions tunes a trace edit pass. The zero value applies for real with
// the default record sampling policy.
type ApplyOptions struct {
	DryRun   bool
	Policy   RecordPolicy
	Progress Progress
	Metrics  *common.Metrics
}

func (o ApplyOptions) policy() RecordPolicy {
	if o.Policy == (RecordPolicy{}) {
		return DefaultRecordPolicy
	}
	return o.Policy
}

// TraceEditStats summarizes one pass over the traces.
type TraceEditStats struct {
	Traces   int // traces visited
	Matched  int // traces passing the condition
	Changed  int // values actually rewritten
	Noops    int // matched traces whose value was already correct
	Errors   int // per-trace failures
	Recorded int // change records kept by the sampling policy
}

// conditionVars is what a trace condition or expression may reference.
func conditionVars() []string {
	return append(segy.TraceFields.Names(), "trace_index")
}

// ValidateTraceEdit statically checks the edit without touching a file.
func ValidateTraceEdit(e TraceHeaderEdit) error {
	f, err := resolveField(segy.TraceFields, e.Field, e.ByteOffset)
	if err != nil {
		return err
	}
	switch e.Mode {
	case ModeSet:
	case ModeExpression:
		if e.Expression == "" {
			return fmt.Errorf("%w: expression mode for %s", ErrMissingValue, f.Name)
		}
		if err := expr.Validate(e.Expression, conditionVars()); err != nil {
			return err
		}
	case ModeCopy:
		if _, ok := segy.TraceFields.Lookup(e.CopyFrom); !ok {
			return fmt.Errorf("%w: copy source %q", ErrUnknownField, e.CopyFrom)
		}
	case ModeCSVImport:
		if e.CSVFile == "" {
			return fmt.Errorf("%w: csv_import for %s needs a csv file", ErrMissingValue, f.Name)
		}
		if _, err := os.Stat(e.CSVFile); err != nil {
			return fmt.Errorf("csv file for %s: %w", f.Name, err)
		}
	default:
		return fmt.Errorf("%w: %q for trace header field %s", ErrUnknownEditMode, e.Mode, f.Name)
	}
	if e.Condition != "" {
		if err := expr.Validate(e.Condition, conditionVars()); err != nil {
			return fmt.Errorf("condition: %w", err)
		}
	}
	return nil
}

// ApplyTraceEdit runs one edit across every trace of the file. The condition
// and expression are compiled once; copy sources and CSV columns are read in
// full before the loop so the per-trace work is a single header read and at
// most one field write. Per-trace failures do not stop the loop; they are
// collected (up to a cap) and folded into one aggregate error at the end.
func ApplyTraceEdit(h *segy.File, e TraceHeaderEdit, o ApplyOptions) ([]ChangeRecord, TraceEditStats, error) {
	var stats TraceEditStats
	if err := ValidateTraceEdit(e); err != nil {
		return nil, stats, err
	}
	target, _ := resolveField(segy.TraceFields, e.Field, e.ByteOffset)

	var cond, valueExpr *expr.Expr
	var err error
	if e.Condition != "" {
		if cond, err = expr.Parse(e.Condition); err != nil {
			return nil, stats, fmt.Errorf("condition: %w", err)
		}
	}
	if e.Mode == ModeExpression {
		if valueExpr, err = expr.Parse(e.Expression); err != nil {
			return nil, stats, err
		}
	}

	var copyCol []int
	if e.Mode == ModeCopy {
		src, _ := segy.TraceFields.Lookup(e.CopyFrom)
		if copyCol, err = h.Attributes(src); err != nil {
			return nil, stats, fmt.Errorf("read copy source %s: %w", e.CopyFrom, err)
		}
	}
	var csvCol []int
	if e.Mode == ModeCSVImport {
		col := e.CSVColumn
		if col == "" {
			col = target.Name
		}
		if csvCol, err = LoadCSVColumn(e.CSVFile, col); err != nil {
			return nil, stats, err
		}
	}

	fieldNames := segy.TraceFields.Names()
	fields := make([]segy.Field, len(fieldNames))
	for i, name := range fieldNames {
		fields[i], _ = segy.TraceFields.Lookup(name)
	}
	env := make(map[string]float64, len(fields)+1)
	policy := o.policy()

	n := h.TraceCount()
	var records []ChangeRecord
	var errs []string
	for i := 0; i < n; i++ {
		stats.Traces++
		if o.Metrics != nil {
			o.Metrics.AddTraces(1)
		}
		if o.Progress != nil && (i+1)%progressEvery == 0 {
			o.Progress(i+1, n)
		}

		raw, err := h.ReadTraceHeaderRaw(i)
		if err != nil {
			stats.Errors++
			if len(errs) < maxCollectedErrors {
				errs = append(errs, fmt.Sprintf("trace %d: %v", i, err))
			}
			continue
		}
		for j, f := range fields {
			env[fieldNames[j]] = float64(h.DecodeTraceField(raw, f))
		}
		env["trace_index"] = float64(i)

		if cond != nil {
			v, err := cond.Eval(env)
			if err != nil {
				stats.Errors++
				if len(errs) < maxCollectedErrors {
					errs = append(errs, fmt.Sprintf("trace %d condition: %v", i, err))
				}
				continue
			}
			if v == 0 {
				continue
			}
		}
		stats.Matched++

		var newVal int
		switch e.Mode {
		case ModeSet:
			newVal = e.Value
		case ModeExpression:
			v, err := valueExpr.Eval(env)
			if err != nil {
				stats.Errors++
				if len(errs) < maxCollectedErrors {
					errs = append(errs, fmt.Sprintf("trace %d: %v", i, err))
				}
				continue
			}
			newVal = int(math.Round(v))
		case ModeCopy:
			newVal = copyCol[i]
		case ModeCSVImport:
			if i >= len(csvCol) {
				// CSV shorter than the file: remaining traces are untouched.
				continue
			}
			newVal = csvCol[i]
		}

		old := h.DecodeTraceField(raw, target)
		if newVal == old {
			stats.Noops++
			continue
		}
		if !o.DryRun {
			if err := h.SetTraceField(i, target, newVal); err != nil {
				stats.Errors++
				if len(errs) < maxCollectedErrors {
					errs = append(errs, fmt.Sprintf("trace %d: %v", i, err))
				}
				continue
			}
		}
		if o.Metrics != nil {
			o.Metrics.AddChange()
		}
		record, sampled := policy.Decide(stats.Changed)
		stats.Changed++
		if record {
			stats.Recorded++
			records = append(records, ChangeRecord{
				Time: time.Now().UTC(), File: h.Path(), Scope: ScopeTraceHeader,
				Field: target.Name, TraceIndex: i,
				Old: strconv.Itoa(old), New: strconv.Itoa(newVal),
				Sampled: sampled,
			})
		}
	}
	if o.Progress != nil {
		o.Progress(n, n)
	}

	if stats.Errors > 0 {
		shown := errs
		if len(shown) > maxReportedErrors {
			shown = shown[:maxReportedErrors]
		}
		msg := strings.Join(shown, "; ")
		if stats.Errors > len(shown) {
			msg = fmt.Sprintf("%s; +%d more", msg, stats.Errors-len(shown))
		}
		return records, stats, fmt.Errorf("%d trace(s) failed: %s", stats.Errors, msg)
	}
	return records, stats, nil
}
