package edit

import (
	"errors"
	"fmt"

	"example.com/segygate/internal/common"
	"example.com/segygate/internal/segy"
)

// Writer applies whole edit jobs to files, staging output copies or backups
// first and appending every kept change record to the changelog.
type Writer struct {
	Policy   RecordPolicy
	Log      *ChangeLog
	Metrics  *common.Metrics
	Progress Progress
}

// Result is the outcome of one job against one file.
type Result struct {
	Source   string
	EditPath string
	Records  []ChangeRecord
	Stats    TraceEditStats
	DryRun   bool
}

// Changed reports whether the job modified anything.
func (r *Result) Changed() bool {
	return len(r.Records) > 0 || r.Stats.Changed > 0
}

// ValidateJob statically checks every edit in the job. It is cheap and runs
// before any file is staged so misconfigured jobs fail before side effects.
func ValidateJob(job *Job) error {
	if job.Empty() {
		return ErrNothingToEdit
	}
	if job.Ebcdic != nil {
		if err := ValidateEbcdicEdit(job.Ebcdic); err != nil {
			return err
		}
	}
	for _, e := range job.Binary {
		if err := ValidateBinaryEdit(e); err != nil {
			return err
		}
	}
	for _, e := range job.Trace {
		if err := ValidateTraceEdit(e); err != nil {
			return err
		}
	}
	return nil
}

// Apply stages src per the job's output options and applies all edits to the
// staged path. Trace loop failures are aggregated and returned alongside the
// partial result; the records accumulated before the failure are still
// logged so the changelog reflects what was written to disk.
func (w *Writer) Apply(src string, job *Job) (*Result, error) {
	if err := ValidateJob(job); err != nil {
		return nil, err
	}
	editPath, err := segy.PrepareOutput(src, job.Output)
	if err != nil {
		return nil, err
	}
	res, err := w.run(editPath, job, false)
	if res != nil {
		res.Source = src
	}
	return res, err
}

// DryRun evaluates the job against src without staging or writing anything.
// The returned records describe what Apply would change.
func (w *Writer) DryRun(src string, job *Job) (*Result, error) {
	if err := ValidateJob(job); err != nil {
		return nil, err
	}
	res, err := w.run(src, job, true)
	if res != nil {
		res.Source = src
	}
	return res, err
}

func (w *Writer) run(path string, job *Job, dry bool) (*Result, error) {
	var h *segy.File
	var err error
	if dry {
		h, err = segy.Open(path)
	} else {
		h, err = segy.OpenRW(path)
	}
	if err != nil {
		return nil, err
	}
	defer h.Close()

	res := &Result{EditPath: path, DryRun: dry}
	if w.Metrics != nil {
		w.Metrics.SetTotalTraces(int64(h.TraceCount() * len(job.Trace)))
	}

	if job.Ebcdic != nil {
		recs, err := ApplyEbcdic(h, job.Ebcdic, dry)
		if err != nil {
			return res, fmt.Errorf("textual header: %w", err)
		}
		res.Records = append(res.Records, recs...)
	}

	recs, err := ApplyBinary(h, job.Binary, dry)
	res.Records = append(res.Records, recs...)
	if err != nil {
		return res, fmt.Errorf("binary header: %w", err)
	}

	opts := ApplyOptions{
		DryRun:   dry,
		Policy:   w.Policy,
		Progress: w.Progress,
		Metrics:  w.Metrics,
	}
	var traceErrs []error
	for _, e := range job.Trace {
		recs, stats, err := ApplyTraceEdit(h, e, opts)
		res.Records = append(res.Records, recs...)
		res.Stats.Traces += stats.Traces
		res.Stats.Matched += stats.Matched
		res.Stats.Changed += stats.Changed
		res.Stats.Noops += stats.Noops
		res.Stats.Errors += stats.Errors
		res.Stats.Recorded += stats.Recorded
		if err != nil {
			name := e.Field
			if f, rerr := resolveField(segy.TraceFields, e.Field, e.ByteOffset); rerr == nil {
				name = f.Name
			}
			traceErrs = append(traceErrs, fmt.Errorf("field %s: %w", name, err))
		}
	}

	if !dry {
		if err := h.Sync(); err != nil {
			traceErrs = append(traceErrs, err)
		}
		if logErr := w.Log.Append(res.Records...); logErr != nil {
			traceErrs = append(traceErrs, fmt.Errorf("changelog: %w", logErr))
		}
	}
	return res, errors.Join(traceErrs...)
}
