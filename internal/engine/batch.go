package engine

import (
	"fmt"
	"path/filepath"
	"time"

	"example.com/segygate/internal/edit"
	"example.com/segygate/internal/rules"
)

// BatchStatus is the per-file outcome of a batch run.
type BatchStatus string

const (
	BatchSuccess BatchStatus = "SUCCESS"
	BatchFailure BatchStatus = "FAILURE"
	BatchSkipped BatchStatus = "SKIPPED"
)

// BatchResult records what happened to one file. It is built once per file
// per run and not mutated afterwards.
type BatchResult struct {
	Filename         string              `json:"filename"`
	Status           BatchStatus         `json:"status"`
	Message          string              `json:"message"`
	Records          []edit.ChangeRecord `json:"changes,omitempty"`
	ValidationBefore *rules.Result       `json:"validation_before,omitempty"`
	ValidationAfter  *rules.Result       `json:"validation_after,omitempty"`
	Duration         time.Duration       `json:"duration"`
}

// RunBatch runs the full pipeline over each path in order. A file whose
// pre-edit validation fails is skipped without edits; any other failure is
// recorded as FAILURE and the batch moves on. Cancellation is checked at
// file boundaries, so a file already being edited finishes before the
// remainder is marked skipped.
func (e *Engine) RunBatch(paths []string, job *edit.Job) []BatchResult {
	e.cancelled.Store(false)
	cb := e.callbacks()
	results := make([]BatchResult, 0, len(paths))

	for i, path := range paths {
		filename := filepath.Base(path)
		if e.cancelled.Load() {
			results = append(results, BatchResult{
				Filename: filename,
				Status:   BatchSkipped,
				Message:  "cancelled",
			})
			continue
		}
		if cb.OnProgress != nil {
			cb.OnProgress(i, len(paths))
		}
		start := time.Now()

		result := e.runOne(path, filename, job, start)
		results = append(results, result)
	}
	if cb.OnProgress != nil {
		cb.OnProgress(len(paths), len(paths))
	}
	return results
}

func (e *Engine) runOne(path, filename string, job *edit.Job, start time.Time) BatchResult {
	info, err := e.LoadFile(path)
	if err != nil {
		return BatchResult{
			Filename: filename,
			Status:   BatchFailure,
			Message:  err.Error(),
			Duration: time.Since(start),
		}
	}

	preVal := e.Validate(info)
	if preVal.Failed() {
		e.logf("Skipping %s: pre-edit validation failed", filename)
		return BatchResult{
			Filename:         filename,
			Status:           BatchSkipped,
			Message:          "skipped: pre-edit validation failed",
			ValidationBefore: preVal,
			Duration:         time.Since(start),
		}
	}

	outcome, err := e.Apply(path, job)
	if err != nil {
		return BatchResult{
			Filename:         filename,
			Status:           BatchFailure,
			Message:          err.Error(),
			ValidationBefore: preVal,
			Duration:         time.Since(start),
		}
	}
	return BatchResult{
		Filename:         filename,
		Status:           BatchSuccess,
		Message:          fmt.Sprintf("%d change(s) applied", outcome.Stats.Changed+len(outcome.Records)-outcome.Stats.Recorded),
		Records:          outcome.Records,
		ValidationBefore: preVal,
		ValidationAfter:  outcome.PostValidation,
		Duration:         time.Since(start),
	}
}
