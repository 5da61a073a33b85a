// Package engine sequences the read, validate, edit, and post-validate
// stages over one file or a batch, reporting progress through callbacks.
package engine

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"example.com/segygate/internal/common"
	"example.com/segygate/internal/edit"
	"example.com/segygate/internal/rules"
	"example.com/segygate/internal/segy"
)

// State tracks where the pipeline is between calls.
type State string

const (
	StateIdle        State = "IDLE"
	StateFilesLoaded State = "FILES_LOADED"
	StateValidated   State = "VALIDATED"
	StateApplied     State = "APPLIED"
)

// Stage indexes the pipeline phases reported through OnStage.
type Stage int

const (
	StageLoad Stage = iota
	StagePreValidate
	StagePrepareOutput
	StageApplyEdits
	StagePostValidate
	StageReport
)

var stageNames = [...]string{
	"reading file",
	"pre-edit validation",
	"preparing output",
	"applying edits",
	"post-edit validation",
	"generating report",
}

// Name returns the human readable stage label.
func (s Stage) Name() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage %d", int(s))
}

// Callbacks deliver stage transitions, progress, and log lines to the
// caller. Batch runs execute on worker goroutines, so results flow through
// these hooks rather than being polled.
type Callbacks struct {
	OnStage    func(stage Stage, name string)
	OnProgress func(done, total int)
	OnLog      func(msg string)
}

// detailLogLimit caps per-change log lines; past it one notice is emitted
// and the rest is left to the completion summary.
const detailLogLimit = 5

// Engine orchestrates the pipeline. One engine serves one caller at a time;
// callbacks and cancellation are safe to touch from other goroutines.
type Engine struct {
	Validator *rules.Validator
	Writer    *edit.Writer

	mu        sync.Mutex
	state     State
	cb        Callbacks
	cancelled atomic.Bool
}

// New builds an engine around a validator and a writer. Nil arguments get
// usable defaults.
func New(v *rules.Validator, w *edit.Writer) *Engine {
	if v == nil {
		v = &rules.Validator{}
	}
	if w == nil {
		w = &edit.Writer{}
	}
	return &Engine{Validator: v, Writer: w, state: StateIdle}
}

// SetCallbacks registers the hooks used by subsequent runs.
func (e *Engine) SetCallbacks(cb Callbacks) {
	e.mu.Lock()
	e.cb = cb
	e.mu.Unlock()
}

// State returns the current pipeline state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Cancel requests cooperative cancellation. A file already being edited runs
// to completion; remaining batch files are skipped.
func (e *Engine) Cancel() {
	e.cancelled.Store(true)
}

func (e *Engine) callbacks() Callbacks {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cb
}

func (e *Engine) emitStage(s Stage) {
	if cb := e.callbacks(); cb.OnStage != nil {
		cb.OnStage(s, s.Name())
	}
}

func (e *Engine) logf(format string, args ...interface{}) {
	if cb := e.callbacks(); cb.OnLog != nil {
		cb.OnLog(fmt.Sprintf(format, args...))
		return
	}
	common.Logf(format, args...)
}

// LoadFile reads the file summary and moves the pipeline to FILES_LOADED.
func (e *Engine) LoadFile(path string) (*segy.FileInfo, error) {
	e.emitStage(StageLoad)
	e.logf("Reading file: %s", filepath.Base(path))
	info, err := segy.ReadInfo(path)
	if err != nil {
		return nil, err
	}
	e.setState(StateFilesLoaded)
	e.logf("Loaded: %d traces, %d samples per trace", info.TraceCount, info.SamplesPerTrace)
	return info, nil
}

// Validate runs pre-edit validation. A FAIL leaves the state at
// FILES_LOADED so edits cannot proceed over a broken file.
func (e *Engine) Validate(info *segy.FileInfo) *rules.Result {
	e.emitStage(StagePreValidate)
	e.logf("Running pre-edit validation...")
	result := e.Validator.Validate(info)
	if result.Failed() {
		e.setState(StateFilesLoaded)
		e.logf("Validation failed: %d check(s)", result.Count(rules.Fail))
	} else {
		e.setState(StateValidated)
		e.logf("Validation complete: %s", result.Overall)
	}
	return result
}

// Preview bundles a whole-file dry run with a bounded per-trace sample of
// every trace edit in the job.
type Preview struct {
	Result *edit.Result
	Traces []edit.PreviewRow
}

// Preview evaluates the job without touching the file. maxTraces bounds the
// per-trace sample; <= 0 means the default.
func (e *Engine) Preview(path string, job *edit.Job, maxTraces int) (*Preview, error) {
	e.logf("Generating dry-run preview...")
	res, err := e.Writer.DryRun(path, job)
	if err != nil {
		return nil, err
	}
	p := &Preview{Result: res}
	if len(job.Trace) == 0 {
		return p, nil
	}
	h, err := segy.Open(path)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	for _, te := range job.Trace {
		rows, err := edit.PreviewTraceEdit(h, te, maxTraces)
		if err != nil {
			return nil, err
		}
		p.Traces = append(p.Traces, rows...)
	}
	return p, nil
}

// ApplyOutcome bundles what Apply produced for one file.
type ApplyOutcome struct {
	OutputPath     string
	Records        []edit.ChangeRecord
	Stats          edit.TraceEditStats
	PostValidation *rules.Result
}

// Apply stages the output, applies the job, re-reads the written file, and
// post-validates it against the pre-edit snapshot so unintended binary
// header drift is flagged.
func (e *Engine) Apply(path string, job *edit.Job) (*ApplyOutcome, error) {
	before, err := segy.ReadInfo(path)
	if err != nil {
		return nil, err
	}

	e.emitStage(StagePrepareOutput)
	e.logf("Preparing output...")

	e.emitStage(StageApplyEdits)
	e.logf("Applying edits...")
	prevProgress := e.Writer.Progress
	if cb := e.callbacks(); cb.OnProgress != nil {
		e.Writer.Progress = cb.OnProgress
	}
	res, err := e.Writer.Apply(path, job)
	e.Writer.Progress = prevProgress
	if err != nil {
		return nil, err
	}
	e.logChanges(res.Records)
	e.logf("Edits applied: %d change(s)", res.Stats.Changed+len(res.Records)-res.Stats.Recorded)

	e.emitStage(StagePostValidate)
	e.logf("Running post-edit validation...")
	after, err := segy.ReadInfo(res.EditPath)
	if err != nil {
		return nil, fmt.Errorf("re-read edited file: %w", err)
	}
	editedBinary, _ := job.EditedFields()
	post := e.Validator.ValidatePostEdit(before, after, editedBinary)
	e.logf("Post-edit validation: %s", post.Overall)

	e.setState(StateApplied)
	return &ApplyOutcome{
		OutputPath:     res.EditPath,
		Records:        res.Records,
		Stats:          res.Stats,
		PostValidation: post,
	}, nil
}

// logChanges emits full detail for the first few changes and one notice for
// the rest, keeping log consumers responsive on large edits.
func (e *Engine) logChanges(records []edit.ChangeRecord) {
	for i, r := range records {
		if i == detailLogLimit {
			e.logf("  ... (further changes summarized after completion)")
			return
		}
		e.logf("  %s/%s: %s -> %s", r.Scope, r.Field, r.Old, r.New)
	}
}
