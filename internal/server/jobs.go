package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	"example.com/segygate/internal/audit"
	"example.com/segygate/internal/config"
	"example.com/segygate/internal/edit"
	"example.com/segygate/internal/engine"
	"example.com/segygate/internal/report"
)

// wsEvent is the envelope pushed to websocket clients while a job runs.
type wsEvent struct {
	Type      string        `json:"type"`
	JobID     string        `json:"jobId,omitempty"`
	Stage     string        `json:"stage,omitempty"`
	Done      int           `json:"done,omitempty"`
	Total     int           `json:"total,omitempty"`
	Message   string        `json:"message,omitempty"`
	Status    string        `json:"status,omitempty"`
	Artifacts []ArtifactRef `json:"artifacts,omitempty"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Inputs []string `json:"inputs"`
		Config string   `json:"config"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: %v", err)
		return
	}
	if len(req.Inputs) == 0 {
		writeError(w, http.StatusBadRequest, "inputs required")
		return
	}
	paths := make([]string, 0, len(req.Inputs))
	for _, in := range req.Inputs {
		p, err := s.resolvePath(in)
		if err != nil {
			writeError(w, http.StatusBadRequest, "resolve %s: %v", in, err)
			return
		}
		paths = append(paths, p)
	}

	// The config travels as the same YAML document the command line tool
	// reads; writing it into the workspace anchors relative paths there.
	cfgPath, err := s.tempPath("config-*.yaml")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "config temp: %v", err)
		return
	}
	if err := os.WriteFile(cfgPath, []byte(req.Config), 0o644); err != nil {
		writeError(w, http.StatusInternalServerError, "write config: %v", err)
		return
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		writeError(w, http.StatusBadRequest, "load config: %v", err)
		return
	}
	if cfg.DryRun {
		writeError(w, http.StatusBadRequest, "dry_run configs cannot be submitted as jobs; use /api/validate")
		return
	}
	job, err := cfg.BuildJob()
	if err != nil {
		writeError(w, http.StatusBadRequest, "build job: %v", err)
		return
	}
	if job.Empty() {
		writeError(w, http.StatusBadRequest, "config defines no edits")
		return
	}

	if !s.runMu.TryLock() {
		writeError(w, http.StatusConflict, "a batch job is already running")
		return
	}

	rec, err := s.store.CreateJob("batch", map[string]any{
		"inputs": req.Inputs,
		"config": req.Config,
	})
	if err != nil {
		s.runMu.Unlock()
		writeError(w, http.StatusInternalServerError, "record job: %v", err)
		return
	}

	changelogPath := cfg.Changelog
	if changelogPath == "" {
		changelogPath = filepath.Join(s.workDir, "changelog-"+rec.ID+".jsonl")
	}
	writer := &edit.Writer{
		Policy: edit.DefaultRecordPolicy,
		Log:    edit.NewChangeLog(changelogPath),
	}
	eng := engine.New(cfg.Validator(), writer)
	eng.SetCallbacks(engine.Callbacks{
		OnStage: func(_ engine.Stage, name string) {
			s.broadcastJSON(wsEvent{Type: "stage", JobID: rec.ID, Stage: name})
		},
		OnProgress: func(done, total int) {
			s.broadcastJSON(wsEvent{Type: "progress", JobID: rec.ID, Done: done, Total: total})
		},
		OnLog: func(msg string) {
			s.broadcastJSON(wsEvent{Type: "log", JobID: rec.ID, Message: msg})
		},
	})

	s.engMu.Lock()
	s.running = eng
	s.runningJob = rec.ID
	s.engMu.Unlock()

	go s.runBatchJob(eng, rec.ID, paths, job, changelogPath)

	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": rec.ID})
}

func (s *Server) runBatchJob(eng *engine.Engine, jobID string, paths []string, job *edit.Job, changelogPath string) {
	defer s.runMu.Unlock()
	defer func() {
		s.engMu.Lock()
		s.running = nil
		s.runningJob = ""
		s.engMu.Unlock()
	}()

	results := eng.RunBatch(paths, job)
	status := audit.StatusCompleted
	for _, r := range results {
		if r.Status == engine.BatchSkipped && r.Message == "cancelled" {
			status = audit.StatusCancelled
			break
		}
	}
	if err := s.store.CompleteJob(jobID, status, results); err != nil {
		s.broadcastJSON(wsEvent{Type: "error", JobID: jobID, Message: err.Error()})
	}
	artifacts := s.saveJobArtifacts(jobID, results, changelogPath)
	s.broadcastJSON(wsEvent{Type: "done", JobID: jobID, Status: status, Artifacts: artifacts})
}

// saveJobArtifacts writes the batch report in every supported format and
// registers whatever succeeded. A report that cannot be written is reported
// over the websocket but does not fail the job.
func (s *Server) saveJobArtifacts(jobID string, results []engine.BatchResult, changelogPath string) []ArtifactRef {
	rep := report.NewBatchReport(results)
	var refs []ArtifactRef

	add := func(path, name, contentType, kind string, err error) {
		if err != nil {
			s.broadcastJSON(wsEvent{Type: "error", JobID: jobID, Message: name + ": " + err.Error()})
			return
		}
		art, err := s.addArtifact(path, name, contentType, kind)
		if err != nil {
			s.broadcastJSON(wsEvent{Type: "error", JobID: jobID, Message: name + ": " + err.Error()})
			return
		}
		refs = append(refs, toRef(art))
	}

	jsonPath := filepath.Join(s.workDir, "report-"+jobID+".json")
	add(jsonPath, "batch_report.json", "application/json", "report",
		report.SaveBatchJSON(rep, jsonPath))

	pdfPath := filepath.Join(s.workDir, "report-"+jobID+".pdf")
	add(pdfPath, "batch_report.pdf", "application/pdf", "report",
		report.SaveBatchPDF(rep, changelogPath, pdfPath))

	if _, err := os.Stat(changelogPath); err == nil {
		add(changelogPath, "changelog.jsonl", "application/x-ndjson", "changelog", nil)
		records, err := edit.ReadChangeLog(changelogPath)
		if err == nil {
			csvPath := filepath.Join(s.workDir, "changelog-"+jobID+".csv")
			add(csvPath, "changelog.csv", "text/csv", "changelog",
				report.WriteChangelogCSV(records, csvPath))
		}
	}
	return refs
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListJobs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list jobs: %v", err)
		return
	}
	if jobs == nil {
		jobs = []audit.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := s.store.GetJob(id)
	if errors.Is(err, audit.ErrJobNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get job: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.engMu.Lock()
	eng, match := s.running, s.runningJob == id
	s.engMu.Unlock()
	if eng == nil || !match {
		writeError(w, http.StatusConflict, "job %s is not running", id)
		return
	}
	eng.Cancel()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}
