// Package audit persists batch job history in a local sqlite database so the
// daemon can answer status and history queries across restarts.
package audit

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"example.com/segygate/internal/engine"
)

var ErrJobNotFound = errors.New("job not found")

// Job statuses as stored in the jobs table.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Job is one recorded batch run.
type Job struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Status    string          `json:"status"`
	Spec      json.RawMessage `json:"spec,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Files     []FileResult    `json:"files,omitempty"`
}

// FileResult is the per-file outcome of a job.
type FileResult struct {
	Filename string        `json:"filename"`
	Status   string        `json:"status"`
	Message  string        `json:"message"`
	Changes  int           `json:"changes"`
	Duration time.Duration `json:"duration"`
}

// Store wraps the sqlite connection.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	kind TEXT,
	spec TEXT,
	status TEXT,
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS job_files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT,
	filename TEXT,
	status TEXT,
	message TEXT,
	changes INTEGER,
	duration_ms INTEGER,
	created_at DATETIME
);
`

// Open opens (creating if necessary) the audit database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateJob records a new job in the running state. The spec is any
// JSON-serializable description of what the job will do, kept opaque so
// history survives config format changes.
func (s *Store) CreateJob(kind string, spec any) (Job, error) {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return Job{}, fmt.Errorf("marshal job spec: %w", err)
	}
	now := time.Now().UTC()
	job := Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    StatusRunning,
		Spec:      specJSON,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.Exec(
		`INSERT INTO jobs (id, kind, spec, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID, job.Kind, string(specJSON), job.Status, now, now)
	if err != nil {
		return Job{}, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

// CompleteJob stores the final status and per-file results of a job.
func (s *Store) CompleteJob(jobID, status string, results []engine.BatchResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.Exec(`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`, status, now, jobID)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	for _, r := range results {
		_, err := tx.Exec(
			`INSERT INTO job_files (job_id, filename, status, message, changes, duration_ms, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			jobID, r.Filename, string(r.Status), r.Message, len(r.Records), r.Duration.Milliseconds(), now)
		if err != nil {
			return fmt.Errorf("insert job file: %w", err)
		}
	}
	return tx.Commit()
}

// GetJob fetches one job including its per-file results.
func (s *Store) GetJob(jobID string) (Job, error) {
	var job Job
	var spec string
	err := s.db.QueryRow(
		`SELECT id, kind, spec, status, created_at, updated_at FROM jobs WHERE id = ?`, jobID).
		Scan(&job.ID, &job.Kind, &spec, &job.Status, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if err != nil {
		return Job{}, err
	}
	job.Spec = json.RawMessage(spec)

	rows, err := s.db.Query(
		`SELECT filename, status, message, changes, duration_ms FROM job_files WHERE job_id = ? ORDER BY id`,
		jobID)
	if err != nil {
		return Job{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var f FileResult
		var durMS int64
		if err := rows.Scan(&f.Filename, &f.Status, &f.Message, &f.Changes, &durMS); err != nil {
			return Job{}, err
		}
		f.Duration = time.Duration(durMS) * time.Millisecond
		job.Files = append(job.Files, f)
	}
	return job, rows.Err()
}

// ListJobs returns all jobs, newest first, without per-file results.
func (s *Store) ListJobs() ([]Job, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, status, created_at, updated_at FROM jobs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.Kind, &job.Status, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
