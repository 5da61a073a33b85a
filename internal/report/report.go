// Package report renders validation and batch results as JSON, CSV, and PDF.
package report

import (
	"encoding/json"
	"os"
	"time"

	"example.com/segygate/internal/engine"
	"example.com/segygate/internal/rules"
)

// Summary aggregates a batch run.
type Summary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failure int `json:"failure"`
	Skipped int `json:"skipped"`
	Changes int `json:"changes"`
}

// BatchReport is the serializable outcome of one batch run.
type BatchReport struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Results     []engine.BatchResult `json:"results"`
	Summary     Summary              `json:"summary"`
}

// NewBatchReport summarizes results into a report.
func NewBatchReport(results []engine.BatchResult) *BatchReport {
	rep := &BatchReport{
		GeneratedAt: time.Now().UTC(),
		Results:     results,
	}
	for _, r := range results {
		rep.Summary.Total++
		switch r.Status {
		case engine.BatchSuccess:
			rep.Summary.Success++
		case engine.BatchFailure:
			rep.Summary.Failure++
		case engine.BatchSkipped:
			rep.Summary.Skipped++
		}
		rep.Summary.Changes += len(r.Records)
	}
	return rep
}

// SaveBatchJSON writes the report as indented JSON.
func SaveBatchJSON(rep *BatchReport, out string) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

// LoadBatchJSON reads a report previously written by SaveBatchJSON.
func LoadBatchJSON(path string) (*BatchReport, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rep BatchReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// SaveValidationJSON writes a single file's validation result.
func SaveValidationJSON(res *rules.Result, out string) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}
