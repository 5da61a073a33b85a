package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"example.com/segygate/internal/edit"
)

var changelogColumns = []string{
	"filename", "timestamp", "scope", "field", "trace_index",
	"before_value", "after_value", "sampled",
}

// WriteChangelogCSV writes change records to a CSV file, replacing any
// existing file. An empty record list still produces the header row.
func WriteChangelogCSV(records []edit.ChangeRecord, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create changelog csv: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(changelogColumns); err != nil {
		return err
	}
	if err := writeChangeRows(w, records); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// AppendChangelogCSV appends records to an existing CSV, creating it with a
// header when absent.
func AppendChangelogCSV(records []edit.ChangeRecord, out string) error {
	if len(records) == 0 {
		return nil
	}
	_, statErr := os.Stat(out)
	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open changelog csv: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if os.IsNotExist(statErr) {
		if err := w.Write(changelogColumns); err != nil {
			return err
		}
	}
	if err := writeChangeRows(w, records); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writeChangeRows(w *csv.Writer, records []edit.ChangeRecord) error {
	for _, r := range records {
		row := []string{
			r.File,
			r.Time.UTC().Format(time.RFC3339),
			string(r.Scope),
			r.Field,
			strconv.Itoa(r.TraceIndex),
			r.Old,
			r.New,
			strconv.FormatBool(r.Sampled),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
