package edit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ChangeLog provides append-only access to a JSONL changelog.
type ChangeLog struct {
	path string
	mu   sync.Mutex
}

// NewChangeLog returns a ChangeLog that writes to the provided path.
func NewChangeLog(path string) *ChangeLog {
	return &ChangeLog{path: path}
}

// Path returns the backing file path for the log.
func (c *ChangeLog) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Append writes records to the changelog, one JSON object per line, so
// downstream consumption and replay stay straightforward. A nil ChangeLog
// silently drops records, which lets dry runs share the apply path.
func (c *ChangeLog) Append(records ...ChangeRecord) error {
	if c == nil || len(records) == 0 {
		return nil
	}
	var buf strings.Builder
	for _, rec := range records {
		if rec.Field == "" && rec.Scope != ScopeTextual {
			return errors.New("change record missing field")
		}
		if rec.Time.IsZero() {
			rec.Time = time.Now().UTC()
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	dir := filepath.Dir(c.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(buf.String()); err != nil {
		return err
	}
	return f.Sync()
}

// ReadChangeLog loads every record from the supplied JSONL file.
func ReadChangeLog(path string) ([]ChangeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	var records []ChangeRecord
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec ChangeRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("decode change record: %w", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
