package common

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"
)

type Metrics struct {
	mu          sync.Mutex
	start       time.Time
	end         time.Time
	traces      int64
	totalTraces int64
	changes     int64
	fallbacks   int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Start() {
	m.mu.Lock()
	if m.start.IsZero() {
		m.start = time.Now()
		m.end = time.Time{}
	}
	m.mu.Unlock()
}

func (m *Metrics) Stop() {
	m.mu.Lock()
	if !m.start.IsZero() && m.end.IsZero() {
		m.end = time.Now()
	}
	m.mu.Unlock()
}

func (m *Metrics) AddTraces(n int64) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	m.traces += n
	m.mu.Unlock()
}

func (m *Metrics) AddChange() {
	m.mu.Lock()
	m.changes++
	m.mu.Unlock()
}

func (m *Metrics) IncFallback() {
	m.mu.Lock()
	m.fallbacks++
	m.mu.Unlock()
}

func (m *Metrics) SetTotalTraces(total int64) {
	if total < 0 {
		total = 0
	}
	m.mu.Lock()
	m.totalTraces = total
	m.mu.Unlock()
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Duration:    m.elapsedLocked(),
		Traces:      m.traces,
		TotalTraces: m.totalTraces,
		Changes:     m.changes,
		Fallbacks:   m.fallbacks,
	}
}

func (m *Metrics) elapsedLocked() time.Duration {
	if m.start.IsZero() {
		return 0
	}
	if !m.end.IsZero() {
		return m.end.Sub(m.start)
	}
	return time.Since(m.start)
}

type MetricsSnapshot struct {
	Duration    time.Duration
	Traces      int64
	TotalTraces int64
	Changes     int64
	Fallbacks   int64
}

func (s MetricsSnapshot) ThroughputTracesPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Traces) / s.Duration.Seconds()
}

func (s MetricsSnapshot) Completion() float64 {
	if s.TotalTraces <= 0 {
		return 0
	}
	ratio := float64(s.Traces) / float64(s.TotalTraces)
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

func FormatCount(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	var parts []string
	for n > 0 {
		if n < 1000 {
			parts = append([]string{fmt.Sprintf("%d", n)}, parts...)
			break
		}
		parts = append([]string{fmt.Sprintf("%03d", n%1000)}, parts...)
		n /= 1000
	}
	return strings.Join(parts, ",")
}

func formatProgressLine(s MetricsSnapshot) string {
	throughput := s.ThroughputTracesPerSecond()
	if s.TotalTraces > 0 {
		pct := s.Completion() * 100
		if math.IsNaN(pct) || math.IsInf(pct, 0) {
			pct = 0
		}
		return fmt.Sprintf("Progress: %6.2f%% (%s / %s traces) %.0f traces/s",
			pct, FormatCount(s.Traces), FormatCount(s.TotalTraces), throughput)
	}
	return fmt.Sprintf("Processed: %s traces %.0f traces/s", FormatCount(s.Traces), throughput)
}

func StartProgressPrinter(w io.Writer, m *Metrics, interval time.Duration) func() {
	if m == nil || w == nil {
		return func() {}
	}
	if interval <= 0 {
		interval = time.Second
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		lastLen := 0
		for {
			select {
			case <-ticker.C:
				line := formatProgressLine(m.Snapshot())
				pad := lastLen - len(line)
				if pad > 0 {
					line += strings.Repeat(" ", pad)
				}
				fmt.Fprintf(w, "\r%s", line)
				lastLen = len(line)
			case <-done:
				if lastLen > 0 {
					fmt.Fprintf(w, "\r%s\r\n", strings.Repeat(" ", lastLen))
				}
				return
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}
