// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"
)

// OperationMetrics holds aggregated timings for a single operation type.
type OperationMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	TotalTimeMs int64   `json:"totalTimeMs"`
	AvgTimeMs   float64 `json:"avgTimeMs"`
	MinTimeMs   int64   `json:"minTimeMs"`
	MaxTimeMs   int64   `json:"maxTimeMs"`
}

// Snapshot represents the full server statistics at a point in time.
type Snapshot struct {
	UptimeSeconds   float64            `json:"uptimeSeconds"`
	JobsStarted     int64              `json:"jobsStarted"`
	JobsCompleted   int64              `json:"jobsCompleted"`
	JobsFailed      int64              `json:"jobsFailed"`
	LLMGenerate     *OperationSnapshot `json:"llmGenerate,omitempty"`
	MarkdownConvert *OperationSnapshot `json:"markdownConvert,omitempty"`
	PDFRender       *OperationSnapshot `json:"pdfRender,omitempty"`
	JobTotal        *OperationSnapshot `json:"jobTotal,omitempty"`
}

// Operation names for the collector.
const (
	OpLLMGenerate     = "llm_generate"
	OpMarkdownConvert = "markdown_convert"
	OpPDFRender       = "pdf_render"
	OpJobTotal        = "job_total"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics

	jobsStarted   int64
	jobsCompleted int64
	jobsFailed    int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{
			MinTime: time.Duration(math.MaxInt64),
		}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// JobStarted counts a newly launched generation job.
func (c *Collector) JobStarted() {
	c.mu.Lock()
	c.jobsStarted++
	c.mu.Unlock()
}

// JobCompleted counts a job that reached completed state.
func (c *Collector) JobCompleted() {
	c.mu.Lock()
	c.jobsCompleted++
	c.mu.Unlock()
}

// JobFailed counts a job that reached error state.
func (c *Collector) JobFailed() {
	c.mu.Lock()
	c.jobsFailed++
	c.mu.Unlock()
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	return &OperationSnapshot{
		Count:       m.Count,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds:   time.Since(c.startTime).Seconds(),
		JobsStarted:     c.jobsStarted,
		JobsCompleted:   c.jobsCompleted,
		JobsFailed:      c.jobsFailed,
		LLMGenerate:     snapshotOp(c.ops[OpLLMGenerate]),
		MarkdownConvert: snapshotOp(c.ops[OpMarkdownConvert]),
		PDFRender:       snapshotOp(c.ops[OpPDFRender]),
		JobTotal:        snapshotOp(c.ops[OpJobTotal]),
	}
}
