// Package jobs tracks asynchronous generation jobs in memory.
package jobs

import (
	"log/slog"
	"sync"
	"time"
)

// Status represents the state of a generation job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Job is the authoritative state of one generation request.
type Job struct {
	ID          string
	Status      Status
	Progress    int
	Message     string
	Result      []byte // set only on completion
	Error       string // set only on failure
	LastUpdated time.Time
}

// Update carries a partial mutation. Nil fields are left untouched.
type Update struct {
	Status   *Status
	Progress *int
	Message  *string
	Result   []byte
	Error    *string
}

// Registry holds every in-flight and recently finished job. It is owned
// by the server: created at startup, closed at shutdown.
type Registry struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	timers map[string]*time.Timer
	logger *slog.Logger
	closed bool
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		jobs:   make(map[string]*Job),
		timers: make(map[string]*time.Timer),
		logger: logger,
	}
}

// Create inserts a new job in processing state. Creating an id that
// already exists is a no-op; callers generate collision-free ids.
func (r *Registry) Create(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[id]; exists {
		return
	}

	r.jobs[id] = &Job{
		ID:          id,
		Status:      StatusProcessing,
		Progress:    0,
		Message:     "request received",
		LastUpdated: time.Now(),
	}
}

// Get returns a snapshot of the job, or false if the id is unknown.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Update merges the non-nil fields into the job and refreshes
// LastUpdated. Unknown ids are logged and ignored. Progress never moves
// backwards, and terminal jobs accept no further mutation.
func (r *Registry) Update(id string, upd Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		r.logger.Warn("update for unknown job", "job_id", id)
		return
	}
	if job.Status.Terminal() {
		r.logger.Warn("update for terminal job ignored", "job_id", id, "status", job.Status)
		return
	}

	if upd.Status != nil {
		job.Status = *upd.Status
	}
	if upd.Progress != nil && *upd.Progress > job.Progress {
		job.Progress = *upd.Progress
	}
	if upd.Message != nil {
		job.Message = *upd.Message
	}
	if upd.Result != nil {
		job.Result = upd.Result
	}
	if upd.Error != nil {
		job.Error = *upd.Error
	}
	job.LastUpdated = time.Now()
}

// ScheduleDelete removes the job after the given delay. The timer is
// tracked so Close can stop it; rescheduling the same id resets the
// previous timer.
func (r *Registry) ScheduleDelete(id string, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if t, ok := r.timers[id]; ok {
		t.Stop()
	}

	r.timers[id] = time.AfterFunc(delay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.jobs, id)
		delete(r.timers, id)
		r.logger.Debug("job evicted", "job_id", id)
	})
}

// Len reports the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// Close stops all pending deletion timers. Job records are dropped with
// the process; nothing is persisted.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
}
