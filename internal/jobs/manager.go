// Package jobs tracks crop batches submitted through the HTTP API. Each job
// runs on its own goroutine and its progress is folded from the batch event
// stream so clients can poll it.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spherical/pdf-cropper/internal/crop"
	"github.com/spherical/pdf-cropper/internal/domain"
	"github.com/spherical/pdf-cropper/internal/observability"
)

// ErrCapacity is returned by Submit when every tracked job is still running.
var ErrCapacity = errors.New("job capacity reached")

// Status represents job status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Finished reports whether no more progress will be recorded.
func (s Status) Finished() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// Job is a snapshot of one submitted batch.
type Job struct {
	ID           string              `json:"id"`
	Status       Status              `json:"status"`
	TotalFiles   int                 `json:"total_files"`
	CurrentIndex int                 `json:"current_index"`
	CurrentFile  string              `json:"current_file,omitempty"`
	PagesDone    int                 `json:"pages_done"`
	Errors       []string            `json:"errors"`
	Result       *domain.BatchResult `json:"result,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
}

// Starter launches a batch and streams its events.
type Starter interface {
	Start(ctx context.Context, req crop.Request) (<-chan domain.StreamEvent, error)
}

// Manager owns the running and finished jobs.
type Manager struct {
	starter Starter
	maxJobs int
	logger  *observability.Logger

	mu    sync.RWMutex
	jobs  map[string]*Job
	order []string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a manager keeping at most maxJobs jobs. When full, the
// oldest finished job is forgotten to make room.
func NewManager(starter Starter, maxJobs int, logger *observability.Logger) *Manager {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if maxJobs < 1 {
		maxJobs = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		starter: starter,
		maxJobs: maxJobs,
		logger:  logger.WithOperation("jobs"),
		jobs:    make(map[string]*Job),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit validates and starts req. Validation failures are returned as
// domain validation errors and no job is recorded.
func (m *Manager) Submit(req crop.Request) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasRoomLocked() {
		return Job{}, ErrCapacity
	}

	events, err := m.starter.Start(m.ctx, req)
	if err != nil {
		return Job{}, err
	}
	m.evictLocked()

	job := &Job{
		ID:         uuid.NewString(),
		Status:     StatusPending,
		TotalFiles: len(req.Files),
		Errors:     []string{},
		CreatedAt:  time.Now(),
	}
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)

	m.logger.Info().Str("job_id", job.ID).Int("files", job.TotalFiles).Msg("job submitted")

	m.wg.Add(1)
	go m.track(job.ID, events)

	return job.snapshot(), nil
}

// Get returns a snapshot of the job with id.
func (m *Manager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.snapshot(), true
}

// List returns snapshots of all jobs, oldest first.
func (m *Manager) List() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Job, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.jobs[id].snapshot())
	}
	return out
}

// Shutdown cancels running jobs between files and waits for them to finish
// or for ctx to expire.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) track(id string, events <-chan domain.StreamEvent) {
	defer m.wg.Done()
	for ev := range events {
		m.mu.Lock()
		job, ok := m.jobs[id]
		if !ok {
			m.mu.Unlock()
			continue
		}
		job.apply(ev)
		status := job.Status
		m.mu.Unlock()

		if ev.Type == domain.EventComplete {
			m.logger.Info().Str("job_id", id).Str("status", string(status)).Msg("job finished")
		}
	}
}

func (m *Manager) hasRoomLocked() bool {
	if len(m.order) < m.maxJobs {
		return true
	}
	for _, id := range m.order {
		if m.jobs[id].Status.Finished() {
			return true
		}
	}
	return false
}

// evictLocked forgets the oldest finished job while the manager is full.
func (m *Manager) evictLocked() {
	if len(m.order) < m.maxJobs {
		return
	}
	for i, id := range m.order {
		if m.jobs[id].Status.Finished() {
			delete(m.jobs, id)
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}

func (j *Job) apply(ev domain.StreamEvent) {
	switch ev.Type {
	case domain.EventStart:
		j.Status = StatusRunning
	case domain.EventFileProcessing:
		j.Status = StatusRunning
		j.CurrentIndex = ev.FileIndex
		j.CurrentFile = ev.FileName
	case domain.EventPageComplete:
		j.PagesDone++
	case domain.EventError:
		if msg, ok := ev.Payload.(string); ok {
			j.Errors = append(j.Errors, msg)
		}
	case domain.EventComplete:
		result, _ := ev.Payload.(*domain.BatchResult)
		j.Result = result
		finished := ev.Timestamp
		j.FinishedAt = &finished
		switch {
		case result != nil && result.Cancelled:
			j.Status = StatusCancelled
		case result != nil && len(result.Errors) == 0:
			j.Status = StatusSucceeded
		default:
			j.Status = StatusFailed
		}
	}
}

func (j *Job) snapshot() Job {
	c := *j
	c.Errors = append([]string{}, j.Errors...)
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		c.FinishedAt = &t
	}
	return c
}
