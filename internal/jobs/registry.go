package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vidmase/bananina/internal/infra"
	"github.com/vidmase/bananina/internal/providers/taskapi"
	"github.com/vidmase/bananina/internal/studio"
)

var (
	ErrNotFound     = errors.New("job not found")
	ErrTooManyJobs  = errors.New("too many active jobs")
	ErrShuttingDown = errors.New("registry is shutting down")
)

// Status is the lifecycle of a job as seen by API clients.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Terminal reports whether no further updates will happen.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

// Kind distinguishes image and video jobs.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// RunFunc performs the work of a job and reports progress lines.
type RunFunc func(ctx context.Context, progress studio.ProgressFunc) (*studio.Result, error)

// Snapshot is a copy of a job's state at one point in time.
type Snapshot struct {
	ID        string
	Kind      Kind
	Status    Status
	Progress  string
	CreatedAt time.Time
	UpdatedAt time.Time
	Result    *studio.Result
	Err       error
}

type entry struct {
	snap   Snapshot
	cancel context.CancelFunc
}

// Options configures a Registry. Retention bounds how long a finished job
// waits for its result to be read before it is dropped.
type Options struct {
	MaxConcurrent int
	MaxPending    int
	Retention     time.Duration
	Logger        *infra.Logger
}

// Registry tracks in-flight jobs in memory. A terminal job is removed the first
// time its state is read.
type Registry struct {
	mu         sync.Mutex
	jobs       map[string]*entry
	sem        chan struct{}
	maxPending int
	retention  time.Duration
	wg         sync.WaitGroup
	closed     bool
	logger     *infra.Logger
	now        func() time.Time
}

func NewRegistry(opts Options) *Registry {
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	maxPending := opts.MaxPending
	if maxPending <= 0 {
		maxPending = maxConcurrent * 16
	}
	retention := opts.Retention
	if retention <= 0 {
		retention = 15 * time.Minute
	}
	return &Registry{
		jobs:       make(map[string]*entry),
		sem:        make(chan struct{}, maxConcurrent),
		maxPending: maxPending,
		retention:  retention,
		logger:     infra.OrDiscard(opts.Logger),
		now:        time.Now,
	}
}

// Start registers a job and runs it in the background.
func (r *Registry) Start(kind Kind, run RunFunc) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return Snapshot{}, ErrShuttingDown
	}
	r.pruneLocked()
	if r.activeLocked() >= r.maxPending {
		return Snapshot{}, ErrTooManyJobs
	}
	ctx, cancel := context.WithCancel(context.Background())
	now := r.now()
	e := &entry{
		snap: Snapshot{
			ID:        uuid.NewString(),
			Kind:      kind,
			Status:    StatusPending,
			Progress:  "Waiting for a free slot",
			CreatedAt: now,
			UpdatedAt: now,
		},
		cancel: cancel,
	}
	r.jobs[e.snap.ID] = e
	r.wg.Add(1)
	go r.execute(ctx, e.snap.ID, run)
	return e.snap, nil
}

func (r *Registry) execute(ctx context.Context, id string, run RunFunc) {
	defer r.wg.Done()
	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-ctx.Done():
		r.finish(id, nil, ctx.Err())
		return
	}
	r.update(id, func(s *Snapshot) {
		s.Status = StatusRunning
		s.Progress = "Starting"
	})

	res, err := run(ctx, func(msg string) {
		r.update(id, func(s *Snapshot) { s.Progress = msg })
	})
	r.finish(id, res, err)
}

func (r *Registry) finish(id string, res *studio.Result, err error) {
	r.update(id, func(s *Snapshot) {
		switch {
		case err == nil:
			s.Status = StatusSucceeded
			s.Progress = "Done"
			s.Result = res
		case errors.Is(err, context.Canceled), errors.Is(err, taskapi.ErrCanceled):
			s.Status = StatusCanceled
			s.Progress = "Canceled"
			s.Err = err
		default:
			s.Status = StatusFailed
			s.Progress = "Failed"
			s.Err = err
		}
	})
	r.mu.Lock()
	if e, ok := r.jobs[id]; ok {
		e.cancel()
		r.logger.Info().
			Str("job_id", id).
			Str("kind", string(e.snap.Kind)).
			Str("status", string(e.snap.Status)).
			Dur("duration", e.snap.UpdatedAt.Sub(e.snap.CreatedAt)).
			Msg("jobs: job finished")
	}
	r.mu.Unlock()
}

func (r *Registry) update(id string, fn func(*Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.jobs[id]
	if !ok || e.snap.Status.Terminal() {
		return
	}
	fn(&e.snap)
	e.snap.UpdatedAt = r.now()
}

// Get returns the job state. Reading a terminal job removes it.
func (r *Registry) Get(id string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	e, ok := r.jobs[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	if e.snap.Status.Terminal() {
		delete(r.jobs, id)
	}
	return e.snap, nil
}

// Len returns the number of jobs held, finished or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// pruneLocked drops finished jobs nobody read within the retention window.
func (r *Registry) pruneLocked() int {
	cutoff := r.now().Add(-r.retention)
	dropped := 0
	for id, e := range r.jobs {
		if e.snap.Status.Terminal() && e.snap.UpdatedAt.Before(cutoff) {
			delete(r.jobs, id)
			dropped++
		}
	}
	if dropped > 0 {
		r.logger.Info().Int("dropped", dropped).Dur("retention", r.retention).Msg("jobs: expired unread results")
	}
	return dropped
}

// Cancel stops a pending or running job. The remote provider job, if any, is
// left to finish on its own.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if e.snap.Status.Terminal() {
		delete(r.jobs, id)
		return nil
	}
	e.cancel()
	return nil
}

// Active returns the number of non-terminal jobs.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeLocked()
}

func (r *Registry) activeLocked() int {
	n := 0
	for _, e := range r.jobs {
		if !e.snap.Status.Terminal() {
			n++
		}
	}
	return n
}

// Shutdown cancels every job and waits for the workers to return.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	for _, e := range r.jobs {
		e.cancel()
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
