package domain

import (
	"fmt"
	"time"
)

// JobState enumerates the lifecycle states of a remote provider job.
type JobState string

const (
	JobStateQueued     JobState = "queued"
	JobStateProcessing JobState = "processing"
	JobStateSuccess    JobState = "success"
	JobStateFailed     JobState = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s JobState) Terminal() bool {
	return s == JobStateSuccess || s == JobStateFailed
}

func (s JobState) rank() int {
	switch s {
	case JobStateQueued:
		return 0
	case JobStateProcessing:
		return 1
	case JobStateSuccess, JobStateFailed:
		return 2
	default:
		return -1
	}
}

// Job tracks a single provider-side task from submission until its terminal
// state has been consumed.
type Job struct {
	ID          string
	Provider    string
	State       JobState
	CreatedAt   time.Time
	FailCode    string
	FailMessage string
	ResultURLs  []string
}

// NewJob returns a queued job for the provider-assigned task id.
func NewJob(id, provider string, now time.Time) *Job {
	return &Job{ID: id, Provider: provider, State: JobStateQueued, CreatedAt: now}
}

// Advance moves the job forward. States never go backward and terminal states
// are final; a repeated report of the current state is accepted.
func (j *Job) Advance(next JobState) error {
	if next.rank() < 0 {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, next)
	}
	if j.State == next {
		return nil
	}
	if j.State.Terminal() || next.rank() < j.State.rank() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.State, next)
	}
	j.State = next
	return nil
}

// Succeed marks the job successful with the given result references.
func (j *Job) Succeed(urls []string) error {
	if err := j.Advance(JobStateSuccess); err != nil {
		return err
	}
	j.ResultURLs = append([]string(nil), urls...)
	return nil
}

// Fail marks the job failed and records the provider diagnosis.
func (j *Job) Fail(code, message string) error {
	if err := j.Advance(JobStateFailed); err != nil {
		return err
	}
	j.FailCode = code
	j.FailMessage = message
	return nil
}

// Result returns the first result reference. It only reports ok once the job
// has succeeded.
func (j *Job) Result() (string, bool) {
	if j.State != JobStateSuccess || len(j.ResultURLs) == 0 {
		return "", false
	}
	return j.ResultURLs[0], true
}
