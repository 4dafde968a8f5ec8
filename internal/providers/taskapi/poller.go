package taskapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vidmase/bananina/internal/domain"
)

// Progress is reported once per non-terminal poll.
type Progress struct {
	Provider string
	TaskID   string
	State    domain.JobState
	Attempt  int
	Elapsed  time.Duration
	Message  string
}

// ProgressFunc receives progress updates from the poll loop.
type ProgressFunc func(Progress)

// AwaitOptions overrides the profile polling defaults.
type AwaitOptions struct {
	MaxWait    time.Duration
	Interval   time.Duration
	OnProgress ProgressFunc
}

// Outcome is the terminal, successful result of a job.
type Outcome struct {
	Job *domain.Job
	URL string
}

// Await polls taskID until it succeeds, fails, times out or ctx is canceled.
// Only a successful job yields an Outcome. Timeout leaves the remote job's fate
// unknown; nothing is sent to the provider to cancel it.
func (c *Client) Await(ctx context.Context, taskID string, opts AwaitOptions) (*Outcome, error) {
	maxWait := opts.MaxWait
	if maxWait <= 0 {
		maxWait = c.profile.Timeout
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = c.profile.PollInterval
	}

	start := c.now()
	job := domain.NewJob(taskID, c.profile.Name, start)
	pollCtx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	for attempt := 1; ; attempt++ {
		st, err := c.Status(pollCtx, taskID)
		if err != nil {
			if stop := c.stopReason(ctx, pollCtx, taskID, maxWait); stop != nil {
				return nil, stop
			}
			return nil, err
		}

		switch st.State {
		case domain.JobStateSuccess:
			if len(st.URLs) == 0 {
				return nil, fmt.Errorf("%s: task %s: %w", c.profile.Name, taskID, ErrNoResult)
			}
			if err := job.Succeed(st.URLs); err != nil {
				return nil, err
			}
			url, _ := job.Result()
			c.logger.Info().
				Str("provider", c.profile.Name).
				Str("task_id", taskID).
				Int("attempts", attempt).
				Dur("elapsed", c.now().Sub(start)).
				Msg("taskapi: job succeeded")
			return &Outcome{Job: job, URL: url}, nil
		case domain.JobStateFailed:
			_ = job.Fail(st.FailCode, st.FailMessage)
			return nil, c.failure(taskID, st)
		default:
			if err := job.Advance(st.State); err != nil {
				c.logger.Debug().Err(err).Str("task_id", taskID).Msg("taskapi: ignoring out-of-order state")
			}
		}

		elapsed := c.now().Sub(start)
		if elapsed >= maxWait {
			return nil, c.timeout(taskID, maxWait)
		}
		if opts.OnProgress != nil {
			opts.OnProgress(Progress{
				Provider: c.profile.Name,
				TaskID:   taskID,
				State:    job.State,
				Attempt:  attempt,
				Elapsed:  elapsed,
				Message:  progressMessage(c.profile.ProgressLabel, job.State, elapsed),
			})
		}

		wait := interval
		if remaining := maxWait - elapsed; remaining < wait {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-pollCtx.Done():
			timer.Stop()
			return nil, c.stopReason(ctx, pollCtx, taskID, maxWait)
		case <-timer.C:
		}
	}
}

func (c *Client) stopReason(parent, pollCtx context.Context, taskID string, maxWait time.Duration) error {
	if err := parent.Err(); err != nil {
		return fmt.Errorf("%s: task %s: %w: %w", c.profile.Name, taskID, ErrCanceled, err)
	}
	if errors.Is(pollCtx.Err(), context.DeadlineExceeded) {
		return c.timeout(taskID, maxWait)
	}
	return nil
}

func (c *Client) timeout(taskID string, maxWait time.Duration) error {
	c.logger.Warn().
		Str("provider", c.profile.Name).
		Str("task_id", taskID).
		Dur("max_wait", maxWait).
		Msg("taskapi: job timed out, remote outcome unknown")
	return fmt.Errorf("%s: task %s: %w after %s", c.profile.Name, taskID, ErrTimeout, maxWait)
}

func (c *Client) failure(taskID string, st Status) error {
	msg := st.FailMessage
	if msg == "" {
		msg = "provider reported failure without a message"
	}
	kind := KindUnknown
	if st.FailCode != "" {
		kind = c.profile.Classify(st.FailCode, msg).Kind
	}
	if c.profile.Rewrite != nil {
		if rewritten, k, ok := c.profile.Rewrite(msg); ok {
			msg, kind = rewritten, k
		}
	}
	c.logger.Warn().
		Str("provider", c.profile.Name).
		Str("task_id", taskID).
		Str("fail_code", st.FailCode).
		Str("kind", string(kind)).
		Msg("taskapi: job failed")
	return &JobFailedError{
		Provider: c.profile.Name,
		TaskID:   taskID,
		Code:     st.FailCode,
		Message:  msg,
		Kind:     kind,
	}
}

func progressMessage(label string, state domain.JobState, elapsed time.Duration) string {
	return fmt.Sprintf("%s... %s elapsed (%s)", label, elapsed.Round(time.Second), state)
}
