package domain

import (
	"errors"
	"testing"
	"time"
)

func TestJobAdvanceIsMonotonic(t *testing.T) {
	job := NewJob("task-1", "kie-image", time.Unix(0, 0))
	if job.State != JobStateQueued {
		t.Fatalf("initial state = %s, want queued", job.State)
	}
	if err := job.Advance(JobStateProcessing); err != nil {
		t.Fatalf("queued -> processing: %v", err)
	}
	if err := job.Advance(JobStateProcessing); err != nil {
		t.Fatalf("repeated processing should be accepted: %v", err)
	}
	if err := job.Advance(JobStateQueued); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("processing -> queued err = %v, want ErrInvalidTransition", err)
	}
	if err := job.Succeed([]string{"https://x/result.png"}); err != nil {
		t.Fatalf("processing -> success: %v", err)
	}
	if err := job.Fail("500", "late failure"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("success -> failed err = %v, want ErrInvalidTransition", err)
	}
	url, ok := job.Result()
	if !ok || url != "https://x/result.png" {
		t.Fatalf("Result() = %q, %v", url, ok)
	}
}

func TestJobResultOnlyTrustedOnSuccess(t *testing.T) {
	job := NewJob("task-2", "sora-text", time.Now())
	job.ResultURLs = []string{"https://x/partial.mp4"}
	if _, ok := job.Result(); ok {
		t.Fatalf("queued job must not expose a result")
	}
	if err := job.Fail("safety", "blocked"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if _, ok := job.Result(); ok {
		t.Fatalf("failed job must not expose a result")
	}
	if job.FailMessage != "blocked" {
		t.Fatalf("FailMessage = %q", job.FailMessage)
	}
}

func TestJobAdvanceRejectsUnknownState(t *testing.T) {
	job := NewJob("task-3", "kie-image", time.Now())
	if err := job.Advance(JobState("exploded")); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}
