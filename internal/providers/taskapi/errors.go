package taskapi

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey indicates that the client was configured without credentials.
	ErrMissingAPIKey = errors.New("api key is required")
	ErrNoTaskID      = errors.New("no task id returned")
	ErrNoResult      = errors.New("job completed but returned no result")
	ErrResultDecode  = errors.New("decode job result")
	ErrJobFailed     = errors.New("job failed")
	ErrTimeout       = errors.New("timed out waiting for job")
	ErrCanceled      = errors.New("job polling canceled")
)

// ProviderError is a transport-level or acknowledgement-level rejection that
// has been run through the classifier.
type ProviderError struct {
	Provider       string
	HTTPStatus     int
	Classification Classification
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Classification.Message)
}

// Kind exposes the classified category.
func (e *ProviderError) Kind() Kind {
	return e.Classification.Kind
}

// JobFailedError reports a job that reached the provider's failed state.
type JobFailedError struct {
	Provider string
	TaskID   string
	Code     string
	Message  string
	Kind     Kind
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("%s: generation failed: %s", e.Provider, e.Message)
}

func (e *JobFailedError) Unwrap() error {
	return ErrJobFailed
}
