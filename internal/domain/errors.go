package domain

import "errors"

var (
	ErrInvalidPrompt     = errors.New("invalid prompt")
	ErrMissingImage      = errors.New("missing input image")
	ErrInvalidPayload    = errors.New("invalid image payload")
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrInvalidTransition = errors.New("invalid job state transition")
)
