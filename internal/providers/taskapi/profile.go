package taskapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/vidmase/bananina/internal/domain"
)

// Status is one observation of a remote job.
type Status struct {
	State       domain.JobState
	RawState    string
	FailCode    string
	FailMessage string
	URLs        []string
}

// StatusDecoder turns the provider's status payload into a Status. Result
// references must only be decoded when the provider reports success.
type StatusDecoder func(data json.RawMessage) (Status, error)

// FailureRewriter optionally rewrites a terminal failure message and its kind.
type FailureRewriter func(message string) (string, Kind, bool)

// Profile captures everything that differs between providers speaking the
// submit/poll protocol.
type Profile struct {
	Name          string
	BaseURL       string
	CreatePath    string
	StatusPath    string
	TaskIDParam   string
	OKCode        string
	PollInterval  time.Duration
	Timeout       time.Duration
	ProgressLabel string
	ExtraCodes    map[int]CodeEntry
	DecodeStatus  StatusDecoder
	Rewrite       FailureRewriter
}

// Classify maps a code using the provider-specific table first.
func (p Profile) Classify(code, message string) Classification {
	return classify(p.ExtraCodes, code, message)
}

func (p Profile) withDefaults() Profile {
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if p.TaskIDParam == "" {
		p.TaskIDParam = "taskId"
	}
	if p.OKCode == "" {
		p.OKCode = "200"
	}
	if p.PollInterval <= 0 {
		p.PollInterval = 2 * time.Second
	}
	if p.Timeout <= 0 {
		p.Timeout = 60 * time.Second
	}
	if p.ProgressLabel == "" {
		p.ProgressLabel = "Processing"
	}
	return p
}

func (p Profile) validate() error {
	switch {
	case p.Name == "":
		return errors.New("taskapi: profile name is required")
	case p.BaseURL == "":
		return errors.New("taskapi: profile base url is required")
	case p.CreatePath == "" || p.StatusPath == "":
		return errors.New("taskapi: profile endpoints are required")
	case p.DecodeStatus == nil:
		return errors.New("taskapi: profile status decoder is required")
	}
	return nil
}

// Code is a provider code that may arrive as a JSON number or string.
type Code string

func (c *Code) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Code(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = Code(n.String())
	return nil
}

type envelope struct {
	Code    Code            `json:"code"`
	Msg     string          `json:"msg"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) text() string {
	if m := strings.TrimSpace(e.Msg); m != "" {
		return m
	}
	return strings.TrimSpace(e.Message)
}

type taskAck struct {
	TaskID string `json:"taskId"`
}
