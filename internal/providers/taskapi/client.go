package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vidmase/bananina/internal/infra"
)

const maxEnvelopeBytes = 4 << 20

// Options configures a Client.
type Options struct {
	APIKey         string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client speaks the submit/poll protocol of a single provider profile.
// A Client holds no per-job state and may be shared by concurrent jobs.
type Client struct {
	profile    Profile
	apiKey     string
	httpClient *http.Client
	logger     *infra.Logger
	now        func() time.Time
}

// NewClient validates the profile and wires the injected credentials.
func NewClient(profile Profile, opts Options) (*Client, error) {
	profile = profile.withDefaults()
	if err := profile.validate(); err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %w", profile.Name, ErrMissingAPIKey)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		profile:    profile,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     infra.OrDiscard(opts.Logger),
		now:        time.Now,
	}, nil
}

// Profile returns the effective provider profile.
func (c *Client) Profile() Profile {
	return c.profile
}

// Submit posts the provider-specific body once and returns the task id.
func (c *Client) Submit(ctx context.Context, body any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", c.profile.Name, err)
	}
	endpoint := c.profile.BaseURL + c.profile.CreatePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", c.profile.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	env, err := c.do(req)
	if err != nil {
		return "", err
	}
	var ack taskAck
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &ack); err != nil {
			return "", fmt.Errorf("%s: decode acknowledgement: %w", c.profile.Name, err)
		}
	}
	taskID := strings.TrimSpace(ack.TaskID)
	if taskID == "" {
		return "", fmt.Errorf("%s: %w", c.profile.Name, ErrNoTaskID)
	}
	c.logger.Debug().
		Str("provider", c.profile.Name).
		Str("task_id", taskID).
		Msg("taskapi: job submitted")
	return taskID, nil
}

// Status queries the provider once for the state of taskID.
func (c *Client) Status(ctx context.Context, taskID string) (Status, error) {
	q := url.Values{}
	q.Set(c.profile.TaskIDParam, taskID)
	endpoint := c.profile.BaseURL + c.profile.StatusPath + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Status{}, fmt.Errorf("%s: build status request: %w", c.profile.Name, err)
	}
	env, err := c.do(req)
	if err != nil {
		return Status{}, err
	}
	st, err := c.profile.DecodeStatus(env.Data)
	if err != nil {
		return st, fmt.Errorf("%s: task %s: %w", c.profile.Name, taskID, err)
	}
	return st, nil
}

func (c *Client) do(req *http.Request) (envelope, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("%s: http request: %w", c.profile.Name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeBytes))
	if err != nil {
		return envelope{}, fmt.Errorf("%s: read response: %w", c.profile.Name, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		code := strconv.Itoa(resp.StatusCode)
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && env.text() != "" {
			msg = env.text()
			if env.Code != "" {
				code = string(env.Code)
			}
		}
		return envelope{}, c.providerError(resp.StatusCode, code, msg)
	}
	if decodeErr != nil {
		return envelope{}, fmt.Errorf("%s: decode response: %w", c.profile.Name, decodeErr)
	}
	if string(env.Code) != c.profile.OKCode {
		return envelope{}, c.providerError(resp.StatusCode, string(env.Code), env.text())
	}
	return env, nil
}

func (c *Client) providerError(status int, code, message string) error {
	if code == "" {
		code = "unknown"
	}
	cls := c.profile.Classify(code, message)
	c.logger.Warn().
		Str("provider", c.profile.Name).
		Int("http_status", status).
		Str("code", code).
		Str("kind", string(cls.Kind)).
		Msg("taskapi: provider rejected request")
	return &ProviderError{Provider: c.profile.Name, HTTPStatus: status, Classification: cls}
}

// IsKind reports whether err carries a classification of the given kind.
func IsKind(err error, kind Kind) bool {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Classification.Kind == kind
	}
	var ferr *JobFailedError
	if errors.As(err, &ferr) {
		return ferr.Kind == kind
	}
	return false
}
