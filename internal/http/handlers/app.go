package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vidmase/bananina/internal/domain"
	"github.com/vidmase/bananina/internal/infra"
	"github.com/vidmase/bananina/internal/jobs"
	"github.com/vidmase/bananina/internal/providers/taskapi"
	"github.com/vidmase/bananina/internal/studio"
)

const maxBodyBytes = 32 << 20

// Studio is the generation pipeline used by the handlers.
type Studio interface {
	EditImage(ctx context.Context, req studio.EditRequest, onProgress studio.ProgressFunc) (*studio.Result, error)
	GenerateVideo(ctx context.Context, req studio.VideoRequest, onProgress studio.ProgressFunc) (*studio.Result, error)
	Editors() []string
	VideoEnabled() bool
}

type App struct {
	Studio Studio
	Jobs   *jobs.Registry
	Logger *infra.Logger
}

func NewApp(s Studio, registry *jobs.Registry, logger *infra.Logger) *App {
	return &App{Studio: s, Jobs: registry, Logger: infra.OrDiscard(logger)}
}

type errorBody struct {
	Code      string `json:"code"`
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
			return false
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

// describeError maps a pipeline error onto the API error shape.
func describeError(err error) errorBody {
	body := errorBody{Code: "internal", Message: err.Error()}
	var perr *taskapi.ProviderError
	var ferr *taskapi.JobFailedError
	switch {
	case errors.As(err, &ferr):
		body.Code = "generation_failed"
		body.Kind = string(ferr.Kind)
		body.Message = ferr.Error()
	case errors.As(err, &perr):
		body.Code = "provider_error"
		body.Kind = string(perr.Kind())
		body.Message = perr.Error()
	case errors.Is(err, taskapi.ErrTimeout):
		body.Code = "timeout"
	case errors.Is(err, taskapi.ErrCanceled), errors.Is(err, context.Canceled):
		body.Code = "canceled"
	case errors.Is(err, domain.ErrInvalidPrompt),
		errors.Is(err, domain.ErrMissingImage),
		errors.Is(err, domain.ErrInvalidPayload):
		body.Code = "invalid_input"
		body.Kind = string(taskapi.KindInvalidInput)
	case errors.Is(err, domain.ErrUnknownProvider):
		body.Code = "unknown_provider"
	case errors.Is(err, taskapi.ErrNoResult), errors.Is(err, taskapi.ErrResultDecode):
		body.Code = "bad_result"
	}
	body.Retryable = errors.Is(err, taskapi.ErrTimeout) ||
		taskapi.IsKind(err, taskapi.KindRateLimit) ||
		taskapi.IsKind(err, taskapi.KindServer)
	return body
}

func (a *App) start(w http.ResponseWriter, kind jobs.Kind, run jobs.RunFunc) {
	snap, err := a.Jobs.Start(kind, run)
	switch {
	case errors.Is(err, jobs.ErrTooManyJobs):
		a.error(w, http.StatusServiceUnavailable, "busy", "too many jobs in flight, retry later")
		return
	case err != nil:
		a.error(w, http.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}
	a.Logger.Info().Str("job_id", snap.ID).Str("kind", string(kind)).Msg("http: job accepted")
	w.Header().Set("Location", "/v1/jobs/"+snap.ID)
	a.json(w, http.StatusAccepted, map[string]string{"job_id": snap.ID, "status": string(snap.Status)})
}
