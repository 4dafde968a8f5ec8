package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vidmase/bananina/internal/jobs"
	"github.com/vidmase/bananina/internal/upload"
)

type failedUploadView struct {
	Backend string `json:"backend"`
	Error   string `json:"error"`
}

type uploadView struct {
	Backend string             `json:"backend"`
	URL     string             `json:"url,omitempty"`
	Inline  bool               `json:"inline,omitempty"`
	Failed  []failedUploadView `json:"failed,omitempty"`
}

type resultView struct {
	TaskID    string       `json:"task_id"`
	Provider  string       `json:"provider"`
	Prompt    string       `json:"prompt"`
	SourceURL string       `json:"source_url"`
	MIMEType  string       `json:"mime_type"`
	DataURI   string       `json:"data_uri"`
	Uploads   []uploadView `json:"uploads,omitempty"`
}

type jobView struct {
	ID        string      `json:"job_id"`
	Kind      string      `json:"kind"`
	Status    string      `json:"status"`
	Progress  string      `json:"progress"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Result    *resultView `json:"result,omitempty"`
	Error     *errorBody  `json:"error,omitempty"`
}

// JobStatus reports progress. A terminal job is returned once and then
// forgotten.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "job_id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	snap, err := a.Jobs.Get(id)
	if errors.Is(err, jobs.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	a.json(w, http.StatusOK, viewOf(snap))
}

// JobCancel stops a job locally. Remote provider work is not recalled.
func (a *App) JobCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "job_id")
	if err := a.Jobs.Cancel(id); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func viewOf(s jobs.Snapshot) jobView {
	v := jobView{
		ID:        s.ID,
		Kind:      string(s.Kind),
		Status:    string(s.Status),
		Progress:  s.Progress,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Err != nil {
		body := describeError(s.Err)
		v.Error = &body
	}
	if res := s.Result; res != nil {
		rv := &resultView{
			TaskID:    res.TaskID,
			Provider:  res.Provider,
			Prompt:    res.Prompt,
			SourceURL: res.SourceURL,
			MIMEType:  res.Payload.MIMEType,
			DataURI:   res.Payload.DataURI(),
		}
		for _, u := range res.Uploads {
			view := uploadView{Backend: u.Backend, URL: u.URL}
			if u.Backend == upload.InlineBackend {
				view = uploadView{Backend: u.Backend, Inline: true}
			}
			for _, f := range u.Failed {
				view.Failed = append(view.Failed, failedUploadView{Backend: f.Backend, Error: f.Reason})
			}
			rv.Uploads = append(rv.Uploads, view)
		}
		v.Result = rv
	}
	return v
}
