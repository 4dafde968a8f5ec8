package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"image_providers": a.Studio.Editors(),
		"video":           a.Studio.VideoEnabled(),
		"active_jobs":     a.Jobs.Active(),
	})
}
