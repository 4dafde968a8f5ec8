package handlers

import (
	"context"
	"net/http"

	"github.com/vidmase/bananina/internal/domain/jsoncfg"
	"github.com/vidmase/bananina/internal/imagegen"
	"github.com/vidmase/bananina/internal/jobs"
	"github.com/vidmase/bananina/internal/studio"
)

func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	if !a.Studio.VideoEnabled() {
		a.error(w, http.StatusNotImplemented, "unavailable", "video generation is not configured")
		return
	}
	var req jsoncfg.VideoRequestJSON
	if !a.decode(w, r, &req) {
		return
	}
	req.Normalize()
	if req.AspectRatio != jsoncfg.DefaultVideoAspectRatio {
		req.AspectRatio = imagegen.NormalizeAspectRatio(req.AspectRatio)
	}
	if err := req.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	img, err := imageRef(req.Image)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image: "+err.Error())
		return
	}

	gen := studio.VideoRequest{
		Prompt:      req.Prompt,
		Image:       img,
		AspectRatio: req.AspectRatio,
		Quality:     req.Quality,
	}
	a.start(w, jobs.KindVideo, func(ctx context.Context, progress studio.ProgressFunc) (*studio.Result, error) {
		return a.Studio.GenerateVideo(ctx, gen, progress)
	})
}
