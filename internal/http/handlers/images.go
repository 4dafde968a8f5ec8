package handlers

import (
	"context"
	"net/http"
	"slices"

	"github.com/vidmase/bananina/internal/domain"
	"github.com/vidmase/bananina/internal/domain/jsoncfg"
	"github.com/vidmase/bananina/internal/imagegen"
	"github.com/vidmase/bananina/internal/jobs"
	"github.com/vidmase/bananina/internal/studio"
)

func (a *App) ImagesEdit(w http.ResponseWriter, r *http.Request) {
	var req jsoncfg.EditRequestJSON
	if !a.decode(w, r, &req) {
		return
	}
	req.Normalize()
	if token, ok := imagegen.ImageSize(req.ImageSize); ok {
		req.ImageSize = token
	}
	if err := req.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.Provider != "" && !slices.Contains(a.Studio.Editors(), req.Provider) {
		a.error(w, http.StatusBadRequest, "unknown_provider", "unsupported provider "+req.Provider)
		return
	}
	base, err := imageRef(req.Image)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image: "+err.Error())
		return
	}
	style, err := imageRef(req.StyleReference)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "style_reference: "+err.Error())
		return
	}

	edit := studio.EditRequest{
		Provider:       req.Provider,
		Prompt:         req.Prompt,
		Category:       req.Category,
		Image:          base,
		StyleReference: style,
		OutputFormat:   req.OutputFormat,
		ImageSize:      req.ImageSize,
	}
	a.start(w, jobs.KindImage, func(ctx context.Context, progress studio.ProgressFunc) (*studio.Result, error) {
		return a.Studio.EditImage(ctx, edit, progress)
	})
}

// imageRef converts the wire form. Data URIs are decoded here so malformed
// input is rejected before a job is created.
func imageRef(in *jsoncfg.ImageInput) (*domain.ImageRef, error) {
	if in.IsZero() {
		return nil, nil
	}
	if in.DataURI != "" {
		p, err := domain.ParseDataURI(in.DataURI)
		if err != nil {
			return nil, err
		}
		return &domain.ImageRef{Payload: &p}, nil
	}
	if domain.IsDataURI(in.URL) {
		p, err := domain.ParseDataURI(in.URL)
		if err != nil {
			return nil, err
		}
		return &domain.ImageRef{Payload: &p}, nil
	}
	return &domain.ImageRef{URL: in.URL}, nil
}
