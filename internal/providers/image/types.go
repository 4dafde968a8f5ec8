package image

import (
	"context"
	"fmt"
	"strings"

	"github.com/vidmase/bananina/internal/domain"
	"github.com/vidmase/bananina/internal/providers/taskapi"
)

// Output formats accepted by the edit providers.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// EditRequest describes a normalized image edit passed to any provider.
// ImageURLs must already be publicly reachable; an empty list means
// text-to-image.
type EditRequest struct {
	Prompt       string
	ImageURLs    []string
	OutputFormat string
	ImageSize    string
}

// Editor is the contract implemented by all image-edit providers.
type Editor interface {
	Name() string
	Submit(ctx context.Context, req EditRequest) (string, error)
	Await(ctx context.Context, taskID string, opts taskapi.AwaitOptions) (*taskapi.Outcome, error)
}

func (r EditRequest) normalized() (EditRequest, error) {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.Prompt == "" {
		return r, domain.ErrInvalidPrompt
	}
	urls := make([]string, 0, len(r.ImageURLs))
	for _, u := range r.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	r.ImageURLs = urls
	switch strings.ToLower(strings.TrimSpace(r.OutputFormat)) {
	case "", FormatPNG:
		r.OutputFormat = FormatPNG
	case FormatJPEG, "jpg":
		r.OutputFormat = FormatJPEG
	default:
		return r, fmt.Errorf("unsupported output format %q", r.OutputFormat)
	}
	r.ImageSize = strings.TrimSpace(r.ImageSize)
	if r.ImageSize == "" {
		r.ImageSize = "auto"
	}
	return r, nil
}
