package image

import (
	"context"
	"fmt"
	"time"

	"github.com/vidmase/bananina/internal/infra"
	"github.com/vidmase/bananina/internal/providers/taskapi"
)

// The provider's enum values are spelled this way on the wire.
const (
	nanoBananaImageToImage = "IMAGETOIAMGE"
	nanoBananaTextToImage  = "TEXTTOIAMGE"
)

// NanoBananaOptions configures the nanobananaapi.ai editor.
type NanoBananaOptions struct {
	APIKey       string
	BaseURL      string
	CallbackURL  string
	PollInterval time.Duration
	Timeout      time.Duration
	Client       taskapi.Options
	Logger       *infra.Logger
}

// NanoBanana edits images through the dedicated Nano Banana API.
type NanoBanana struct {
	client      *taskapi.Client
	callbackURL string
}

type nanoBananaGenerate struct {
	Prompt      string   `json:"prompt"`
	Type        string   `json:"type"`
	ImageURLs   []string `json:"imageUrls,omitempty"`
	NumImages   int      `json:"numImages"`
	CallbackURL string   `json:"callBackUrl,omitempty"`
	ImageSize   string   `json:"image_size,omitempty"`
}

func NewNanoBanana(opts NanoBananaOptions) (*NanoBanana, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.nanobananaapi.ai"
	}
	profile := taskapi.NanoBananaProfile("nanobanana", baseURL)
	profile.PollInterval = opts.PollInterval
	profile.Timeout = opts.Timeout
	profile.ProgressLabel = "Editing image"

	clientOpts := opts.Client
	clientOpts.APIKey = opts.APIKey
	if clientOpts.Logger == nil {
		clientOpts.Logger = opts.Logger
	}
	client, err := taskapi.NewClient(profile, clientOpts)
	if err != nil {
		return nil, err
	}
	return &NanoBanana{client: client, callbackURL: opts.CallbackURL}, nil
}

func (n *NanoBanana) Name() string { return "nanobanana" }

// Submit validates req and creates one remote task. The output format is not
// configurable on this host.
func (n *NanoBanana) Submit(ctx context.Context, req EditRequest) (string, error) {
	req, err := req.normalized()
	if err != nil {
		return "", fmt.Errorf("nanobanana: %w", err)
	}
	body := nanoBananaGenerate{
		Prompt:      req.Prompt,
		Type:        nanoBananaTextToImage,
		NumImages:   1,
		CallbackURL: n.callbackURL,
	}
	if len(req.ImageURLs) > 0 {
		body.Type = nanoBananaImageToImage
		body.ImageURLs = req.ImageURLs
	}
	if req.ImageSize != "auto" {
		body.ImageSize = req.ImageSize
	}
	return n.client.Submit(ctx, body)
}

func (n *NanoBanana) Await(ctx context.Context, taskID string, opts taskapi.AwaitOptions) (*taskapi.Outcome, error) {
	return n.client.Await(ctx, taskID, opts)
}

var _ Editor = (*NanoBanana)(nil)
