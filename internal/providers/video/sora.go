package video

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vidmase/bananina/internal/domain"
	"github.com/vidmase/bananina/internal/infra"
	"github.com/vidmase/bananina/internal/providers/taskapi"
)

const (
	DefaultTextModel  = "sora-2-text-to-video"
	DefaultImageModel = "sora-2-image-to-video"

	AspectLandscape = "landscape"
	AspectPortrait  = "portrait"
	QualityStandard = "standard"
	QualityHD       = "hd"

	defaultPollInterval = 5 * time.Second
	defaultTimeout      = 900 * time.Second
)

// GenerateRequest describes a text-to-video or image-to-video job. A request
// with ImageURLs is image-to-video.
type GenerateRequest struct {
	Prompt      string
	ImageURLs   []string
	AspectRatio string
	Quality     string
}

// ImageToVideo reports whether the request animates an input image.
func (r GenerateRequest) ImageToVideo() bool {
	return len(r.ImageURLs) > 0
}

// Generator is the contract implemented by video providers.
type Generator interface {
	Name() string
	Submit(ctx context.Context, req GenerateRequest) (string, error)
	Await(ctx context.Context, taskID string, opts taskapi.AwaitOptions) (*taskapi.Outcome, error)
}

// Options configures the Sora 2 client.
type Options struct {
	APIKey       string
	BaseURL      string
	TextModel    string
	ImageModel   string
	CallbackURL  string
	PollInterval time.Duration
	Timeout      time.Duration
	Client       taskapi.Options
	Logger       *infra.Logger
}

// Sora generates videos with Sora 2 on the kie.ai jobs API.
type Sora struct {
	client      *taskapi.Client
	textModel   string
	imageModel  string
	callbackURL string
}

type soraInput struct {
	Prompt      string   `json:"prompt"`
	ImageURLs   []string `json:"image_urls,omitempty"`
	AspectRatio string   `json:"aspect_ratio"`
	Quality     string   `json:"quality"`
}

type soraCreateTask struct {
	Model       string    `json:"model"`
	CallbackURL string    `json:"callBackUrl,omitempty"`
	Input       soraInput `json:"input"`
}

func NewSora(opts Options) (*Sora, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.kie.ai"
	}
	profile := taskapi.KieJobsProfile("sora", baseURL)
	profile.PollInterval = opts.PollInterval
	if profile.PollInterval <= 0 {
		profile.PollInterval = defaultPollInterval
	}
	profile.Timeout = opts.Timeout
	if profile.Timeout <= 0 {
		profile.Timeout = defaultTimeout
	}
	profile.ProgressLabel = "Generating video"
	profile.Rewrite = RewriteSafetyFailure

	clientOpts := opts.Client
	clientOpts.APIKey = opts.APIKey
	if clientOpts.Logger == nil {
		clientOpts.Logger = opts.Logger
	}
	client, err := taskapi.NewClient(profile, clientOpts)
	if err != nil {
		return nil, err
	}
	s := &Sora{
		client:      client,
		textModel:   opts.TextModel,
		imageModel:  opts.ImageModel,
		callbackURL: opts.CallbackURL,
	}
	if s.textModel == "" {
		s.textModel = DefaultTextModel
	}
	if s.imageModel == "" {
		s.imageModel = DefaultImageModel
	}
	return s, nil
}

func (s *Sora) Name() string { return "sora" }

// Submit validates req, applies defaults and creates one remote task.
func (s *Sora) Submit(ctx context.Context, req GenerateRequest) (string, error) {
	body, err := s.buildTask(req)
	if err != nil {
		return "", fmt.Errorf("sora: %w", err)
	}
	return s.client.Submit(ctx, body)
}

func (s *Sora) Await(ctx context.Context, taskID string, opts taskapi.AwaitOptions) (*taskapi.Outcome, error) {
	return s.client.Await(ctx, taskID, opts)
}

func (s *Sora) buildTask(req GenerateRequest) (soraCreateTask, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return soraCreateTask{}, domain.ErrInvalidPrompt
	}
	aspect, err := normalizeChoice(req.AspectRatio, AspectLandscape, AspectLandscape, AspectPortrait)
	if err != nil {
		return soraCreateTask{}, fmt.Errorf("aspect ratio: %w", err)
	}
	quality, err := normalizeChoice(req.Quality, QualityStandard, QualityStandard, QualityHD)
	if err != nil {
		return soraCreateTask{}, fmt.Errorf("quality: %w", err)
	}

	var urls []string
	for _, u := range req.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	model := s.textModel
	if len(req.ImageURLs) > 0 {
		if len(urls) == 0 {
			return soraCreateTask{}, domain.ErrMissingImage
		}
		model = s.imageModel
	}
	return soraCreateTask{
		Model:       model,
		CallbackURL: s.callbackURL,
		Input: soraInput{
			Prompt:      prompt,
			ImageURLs:   urls,
			AspectRatio: aspect,
			Quality:     quality,
		},
	}, nil
}

func normalizeChoice(value, fallback string, allowed ...string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback, nil
	}
	for _, a := range allowed {
		if value == a {
			return value, nil
		}
	}
	return "", fmt.Errorf("unsupported value %q", value)
}

var _ Generator = (*Sora)(nil)
