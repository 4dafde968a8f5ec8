package image

import (
	"context"
	"fmt"
	"time"

	"github.com/vidmase/bananina/internal/infra"
	"github.com/vidmase/bananina/internal/providers/taskapi"
)

const (
	DefaultKieEditModel = "google/nano-banana-edit"
	DefaultKieTextModel = "google/nano-banana"
)

// KieOptions configures the kie.ai nano-banana editor.
type KieOptions struct {
	APIKey       string
	BaseURL      string
	EditModel    string
	TextModel    string
	CallbackURL  string
	PollInterval time.Duration
	Timeout      time.Duration
	Client       taskapi.Options
	Logger       *infra.Logger
}

// KieEditor edits images through the kie.ai jobs API.
type KieEditor struct {
	client      *taskapi.Client
	editModel   string
	textModel   string
	callbackURL string
}

type kieInput struct {
	Prompt       string   `json:"prompt"`
	ImageURLs    []string `json:"image_urls,omitempty"`
	OutputFormat string   `json:"output_format"`
	ImageSize    string   `json:"image_size"`
}

type kieCreateTask struct {
	Model       string   `json:"model"`
	CallbackURL string   `json:"callBackUrl,omitempty"`
	Input       kieInput `json:"input"`
}

// NewKieEditor constructs the kie.ai editor.
func NewKieEditor(opts KieOptions) (*KieEditor, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.kie.ai"
	}
	profile := taskapi.KieJobsProfile("kie", baseURL)
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
	editor := &KieEditor{
		client:      client,
		editModel:   opts.EditModel,
		textModel:   opts.TextModel,
		callbackURL: opts.CallbackURL,
	}
	if editor.editModel == "" {
		editor.editModel = DefaultKieEditModel
	}
	if editor.textModel == "" {
		editor.textModel = DefaultKieTextModel
	}
	return editor, nil
}

func (k *KieEditor) Name() string { return "kie" }

// Submit validates req and creates one remote task.
func (k *KieEditor) Submit(ctx context.Context, req EditRequest) (string, error) {
	req, err := req.normalized()
	if err != nil {
		return "", fmt.Errorf("kie: %w", err)
	}
	model := k.editModel
	if len(req.ImageURLs) == 0 {
		model = k.textModel
	}
	return k.client.Submit(ctx, kieCreateTask{
		Model:       model,
		CallbackURL: k.callbackURL,
		Input: kieInput{
			Prompt:       req.Prompt,
			ImageURLs:    req.ImageURLs,
			OutputFormat: req.OutputFormat,
			ImageSize:    req.ImageSize,
		},
	})
}

func (k *KieEditor) Await(ctx context.Context, taskID string, opts taskapi.AwaitOptions) (*taskapi.Outcome, error) {
	return k.client.Await(ctx, taskID, opts)
}

var _ Editor = (*KieEditor)(nil)
