package studio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vidmase/bananina/internal/decode"
	"github.com/vidmase/bananina/internal/domain"
	"github.com/vidmase/bananina/internal/imagegen"
	"github.com/vidmase/bananina/internal/infra"
	"github.com/vidmase/bananina/internal/providers/image"
	"github.com/vidmase/bananina/internal/providers/taskapi"
	"github.com/vidmase/bananina/internal/providers/video"
	"github.com/vidmase/bananina/internal/upload"
)

// ProgressFunc receives human-readable status lines while a request runs.
type ProgressFunc func(message string)

// EditRequest is an image edit or text-to-image intent.
type EditRequest struct {
	Provider       string
	Prompt         string
	Category       string
	Image          *domain.ImageRef
	StyleReference *domain.ImageRef
	OutputFormat   string
	ImageSize      string
}

// VideoRequest is a text-to-video or image-to-video intent.
type VideoRequest struct {
	Prompt      string
	Image       *domain.ImageRef
	AspectRatio string
	Quality     string
}

// Result is a materialized generation.
type Result struct {
	Provider  string
	TaskID    string
	Prompt    string
	SourceURL string
	Payload   domain.Payload
	Uploads   []domain.UploadedAsset
}

// Options wires the pipeline collaborators.
type Options struct {
	Editors       []image.Editor
	DefaultEditor string
	Video         video.Generator
	Uploads       *upload.Resolver
	Decoder       *decode.Decoder
	Logger        *infra.Logger
}

// Service runs compose, upload, submit, await and materialize in order.
type Service struct {
	editors       map[string]image.Editor
	defaultEditor string
	video         video.Generator
	uploads       *upload.Resolver
	decoder       *decode.Decoder
	logger        *infra.Logger
}

func NewService(opts Options) (*Service, error) {
	if opts.Uploads == nil || opts.Decoder == nil {
		return nil, errors.New("studio: upload resolver and decoder are required")
	}
	editors := make(map[string]image.Editor, len(opts.Editors))
	for _, e := range opts.Editors {
		if e != nil {
			editors[e.Name()] = e
		}
	}
	def := strings.ToLower(strings.TrimSpace(opts.DefaultEditor))
	if def == "" && len(opts.Editors) > 0 && opts.Editors[0] != nil {
		def = opts.Editors[0].Name()
	}
	if len(editors) > 0 {
		if _, ok := editors[def]; !ok {
			return nil, fmt.Errorf("studio: default editor %q: %w", def, domain.ErrUnknownProvider)
		}
	}
	return &Service{
		editors:       editors,
		defaultEditor: def,
		video:         opts.Video,
		uploads:       opts.Uploads,
		decoder:       opts.Decoder,
		logger:        infra.OrDiscard(opts.Logger),
	}, nil
}

// Editors lists the configured image providers.
func (s *Service) Editors() []string {
	names := make([]string, 0, len(s.editors))
	for name := range s.editors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VideoEnabled reports whether a video provider is configured.
func (s *Service) VideoEnabled() bool {
	return s.video != nil
}

// EditImage runs one image edit end to end.
func (s *Service) EditImage(ctx context.Context, req EditRequest, onProgress ProgressFunc) (*Result, error) {
	editor, err := s.editor(req.Provider)
	if err != nil {
		return nil, err
	}
	hasBase := req.Image != nil && !req.Image.IsZero()
	hasStyle := req.StyleReference != nil && !req.StyleReference.IsZero()
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.ErrInvalidPrompt
	}
	if hasStyle && !hasBase {
		return nil, fmt.Errorf("%w: a style reference needs an image to edit", domain.ErrMissingImage)
	}
	prompt := imagegen.Compose(req.Prompt, imagegen.EditContext{
		Target:            imagegen.TargetImage,
		HasBaseImage:      hasBase,
		HasStyleReference: hasStyle,
		Category:          req.Category,
	})

	// the composed prompt refers to the style reference as the first image
	var refs []domain.ImageRef
	if hasStyle {
		refs = append(refs, *req.StyleReference)
	}
	if hasBase {
		refs = append(refs, *req.Image)
	}
	urls, uploads, err := s.resolveAll(ctx, refs, onProgress)
	if err != nil {
		return nil, err
	}
	defer s.release(uploads)

	notify(onProgress, "Submitting edit to "+editor.Name())
	taskID, err := editor.Submit(ctx, image.EditRequest{
		Prompt:       prompt,
		ImageURLs:    urls,
		OutputFormat: req.OutputFormat,
		ImageSize:    req.ImageSize,
	})
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, editor.Name(), taskID, prompt, uploads, onProgress, editor.Await)
}

// GenerateVideo runs one video generation end to end.
func (s *Service) GenerateVideo(ctx context.Context, req VideoRequest, onProgress ProgressFunc) (*Result, error) {
	if s.video == nil {
		return nil, fmt.Errorf("studio: video: %w", domain.ErrUnknownProvider)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.ErrInvalidPrompt
	}
	hasImage := req.Image != nil && !req.Image.IsZero()
	prompt := imagegen.Compose(req.Prompt, imagegen.EditContext{
		Target:       imagegen.TargetVideo,
		HasBaseImage: hasImage,
	})

	var refs []domain.ImageRef
	if hasImage {
		refs = append(refs, *req.Image)
	}
	urls, uploads, err := s.resolveAll(ctx, refs, onProgress)
	if err != nil {
		return nil, err
	}
	defer s.release(uploads)

	notify(onProgress, "Submitting video job to "+s.video.Name())
	taskID, err := s.video.Submit(ctx, video.GenerateRequest{
		Prompt:      prompt,
		ImageURLs:   urls,
		AspectRatio: req.AspectRatio,
		Quality:     req.Quality,
	})
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, s.video.Name(), taskID, prompt, uploads, onProgress, s.video.Await)
}

type awaitFunc func(context.Context, string, taskapi.AwaitOptions) (*taskapi.Outcome, error)

func (s *Service) finish(ctx context.Context, provider, taskID, prompt string, uploads []domain.UploadedAsset, onProgress ProgressFunc, await awaitFunc) (*Result, error) {
	log := s.logger.With().Str("provider", provider).Str("task_id", taskID).Logger()
	log.Info().Msg("studio: job submitted")

	outcome, err := await(ctx, taskID, taskapi.AwaitOptions{
		OnProgress: func(p taskapi.Progress) { notify(onProgress, p.Message) },
	})
	if err != nil {
		log.Warn().Err(err).Msg("studio: job did not succeed")
		return nil, err
	}

	notify(onProgress, "Downloading result")
	payload, err := s.decoder.Materialize(ctx, outcome.URL)
	if err != nil {
		return nil, fmt.Errorf("studio: %w", err)
	}
	log.Info().Str("mime", payload.MIMEType).Int("bytes", len(payload.Data)).Msg("studio: result ready")
	return &Result{
		Provider:  provider,
		TaskID:    taskID,
		Prompt:    prompt,
		SourceURL: outcome.URL,
		Payload:   payload,
		Uploads:   uploads,
	}, nil
}

// resolveAll exposes every reference concurrently and returns URLs in input
// order. Plain http(s) references are passed through without uploading.
func (s *Service) resolveAll(ctx context.Context, refs []domain.ImageRef, onProgress ProgressFunc) ([]string, []domain.UploadedAsset, error) {
	if len(refs) == 0 {
		return nil, nil, nil
	}
	urls := make([]string, len(refs))
	assets := make([]*domain.UploadedAsset, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			payload, direct, err := payloadFor(ref)
			if err != nil {
				return err
			}
			if direct != "" {
				urls[i] = direct
				return nil
			}
			notify(onProgress, "Uploading image")
			res := s.uploads.Resolve(gctx, payload)
			urls[i] = res.URL
			asset := res.Asset(payload)
			assets[i] = &asset
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var uploads []domain.UploadedAsset
	for _, a := range assets {
		if a != nil {
			uploads = append(uploads, *a)
		}
	}
	return urls, uploads, nil
}

// release drops uploads kept by this service once the provider is done with
// them. It runs on a fresh context so a canceled job still cleans up.
func (s *Service) release(uploads []domain.UploadedAsset) {
	if len(uploads) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.uploads.Release(ctx, uploads)
}

func payloadFor(ref domain.ImageRef) (domain.Payload, string, error) {
	if ref.Payload != nil && len(ref.Payload.Data) > 0 {
		return *ref.Payload, "", nil
	}
	u := strings.TrimSpace(ref.URL)
	if domain.IsDataURI(u) {
		p, err := domain.ParseDataURI(u)
		return p, "", err
	}
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return domain.Payload{}, u, nil
	}
	return domain.Payload{}, "", fmt.Errorf("%w: unsupported image reference", domain.ErrInvalidPayload)
}

func (s *Service) editor(name string) (image.Editor, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = s.defaultEditor
	}
	e, ok := s.editors[name]
	if !ok {
		return nil, fmt.Errorf("studio: image provider %q: %w", name, domain.ErrUnknownProvider)
	}
	return e, nil
}

func notify(fn ProgressFunc, msg string) {
	if fn != nil && msg != "" {
		fn(msg)
	}
}
