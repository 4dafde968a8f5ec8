package bootstrap

import (
	"fmt"
	"net/http"
	"os"

	"github.com/vidmase/bananina/internal/decode"
	"github.com/vidmase/bananina/internal/infra"
	"github.com/vidmase/bananina/internal/providers/image"
	"github.com/vidmase/bananina/internal/providers/taskapi"
	"github.com/vidmase/bananina/internal/providers/video"
	"github.com/vidmase/bananina/internal/storage"
	"github.com/vidmase/bananina/internal/studio"
	"github.com/vidmase/bananina/internal/upload"
)

// Components are the long-lived collaborators shared by the binaries.
type Components struct {
	Studio  *studio.Service
	Store   *storage.FileStore
	Uploads *upload.Resolver
}

// Build wires providers, uploads and the pipeline from cfg. Providers without
// credentials are skipped.
func Build(cfg *infra.Config, logger *infra.Logger) (*Components, error) {
	logger = infra.OrDiscard(logger)
	clientOpts := taskapi.Options{
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
	}

	var editors []image.Editor
	if cfg.KieAPIKey != "" {
		kie, err := image.NewKieEditor(image.KieOptions{
			APIKey:       cfg.KieAPIKey,
			BaseURL:      cfg.KieBaseURL,
			EditModel:    cfg.KieImageModel,
			TextModel:    cfg.KieTextModel,
			CallbackURL:  cfg.CallbackURL,
			PollInterval: cfg.ImagePollInterval,
			Timeout:      cfg.ImageTimeout,
			Client:       clientOpts,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap: kie editor: %w", err)
		}
		editors = append(editors, kie)
	}
	if cfg.NanoBananaAPIKey != "" {
		nb, err := image.NewNanoBanana(image.NanoBananaOptions{
			APIKey:       cfg.NanoBananaAPIKey,
			BaseURL:      cfg.NanoBananaBaseURL,
			CallbackURL:  cfg.CallbackURL,
			PollInterval: cfg.ImagePollInterval,
			Timeout:      cfg.ImageTimeout,
			Client:       clientOpts,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap: nanobanana editor: %w", err)
		}
		editors = append(editors, nb)
	}

	var gen video.Generator
	if cfg.KieAPIKey != "" {
		sora, err := video.NewSora(video.Options{
			APIKey:       cfg.KieAPIKey,
			BaseURL:      cfg.KieBaseURL,
			TextModel:    cfg.SoraTextModel,
			ImageModel:   cfg.SoraImageModel,
			CallbackURL:  cfg.CallbackURL,
			PollInterval: cfg.VideoPollInterval,
			Timeout:      cfg.VideoTimeout,
			Client:       clientOpts,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap: sora: %w", err)
		}
		gen = sora
	}

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		return nil, err
	}
	entries := upload.DefaultEntries(upload.Keys{Imgbb: cfg.ImgbbAPIKey, FreeImage: cfg.FreeImageAPIKey})
	if cfg.UploadBackendsFile != "" {
		entries, err = upload.LoadFile(cfg.UploadBackendsFile, os.Getenv)
		if err != nil {
			return nil, err
		}
	}
	if !upload.IsPublicBaseURL(cfg.StorageBaseURL) {
		logger.Warn().
			Str("storage_base_url", cfg.StorageBaseURL).
			Msg("bootstrap: storage base url is not public, local upload backend disabled")
	}
	backends, err := upload.BuildBackends(entries, &http.Client{}, store, cfg.StorageBaseURL)
	if err != nil {
		return nil, err
	}
	resolver := upload.NewResolver(backends, upload.Options{AttemptTimeout: cfg.UploadTimeout, Logger: logger})

	defaultEditor := cfg.DefaultProvider
	if !hasEditor(editors, defaultEditor) {
		if len(editors) > 0 {
			logger.Warn().Str("provider", defaultEditor).Msg("bootstrap: default image provider has no credentials, using first configured")
		}
		defaultEditor = ""
	}
	svc, err := studio.NewService(studio.Options{
		Editors:       editors,
		DefaultEditor: defaultEditor,
		Video:         gen,
		Uploads:       resolver,
		Decoder:       decode.New(decode.Options{MaxBytes: cfg.MaxResultBytes, Logger: logger}),
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Info().
		Strs("image_providers", svc.Editors()).
		Bool("video", svc.VideoEnabled()).
		Strs("upload_backends", resolver.Backends()).
		Msg("bootstrap: pipeline ready")
	return &Components{Studio: svc, Store: store, Uploads: resolver}, nil
}

func hasEditor(editors []image.Editor, name string) bool {
	for _, e := range editors {
		if e.Name() == name {
			return true
		}
	}
	return false
}
