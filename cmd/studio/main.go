package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gabriel-vasile/mimetype"

	"github.com/vidmase/bananina/internal/bootstrap"
	"github.com/vidmase/bananina/internal/domain"
	"github.com/vidmase/bananina/internal/imagegen"
	"github.com/vidmase/bananina/internal/infra"
	"github.com/vidmase/bananina/internal/studio"
)

func main() {
	var (
		promptFlag   string
		imageFlag    string
		styleFlag    string
		providerFlag string
		categoryFlag string
		formatFlag   string
		ratioFlag    string
		qualityFlag  string
		videoFlag    bool
		outFlag      string
	)
	flag.StringVar(&promptFlag, "prompt", "", "edit or generation instruction")
	flag.StringVar(&imageFlag, "image", "", "input image: local path, http(s) URL or data URI")
	flag.StringVar(&styleFlag, "style", "", "style reference image (edits only)")
	flag.StringVar(&providerFlag, "provider", "", "image provider (kie or nanobanana)")
	flag.StringVar(&categoryFlag, "category", "", "edit category, e.g. portrait")
	flag.StringVar(&formatFlag, "format", "png", "output format for images (png or jpeg)")
	flag.StringVar(&ratioFlag, "ratio", "", "aspect ratio, e.g. 16:9 or portrait")
	flag.StringVar(&qualityFlag, "quality", "standard", "video quality (standard or hd)")
	flag.BoolVar(&videoFlag, "video", false, "generate a video instead of an image")
	flag.StringVar(&outFlag, "out", "", "output file (defaults to result.<ext>)")
	flag.Parse()

	if strings.TrimSpace(promptFlag) == "" {
		fmt.Fprintln(os.Stderr, "-prompt is required")
		os.Exit(2)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	components, err := bootstrap.Build(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("studio: wiring failed")
	}

	base, err := readImage(imageFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("studio: read image")
	}
	style, err := readImage(styleFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("studio: read style reference")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	progress := func(msg string) { fmt.Fprintln(os.Stderr, msg) }

	imageSize, ok := imagegen.ImageSize(ratioFlag)
	if !videoFlag && !ok {
		fmt.Fprintf(os.Stderr, "-ratio %q is not a supported image size\n", ratioFlag)
		os.Exit(2)
	}

	var res *studio.Result
	if videoFlag {
		res, err = components.Studio.GenerateVideo(ctx, studio.VideoRequest{
			Prompt:      promptFlag,
			Image:       base,
			AspectRatio: imagegen.NormalizeAspectRatio(ratioFlag),
			Quality:     qualityFlag,
		}, progress)
	} else {
		res, err = components.Studio.EditImage(ctx, studio.EditRequest{
			Provider:       providerFlag,
			Prompt:         promptFlag,
			Category:       categoryFlag,
			Image:          base,
			StyleReference: style,
			OutputFormat:   formatFlag,
			ImageSize:      imageSize,
		}, progress)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "canceled")
			os.Exit(130)
		}
		logger.Fatal().Err(err).Msg("studio: generation failed")
	}

	out := outFlag
	if out == "" {
		ext := ".bin"
		if m := mimetype.Lookup(res.Payload.MIMEType); m != nil {
			ext = m.Extension()
		}
		out = "result" + ext
	}
	if err := os.WriteFile(out, res.Payload.Data, 0o644); err != nil {
		logger.Fatal().Err(err).Msg("studio: write output")
	}
	logger.Info().
		Str("task_id", res.TaskID).
		Str("provider", res.Provider).
		Str("file", out).
		Msg("studio: saved result")
}

func readImage(ref string) (*domain.ImageRef, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"), domain.IsDataURI(ref):
		return &domain.ImageRef{URL: ref}, nil
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, err
	}
	return &domain.ImageRef{Payload: &domain.Payload{MIMEType: mimetype.Detect(data).String(), Data: data}}, nil
}
