package jsoncfg

import (
	"fmt"
	"strings"
)

// ImageInput carries an input image either as a reachable URL or as an inline data URI.
type ImageInput struct {
	URL     string `json:"url,omitempty"`
	DataURI string `json:"data_uri,omitempty"`
}

// IsZero reports whether neither form was supplied.
func (i *ImageInput) IsZero() bool {
	return i == nil || (strings.TrimSpace(i.URL) == "" && strings.TrimSpace(i.DataURI) == "")
}

// EditRequestJSON is the body accepted by the image edit endpoint.
type EditRequestJSON struct {
	Provider       string      `json:"provider"`
	Prompt         string      `json:"prompt"`
	Category       string      `json:"category"`
	Image          *ImageInput `json:"image,omitempty"`
	StyleReference *ImageInput `json:"style_reference,omitempty"`
	OutputFormat   string      `json:"output_format"`
	ImageSize      string      `json:"image_size"`
}

// VideoRequestJSON is the body accepted by the video generation endpoint.
type VideoRequestJSON struct {
	Prompt      string      `json:"prompt"`
	Image       *ImageInput `json:"image,omitempty"`
	AspectRatio string      `json:"aspect_ratio"`
	Quality     string      `json:"quality"`
}

var (
	allowedOutputFormats = map[string]struct{}{"png": {}, "jpeg": {}}
	allowedImageSizes    = map[string]struct{}{
		"auto": {}, "1:1": {}, "3:4": {}, "4:3": {}, "9:16": {}, "16:9": {}, "2:3": {}, "3:2": {}, "4:5": {}, "5:4": {}, "21:9": {},
	}
	allowedAspectRatios = map[string]struct{}{"landscape": {}, "portrait": {}}
	allowedQualities    = map[string]struct{}{"standard": {}, "hd": {}}
)

const (
	// DefaultOutputFormat is applied when an edit request omits the format.
	DefaultOutputFormat = "png"
	// DefaultImageSize lets the provider keep the input proportions.
	DefaultImageSize = "auto"
	// DefaultVideoAspectRatio is the Sora orientation used when omitted.
	DefaultVideoAspectRatio = "landscape"
	// DefaultVideoQuality is the Sora quality tier used when omitted.
	DefaultVideoQuality = "standard"
)

// Normalize trims free-form input and applies defaults.
func (r *EditRequestJSON) Normalize() {
	if r == nil {
		return
	}
	r.Provider = strings.ToLower(strings.TrimSpace(r.Provider))
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	r.OutputFormat = strings.ToLower(strings.TrimSpace(r.OutputFormat))
	if r.OutputFormat == "jpg" {
		r.OutputFormat = "jpeg"
	}
	if r.OutputFormat == "" {
		r.OutputFormat = DefaultOutputFormat
	}
	r.ImageSize = strings.ToLower(strings.TrimSpace(r.ImageSize))
	if r.ImageSize == "" {
		r.ImageSize = DefaultImageSize
	}
}

// Validate ensures the request can be handed to an image provider.
func (r EditRequestJSON) Validate() error {
	if r.Prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	if !r.StyleReference.IsZero() && r.Image.IsZero() {
		return fmt.Errorf("image is required when style_reference is set")
	}
	if _, ok := allowedOutputFormats[r.OutputFormat]; !ok {
		return fmt.Errorf("output_format must be png or jpeg")
	}
	if _, ok := allowedImageSizes[r.ImageSize]; !ok {
		return fmt.Errorf("image_size %q is not supported", r.ImageSize)
	}
	return nil
}

// Normalize trims free-form input and applies defaults.
func (r *VideoRequestJSON) Normalize() {
	if r == nil {
		return
	}
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.AspectRatio = strings.ToLower(strings.TrimSpace(r.AspectRatio))
	if r.AspectRatio == "" {
		r.AspectRatio = DefaultVideoAspectRatio
	}
	r.Quality = strings.ToLower(strings.TrimSpace(r.Quality))
	if r.Quality == "" {
		r.Quality = DefaultVideoQuality
	}
}

// Validate ensures the request can be handed to the video provider.
func (r VideoRequestJSON) Validate() error {
	if r.Prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	if _, ok := allowedAspectRatios[r.AspectRatio]; !ok {
		return fmt.Errorf("aspect_ratio must be landscape or portrait")
	}
	if _, ok := allowedQualities[r.Quality]; !ok {
		return fmt.Errorf("quality must be standard or hd")
	}
	return nil
}
