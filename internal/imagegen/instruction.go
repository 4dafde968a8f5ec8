package imagegen

import (
	"fmt"
	"strings"
)

// Target is the kind of output a prompt is composed for.
type Target string

const (
	TargetImage Target = "image"
	TargetVideo Target = "video"
)

// EditContext describes the inputs that accompany a raw instruction.
type EditContext struct {
	Target            Target
	HasBaseImage      bool
	HasStyleReference bool
	Category          string
}

const (
	styleReferenceClause = "The first image is the style reference and the second image is the image to edit. " +
		"Apply the style of the first image to the second image. Do not output the reference image."
	preserveClause = "Keep the original composition, only apply the requested changes."
	facialClause   = "Preserve the person's facial features, identity and expression exactly; do not alter the face."
	animateSuffix  = "Keep the subject consistent with the source image throughout the video."
)

var faceCategories = map[string]struct{}{
	"portrait": {},
	"people":   {},
	"person":   {},
	"face":     {},
	"selfie":   {},
}

// Compose turns a raw user instruction into the prompt sent to the provider.
// Text-only requests pass the instruction through unchanged.
func Compose(raw string, ec EditContext) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parts := []string{}
	switch {
	case ec.Target == TargetVideo && ec.HasBaseImage:
		parts = append(parts, fmt.Sprintf("Animate this image: %s.", trimPeriod(raw)), animateSuffix)
	case ec.Target == TargetVideo:
		parts = append(parts, raw)
	case ec.HasBaseImage && ec.HasStyleReference:
		parts = append(parts, styleReferenceClause, fmt.Sprintf("Edit instruction: %s.", trimPeriod(raw)), preserveClause)
	case ec.HasBaseImage:
		parts = append(parts, fmt.Sprintf("Edit this image: %s.", trimPeriod(raw)), preserveClause)
	default:
		return raw
	}
	if ec.HasBaseImage && IsFaceCategory(ec.Category) {
		parts = append(parts, facialClause)
	}
	return strings.Join(parts, " ")
}

// IsFaceCategory reports whether edits in category must preserve faces.
func IsFaceCategory(category string) bool {
	_, ok := faceCategories[strings.ToLower(strings.TrimSpace(category))]
	return ok
}

func trimPeriod(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ". ")
}
