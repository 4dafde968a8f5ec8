package imagegen

import "strings"

// NormalizeAspectRatio maps a UI ratio to the video orientation token.
func NormalizeAspectRatio(ui string) string {
	switch strings.ToLower(strings.TrimSpace(ui)) {
	case "portrait", "vertical", "tall", "9:16", "3:4", "2:3", "4:5":
		return "portrait"
	default:
		return "landscape"
	}
}

var imageSizes = map[string]string{
	"square":    "1:1",
	"landscape": "16:9",
	"wide":      "16:9",
	"portrait":  "9:16",
	"vertical":  "9:16",
	"original":  "auto",
	"free":      "auto",
}

var ratioTokens = []string{"1:1", "3:4", "4:3", "9:16", "16:9", "2:3", "3:2", "4:5", "5:4", "21:9"}

// ImageSize maps a UI ratio to the provider image_size token. An empty value
// is auto so the provider keeps the input proportions; anything unrecognized
// reports false.
func ImageSize(ui string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(ui))
	v = strings.ReplaceAll(v, " ", "")
	v = strings.ReplaceAll(v, "x", ":")
	if v == "" || v == "auto" {
		return "auto", true
	}
	if token, ok := imageSizes[v]; ok {
		return token, true
	}
	for _, t := range ratioTokens {
		if v == t {
			return t, true
		}
	}
	return "", false
}
