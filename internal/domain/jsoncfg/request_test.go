package jsoncfg

import "testing"

func TestEditRequestNormalizeDefaults(t *testing.T) {
	r := &EditRequestJSON{Prompt: "  make the sky purple ", Provider: " KIE ", OutputFormat: "JPG"}
	r.Normalize()

	if r.Prompt != "make the sky purple" {
		t.Fatalf("Prompt = %q", r.Prompt)
	}
	if r.Provider != "kie" {
		t.Fatalf("Provider = %q, want kie", r.Provider)
	}
	if r.OutputFormat != "jpeg" {
		t.Fatalf("OutputFormat = %q, want jpeg", r.OutputFormat)
	}
	if r.ImageSize != DefaultImageSize {
		t.Fatalf("ImageSize = %q, want %q", r.ImageSize, DefaultImageSize)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestEditRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  EditRequestJSON
	}{
		{name: "empty prompt", req: EditRequestJSON{}},
		{name: "style without base", req: EditRequestJSON{Prompt: "x", StyleReference: &ImageInput{URL: "https://x/ref.png"}}},
		{name: "bad format", req: EditRequestJSON{Prompt: "x", OutputFormat: "gif"}},
		{name: "bad size", req: EditRequestJSON{Prompt: "x", ImageSize: "7:3"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			req.Normalize()
			if err := req.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestVideoRequestNormalizeDefaults(t *testing.T) {
	r := &VideoRequestJSON{Prompt: "a cat surfing"}
	r.Normalize()
	if r.AspectRatio != DefaultVideoAspectRatio {
		t.Fatalf("AspectRatio = %q, want %q", r.AspectRatio, DefaultVideoAspectRatio)
	}
	if r.Quality != DefaultVideoQuality {
		t.Fatalf("Quality = %q, want %q", r.Quality, DefaultVideoQuality)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestVideoRequestRejectsEmptyPrompt(t *testing.T) {
	r := &VideoRequestJSON{Prompt: "   "}
	r.Normalize()
	if err := r.Validate(); err == nil {
		t.Fatalf("expected error for empty prompt")
	}
}
