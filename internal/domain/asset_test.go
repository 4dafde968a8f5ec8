package domain

import (
	"bytes"
	"errors"
	"testing"
)

func TestPayloadDataURIRoundTrip(t *testing.T) {
	src := Payload{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
	uri := src.DataURI()
	if uri != "data:image/png;base64,iVBORw==" {
		t.Fatalf("DataURI() = %q", uri)
	}
	decoded, err := ParseDataURI(uri)
	if err != nil {
		t.Fatalf("ParseDataURI: %v", err)
	}
	if decoded.MIMEType != "image/png" || !bytes.Equal(decoded.Data, src.Data) {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestParseDataURIRejectsMalformedInput(t *testing.T) {
	cases := []string{
		"https://example.com/a.png",
		"data:image/png;base64",
		"data:text/plain,hello",
		"data:image/png;base64,***",
	}
	for _, in := range cases {
		if _, err := ParseDataURI(in); !errors.Is(err, ErrInvalidPayload) {
			t.Fatalf("ParseDataURI(%q) err = %v, want ErrInvalidPayload", in, err)
		}
	}
}

func TestImageRefIsZero(t *testing.T) {
	if !(ImageRef{}).IsZero() {
		t.Fatalf("empty ref should be zero")
	}
	if (ImageRef{URL: "https://x/a.png"}).IsZero() {
		t.Fatalf("url ref should not be zero")
	}
	if (ImageRef{Payload: &Payload{Data: []byte{1}}}).IsZero() {
		t.Fatalf("payload ref should not be zero")
	}
}
