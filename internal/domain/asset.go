package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Payload is an in-memory binary blob addressed by its MIME type.
type Payload struct {
	MIMEType string
	Data     []byte
}

// DataURI encodes the payload as a self-contained base64 data URI.
func (p Payload) DataURI() string {
	mime := strings.TrimSpace(p.MIMEType)
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// IsDataURI reports whether ref carries an inline payload rather than a URL.
func IsDataURI(ref string) bool {
	return strings.HasPrefix(strings.TrimSpace(ref), "data:")
}

// ParseDataURI decodes a base64 data URI back into a payload.
func ParseDataURI(ref string) (Payload, error) {
	ref = strings.TrimSpace(ref)
	if !IsDataURI(ref) {
		return Payload{}, fmt.Errorf("%w: not a data uri", ErrInvalidPayload)
	}
	header, data, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return Payload{}, fmt.Errorf("%w: missing data separator", ErrInvalidPayload)
	}
	mime, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return Payload{}, fmt.Errorf("%w: only base64 data uris are supported", ErrInvalidPayload)
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if mime == "" {
		mime = "text/plain"
	}
	return Payload{MIMEType: mime, Data: raw}, nil
}

// ImageRef references an input image either by URL or by inline payload.
type ImageRef struct {
	URL     string
	Payload *Payload
}

// IsZero reports whether the reference carries nothing.
func (r ImageRef) IsZero() bool {
	return strings.TrimSpace(r.URL) == "" && (r.Payload == nil || len(r.Payload.Data) == 0)
}

// UploadedAsset records where a local payload was exposed for one request,
// along with the hosts that refused it first.
type UploadedAsset struct {
	Original Payload
	URL      string
	Backend  string
	Failed   []UploadFailure
}

// UploadFailure is one hosting backend that could not take the payload.
type UploadFailure struct {
	Backend string
	Reason  string
}
