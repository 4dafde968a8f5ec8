package decode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/vidmase/bananina/internal/domain"
	"github.com/vidmase/bananina/internal/infra"
)

const genericMIME = "application/octet-stream"

// ErrTooLarge is returned when a result exceeds the configured size limit.
var ErrTooLarge = errors.New("decode: result exceeds size limit")

// extensionTypes covers result formats missing from the platform MIME table.
var extensionTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// Options configures a Decoder.
type Options struct {
	HTTPClient *http.Client
	MaxBytes   int64
	Logger     *infra.Logger
}

// Decoder turns a provider result reference into an in-memory payload.
type Decoder struct {
	httpClient *http.Client
	maxBytes   int64
	logger     *infra.Logger
}

func New(opts Options) *Decoder {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 200 << 20
	}
	return &Decoder{httpClient: client, maxBytes: maxBytes, logger: infra.OrDiscard(opts.Logger)}
}

// Materialize fetches ref and returns its bytes with a MIME type taken from
// the response header, the content itself, or the URL extension, in that
// order. data: references are decoded without network access.
func (d *Decoder) Materialize(ctx context.Context, ref string) (domain.Payload, error) {
	ref = strings.TrimSpace(ref)
	if domain.IsDataURI(ref) {
		return domain.ParseDataURI(ref)
	}
	parsed, err := url.Parse(ref)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return domain.Payload{}, fmt.Errorf("decode: invalid result url %q", ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("decode: build request: %w", err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("decode: fetch result: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Payload{}, fmt.Errorf("decode: fetch result: status %d", resp.StatusCode)
	}
	if resp.ContentLength > d.maxBytes {
		return domain.Payload{}, fmt.Errorf("%w (%d bytes)", ErrTooLarge, resp.ContentLength)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return domain.Payload{}, fmt.Errorf("decode: read result: %w", err)
	}
	if int64(len(data)) > d.maxBytes {
		return domain.Payload{}, ErrTooLarge
	}
	if len(data) == 0 {
		return domain.Payload{}, fmt.Errorf("decode: result %s is empty", parsed.Redacted())
	}

	mimeType := detectType(resp.Header.Get("Content-Type"), data, parsed.Path)
	d.logger.Debug().
		Str("url", parsed.Redacted()).
		Str("mime", mimeType).
		Int("bytes", len(data)).
		Msg("decode: result materialized")
	return domain.Payload{MIMEType: mimeType, Data: data}, nil
}

func detectType(header string, data []byte, urlPath string) string {
	if mt, _, err := mime.ParseMediaType(header); err == nil && mt != "" && !isGeneric(mt) {
		return mt
	}
	if sniffed := mimetype.Detect(data); sniffed != nil && !sniffed.Is(genericMIME) && !sniffed.Is("text/plain") {
		mt, _, _ := mime.ParseMediaType(sniffed.String())
		if mt != "" {
			return mt
		}
	}
	ext := strings.ToLower(path.Ext(urlPath))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	if mt, _, err := mime.ParseMediaType(mime.TypeByExtension(ext)); err == nil && mt != "" {
		return mt
	}
	return genericMIME
}

func isGeneric(mt string) bool {
	switch strings.ToLower(mt) {
	case genericMIME, "binary/octet-stream", "application/binary":
		return true
	}
	return false
}
