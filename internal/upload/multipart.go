package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/vidmase/bananina/internal/domain"
)

const maxResponseBytes = 1 << 20

// MultipartConfig describes a hosting service that accepts a multipart form
// upload and answers with JSON.
type MultipartConfig struct {
	Name        string            `yaml:"name"`
	Endpoint    string            `yaml:"endpoint"`
	FileField   string            `yaml:"file_field"`
	Fields      map[string]string `yaml:"fields"`
	APIKey      string            `yaml:"api_key"`
	APIKeyEnv   string            `yaml:"api_key_env"`
	APIKeyParam string            `yaml:"api_key_param"`
	URLPath     string            `yaml:"url_path"`
	SuccessPath string            `yaml:"success_path"`
	RewriteFrom string            `yaml:"rewrite_from"`
	RewriteTo   string            `yaml:"rewrite_to"`
}

// MultipartBackend uploads to a MultipartConfig service.
type MultipartBackend struct {
	cfg    MultipartConfig
	client *http.Client
}

func NewMultipartBackend(cfg MultipartConfig, client *http.Client) (*MultipartBackend, error) {
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Name == "" || cfg.Endpoint == "" {
		return nil, fmt.Errorf("upload: backend name and endpoint are required")
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("upload: backend %s: %w", cfg.Name, err)
	}
	if cfg.FileField == "" {
		cfg.FileField = "file"
	}
	if cfg.URLPath == "" {
		cfg.URLPath = "data.url"
	}
	if cfg.APIKey != "" && cfg.APIKeyParam == "" {
		cfg.APIKeyParam = "key"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &MultipartBackend{cfg: cfg, client: client}, nil
}

func (b *MultipartBackend) Name() string { return b.cfg.Name }

func (b *MultipartBackend) Upload(ctx context.Context, payload domain.Payload) (string, error) {
	body, contentType, err := b.form(payload)
	if err != nil {
		return "", err
	}
	endpoint := b.cfg.Endpoint
	if b.cfg.APIKey != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return "", err
		}
		q := u.Query()
		q.Set(b.cfg.APIKeyParam, b.cfg.APIKey)
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: http request: %w", b.cfg.Name, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%s: read response: %w", b.cfg.Name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s: status %d: %s", b.cfg.Name, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", b.cfg.Name, err)
	}
	if b.cfg.SuccessPath != "" {
		flag, ok := lookupPath(doc, b.cfg.SuccessPath)
		if !ok || !truthy(flag) {
			return "", fmt.Errorf("%s: upload not acknowledged (%s=%v)", b.cfg.Name, b.cfg.SuccessPath, flag)
		}
	}
	value, ok := lookupPath(doc, b.cfg.URLPath)
	link, _ := value.(string)
	link = strings.TrimSpace(link)
	if !ok || link == "" {
		return "", fmt.Errorf("%s: response has no url at %s", b.cfg.Name, b.cfg.URLPath)
	}
	if b.cfg.RewriteFrom != "" && !strings.Contains(link, b.cfg.RewriteTo) {
		link = strings.Replace(link, b.cfg.RewriteFrom, b.cfg.RewriteTo, 1)
	}
	return link, nil
}

func (b *MultipartBackend) form(payload domain.Payload) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	keys := make([]string, 0, len(b.cfg.Fields))
	for k := range b.cfg.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, b.cfg.Fields[k]); err != nil {
			return nil, "", err
		}
	}

	mime := strings.TrimSpace(payload.MIMEType)
	if mime == "" {
		mime = mimetype.Detect(payload.Data).String()
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, b.cfg.FileField, "image"+extensionFor(mime)))
	header.Set("Content-Type", mime)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(payload.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func extensionFor(mime string) string {
	if m := mimetype.Lookup(mime); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return ".bin"
}

// lookupPath walks a dotted path through decoded JSON. Numeric segments index
// arrays.
func lookupPath(doc any, path string) (any, bool) {
	cur := doc
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t >= 200 && t < 300
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "ok", "success", "200":
			return true
		}
	}
	return false
}
