package upload

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/vidmase/bananina/internal/domain"
	"github.com/vidmase/bananina/internal/storage"
)

// StoreName is the backend name of the local store.
const StoreName = "local"

// StoreBackend writes payloads into the local FileStore and returns the URL the
// API serves them under. The URL is only useful to providers when the service
// is publicly reachable.
type StoreBackend struct {
	store   *storage.FileStore
	baseURL string
	prefix  string
}

func NewStoreBackend(store *storage.FileStore, baseURL string) (*StoreBackend, error) {
	if store == nil {
		return nil, fmt.Errorf("upload: store backend requires a file store")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("upload: store backend requires a public base url")
	}
	return &StoreBackend{store: store, baseURL: baseURL, prefix: "uploads"}, nil
}

func (s *StoreBackend) Name() string { return StoreName }

func (s *StoreBackend) Upload(ctx context.Context, payload domain.Payload) (string, error) {
	key := s.prefix + "/" + uuid.NewString() + extensionFor(payload.MIMEType)
	key, err := s.store.Put(ctx, key, payload.Data)
	if err != nil {
		return "", err
	}
	return s.baseURL + "/" + key, nil
}

// Release deletes the file behind a URL returned by Upload.
func (s *StoreBackend) Release(ctx context.Context, link string) error {
	key, ok := strings.CutPrefix(link, s.baseURL+"/")
	if !ok || !strings.HasPrefix(key, s.prefix+"/") {
		return fmt.Errorf("upload: %q was not issued by the local store", link)
	}
	return s.store.Delete(ctx, key)
}

// IsPublicBaseURL reports whether a provider could plausibly fetch files served
// under raw. Loopback, private and link-local hosts are not public.
func IsPublicBaseURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast())
	}
	return true
}
