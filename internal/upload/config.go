package upload

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/vidmase/bananina/internal/storage"
)

// File is the YAML layout of an upload backend list. Backends are tried in
// file order; an entry with kind "local" refers to the local store.
type File struct {
	Backends []FileEntry `yaml:"backends"`
}

// FileEntry is one backend definition.
type FileEntry struct {
	Kind            string `yaml:"kind"`
	MultipartConfig `yaml:",inline"`
}

// Keys carries the credentials for the built-in hosts.
type Keys struct {
	Imgbb     string
	FreeImage string
}

// DefaultConfigs returns the built-in hosts that are usable with keys.
// tmpfiles needs no key and is always included.
func DefaultConfigs(keys Keys) []MultipartConfig {
	var out []MultipartConfig
	if keys.Imgbb != "" {
		out = append(out, MultipartConfig{
			Name:        "imgbb",
			Endpoint:    "https://api.imgbb.com/1/upload",
			FileField:   "image",
			APIKey:      keys.Imgbb,
			APIKeyParam: "key",
			URLPath:     "data.url",
			SuccessPath: "success",
		})
	}
	if keys.FreeImage != "" {
		out = append(out, MultipartConfig{
			Name:        "freeimage",
			Endpoint:    "https://freeimage.host/api/1/upload",
			FileField:   "source",
			Fields:      map[string]string{"action": "upload", "format": "json"},
			APIKey:      keys.FreeImage,
			APIKeyParam: "key",
			URLPath:     "image.url",
			SuccessPath: "status_code",
		})
	}
	out = append(out, MultipartConfig{
		Name:        "tmpfiles",
		Endpoint:    "https://tmpfiles.org/api/v1/upload",
		FileField:   "file",
		URLPath:     "data.url",
		SuccessPath: "status",
		RewriteFrom: "tmpfiles.org/",
		RewriteTo:   "tmpfiles.org/dl/",
	})
	return out
}

// LoadFile reads a backend list from path. api_key_env entries are resolved
// with lookup.
func LoadFile(path string, lookup func(string) string) ([]FileEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("upload: open backends file: %w", err)
	}
	defer f.Close()

	var file File
	if err := yaml.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("upload: decode backends file: %w", err)
	}
	if len(file.Backends) == 0 {
		return nil, fmt.Errorf("upload: backends file %s lists no backends", path)
	}
	for i := range file.Backends {
		e := &file.Backends[i]
		e.Kind = strings.ToLower(strings.TrimSpace(e.Kind))
		if e.Kind == "" {
			e.Kind = "multipart"
		}
		if e.APIKey == "" && e.APIKeyEnv != "" && lookup != nil {
			e.APIKey = lookup(e.APIKeyEnv)
		}
	}
	return file.Backends, nil
}

// BuildBackends turns entries into backends. Local entries are skipped when
// there is no store or publicBaseURL is not reachable from outside, so that the
// chain still ends in the inline fallback.
func BuildBackends(entries []FileEntry, client *http.Client, store *storage.FileStore, publicBaseURL string) ([]Backend, error) {
	backends := make([]Backend, 0, len(entries))
	for _, e := range entries {
		switch e.Kind {
		case StoreName:
			if store == nil || !IsPublicBaseURL(publicBaseURL) {
				continue
			}
			b, err := NewStoreBackend(store, publicBaseURL)
			if err != nil {
				return nil, err
			}
			backends = append(backends, b)
		case "multipart", "":
			b, err := NewMultipartBackend(e.MultipartConfig, client)
			if err != nil {
				return nil, err
			}
			backends = append(backends, b)
		default:
			return nil, fmt.Errorf("upload: unknown backend kind %q", e.Kind)
		}
	}
	return backends, nil
}

// DefaultEntries wraps DefaultConfigs and appends the local store.
func DefaultEntries(keys Keys) []FileEntry {
	cfgs := DefaultConfigs(keys)
	entries := make([]FileEntry, 0, len(cfgs)+1)
	for _, c := range cfgs {
		entries = append(entries, FileEntry{Kind: "multipart", MultipartConfig: c})
	}
	return append(entries, FileEntry{Kind: StoreName})
}
