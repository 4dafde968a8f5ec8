package upload

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidmase/bananina/internal/storage"
)

const backendsYAML = `
backends:
  - name: imgbb
    endpoint: https://api.imgbb.com/1/upload
    file_field: image
    api_key_env: TEST_IMGBB_KEY
    url_path: data.url
    success_path: success
  - name: tmpfiles
    endpoint: https://tmpfiles.org/api/v1/upload
    rewrite_from: tmpfiles.org/
    rewrite_to: tmpfiles.org/dl/
  - kind: local
`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backends.yaml")
	require.NoError(t, os.WriteFile(path, []byte(backendsYAML), 0o644))

	entries, err := LoadFile(path, func(name string) string {
		if name == "TEST_IMGBB_KEY" {
			return "secret"
		}
		return ""
	})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "multipart", entries[0].Kind)
	assert.Equal(t, "secret", entries[0].APIKey)
	assert.Equal(t, "image", entries[0].FileField)
	assert.Equal(t, "tmpfiles.org/dl/", entries[1].RewriteTo)
	assert.Equal(t, StoreName, entries[2].Kind)

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	backends, err := BuildBackends(entries, http.DefaultClient, store, "https://studio.example.com/static")
	require.NoError(t, err)
	r := NewResolver(backends, Options{})
	assert.Equal(t, []string{"imgbb", "tmpfiles", "local"}, r.Backends())

	backends, err = BuildBackends(entries, http.DefaultClient, store, "http://localhost:8080/static")
	require.NoError(t, err)
	assert.Equal(t, []string{"imgbb", "tmpfiles"}, NewResolver(backends, Options{}).Backends())

	backends, err = BuildBackends(entries, http.DefaultClient, nil, "")
	require.NoError(t, err)
	assert.Len(t, backends, 2)
}

func TestLoadFileRejectsEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backends.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backends: []\n"), 0o644))
	_, err := LoadFile(path, nil)
	assert.Error(t, err)
}

func TestBuildBackendsUnknownKind(t *testing.T) {
	_, err := BuildBackends([]FileEntry{{Kind: "ftp"}}, nil, nil, "")
	assert.Error(t, err)
}

func TestDefaultEntries(t *testing.T) {
	names := func(entries []FileEntry) []string {
		var out []string
		for _, e := range entries {
			if e.Kind == StoreName {
				out = append(out, StoreName)
				continue
			}
			out = append(out, e.Name)
		}
		return out
	}
	assert.Equal(t, []string{"tmpfiles", StoreName}, names(DefaultEntries(Keys{})))
	assert.Equal(t, []string{"imgbb", "freeimage", "tmpfiles", StoreName}, names(DefaultEntries(Keys{Imgbb: "a", FreeImage: "b"})))
}
