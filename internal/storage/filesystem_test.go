package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T, maxSize string) *Filesystem {
	store, err := NewFilesystem(Config{
		BasePath:      t.TempDir(),
		BaseURL:       "http://localhost:8080/assets/",
		MaxUploadSize: maxSize,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return store
}

func TestUploadAndFetchAsset(t *testing.T) {
	store := newTestStore(t, "1MB")
	ctx := context.Background()

	url, err := store.UploadAsset(ctx, []byte("png-bytes"), "image/png; charset=binary")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/assets/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	data, err := store.FetchAsset(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestUploadAssetRejects(t *testing.T) {
	store := newTestStore(t, "10B")
	ctx := context.Background()

	_, err := store.UploadAsset(ctx, []byte("0123456789abc"), "image/png")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = store.UploadAsset(ctx, []byte("x"), "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestFetchAssetMissingAndTraversal(t *testing.T) {
	store := newTestStore(t, "1MB")
	ctx := context.Background()

	_, err := store.FetchAsset(ctx, "http://localhost:8080/assets/2024/01/missing.png")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.FetchAsset(ctx, "http://localhost:8080/assets/../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = store.FetchAsset(ctx, "file:///etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestFetchRemoteAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/photo.jpg" {
			w.Write([]byte("jpeg-bytes"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	store := newTestStore(t, "1MB")
	ctx := context.Background()

	data, err := store.FetchAsset(ctx, srv.URL+"/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	_, err = store.FetchAsset(ctx, srv.URL+"/gone.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewFilesystemValidation(t *testing.T) {
	_, err := NewFilesystem(Config{}, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = NewFilesystem(Config{BasePath: t.TempDir(), MaxUploadSize: "lots"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
