package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

// Accepted upload types and the extension they are stored under
var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Config describes where assets live on disk and the URL prefix they are served from
type Config struct {
	BasePath      string
	BaseURL       string
	MaxUploadSize string
}

// Filesystem is an AssetStore writing blobs under a base path.
// Keys map directly to relative file paths; URLs are BaseURL + "/" + key.
type Filesystem struct {
	basePath string
	baseURL  string
	maxSize  int64
	client   *http.Client
	logger   *zap.Logger
}

// NewFilesystem creates the asset store and its base directory
func NewFilesystem(cfg Config, logger *zap.Logger) (*Filesystem, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("base_path required")
	}
	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base_path: %w", err)
	}
	if cfg.MaxUploadSize == "" {
		cfg.MaxUploadSize = "20MB"
	}
	size, err := units.FromHumanSize(cfg.MaxUploadSize)
	if err != nil {
		return nil, fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return nil, fmt.Errorf("max_upload_size must be positive")
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("create base_path: %w", err)
	}

	logger.Info("asset storage initialized",
		zap.String("base_path", absPath),
		zap.String("max_upload_size", units.HumanSize(float64(size))),
	)

	return &Filesystem{
		basePath: absPath,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		maxSize:  size,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}, nil
}

// MaxUploadSize returns the upload limit in bytes
func (f *Filesystem) MaxUploadSize() int64 {
	return f.maxSize
}

// UploadAsset implements domain.AssetStore
func (f *Filesystem) UploadAsset(ctx context.Context, data []byte, contentType string) (string, error) {
	if int64(len(data)) > f.maxSize {
		return "", fmt.Errorf("%w: %s", ErrTooLarge, units.HumanSize(float64(len(data))))
	}
	ext, ok := extensions[normalizeContentType(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}

	key := filepath.ToSlash(filepath.Join(time.Now().UTC().Format("2006/01"), uuid.NewString()+ext))
	if err := f.store(key, data); err != nil {
		return "", err
	}

	f.logger.Debug("asset stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return f.baseURL + "/" + key, nil
}

// FetchAsset implements domain.AssetStore. URLs outside BaseURL are fetched over HTTP.
func (f *Filesystem) FetchAsset(ctx context.Context, url string) ([]byte, error) {
	if key, ok := f.keyFor(url); ok {
		return f.retrieve(key)
	}
	return f.fetchRemote(ctx, url)
}

// Handler serves stored assets; mount it at BaseURL's path
func (f *Filesystem) Handler() http.Handler {
	return http.FileServer(http.Dir(f.basePath))
}

func (f *Filesystem) store(key string, data []byte) error {
	path, err := f.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (f *Filesystem) retrieve(key string) ([]byte, error) {
	path, err := f.fullPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func (f *Filesystem) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, url)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

// keyFor maps a URL produced by UploadAsset back to its key
func (f *Filesystem) keyFor(url string) (string, bool) {
	prefix := f.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (f *Filesystem) fullPath(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := filepath.Clean(key)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", ErrInvalidKey
	}
	full := filepath.Join(f.basePath, cleaned)
	if !strings.HasPrefix(full, f.basePath) {
		return "", ErrInvalidKey
	}
	return full, nil
}

func normalizeContentType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

var _ domain.AssetStore = (*Filesystem)(nil)
