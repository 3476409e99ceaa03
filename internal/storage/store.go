package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
)

// StoredBlob is the result of persisting one file blob.
type StoredBlob struct {
	Key          string
	URL          string
	ThumbnailURL *string
	SizeBytes    int64
}

// Store persists raw attachment blobs and serves them by public URL.
// Thumbnail rendering itself is out of scope; the store only decides whether
// a thumbnail URL exists for the object.
type Store interface {
	Save(ctx context.Context, key, fileName, mimeType string, r io.Reader) (*StoredBlob, error)
	Remove(ctx context.Context, key string) error
}

// LocalStore writes blobs under a base directory and addresses them through
// a public base URL. Suitable for single-node deployments; anything else
// slots in behind the Store interface.
type LocalStore struct {
	baseDir string
	baseURL string
}

// NewLocalStore creates the store, ensuring the base directory exists.
func NewLocalStore(cfg config.StorageConfig) (*LocalStore, error) {
	if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{
		baseDir: cfg.BaseDir,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Save writes the blob to disk and returns its public addresses.
func (s *LocalStore) Save(ctx context.Context, key, fileName, mimeType string, r io.Reader) (*StoredBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.baseDir, key)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create blob %s: %w", key, err)
	}
	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write blob %s: %w", key, err)
	}

	blob := &StoredBlob{
		Key:       key,
		URL:       s.baseURL + "/files/" + key,
		SizeBytes: written,
	}
	if domain.IsImageMime(mimeType) {
		thumb := s.baseURL + "/files/thumb/" + key
		blob.ThumbnailURL = &thumb
	}
	return blob, nil
}

// Remove deletes the blob; missing files are not an error.
func (s *LocalStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.baseDir, key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// FilePath resolves the on-disk location for a stored key. Used by the file
// serving route.
func (s *LocalStore) FilePath(key string) string {
	return filepath.Join(s.baseDir, key)
}
