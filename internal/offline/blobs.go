// Package offline keeps keyed JSON blobs for running without a hosted store:
// the ledger snapshot and the savings goals.
package offline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Blobs is a keyed byte store. cache.Store satisfies it, so goals and
// snapshots can live in Redis as well as on disk.
type Blobs interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// FileBlobs stores one file per key under Dir. TTLs are ignored; staleness
// is judged by the reader from the saved-at stamp.
type FileBlobs struct {
	Dir string
}

func NewFileBlobs(dir string) (*FileBlobs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FileBlobs{Dir: dir}, nil
}

func (b *FileBlobs) path(key string) string {
	return filepath.Join(b.Dir, url.PathEscape(key)+".json")
}

func (b *FileBlobs) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, true, nil
}

// Set writes through a temp file and rename so readers never see a partial blob.
func (b *FileBlobs) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	tmp, err := os.CreateTemp(b.Dir, ".blob-*")
	if err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), b.path(key)); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	return nil
}
