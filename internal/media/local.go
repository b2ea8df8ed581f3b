package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"minifeed/internal/observability"
)

// LocalStore keeps uploads as flat files under one directory.
type LocalStore struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

func (s *LocalStore) Backend() string { return "local" }

func (s *LocalStore) Put(ctx context.Context, filename, _ string, r io.Reader) (ref string, err error) {
	defer func() {
		observability.MediaUploads.WithLabelValues(s.Backend(), observability.Result(err)).Inc()
	}()

	data, err := readUpload(filename, r, s.maxBytes)
	if err != nil {
		return "", err
	}

	ref = NewRef(s.now(), filename)
	if err := os.WriteFile(filepath.Join(s.dir, ref), data, 0o600); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	observability.L().DebugContext(ctx, "stored upload", "ref", ref, "bytes", len(data))
	return ref, nil
}

func (s *LocalStore) Open(_ context.Context, ref string) (io.ReadCloser, string, error) {
	if !ValidRef(ref) {
		return nil, "", ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, ref))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	return f, ContentTypeFor(ref), nil
}
