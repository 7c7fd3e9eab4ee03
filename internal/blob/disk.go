package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fathima-sithara/realtime-chat/internal/apperr"
)

// DiskStore keeps blobs under a local directory.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) *DiskStore {
	return &DiskStore{root: root}
}

func (s *DiskStore) resolve(key string) (string, error) {
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: invalid path %q", apperr.ErrValidation, key)
	}
	return filepath.Join(s.root, filepath.Clean(key)), nil
}

func (s *DiskStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir: %v", apperr.ErrTransientIO, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create: %v", apperr.ErrTransientIO, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("%w: write: %v", apperr.ErrTransientIO, err)
	}
	return nil
}

func (s *DiskStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("%w: blob %s", apperr.ErrNotFound, key)
		}
		return nil, 0, fmt.Errorf("%w: open: %v", apperr.ErrTransientIO, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: stat: %v", apperr.ErrTransientIO, err)
	}
	return f, info.Size(), nil
}

var _ Store = (*DiskStore)(nil)
