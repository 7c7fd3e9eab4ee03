package blob

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Store holds message attachments by opaque path. Keys are generated with a
// time-based prefix so concurrent uploads of the same filename never
// collide.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)
}

// NewKey builds the storage path for an uploaded file, mirroring the
// uploads/files/<epoch-millis>/<name> layout clients already link to.
func NewKey(filename string) string {
	return fmt.Sprintf("%d/%s", time.Now().UnixMilli(), filename)
}
