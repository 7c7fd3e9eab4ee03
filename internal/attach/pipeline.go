package attach

import (
	"bytes"
	"context"
	"io"

	"github.com/fathima-sithara/realtime-chat/internal/blob"
)

// ProgressFunc receives the fraction of bytes transferred so far, in
// [0, 1]. A failed transfer reports 0 before the error surfaces.
type ProgressFunc func(fraction float64)

// Pipeline moves attachment payloads between the client and blob storage,
// out of band of the message path. Neither direction retries; the user
// re-triggers after a failure.
type Pipeline struct {
	store blob.Store
}

func NewPipeline(store blob.Store) *Pipeline {
	return &Pipeline{store: store}
}

// Upload stores data and returns the path usable as a message file pointer.
func (p *Pipeline) Upload(ctx context.Context, filename, contentType string, data []byte, progress ProgressFunc) (string, error) {
	key := blob.NewKey(filename)
	r := &progressReader{
		r:        bytes.NewReader(data),
		total:    int64(len(data)),
		progress: progress,
	}
	if err := p.store.Put(ctx, key, contentType, r, int64(len(data))); err != nil {
		report(progress, 0)
		return "", err
	}
	report(progress, 1)
	return key, nil
}

// Download retrieves the blob behind a file pointer.
func (p *Pipeline) Download(ctx context.Context, key string, progress ProgressFunc) ([]byte, error) {
	rc, size, err := p.store.Get(ctx, key)
	if err != nil {
		report(progress, 0)
		return nil, err
	}
	defer rc.Close()
	var buf bytes.Buffer
	r := &progressReader{r: rc, total: size, progress: progress}
	if _, err := io.Copy(&buf, r); err != nil {
		report(progress, 0)
		return nil, err
	}
	report(progress, 1)
	return buf.Bytes(), nil
}

func report(progress ProgressFunc, f float64) {
	if progress != nil {
		progress(f)
	}
}

type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	progress ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.read += int64(n)
	if pr.progress != nil && pr.total > 0 && n > 0 {
		pr.progress(float64(pr.read) / float64(pr.total))
	}
	return n, err
}
