package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/timmy/gamedata/internal/logger"
	"github.com/timmy/gamedata/internal/storage"
)

// ObjectFetcher downloads CSV files addressed as s3://bucket/key.
type ObjectFetcher struct {
	store    storage.ObjectStorage
	timeout  time.Duration
	maxBytes int64
}

// NewObjectFetcher creates a fetcher backed by an object store.
// Parameters:
//   - store: object storage client.
//   - timeout: upper bound for one download; 0 means none.
//   - maxBytes: body size limit; 0 disables it.
//
// Returns:
//   - *ObjectFetcher: initialized fetcher.
func NewObjectFetcher(store storage.ObjectStorage, timeout time.Duration, maxBytes int64) *ObjectFetcher {
	return &ObjectFetcher{store: store, timeout: timeout, maxBytes: maxBytes}
}

// ParseObjectURL splits s3://bucket/key into its bucket and key.
func ParseObjectURL(rawURL string) (bucket, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", err
	}
	if !strings.EqualFold(u.Scheme, "s3") {
		return "", "", fmt.Errorf("not an s3 url: %s", rawURL)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 url must be s3://bucket/key: %s", rawURL)
	}
	return u.Host, key, nil
}

// Fetch implements Fetcher.
func (f *ObjectFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	bucket, key, err := ParseObjectURL(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	exists, err := f.store.Exists(ctx, bucket, key)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if !exists {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("%w: %s/%s", storage.ErrObjectNotFound, bucket, key)}
	}

	obj, err := f.store.Open(ctx, bucket, key)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer obj.Body.Close()

	if f.maxBytes > 0 && obj.Size > f.maxBytes {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, f.maxBytes)}
	}
	data, err := readLimited(obj.Body, f.maxBytes)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	logger.With(logger.Fields{
		logger.FieldSourceURL: rawURL,
		logger.FieldSize:      len(data),
	}).WithDuration(time.Since(start).Milliseconds()).Debug(ctx, "Fetched source from object storage")

	return data, nil
}
