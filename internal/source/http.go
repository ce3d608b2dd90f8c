package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/gamedata/internal/logger"
)

// ErrBodyTooLarge is returned when a resource exceeds the configured size limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// HTTPConfig holds configuration for HTTPFetcher.
type HTTPConfig struct {
	Timeout      time.Duration
	MaxBodyBytes int64 // 0 disables the limit
	UserAgent    string
}

// HTTPFetcher downloads CSV files over http and https.
type HTTPFetcher struct {
	client   *resty.Client
	maxBytes int64
}

// NewHTTPFetcher creates a new HTTPFetcher.
// Parameters:
//   - cfg: timeout and body limit settings.
//
// Returns:
//   - *HTTPFetcher: initialized fetcher.
func NewHTTPFetcher(cfg HTTPConfig) *HTTPFetcher {
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "text/csv, text/plain, */*")
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &HTTPFetcher{client: client, maxBytes: cfg.MaxBodyBytes}
}

// Fetch downloads rawURL and returns its body.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	start := time.Now()

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode()}
	}

	data, err := readLimited(body, f.maxBytes)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	logger.With(logger.Fields{
		logger.FieldSourceURL: rawURL,
		logger.FieldSize:      len(data),
	}).WithDuration(time.Since(start).Milliseconds()).Debug(ctx, "Fetched source over HTTP")

	return data, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, limit)
	}
	return data, nil
}
