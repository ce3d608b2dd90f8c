package source

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// FileFetcher reads CSV files from the local filesystem, addressed either
// as file:///abs/path or relative to baseDir.
type FileFetcher struct {
	baseDir  string
	maxBytes int64
}

// NewFileFetcher creates a new FileFetcher.
// Parameters:
//   - baseDir: directory relative paths resolve against; empty uses the working directory.
//   - maxBytes: body size limit; 0 disables it.
//
// Returns:
//   - *FileFetcher: initialized fetcher.
func NewFileFetcher(baseDir string, maxBytes int64) *FileFetcher {
	return &FileFetcher{baseDir: baseDir, maxBytes: maxBytes}
}

// Fetch implements Fetcher.
func (f *FileFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Scheme == "file" {
		path = u.Path
	}
	if !filepath.IsAbs(path) && f.baseDir != "" {
		path = filepath.Join(f.baseDir, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer file.Close()

	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	data, err := readLimited(file, f.maxBytes)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("read %s: %w", path, err)}
	}
	return data, nil
}
