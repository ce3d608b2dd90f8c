package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Fetcher retrieves the raw bytes of a CSV resource.
type Fetcher interface {
	// Fetch downloads the resource at rawURL.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - rawURL: location of the resource.
	// Returns:
	//   - []byte: full resource body.
	//   - error: *FetchError on any retrieval failure.
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// FetchError reports that a source could not be retrieved. StatusCode is
// set when the remote answered with a non-2xx status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Router dispatches a fetch to the Fetcher registered for the URL scheme.
type Router struct {
	fetchers map[string]Fetcher
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{fetchers: make(map[string]Fetcher)}
}

// Register binds a fetcher to one or more URL schemes.
func (r *Router) Register(f Fetcher, schemes ...string) *Router {
	for _, s := range schemes {
		r.fetchers[strings.ToLower(s)] = f
	}
	return r
}

// Supports reports whether scheme has a registered fetcher.
func (r *Router) Supports(scheme string) bool {
	_, ok := r.fetchers[strings.ToLower(scheme)]
	return ok
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	f, ok := r.fetchers[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	return f.Fetch(ctx, rawURL)
}
