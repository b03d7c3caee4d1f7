// Package fetch retrieves resource bytes from remote storage. A Fetcher is
// injected into the archiver; Router picks the backend by URL scheme.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Fetcher opens a stream over the bytes stored at rawURL. The caller must
// close the returned body. Cancelling ctx aborts both the request and any
// read still in progress.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, rawURL string) (io.ReadCloser, error)

func (f FetcherFunc) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	return f(ctx, rawURL)
}

var (
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
	ErrInvalidURL        = errors.New("invalid resource url")
)

// StatusError is returned when the remote store answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether repeating the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}
