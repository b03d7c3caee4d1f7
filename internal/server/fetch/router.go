package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Router dispatches to a Fetcher registered for the URL scheme.
type Router struct {
	routes map[string]Fetcher
}

func NewRouter() *Router {
	return &Router{routes: make(map[string]Fetcher)}
}

// Handle registers f for each of schemes, replacing earlier registrations.
func (r *Router) Handle(f Fetcher, schemes ...string) *Router {
	for _, s := range schemes {
		r.routes[strings.ToLower(s)] = f
	}
	return r
}

func (r *Router) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	f, ok := r.routes[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return f.Fetch(ctx, rawURL)
}
