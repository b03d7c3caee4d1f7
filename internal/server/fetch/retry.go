package fetch

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/sethvargo/go-retry"
)

// DefaultRetryBase is the first backoff step; later ones double.
const DefaultRetryBase = 250 * time.Millisecond

// Retrying repeats failed fetches that may succeed on a second attempt:
// network errors and 5xx/429 answers. Anything else is returned at once.
// The overall budget is the caller's context.
type Retrying struct {
	next    Fetcher
	retries uint64
	base    time.Duration
}

func NewRetrying(next Fetcher, retries int, base time.Duration) *Retrying {
	if retries < 0 {
		retries = 0
	}
	if base <= 0 {
		base = DefaultRetryBase
	}
	return &Retrying{next: next, retries: uint64(retries), base: base}
}

func (r *Retrying) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if r.retries == 0 {
		return r.next.Fetch(ctx, rawURL)
	}

	backoff := retry.WithMaxRetries(r.retries, retry.NewExponential(r.base))

	var body io.ReadCloser
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		b, err := r.next.Fetch(ctx, rawURL)
		if err != nil {
			if ctx.Err() == nil && Retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrUnsupportedScheme) || errors.Is(err, ErrInvalidURL) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
