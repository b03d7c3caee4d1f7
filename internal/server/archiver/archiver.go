// Package archiver streams a list of resources into one ZIP archive. Bodies
// are fetched concurrently but written strictly in input order by a single
// goroutine, and a failing item is skipped without disturbing the rest.
package archiver

import (
	"archive/zip"
	"compress/flate"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/studyportal/internal/logging"
	"github.com/dmitrijs2005/studyportal/internal/server/fetch"
	"github.com/dmitrijs2005/studyportal/internal/server/models"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultWorkers          = 4
	MaxWorkers              = 32
	DefaultFetchTimeout     = 60 * time.Second
	DefaultCompressionLevel = 5
	DefaultSpoolMemoryLimit = 4 << 20
)

// ErrArchiveWrite marks a job that failed as a whole: the destination or the
// encoder broke, or the job was cancelled.
var ErrArchiveWrite = errors.New("archive write failed")

// ItemFetchError describes why a single resource was left out.
type ItemFetchError struct {
	ID    string
	Title string
	URL   string
	Err   error
}

func (e *ItemFetchError) Error() string {
	return fmt.Sprintf("resource %s (%s): %v", e.ID, e.URL, e.Err)
}

func (e *ItemFetchError) Unwrap() error { return e.Err }

// Config holds the per-process archiver settings.
type Config struct {
	Workers          int
	FetchTimeout     time.Duration
	CompressionLevel int
	SpoolMemoryLimit int64
	SpoolDir         string
}

func (c Config) normalized() Config {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Workers > MaxWorkers {
		c.Workers = MaxWorkers
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 9 {
		c.CompressionLevel = DefaultCompressionLevel
	}
	if c.SpoolMemoryLimit <= 0 {
		c.SpoolMemoryLimit = DefaultSpoolMemoryLimit
	}
	return c
}

// Options describe one archive job.
type Options struct {
	// JobID tags logs and the report; a uuid is generated when empty.
	JobID string
	// Namespaced prefixes every entry with its unit directory.
	Namespaced bool
}

// Report summarises a finished (or failed) job.
type Report struct {
	JobID    string
	Entries  []string
	Skipped  []*ItemFetchError
	Bytes    int64
	Duration time.Duration
}

type Archiver struct {
	fetcher fetch.Fetcher
	fs      afero.Fs
	cfg     Config
	log     logging.Logger
}

// New returns an Archiver that fetches through fetcher and spools to fs.
func New(fetcher fetch.Fetcher, fs afero.Fs, cfg Config, log logging.Logger) *Archiver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Archiver{
		fetcher: fetcher,
		fs:      fs,
		cfg:     cfg.normalized(),
		log:     log.With("module", "archiver"),
	}
}

type fetched struct {
	spool *spool
	err   error
}

// Stream writes items to w as a ZIP archive in the given order. Items that
// cannot be fetched are skipped and listed in the report. The returned error
// is non-nil only when the archive itself could not be produced, in which
// case it wraps ErrArchiveWrite and the archive is left unfinished.
func (a *Archiver) Stream(ctx context.Context, w io.Writer, items []models.Resource, opts Options) (*Report, error) {
	start := time.Now()

	jobID := opts.JobID
	if jobID == "" {
		jobID = uuid.NewString()
	}
	log := a.log.With("job_id", jobID)
	report := &Report{JobID: jobID}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	if a.cfg.CompressionLevel > 0 {
		level := a.cfg.CompressionLevel
		zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, level)
		})
	}

	results := make([]chan fetched, len(items))
	for i := range results {
		results[i] = make(chan fetched, 1)
	}

	sem := semaphore.NewWeighted(int64(a.cfg.Workers))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for i := range items {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			g.Go(func() error {
				results[i] <- a.fetch(gctx, log, &items[i])
				return nil
			})
		}
		return nil
	})

	log.Info(ctx, "archive started", "items", len(items), "workers", a.cfg.Workers, "namespaced", opts.Namespaced)

	names := newNamer(opts.Namespaced)
	next := 0
	var fatal error

	for ; next < len(items); next++ {
		item := &items[next]

		var res fetched
		select {
		case res = <-results[next]:
		case <-ctx.Done():
			fatal = ctx.Err()
		}
		if fatal != nil {
			break
		}

		if res.err != nil {
			if err := ctx.Err(); err != nil {
				fatal = err
				break
			}
			skip := &ItemFetchError{ID: item.ID, Title: item.Title, URL: item.FileURL, Err: res.err}
			report.Skipped = append(report.Skipped, skip)
			log.Warn(ctx, "resource skipped", "item_id", item.ID, "title", item.Title, "url", item.FileURL, "reason", res.err.Error())
			sem.Release(1)
			continue
		}

		name, err := a.writeEntry(zw, names, item, res.spool)
		_ = res.spool.Close()
		sem.Release(1)
		if err != nil {
			var skip *ItemFetchError
			if errors.As(err, &skip) {
				report.Skipped = append(report.Skipped, skip)
				log.Warn(ctx, "resource skipped", "item_id", item.ID, "title", item.Title, "url", item.FileURL, "reason", skip.Err.Error())
				continue
			}
			fatal = err
			break
		}
		report.Entries = append(report.Entries, name)

		if err := zw.Flush(); err != nil {
			fatal = err
			break
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}

	if fatal != nil {
		cancel()
		_ = g.Wait()
		// release bodies fetched ahead of the failure
		for i := next; i < len(items); i++ {
			select {
			case res := <-results[i]:
				if res.spool != nil {
					_ = res.spool.Close()
				}
			default:
			}
		}

		report.Bytes = cw.n
		report.Duration = time.Since(start)
		log.Error(ctx, "archive failed", "error", fatal, "entries", len(report.Entries), "skipped", len(report.Skipped), "size", humanize.Bytes(uint64(cw.n)))
		return report, fmt.Errorf("%w: %w", ErrArchiveWrite, fatal)
	}

	_ = g.Wait()

	if err := zw.Close(); err != nil {
		report.Bytes = cw.n
		report.Duration = time.Since(start)
		log.Error(ctx, "archive failed", "error", err)
		return report, fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	report.Bytes = cw.n
	report.Duration = time.Since(start)
	log.Info(ctx, "archive finished",
		"entries", len(report.Entries),
		"skipped", len(report.Skipped),
		"size", humanize.Bytes(uint64(cw.n)),
		"duration", report.Duration.String(),
	)
	return report, nil
}

// fetch downloads one body into a spool. The timeout covers the whole body.
func (a *Archiver) fetch(ctx context.Context, log logging.Logger, item *models.Resource) fetched {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
	defer cancel()

	body, err := a.fetcher.Fetch(ctx, item.FileURL)
	if err != nil {
		return fetched{err: err}
	}
	defer body.Close()

	sp := newSpool(a.fs, a.cfg.SpoolDir, a.cfg.SpoolMemoryLimit)
	if _, err := io.Copy(sp, body); err != nil {
		_ = sp.Close()
		return fetched{err: fmt.Errorf("read body: %w", err)}
	}

	log.Debug(ctx, "resource fetched", "item_id", item.ID, "size", humanize.Bytes(uint64(sp.Size())), "on_disk", sp.OnDisk())
	return fetched{spool: sp}
}

// writeEntry appends one spooled body to the archive. Problems reading the
// spool before the entry header is written are item failures; anything after
// that is fatal since the archive already holds a partial entry.
func (a *Archiver) writeEntry(zw *zip.Writer, names *namer, item *models.Resource, sp *spool) (string, error) {
	rd, err := sp.Reader()
	if err != nil {
		return "", &ItemFetchError{ID: item.ID, Title: item.Title, URL: item.FileURL, Err: fmt.Errorf("spool: %w", err)}
	}

	method := zip.Store
	if a.cfg.CompressionLevel > 0 {
		method = zip.Deflate
	}

	name := names.claim(item)
	hdr := &zip.FileHeader{
		Name:   name,
		Method: method,
	}
	if mod := modTime(item); !mod.IsZero() {
		hdr.Modified = mod
	}

	ew, err := zw.CreateHeader(hdr)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(ew, rd); err != nil {
		return "", err
	}
	return name, nil
}

func modTime(item *models.Resource) time.Time {
	if !item.UpdatedAt.IsZero() {
		return item.UpdatedAt.UTC()
	}
	return item.CreatedAt.UTC()
}

// countingWriter counts bytes that reached the destination.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
