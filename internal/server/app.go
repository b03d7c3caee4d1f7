// Package server wires the portal together: configuration, logging, the
// catalogue database, remote fetchers, the archiver, download counters and
// the HTTP server, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/studyportal/internal/filex"
	"github.com/dmitrijs2005/studyportal/internal/logging"
	"github.com/dmitrijs2005/studyportal/internal/server/archiver"
	"github.com/dmitrijs2005/studyportal/internal/server/config"
	"github.com/dmitrijs2005/studyportal/internal/server/counters"
	"github.com/dmitrijs2005/studyportal/internal/server/fetch"
	"github.com/dmitrijs2005/studyportal/internal/server/httpapi"
	"github.com/dmitrijs2005/studyportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studyportal/internal/server/services"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	server *httpapi.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(os.Stdout, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	fetcher, err := NewFetcher(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{config: c, logger: logger, db: db}

	var counter counters.Counter = counters.Nop{}
	if c.RedisURL != "" {
		cl, err := counters.NewRedisClient(ctx, c.RedisURL)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.redis = cl
		counter = counters.NewRedisCounter(cl, logger)
	}

	osfs := afero.NewOsFs()
	arcCfg := ArchiverConfig(c)
	if arcCfg.SpoolDir != "" {
		if arcCfg.SpoolDir, err = filex.EnsureDir(osfs, arcCfg.SpoolDir); err != nil {
			app.close(ctx)
			return nil, fmt.Errorf("spool dir error: %w", err)
		}
	}

	arc := archiver.New(fetcher, osfs, arcCfg, logger)
	h := httpapi.NewHandler(
		services.NewResourceLocator(db, rm, logger),
		arc,
		services.NewCatalogueService(db, rm),
		counter,
		logger,
		c.JobTimeout,
	)
	app.server = httpapi.NewHTTPServer(c.ListenAddr, logger, h, c.ShutdownTimeout)

	return app, nil
}

// ArchiverConfig extracts the archiver settings from c.
func ArchiverConfig(c *config.Config) archiver.Config {
	return archiver.Config{
		Workers:          c.FetchWorkers,
		FetchTimeout:     c.FetchTimeout,
		CompressionLevel: c.CompressionLevel,
		SpoolMemoryLimit: c.SpoolMemoryLimit,
		SpoolDir:         c.SpoolDir,
	}
}

// NewFetcher builds the shared fetch stack: http(s) and s3 behind a scheme
// router, wrapped in the retry policy.
func NewFetcher(ctx context.Context, c *config.Config) (fetch.Fetcher, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = max(c.FetchWorkers, 2)
	transport.ResponseHeaderTimeout = c.FetchTimeout
	httpFetcher := fetch.NewHTTPFetcher(&http.Client{Transport: transport})

	s3Client, err := fetch.NewS3Client(ctx, fetch.S3Options{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 init error: %w", err)
	}

	router := fetch.NewRouter().
		Handle(httpFetcher, "http", "https").
		Handle(fetch.NewS3Fetcher(s3Client), "s3")

	return fetch.NewRetrying(router, c.FetchRetries, fetch.DefaultRetryBase), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "address", app.config.ListenAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(context.WithoutCancel(ctx))
}

func (app *App) close(ctx context.Context) {
	start := time.Now()
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped", "cleanup", time.Since(start).String())
}
