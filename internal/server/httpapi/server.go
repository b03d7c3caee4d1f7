// Package httpapi exposes the portal over HTTP using echo.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/studyportal/internal/logging"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type HTTPServer struct {
	address         string
	echo            *echo.Echo
	logger          logging.Logger
	shutdownTimeout time.Duration
}

func NewHTTPServer(address string, l logging.Logger, h *Handler, shutdownTimeout time.Duration) *HTTPServer {
	s := &HTTPServer{
		address:         address,
		logger:          l.With("module", "http_server"),
		shutdownTimeout: shutdownTimeout,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency.String(), "remote_ip", v.RemoteIP}
			if v.Error != nil {
				args = append(args, "error", v.Error)
			}
			s.logger.Info(c.Request().Context(), "request", args...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	h.RegisterRoutes(e)
	s.echo = e

	return s
}

// Handler returns the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler { return s.echo }

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the shutdown timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(sctx); err != nil {
		return err
	}
	return <-errCh
}
