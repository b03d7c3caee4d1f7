package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/studyportal/internal/common"
	"github.com/dmitrijs2005/studyportal/internal/logging"
	"github.com/dmitrijs2005/studyportal/internal/server/archiver"
	"github.com/dmitrijs2005/studyportal/internal/server/counters"
	"github.com/dmitrijs2005/studyportal/internal/server/models"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	msgNoResources = "No downloadable resources found"
	msgZipFailed   = "Failed to create ZIP file"

	HeaderArchiveEntries = "X-Archive-Entries"
	HeaderArchiveSkipped = "X-Archive-Skipped"
	HeaderJobID          = "X-Archive-Job"
)

type Locator interface {
	Locate(ctx context.Context, group string) ([]models.Resource, error)
}

type Archiver interface {
	Stream(ctx context.Context, w io.Writer, items []models.Resource, opts archiver.Options) (*archiver.Report, error)
}

type Catalogue interface {
	Years(ctx context.Context) ([]*models.Year, error)
}

// Handler serves the download and catalogue endpoints.
type Handler struct {
	locator    Locator
	archiver   Archiver
	catalogue  Catalogue
	counter    counters.Counter
	logger     logging.Logger
	jobTimeout time.Duration
}

func NewHandler(l Locator, a Archiver, c Catalogue, cnt counters.Counter, logger logging.Logger, jobTimeout time.Duration) *Handler {
	if cnt == nil {
		cnt = counters.Nop{}
	}
	return &Handler{
		locator:    l,
		archiver:   a,
		catalogue:  c,
		counter:    cnt,
		logger:     logger.With("module", "http_handler"),
		jobTimeout: jobTimeout,
	}
}

// RegisterRoutes registers the API routes with the Echo router.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/download-zip", h.DownloadZip)
	e.GET("/api/download-zip", h.DownloadZip)
	e.GET("/api/check-db", h.CheckDB)
	e.GET("/api/download-stats", h.DownloadStats)
}

type errorResponse struct {
	Error string `json:"error"`
}

// DownloadZip handles GET /download-zip?group=<unit id>.
// The archive is streamed as it is built. Headers are sent with the first
// archive byte, so anything failing before that still gets a JSON error.
func (h *Handler) DownloadZip(c echo.Context) error {
	group := c.QueryParam("group")
	if group == "" {
		group = c.QueryParam("unitId")
	}

	ctx := c.Request().Context()
	if h.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.jobTimeout)
		defer cancel()
	}

	items, err := h.locator.Locate(ctx, group)
	if err != nil {
		if errors.Is(err, common.ErrNoDownloadableResources) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: msgNoResources})
		}
		h.logger.Error(ctx, "cannot locate resources", "group", group, "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgZipFailed})
	}

	jobID := uuid.NewString()
	filename := "resources.zip"
	if group == "" {
		filename = "all-resources.zip"
	}

	w := newLazyWriter(c.Response(), func(hdr http.Header) {
		hdr.Set(echo.HeaderContentType, "application/zip")
		hdr.Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
		hdr.Set(HeaderJobID, jobID)
		hdr.Set("Trailer", HeaderArchiveEntries+", "+HeaderArchiveSkipped)
	})

	report, err := h.archiver.Stream(ctx, w, items, archiver.Options{
		JobID:      jobID,
		Namespaced: group == "",
	})
	if err != nil {
		if !w.Committed() {
			h.logger.Error(ctx, "archive failed before first byte", "job_id", jobID, "error", err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgZipFailed})
		}
		h.logger.Error(ctx, "archive aborted mid-stream", "job_id", jobID, "error", err)
		// headers are gone; dropping the connection is the only signal left
		panic(http.ErrAbortHandler)
	}

	hdr := c.Response().Header()
	hdr.Set(HeaderArchiveEntries, strconv.Itoa(len(report.Entries)))
	hdr.Set(HeaderArchiveSkipped, strconv.Itoa(len(report.Skipped)))

	if _, err := h.counter.Inc(ctx, group); err != nil {
		h.logger.Warn(ctx, "cannot count download", "group", group, "error", err)
	}

	return nil
}

type yearSummary struct {
	Name      string   `json:"name"`
	UnitCount int      `json:"unitCount"`
	Units     []string `json:"units"`
}

type catalogueResponse struct {
	Count int           `json:"count"`
	Years []yearSummary `json:"years"`
}

// CheckDB handles GET /api/check-db.
func (h *Handler) CheckDB(c echo.Context) error {
	ctx := c.Request().Context()

	years, err := h.catalogue.Years(ctx)
	if err != nil {
		h.logger.Error(ctx, "catalogue check failed", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	resp := catalogueResponse{Count: len(years), Years: make([]yearSummary, 0, len(years))}
	for _, y := range years {
		names := make([]string, 0, len(y.Units))
		for _, u := range y.Units {
			names = append(names, u.Name)
		}
		resp.Years = append(resp.Years, yearSummary{Name: y.Name, UnitCount: len(names), Units: names})
	}

	return c.JSON(http.StatusOK, resp)
}

// DownloadStats handles GET /api/download-stats.
func (h *Handler) DownloadStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.counter.All(ctx)
	if err != nil {
		h.logger.Error(ctx, "cannot read download stats", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, stats)
}
