package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// lazyWriter delays the status line and headers until the first byte.
type lazyWriter struct {
	resp      *echo.Response
	prepare   func(http.Header)
	committed bool
}

func newLazyWriter(resp *echo.Response, prepare func(http.Header)) *lazyWriter {
	return &lazyWriter{resp: resp, prepare: prepare}
}

func (w *lazyWriter) Write(p []byte) (int, error) {
	if !w.committed {
		w.prepare(w.resp.Header())
		w.resp.WriteHeader(http.StatusOK)
		w.committed = true
	}
	return w.resp.Write(p)
}

// Flush pushes buffered bytes to the client once headers are out.
func (w *lazyWriter) Flush() {
	if !w.committed {
		return
	}
	_ = http.NewResponseController(w.resp.Writer).Flush()
}

func (w *lazyWriter) Committed() bool { return w.committed }
