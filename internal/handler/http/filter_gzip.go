package http

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/MKhiriev/go-natours/internal/pipeline"
)

var gzipWriterPool = sync.Pool{
	New: func() any {
		w := gzip.NewWriter(nil)
		return w
	},
}

// compression gzips responses for clients that accept it. The gzip stream
// is flushed after the whole chain, error responses included, has run.
func (h *Handler) compression() pipeline.Filter {
	return pipeline.Named("compression", func(x *pipeline.Exchange) (pipeline.Outcome, error) {
		r := x.Request
		if r.Method == http.MethodHead || !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			return pipeline.Continue, nil
		}

		gzipWriter := gzipWriterPool.Get().(*gzip.Writer)
		gzipWriter.Reset(x.Writer)

		gzipRW := &gzipResponseWriter{
			ResponseWriter: x.Writer,
			gzipWriter:     gzipWriter,
		}
		gzipRW.Header().Add("Vary", "Accept-Encoding")
		x.Writer = gzipRW

		x.Defer(func() {
			gzipRW.finish()
			gzipWriterPool.Put(gzipWriter)
		})
		return pipeline.Continue, nil
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	gzipWriter *gzip.Writer

	wroteHeader bool
	// compress is false for statuses that carry no body.
	compress bool
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.compress = bodyAllowed(statusCode)
	if w.compress {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(data))
		}
		w.WriteHeader(http.StatusOK)
	}
	if !w.compress {
		return w.ResponseWriter.Write(data)
	}
	return w.gzipWriter.Write(data)
}

// finish terminates the gzip stream, or drops it when nothing compressed was
// written so bodiless responses stay empty.
func (w *gzipResponseWriter) finish() {
	if w.compress {
		_ = w.gzipWriter.Close()
		return
	}
	w.gzipWriter.Reset(io.Discard)
}

func (w *gzipResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status < 200:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}
