package http

import (
	"time"

	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/pipeline"
)

// requestLogging writes one access-log line per request once the response
// is complete. It is only installed in development mode.
func (h *Handler) requestLogging() pipeline.Filter {
	return pipeline.Named("logging", func(x *pipeline.Exchange) (pipeline.Outcome, error) {
		r := x.Request
		log := logger.FromRequest(r)

		start := time.Now()
		uri := r.RequestURI
		method := r.Method

		lw := &responseWriter{ResponseWriter: x.Writer}
		x.Writer = lw

		x.Defer(func() {
			log.Info().
				Str("uri", uri).
				Str("method", method).
				Int("status", lw.status).
				Dur("duration", time.Since(start)).
				Int("size", lw.size).
				Send()
		})
		return pipeline.Continue, nil
	})
}
