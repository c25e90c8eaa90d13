package http

import (
	"github.com/MKhiriev/go-natours/internal/pipeline"
	"github.com/MKhiriev/go-natours/internal/utils"
	"github.com/rs/zerolog"
)

const traceIDHeader = "X-Trace-ID"

// traceID tags the request with a trace id, taken from X-Trace-ID when the
// client sent one, and stores a child logger carrying it in the request
// context.
func (h *Handler) traceID() pipeline.Filter {
	ids := utils.NewUUIDGenerator()

	return pipeline.Named("trace-id", func(x *pipeline.Exchange) (pipeline.Outcome, error) {
		r := x.Request

		traceID := r.Header.Get(traceIDHeader)
		if traceID == "" {
			traceID = ids.Generate()
		}

		l := h.logger.GetChildLogger()
		l.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("trace_id", traceID)
		})
		x.Request = r.WithContext(l.WithContext(r.Context()))

		x.Writer.Header().Set(traceIDHeader, traceID)
		return pipeline.Continue, nil
	})
}
