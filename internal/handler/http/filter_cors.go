package http

import (
	"net/http"

	"github.com/MKhiriev/go-natours/internal/pipeline"
	"github.com/go-chi/cors"
)

// corsFilter answers preflight requests itself and decorates every other
// response with the allow-origin headers. It runs ahead of anything that
// could reject an OPTIONS request.
func (h *Handler) corsFilter() pipeline.Filter {
	c := cors.New(cors.Options{
		AllowedOrigins: h.cfg.Security.CORSOrigins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", traceIDHeader},
		ExposedHeaders:   []string{traceIDHeader, "RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	return pipeline.FromMiddleware("cors", c.Handler)
}
