package http

import (
	"net/http"

	"github.com/MKhiriev/go-natours/internal/config"
	"github.com/MKhiriev/go-natours/internal/disclosure"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/normalizer"
	"github.com/MKhiriev/go-natours/internal/ratelimit"
	"github.com/MKhiriev/go-natours/internal/sanitize"
	"github.com/MKhiriev/go-natours/internal/service"
	"github.com/MKhiriev/go-natours/internal/views"
)

// Handler owns the ingress pipeline and the domain routers.
type Handler struct {
	services *service.Services
	cfg      config.StructuredConfig
	policy   disclosure.Policy
	limiter  ratelimit.Limiter
	pages    *views.Renderer

	xss       *sanitize.XSS
	pollution *sanitize.Pollution

	logger *logger.Logger
}

// NewHandler wires the HTTP layer. policy is the only writer of error
// responses; limiter counts /api requests.
func NewHandler(services *service.Services, cfg config.StructuredConfig, policy disclosure.Policy, limiter ratelimit.Limiter, logger *logger.Logger) *Handler {
	logger.Info().Str("mode", cfg.App.Env).Msg("http handler created")
	return &Handler{
		services:  services,
		cfg:       cfg,
		policy:    policy,
		limiter:   limiter,
		pages:     views.NewRenderer(cfg.App.Name),
		xss:       sanitize.NewXSS(),
		pollution: sanitize.NewPollution(cfg.Security.HPPWhitelist),
		logger:    logger,
	}
}

// handlerFunc is a route handler that reports failures instead of writing
// them.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts fn to http.HandlerFunc. A returned error is mapped to an
// AppError where the handler layer knows one and then sent to the error
// stage.
func (h *Handler) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.fail(w, r, mapError(err))
		}
	}
}

// fail is the error stage: every failure, whether raised by a filter, a
// router or a recovered panic, is normalized here and written by the
// disclosure policy.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.policy.Write(w, r, normalizer.Normalize(err))
}
