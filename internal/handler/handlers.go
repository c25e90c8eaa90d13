// Package handler assembles the transport handlers of the server.
package handler

import (
	"github.com/MKhiriev/go-natours/internal/config"
	"github.com/MKhiriev/go-natours/internal/disclosure"
	"github.com/MKhiriev/go-natours/internal/handler/http"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/ratelimit"
	"github.com/MKhiriev/go-natours/internal/service"
)

type Handlers struct {
	HTTP *http.Handler
}

// NewHandlers builds the HTTP handler. The error disclosure policy is
// selected from cfg.App.Env.
func NewHandlers(services *service.Services, cfg config.StructuredConfig, limiter ratelimit.Limiter, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	if cfg.Server.HTTPAddress == "" {
		return nil, errNoHandlersAreCreated
	}

	policy, err := disclosure.New(cfg.App.Env)
	if err != nil {
		return nil, err
	}

	return &Handlers{HTTP: http.NewHandler(services, cfg, policy, limiter, logger)}, nil
}
