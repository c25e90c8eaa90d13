package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/MKhiriev/go-natours/internal/config"
	"github.com/MKhiriev/go-natours/internal/logger"
)

type httpServer struct {
	server *http.Server
	logger *logger.Logger

	mu       sync.Mutex
	listener net.Listener
}

func newHTTPServer(handler http.Handler, cfg config.Server, logger *logger.Logger) *httpServer {
	return &httpServer{
		server: &http.Server{
			Addr:              cfg.HTTPAddress,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		logger: logger,
	}
}

// listen binds the configured address once; later calls return the same
// listener.
func (h *httpServer) listen() (net.Listener, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.listener != nil {
		return h.listener, nil
	}
	ln, err := net.Listen("tcp", h.server.Addr)
	if err != nil {
		return nil, err
	}
	h.listener = ln
	return ln, nil
}

func (h *httpServer) RunServer() {
	ln, err := h.listen()
	if err != nil {
		h.logger.Error().Err(err).Msg("HTTP server listen")
		return
	}
	if err = h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		h.logger.Error().Err(err).Msg("HTTP server Serve")
	}
}

func (h *httpServer) Shutdown(ctx context.Context) {
	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Error().Err(err).Msg("HTTP server Shutdown")
	}
}
