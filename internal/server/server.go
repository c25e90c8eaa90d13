package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MKhiriev/go-natours/internal/config"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/workers"
)

type server struct {
	httpServer      *httpServer
	workers         *workers.Workers
	shutdownTimeout time.Duration
	logger          *logger.Logger
}

// NewServer prepares the HTTP server for handler and the background workers
// that run beside it. bg may be nil.
func NewServer(handler http.Handler, bg *workers.Workers, cfg config.Server, logger *logger.Logger) (Server, error) {
	return newServer(handler, bg, cfg, logger)
}

func newServer(handler http.Handler, bg *workers.Workers, cfg config.Server, logger *logger.Logger) (*server, error) {
	logger.Info().Msg("creating new server...")
	if cfg.HTTPAddress == "" {
		return nil, errNoServersAreCreated
	}
	if bg == nil {
		bg = workers.New()
	}

	return &server{
		httpServer:      newHTTPServer(handler, cfg, logger),
		workers:         bg,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}, nil
}

func (s *server) RunServer() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	if err := s.run(ctx); err != nil {
		s.logger.Error().Err(err).Msg("error running server")
	}
}

func (s *server) Shutdown(ctx context.Context) {
	s.httpServer.Shutdown(ctx)
}

// run serves until ctx is cancelled, then drains in-flight requests and
// only afterwards stops the workers, so that queued store writes issued by
// those requests are still applied.
func (s *server) run(ctx context.Context) error {
	ln, err := s.httpServer.listen()
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.server.Addr, err)
	}

	workersCtx, stopWorkers := context.WithCancel(context.Background())
	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		s.workers.Run(workersCtx)
	}()
	s.logger.Info().Int("workers", s.workers.Len()).Msg("background workers started")

	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		s.httpServer.RunServer()
	}()
	s.logger.Info().Str("address", ln.Addr().String()).Msg("Launching HTTP server")

	select {
	case <-ctx.Done():
	case <-serveDone:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.Shutdown(shutdownCtx)
	<-serveDone

	stopWorkers()
	<-workersDone

	s.logger.Info().Msg("server Shutdown gracefully")
	return nil
}
