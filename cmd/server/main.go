package main

import (
	"context"
	"fmt"
	"os"

	"github.com/MKhiriev/go-natours/internal/config"
	"github.com/MKhiriev/go-natours/internal/handler"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/ratelimit"
	"github.com/MKhiriev/go-natours/internal/server"
	"github.com/MKhiriev/go-natours/internal/service"
	"github.com/MKhiriev/go-natours/internal/store"
	"github.com/MKhiriev/go-natours/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	cfg, err := config.GetStructuredConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error getting configs: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger("natours-server", cfg.App.Env)
	log.Info().Str("mode", cfg.App.Env).Str("version", cfg.App.Version).Msg("received configs")

	storages, err := store.NewStorages(context.Background(), cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}
	defer func() {
		if err := storages.Close(); err != nil {
			log.Err(err).Msg("error closing storages")
		}
	}()

	limiter, janitor, err := newLimiter(cfg.RateLimit)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating rate limiter")
	}

	services := service.NewServices(storages.Documents, *cfg, log)
	handlers, err := handler.NewHandlers(services, *cfg, limiter, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	// nil workers are skipped
	var memWriter workers.Worker
	if storages.Memory != nil {
		memWriter = storages.Memory
	}
	bg := workers.New(memWriter, janitor)

	srv, err := server.NewServer(handlers.HTTP.Init(), bg, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}
	srv.RunServer()
}

// newLimiter uses Redis when a URL is configured so that every instance
// shares one counter; otherwise the in-process limiter and its janitor.
func newLimiter(cfg config.RateLimit) (ratelimit.Limiter, workers.Worker, error) {
	if cfg.RedisURL != "" {
		l, err := ratelimit.NewRedisFromURL(cfg.RedisURL, cfg.Max, cfg.Window)
		return l, nil, err
	}
	l, err := ratelimit.NewMemory(cfg.Max, cfg.Window)
	if err != nil {
		return nil, nil, err
	}
	return l, l, nil
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
