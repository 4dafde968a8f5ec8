package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidmase/bananina/internal/bootstrap"
	"github.com/vidmase/bananina/internal/http/handlers"
	"github.com/vidmase/bananina/internal/http/httpapi"
	"github.com/vidmase/bananina/internal/infra"
	"github.com/vidmase/bananina/internal/jobs"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	components, err := bootstrap.Build(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: wiring failed")
	}

	registry := jobs.NewRegistry(jobs.Options{
		MaxConcurrent: cfg.MaxConcurrentJobs,
		Retention:     cfg.JobRetention,
		Logger:        &logger,
	})
	app := handlers.NewApp(components.Studio, registry, &logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		StaticDir:       components.Store.Root(),
		Logger:          &logger,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	jobsCtx, cancelJobs := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelJobs()
	if err := registry.Shutdown(jobsCtx); err != nil {
		logger.Warn().Err(err).Msg("jobs still running at exit")
	}
	logger.Info().Msg("server stopped")
}
