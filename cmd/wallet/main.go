package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"wallet/internal/apiclient"
	"wallet/internal/cache"
	"wallet/internal/forms"
	"wallet/internal/cli"
	apphttp "wallet/internal/http"
	"wallet/internal/log"
	"wallet/internal/metrics"
	"wallet/internal/session"
	"wallet/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	rec := metrics.New()

	client, err := apiclient.New(apiclient.Options{
		BaseURL:     cfg.APIBaseURL,
		Timeout:     cfg.APITimeout,
		RPS:         cfg.APIRPS,
		CategoryTTL: cfg.CategoryCacheTTL,
		Logger:      logger,
		Metrics:     rec,
	})
	if err != nil {
		logger.Error("Failed to create API client", log.FieldError, err.Error(), "base_url", cfg.APIBaseURL)
		os.Exit(1)
	}

	sessions := session.NewManager(cfg.MaxSessions, cfg.SessionTTL,
		func() *store.Store {
			return store.New(client, store.WithLogger(logger), store.WithMetrics(rec))
		},
		session.WithLogger(logger),
		session.WithMetrics(rec),
	)

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register("sessions", sessions.Cache())
	if c := client.CategoryCache(); c != nil {
		caches.Register("categories", c)
	}
	caches.StartCleanup(5 * time.Minute)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		API:                client,
		Sessions:           sessions,
		Forms:              forms.New(forms.WithLogger(logger)),
		Logger:             logger,
		Metrics:            rec,
		MetricsHandler:     rec.Handler(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		DefaultPageSize:    cfg.DefaultPageSize,
		CookieSecure:       cfg.CookieSecure,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err.Error())
		os.Exit(1)
	}

	done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		caches.Stop()
	})

	logger.Info("Starting wallet server", "port", cfg.Port, "api", cfg.APIBaseURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
