package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/healthai/healthai/internal/config"
	"github.com/healthai/healthai/internal/domain/chat"
	"github.com/healthai/healthai/internal/domain/prediction"
	"github.com/healthai/healthai/internal/domain/treatment"
	"github.com/healthai/healthai/internal/knowledge"
	"github.com/healthai/healthai/internal/platform/middleware"
	"github.com/healthai/healthai/internal/platform/telemetry"
)

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger.Level(cfg.Level())
}

func runServer(cfg *config.Config) error {
	logger := newLogger(cfg)

	kb, err := loadKB(cfg.KBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load knowledge base")
	}
	logger.Info().
		Int("conditions", kb.Len()).
		Int("templates", len(kb.Templates())).
		Int("chat_rules", len(kb.ChatRules())).
		Msg("knowledge base loaded")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	e := newServer(cfg, kb, logger, reg)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer builds the Echo instance with middleware and routes. Metrics are
// registered on reg; /metrics is only mounted when enabled.
func newServer(cfg *config.Config, kb *knowledge.Base, logger zerolog.Logger, reg *prometheus.Registry) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	metrics := telemetry.NewEngineMetrics(reg)

	// Global middleware. The timeout runs the rest of the chain in its own
	// goroutine, so recovery must sit inside it.
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware())
	e.Use(telemetry.TracingMiddleware())
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":     "ok",
			"version":    Version,
			"conditions": kb.Len(),
		})
	})
	if cfg.MetricsEnabled {
		e.GET("/metrics", telemetry.Handler(reg))
	}

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(rateLimitConfig(cfg)))

	prediction.NewHandler(prediction.NewMatcher(kb), kb, metrics).RegisterRoutes(apiV1)
	treatment.NewHandler(treatment.NewGenerator(kb), kb, metrics).RegisterRoutes(apiV1)
	chat.NewHandler(chat.NewResponder(kb), metrics).RegisterRoutes(apiV1)

	return e
}

// rateLimitConfig falls back to the middleware defaults for unset values.
func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	def := middleware.DefaultRateLimitConfig()
	if rl.RequestsPerSecond <= 0 {
		rl.RequestsPerSecond = def.RequestsPerSecond
	}
	if rl.BurstSize <= 0 {
		rl.BurstSize = def.BurstSize
	}
	return rl
}
