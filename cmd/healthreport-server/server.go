package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/healthreport/internal/config"
	"github.com/ehr/healthreport/internal/domain/healthdata"
	"github.com/ehr/healthreport/internal/domain/identity"
	"github.com/ehr/healthreport/internal/domain/partner"
	"github.com/ehr/healthreport/internal/domain/payment"
	"github.com/ehr/healthreport/internal/domain/report"
	"github.com/ehr/healthreport/internal/domain/status"
	"github.com/ehr/healthreport/internal/platform/auth"
	"github.com/ehr/healthreport/internal/platform/cache"
	"github.com/ehr/healthreport/internal/platform/db"
	"github.com/ehr/healthreport/internal/platform/metrics"
	"github.com/ehr/healthreport/internal/platform/middleware"
)

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).Level(zerolog.InfoLevel).
		With().Timestamp().Str("service", "healthreport").Logger()
}

// routes are the handlers mounted on the server.
type routes struct {
	status   *status.Handler
	identity *identity.Handler
	health   echo.HandlerFunc
}

func newEcho(cfg *config.Config, logger zerolog.Logger, r routes) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, status.HeaderAPIKey},
	}))

	e.GET("/health", r.health)
	e.GET("/metrics", metrics.Handler())

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	apiV1 := e.Group("/api/v1",
		middleware.RateLimit(rateLimitCfg),
		middleware.RequestTimeout(cfg.RequestTimeout))
	r.status.RegisterRoutes(apiV1)

	var authMW echo.MiddlewareFunc
	if cfg.IsDev() && cfg.AuthSigningKey == "" {
		authMW = auth.DevAuthMiddleware()
	} else {
		authMW = auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
			Skipper:    auth.AuthSkipper,
		})
	}
	r.identity.RegisterRoutes(apiV1.Group("", authMW))

	return e
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		l := newLogger(nil)
		l.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	var partners partner.Repository = partner.NewRepoPG(pool)
	checkers := map[string]db.Checker{}
	redisClient, err := cache.New(ctx, cfg.RedisURL)
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("partner cache unavailable, reading partner config from postgres")
	case redisClient != nil:
		defer redisClient.Close()
		partners = partner.NewCachedRepository(partners, redisClient.Client, cfg.PartnerCacheTTL, logger)
		checkers["redis"] = redisClient
		logger.Info().Dur("ttl", cfg.PartnerCacheTTL).Msg("partner cache enabled")
	}

	aggregator := healthdata.NewAggregator(
		healthdata.NewBrokerCounterPG(pool),
		healthdata.NewLocalCacheCounterPG(pool),
		healthdata.NewPartnerPayloadCounterPG(pool),
		cfg.ProvenanceTimeout,
		logger,
	)
	resolver := status.NewResolver(
		aggregator,
		report.NewRepoPG(pool),
		partner.NewRegistry(partners),
		payment.NewCheckerPG(pool),
		status.Options{
			Threshold: cfg.SufficiencyThreshold,
			Expiry:    report.NewExpiryPolicy(cfg.ReportValidity),
		},
		logger,
	)
	reconciler := identity.NewReconciler(
		identity.NewExternalPatientStorePG(pool),
		identity.NewPendingRegistrationRepoPG(pool),
		logger,
	)

	e := newEcho(cfg, logger, routes{
		status:   status.NewHandler(resolver, reconciler, logger),
		identity: identity.NewHandler(reconciler),
		health:   db.HealthHandler(pool, checkers),
	})

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).
			Int("sufficiency_threshold", cfg.SufficiencyThreshold).
			Dur("report_validity", cfg.ReportValidity).
			Dur("provenance_timeout", cfg.ProvenanceTimeout).
			Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
