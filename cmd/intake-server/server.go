package main

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/Inreet-Kaur/capstone/internal/config"
	"github.com/Inreet-Kaur/capstone/internal/domain/intake"
	"github.com/Inreet-Kaur/capstone/internal/platform/auth"
	"github.com/Inreet-Kaur/capstone/internal/platform/classifier"
	"github.com/Inreet-Kaur/capstone/internal/platform/db"
	"github.com/Inreet-Kaur/capstone/internal/platform/extraction"
	"github.com/Inreet-Kaur/capstone/internal/platform/metrics"
	"github.com/Inreet-Kaur/capstone/internal/platform/middleware"
	"github.com/Inreet-Kaur/capstone/internal/platform/transcribe"
)

const transcribePath = "/api/v1/intake/transcribe"

// serverDeps are the external resources handed to newServer. Every field may
// be nil. Without a pool records are extracted but not stored.
type serverDeps struct {
	pool   *pgxpool.Pool
	sealer intake.TranscriptSealer
	events intake.EventPublisher
}

func newServer(cfg *config.Config, logger zerolog.Logger, deps serverDeps) (*echo.Echo, *intake.Service) {
	pool := deps.pool
	opts := []intake.Option{
		intake.WithLogger(logger),
		intake.WithMetrics(metrics.New()),
		intake.WithTranscriber(transcribe.NewClient(cfg.TranscriberURL, transcribe.WithTimeout(cfg.TranscriberTimeout))),
		intake.WithClassifier(classifier.New(classifier.Options{
			Trees:       cfg.ClassifierTrees,
			MaxFeatures: cfg.ClassifierMaxFeatures,
			Seed:        cfg.ClassifierSeed,
		})),
	}
	if pool != nil {
		var repoOpts []intake.RepoOption
		if deps.sealer != nil {
			repoOpts = append(repoOpts, intake.WithTranscriptSealer(deps.sealer))
		}
		opts = append(opts, intake.WithRepository(intake.NewRepoPG(pool, repoOpts...)))
	}
	if deps.events != nil {
		opts = append(opts, intake.WithEvents(deps.events))
	}
	svc := intake.NewService(extraction.NewAssembler(nil), opts...)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, map[string]string{transcribePath: cfg.AudioBodyLimit}))

	// Operational endpoints stay unauthenticated.
	e.GET("/health", healthHandler(svc))
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", metrics.Handler())

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.JWTSigningKey),
		}))
	}
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
	}))
	apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	intake.NewHandler(svc).RegisterRoutes(apiV1)

	return e, svc
}

func healthHandler(svc *intake.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":             "ok",
			"persistence":        svc.PersistenceEnabled(),
			"classifier_trained": svc.Classifier() != nil && svc.Classifier().Trained(),
		})
	}
}
