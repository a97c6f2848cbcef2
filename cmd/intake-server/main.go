package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Inreet-Kaur/capstone/internal/config"
	"github.com/Inreet-Kaur/capstone/internal/platform/db"
	"github.com/Inreet-Kaur/capstone/internal/platform/webhook"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "intake-server",
		Short:        "Clinical intake extraction server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(migrateCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the intake API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// newLogger writes JSON to stdout, or a console format in development.
func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if cfg.PersistenceEnabled() {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Error().Err(err).Msg("failed to connect to database")
			return err
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")
	} else {
		logger.Warn().Msg("DATABASE_URL not set; intake records will not be stored")
	}

	endpoints, err := cfg.WebhookEndpoints()
	if err != nil {
		return err
	}
	notifier := webhook.NewNotifier(endpoints, webhook.WithLogger(logger))
	defer notifier.Close()
	if len(endpoints) > 0 {
		logger.Info().Int("endpoints", len(endpoints)).Msg("webhook delivery enabled")
	}

	deps := serverDeps{pool: pool, events: notifier}
	enc, err := cfg.TranscriptEncryptor()
	if err != nil {
		return err
	}
	if enc != nil {
		deps.sealer = enc
		logger.Info().Msg("transcripts are encrypted at rest")
	}

	e, svc := newServer(cfg, logger, deps)

	// Classify answers 409 until this finishes.
	go func() {
		if _, err := svc.TrainClassifier(ctx, nil, cfg.ClassifierSyntheticSamples, cfg.ClassifierSeed); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("section classifier unavailable")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
