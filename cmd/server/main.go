package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/jedlsf/buwis-friend/internal/auth"
	"github.com/jedlsf/buwis-friend/internal/config"
	"github.com/jedlsf/buwis-friend/internal/handler"
	"github.com/jedlsf/buwis-friend/internal/logging"
	"github.com/jedlsf/buwis-friend/internal/metrics"
	"github.com/jedlsf/buwis-friend/internal/repository/postgres"
	"github.com/jedlsf/buwis-friend/internal/router"
	"github.com/jedlsf/buwis-friend/internal/service"
	s3storage "github.com/jedlsf/buwis-friend/internal/storage/s3"
	"github.com/jedlsf/buwis-friend/internal/validator"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.Log)
	log.Logger = logger
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	defaults, err := service.DefaultsFromConfig(cfg.Tax)
	if err != nil {
		return fmt.Errorf("invalid tax defaults: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	sessionRepo := postgres.NewSessionRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewClient(ctx, cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	m := metrics.New("buwis", prometheus.NewRegistry())
	engine := validator.NewEngine(validator.DefaultRegistry(), logger)
	tokens := auth.NewTokenManager(cfg.JWT)

	// Initialize services
	filingSvc := service.NewFilingService(sessionRepo, s3Client, cfg.S3, engine, defaults, m, logger)
	taxSvc := service.NewTaxService(defaults, m)

	// Setup router
	r := router.Setup(cfg, logger, tokens, m, router.Handlers{
		Health:  handler.NewHealthHandler(sessionRepo),
		Session: handler.NewSessionHandler(filingSvc),
		Tax:     handler.NewTaxHandler(taxSvc),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Port).Str("environment", cfg.Server.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
