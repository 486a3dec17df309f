package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"refinener/internal/config"
	"refinener/internal/dataset"
	"refinener/internal/extraction"
	"refinener/internal/handler"
	"refinener/internal/logging"
	"refinener/internal/metrics"
	"refinener/internal/port"
	"refinener/internal/provider"
	"refinener/internal/provider/builtin"
	"refinener/internal/repository/sqlstore"
	"refinener/internal/router"
	"refinener/internal/service"
	s3storage "refinener/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCloser := logging.Setup(cfg.Log)
	defer logCloser.Close()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlstore.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	changeLogRepo := sqlstore.NewChangeLogRepo(db)

	// Initialize storage
	var storage port.ObjectStorage
	if cfg.S3.Enabled() {
		storage, err = s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	} else {
		log.Println("S3 bucket not set, export publishing disabled")
	}

	// Initialize providers
	builtin.RegisterAll()
	providers, err := provider.NewManager(cfg.Providers.List, cfg.Providers.SettingsFile)
	if err != nil {
		return fmt.Errorf("failed to initialize providers: %w", err)
	}
	if err := providers.Load(); err != nil {
		return fmt.Errorf("failed to load provider settings: %w", err)
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = metrics.Enable()
	}

	// Initialize services
	projects := dataset.NewStore()
	projectSvc := service.NewProjectService(projects, changeLogRepo, storage, cfg.S3)
	providerSvc := service.NewProviderService(providers)
	extractionSvc := service.NewExtractionService(projectSvc, providers, extraction.NewOrchestrator(cfg.Extraction))
	defer extractionSvc.Shutdown()

	// Setup router
	r := router.Setup(cfg, router.Handlers{
		Health:     handler.NewHealthHandler(db, projects, storage != nil),
		Provider:   handler.NewProviderHandler(providerSvc),
		Project:    handler.NewProjectHandler(projectSvc),
		Extraction: handler.NewExtractionHandler(extractionSvc),
		Metrics:    metricsHandler,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
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
	case <-ctx.Done():
		log.Println("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
	}
	return nil
}
