package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"geocatalog/internal/config"
	"geocatalog/internal/logger"
	"geocatalog/internal/repository/sqlite"
	"geocatalog/internal/route"
	"geocatalog/internal/service"
	"geocatalog/internal/service/storage"
)

const shutdownTimeout = 10 * time.Second

// App owns the long-lived resources of the server.
type App struct {
	config  *config.Config
	logger  *logger.Logger
	db      *sqlite.DB
	handler http.Handler
}

// NewApp opens the database and media root and builds the router.
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("database not reachable: %w", err)
	}

	media, err := storage.NewMediaStore(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	svc := route.Services{
		Auth: service.NewAuthService(
			sqlite.NewUserRepository(db),
			sqlite.NewTokenRepository(db),
			cfg.BcryptCost,
		),
		Entities:      service.NewEntityService(sqlite.NewEntityRepository(db), media),
		OfflineImages: service.NewOfflineImageService(sqlite.NewOfflineImageRepository(db)),
		Media:         media,
	}

	return &App{
		config:  cfg,
		logger:  log,
		db:      db,
		handler: route.SetupRoutes(svc, cfg, log.Logger),
	}, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.config.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	a.logger.Info().
		Str("addr", srv.Addr).
		Str("db", a.config.DBPath).
		Str("media_root", a.config.MediaRoot).
		Str("media_url", a.config.MediaURL).
		Msg("geocatalog server starting")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.db.Close()
}
