// Package app assembles the store, services and HTTP server from config.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/joandiazestigarribia/upload-project/internal/api"
	"github.com/joandiazestigarribia/upload-project/internal/blobs"
	"github.com/joandiazestigarribia/upload-project/internal/config"
	"github.com/joandiazestigarribia/upload-project/internal/database"
	"github.com/joandiazestigarribia/upload-project/internal/database/objects"
	"github.com/joandiazestigarribia/upload-project/internal/files"
	"github.com/joandiazestigarribia/upload-project/internal/web"
)

type App struct {
	cfg     *config.Config
	handler http.Handler
	closers []func() error
}

// New builds the application. The returned App must be closed.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	store, opener, err := a.openStore(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	cache, err := a.openCache(ctx, cfg.Cache)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	templates, err := web.Templates()
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	fileService := files.NewFileService(blobs.Cached(store, cache), &http.Client{})
	router := api.NewRouter(templates, fileService, opener, &api.Config{
		UseSecurityHeaders:   cfg.Server.UseSecurityHeaders,
		UseHsts:              cfg.Server.UseHsts,
		RateLimit:            cfg.RateLimit.Limit,
		RateBurst:            cfg.RateLimit.Burst,
		MaxUploadBytes:       cfg.Upload.MaxBytes,
		ClientMaxUploadBytes: cfg.Upload.ClientMaxBytes,
	})
	a.handler = router.Handler()
	return a, nil
}

func (a *App) openStore(cfg *config.Config) (blobs.Store, blobs.Opener, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendS3:
		s3cfg := cfg.Storage.S3
		store, err := blobs.NewS3Store(&blobs.S3Config{
			Bucket:         s3cfg.Bucket,
			Region:         s3cfg.Region,
			Endpoint:       s3cfg.Endpoint,
			PublicBaseURL:  s3cfg.PublicBaseUrl,
			ForcePathStyle: s3cfg.ForcePathStyle,
			MaxRetries:     s3cfg.MaxRetries,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create S3 store: %w", err)
		}
		slog.Info("Using S3 storage", "bucket", s3cfg.Bucket, "region", s3cfg.Region)
		return store, nil, nil
	case config.StorageBackendLocal:
		db, err := database.Open(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		store, err := newLocalStore(db, cfg)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Using local storage", "path", cfg.Storage.Path, "database", cfg.Storage.DatabasePath)
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

func newLocalStore(db *sql.DB, cfg *config.Config) (*blobs.LocalStore, error) {
	objectStore, err := objects.NewObjectStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create object store: %w", err)
	}
	store, err := blobs.NewLocalStore(cfg.Storage.Path, cfg.BaseUrl+"/blobs", objectStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create local store: %w", err)
	}
	return store, nil
}

func (a *App) openCache(ctx context.Context, cfg *config.CacheConfig) (blobs.Cache, error) {
	if cfg.RedisAddr == "" {
		return blobs.NoOpCache{}, nil
	}
	cache, err := blobs.NewRedisCache(ctx, &blobs.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.TTL,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, cache.Close)
	slog.Info("Using Redis list cache", "addr", cfg.RedisAddr, "ttl", cfg.TTL)
	return cache, nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       a.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", a.cfg.Server.Port, "base_url", a.cfg.BaseUrl)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// Close releases the database and cache connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
