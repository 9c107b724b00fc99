package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/hszk-dev/shorturl/docs"
	"github.com/hszk-dev/shorturl/internal/config"
	"github.com/hszk-dev/shorturl/internal/logging"
	"github.com/hszk-dev/shorturl/internal/shortener"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//	@title			URL Shortener
//	@version		1.0
//	@description	Shortens URLs to compact codes and redirects codes back to their URLs.
//	@BasePath		/
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	codec, err := shortener.NewCodec(cfg.Alphabet)
	if err != nil {
		return err
	}

	repo, cache, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}()

	service := shortener.NewService(repo, codec,
		shortener.WithStoreTimeout(cfg.StoreTimeout),
		shortener.WithLogger(logger.Named("shortener")),
	)
	app := &App{
		Service:      service,
		BaseURL:      cfg.BaseURL,
		LegacyStatus: cfg.LegacyStatusCodes,
		Database:     repo,
		Cache:        cache,
		Logger:       logger.Named("http"),
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Port),
			zap.String("base_url", cfg.BaseURL),
			zap.String("store", cfg.DBDriver),
			zap.Bool("cache", cache != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// openRepository builds the configured store, wrapped in a Redis cache when
// REDIS_ADDR is set. The returned Checker is nil without a cache.
func openRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (shortener.Repository, Checker, error) {
	var repo shortener.Repository

	if cfg.DBDriver == config.DriverMemory {
		logger.Warn("using in-memory store; short codes will not survive a restart")
		repo = shortener.NewMemoryRepository()
	} else {
		dialect, err := shortener.DialectFor(cfg.DBDriver)
		if err != nil {
			return nil, nil, err
		}

		if dialect == shortener.DialectSQLite {
			if err := os.MkdirAll(filepath.Dir(cfg.DatabaseURL), 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}

		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		sqlRepo, err := shortener.OpenSQLRepository(connectCtx, dialect, cfg.DatabaseURL, cfg.DBTable)
		if err != nil {
			return nil, nil, err
		}

		if cfg.AutoMigrate {
			if err := sqlRepo.Migrate(connectCtx); err != nil {
				sqlRepo.Close()
				return nil, nil, err
			}
		}
		repo = sqlRepo
	}

	if cfg.RedisAddr == "" {
		return repo, nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:                  cfg.RedisAddr,
		ContextTimeoutEnabled: true,
	})
	cached := shortener.NewCachedRepository(repo, client, cfg.CacheTTL, logger.Named("cache"))
	if err := cached.PingCache(ctx); err != nil {
		// The cache is optional; lookups fall through to the store until Redis is back.
		logger.Warn("redis unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	return cached, CheckerFunc(cached.PingCache), nil
}
