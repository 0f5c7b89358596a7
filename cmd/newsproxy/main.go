// Package main runs the news proxy server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	gstorage "cloud.google.com/go/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mkovalev/newsstand/internal/api"
	"github.com/mkovalev/newsstand/internal/cache"
	"github.com/mkovalev/newsstand/internal/clock/system"
	"github.com/mkovalev/newsstand/internal/config"
	"github.com/mkovalev/newsstand/internal/logging"
	"github.com/mkovalev/newsstand/internal/metrics"
	"github.com/mkovalev/newsstand/internal/notify"
	memorypublisher "github.com/mkovalev/newsstand/internal/publisher/memory"
	pubsubpublisher "github.com/mkovalev/newsstand/internal/publisher/pubsub"
	"github.com/mkovalev/newsstand/internal/storage"
	gcsstorage "github.com/mkovalev/newsstand/internal/storage/gcs"
	localstorage "github.com/mkovalev/newsstand/internal/storage/local"
	memorystorage "github.com/mkovalev/newsstand/internal/storage/memory"
	"github.com/mkovalev/newsstand/internal/upstream"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()

	client := upstream.New(upstream.Config{
		APIKey:     cfg.Upstream.APIKey,
		BaseURL:    cfg.Upstream.BaseURL,
		Language:   cfg.Upstream.Language,
		SortBy:     cfg.Upstream.SortBy,
		PageSize:   cfg.Upstream.PageSize,
		Timeout:    cfg.UpstreamTimeout(),
		MaxRetries: cfg.Upstream.MaxRetries,
		RPS:        cfg.Upstream.RPS,
		Burst:      cfg.Upstream.Burst,
	}, logger.Named("upstream"))
	newsCache := cache.New(client, clock, cfg.CacheTTL(), logger.Named("cache"))

	files, err := newUploadStore(ctx, cfg)
	if err != nil {
		logger.Fatal("upload store init failed", zap.Error(err))
	}

	publisher, err := newPublisher(ctx, cfg)
	if err != nil {
		logger.Fatal("publisher init failed", zap.Error(err))
	}
	registry := notify.NewRegistry()
	notifier := notify.NewNotifier(publisher, registry, cfg.Notify.TopicName, logger.Named("notify"))

	apiServer := api.NewServer(newsCache, files, registry, notifier, clock, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func newUploadStore(ctx context.Context, cfg config.Config) (storage.Provider, error) {
	switch cfg.Upload.Provider {
	case "local":
		return localstorage.New(localstorage.Config{BaseDir: cfg.Upload.BaseDir})
	case "gcs":
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client: %w", err)
		}
		return gcsstorage.New(client, gcsstorage.Config{
			Bucket: cfg.Upload.GCSBucket,
			Prefix: "uploads",
		})
	case "memory":
		return memorystorage.New(), nil
	default:
		return nil, fmt.Errorf("unknown upload provider %q", cfg.Upload.Provider)
	}
}

func newPublisher(ctx context.Context, cfg config.Config) (notify.Publisher, error) {
	switch cfg.Notify.Provider {
	case "pubsub":
		client, err := pubsub.NewClient(ctx, cfg.Notify.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("pubsub client: %w", err)
		}
		return pubsubpublisher.New(client)
	case "memory":
		return memorypublisher.New(), nil
	default:
		return nil, fmt.Errorf("unknown notify provider %q", cfg.Notify.Provider)
	}
}
