package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/mediasync/internal/cache"
	"github.com/dmitrijs2005/mediasync/internal/config"
	"github.com/dmitrijs2005/mediasync/internal/filex"
	"github.com/dmitrijs2005/mediasync/internal/logging"
	"github.com/dmitrijs2005/mediasync/internal/metrics"
	"github.com/dmitrijs2005/mediasync/internal/remote"
	"github.com/dmitrijs2005/mediasync/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	// stdout carries protocol messages, so logs go to stderr
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if cfg.CacheDSN != ":memory:" {
		if _, err := filex.EnsureParentDir(cfg.CacheDSN); err != nil {
			return fmt.Errorf("failed to prepare cache directory: %w", err)
		}
	}

	store, err := cache.InitDatabase(ctx, cfg.CacheDSN)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	defer store.Close()

	blobs, err := newObjectStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if cfg.MetricsAddr != "" {
		serveMetrics(ctx, cfg, reg, logger)
	}

	w := worker.New(store, blobs, []byte(cfg.TokenSecret), logger, m)

	// one buffered reader over stdin, shared between the credential prompt
	// and the message loop
	in := bufio.NewReader(os.Stdin)

	if cfg.Interactive {
		if err := interactiveLoad(ctx, w, in, []byte(cfg.TokenSecret), logger); err != nil {
			return err
		}
	}

	return w.Run(ctx, in, os.Stdout)
}

// newObjectStore selects the remote backend. An empty bucket means local
// development against an in-memory store.
func newObjectStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (remote.ObjectStore, error) {
	if cfg.S3Bucket == "" {
		logger.Info(ctx, "no bucket configured, using in-memory object store")
		return remote.NewMemoryStore(), nil
	}
	return remote.NewS3Store(ctx, remote.S3Config{
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
		Bucket:       cfg.S3Bucket,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
	})
}

// serveMetrics exposes the prometheus registry on its own listener and
// shuts it down when ctx is cancelled.
func serveMetrics(ctx context.Context, cfg *config.Config, reg *prometheus.Registry, logger logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn(ctx, "metrics server shutdown failed", "error", err)
		}
	}()

	go func() {
		logger.Info(ctx, "metrics server starting", "addr", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "metrics server failed", "error", err)
		}
	}()
}
