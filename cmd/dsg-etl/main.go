package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/storm-data-dsg/internal/adapter/epsg"
	httpadapter "github.com/couchcryptid/storm-data-dsg/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-data-dsg/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-dsg/internal/adapter/sysmem"
	"github.com/couchcryptid/storm-data-dsg/internal/config"
	"github.com/couchcryptid/storm-data-dsg/internal/dsg"
	"github.com/couchcryptid/storm-data-dsg/internal/observability"
	"github.com/couchcryptid/storm-data-dsg/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	shutdownTracing, err := observability.SetupTracing(context.Background(), cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	// Remote CRS resolver (feature-flagged via DSG_CRS_RESOLVER_URL).
	var fallback []dsg.AxisOrderLookup
	if cfg.Spatial.CRSResolverURL != "" {
		client := epsg.NewClient(cfg.Spatial.CRSResolverURL, cfg.Spatial.CRSResolverTimeout, metrics, logger)
		fallback = append(fallback, epsg.NewCachedLookup(client, cfg.Spatial.CRSCacheSize, metrics))
		logger.Info("crs resolver enabled", "url", cfg.Spatial.CRSResolverURL,
			"cache_size", cfg.Spatial.CRSCacheSize, "timeout", cfg.Spatial.CRSResolverTimeout)
	} else {
		logger.Info("crs resolver disabled")
	}

	opts, err := dsg.OptionsFromConfig(cfg.Spatial, fallback...)
	if err != nil {
		logger.Error("invalid spatial config", "error", err)
		os.Exit(1)
	}
	opts.Logger = logger
	opts.GuardInterval = cfg.MemoryCheckInterval

	// Memory guard (disabled via MEMORY_MAX_USED_PERCENT=0).
	if cfg.MemoryMaxUsedPercent > 0 {
		opts.Guard = sysmem.NewGuard(cfg.MemoryMaxUsedPercent, sysmem.VirtualMemoryUsage, metrics.MemoryUsedPercent, logger)
		logger.Info("memory guard enabled",
			"max_used_percent", cfg.MemoryMaxUsedPercent,
			"check_interval", cfg.MemoryCheckInterval)
	} else {
		logger.Info("memory guard disabled")
	}

	engine := dsg.New(opts)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(engine, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
