package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/tide-chart-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/tide-chart-service/internal/adapter/kafka"
	"github.com/couchcryptid/tide-chart-service/internal/config"
	"github.com/couchcryptid/tide-chart-service/internal/domain"
	"github.com/couchcryptid/tide-chart-service/internal/fallback"
	"github.com/couchcryptid/tide-chart-service/internal/observability"
	"github.com/couchcryptid/tide-chart-service/internal/pipeline"
	"github.com/couchcryptid/tide-chart-service/internal/scale"
	"github.com/couchcryptid/tide-chart-service/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	handler, err := fallback.NewHandler()
	if err != nil {
		logger.Error("failed to load locale catalogs", "error", err)
		os.Exit(1)
	}

	fields := domain.NewFieldValidator()
	engine := validation.NewEngine(fields, domain.NewTransformer(fields))
	calculator := scale.NewCalculator(cfg.ScaleCacheSize)

	opts := validation.Options{
		StrictMode:      cfg.StrictMode,
		PerformanceMode: cfg.PerformanceMode,
		MaxRecords:      cfg.MaxRecords,
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	processor := pipeline.NewChartProcessor(engine, handler, calculator, opts, cfg.SeriesTimeout, metrics, logger)

	p := pipeline.New(reader, processor, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start chart pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
