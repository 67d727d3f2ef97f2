package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/geo-dashboard-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/geo-dashboard-service/internal/adapter/kafka"
	"github.com/couchcryptid/geo-dashboard-service/internal/config"
	"github.com/couchcryptid/geo-dashboard-service/internal/dashboard"
	"github.com/couchcryptid/geo-dashboard-service/internal/ingest"
	"github.com/couchcryptid/geo-dashboard-service/internal/observability"
	"github.com/couchcryptid/geo-dashboard-service/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	loader := ingest.NewLoader(cfg.ParseCacheSize)
	store := session.NewStore(cfg.MaxSessions, nil)

	// Audit publishing is feature-flagged via AUDIT_ENABLED.
	var audit dashboard.AuditPublisher
	var auditWriter *kafkaadapter.Writer
	if cfg.AuditEnabled {
		auditWriter = kafkaadapter.NewWriter(cfg, logger)
		audit = auditWriter
		metrics.AuditEnabled.Set(1)
		logger.Info("render audit enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.AuditTopic)
	} else {
		logger.Info("render audit disabled")
	}

	svc := dashboard.New(loader, store, logger, metrics, audit)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, cfg.MaxUploadBytes, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if auditWriter != nil {
		if err := auditWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
