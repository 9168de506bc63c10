// Command analytics consumes enrichment events from Kafka, aggregates them in
// memory (facet terms and slots, stop-word language lookups, cache hit rate,
// latency percentiles) and serves the totals at GET /api/v1/analytics.
// Snapshots are persisted to PostgreSQL when it is reachable.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/analytics/store"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging)
	slog.Info("starting analytics service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aggregator := analytics.NewAggregator()
	checker := health.NewChecker()

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, snapshots disabled", "error", err)
	} else {
		defer db.Close()
		checker.Register("postgres", health.PingCheck(db))
		snapshots := store.New(db)
		if err := snapshots.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare snapshot table", "error", err)
			os.Exit(1)
		}
		latest, err := snapshots.LatestSnapshot(ctx)
		if err != nil {
			slog.Warn("could not load latest snapshot", "error", err)
		} else if latest != nil {
			aggregator.Restore(*latest)
			slog.Info("restored analytics snapshot", "facet_requests", latest.FacetRequests)
		}
		snapshots.StartPeriodicSave(ctx, aggregator, cfg.Analytics.SnapshotInterval)
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.EnrichmentEvents, analytics.HandleEvent(aggregator))
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("consumer error", "error", err)
		}
	}()
	slog.Info("analytics consumer started", "topic", cfg.Kafka.Topics.EnrichmentEvents)
	checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: "consumer active"}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(aggregator).Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("analytics service stopped")
}
