// Command facetd serves the search enrichment API: term facets over matched
// documents, per-language stop-word lists, and stop-word aware analysis.
//
// Usage:
//
//	go run ./cmd/facetd [-config configs/development.yaml]
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
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/facets"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/facets/cache"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/handler"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/matchspy"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/stopwords"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/resilience"
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
	slog.Info("starting enrichment service", "port", cfg.Server.Port)

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	registry := stopwords.NewRegistry(cfg.Stopwords.DataDir, stopwords.WithMetrics(m))
	if err := registry.Preload(cfg.Stopwords.Preload...); err != nil {
		slog.Error("failed to preload stopwords", "error", err)
		os.Exit(1)
	}
	slog.Info("stopword registry ready",
		"data_dir", registry.DataDir(),
		"cached", registry.Cached(),
	)

	codec, err := matchspy.NewCodec(cfg.Facets.PayloadFormat)
	if err != nil {
		slog.Error("invalid payload format", "error", err)
		os.Exit(1)
	}
	facetService := facets.NewService(codec, m, cfg.Facets.DefaultTop, cfg.Facets.MaxDocuments)

	var facetCache *cache.FacetCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, facet caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			facetCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			slog.Info("facet cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := health.NewChecker()
	aggregator := analytics.NewAggregator()
	trackers := []analytics.Tracker{aggregator}
	if cfg.Analytics.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.EnrichmentEvents)
		defer producer.Close()
		publisher := analytics.NewGuardedPublisher(producer, m, 5*time.Second)
		checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
			if state := publisher.State(); state != resilience.StateClosed {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: "publisher circuit " + state.String()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
		collector := analytics.NewCollector(publisher,
			cfg.Analytics.BatchSize,
			cfg.Analytics.BufferSize,
			cfg.Analytics.FlushInterval,
		)
		collector.Start(ctx)
		defer collector.Close()
		trackers = append(trackers, collector)
		slog.Info("analytics publishing enabled", "topic", cfg.Kafka.Topics.EnrichmentEvents)
	}

	checker.Register("stopwords", health.DirCheck(cfg.Stopwords.DataDir))
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := handler.New(
		facetService,
		facetCache,
		registry,
		analysis.NewAnalyzer(registry, cfg.Stopwords.DefaultLanguage),
		analytics.Trackers(trackers...),
	)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(aggregator).Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
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

	slog.Info("enrichment service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("enrichment service stopped")
}
