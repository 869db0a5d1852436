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

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/analytics"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/assembler"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/curriculum/store"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/embedding"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/lessons"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/lessons/cache"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/lessons/handler"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/retriever"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/config"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/health"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/kafka"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/logger"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/metrics"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/middleware"
	pkgpostgres "github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/postgres"
	pkgredis "github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/redis"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting lessons service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	db, err := pkgpostgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	chunkStore := store.New(db)
	if err := chunkStore.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	var lessonCache *cache.LessonCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, lesson caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		lessonCache = cache.New(redisClient, cfg.Redis)
		slog.Info("lesson cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	collector := analytics.NewCollector(analyticsProducer, 10000)
	collector.Start(ctx)
	defer collector.Close()

	aggregator := analytics.NewAggregator()
	aggregatorConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, analytics.HandleEvent(aggregator))
	analyticsH := analytics.NewHandler(aggregator)
	go func() {
		if err := aggregator.Start(ctx, aggregatorConsumer); err != nil {
			slog.Error("analytics aggregator error", "error", err)
		}
	}()

	if lessonCache != nil {
		invalidateConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CacheInvalidate,
			func(ctx context.Context, key []byte, value []byte) error {
				if err := lessonCache.Invalidate(ctx); err != nil {
					slog.Error("cache invalidation from event failed", "error", err)
				}
				return nil
			})
		go func() {
			if err := invalidateConsumer.Start(ctx); err != nil {
				slog.Error("cache-invalidate consumer error", "error", err)
			}
		}()
		slog.Info("cache-invalidate consumer started", "topic", cfg.Kafka.Topics.CacheInvalidate)
	}

	embedder := embedding.NewHashingEmbedder(cfg.Retrieval.EmbeddingDim)
	chunkRetriever := retriever.New(chunkStore, embedder, cfg.Retrieval, m)
	lessonAssembler := assembler.New(cfg.Lessons)
	service := lessons.New(chunkRetriever, lessonAssembler, collector, m)
	h := handler.New(service, lessonCache, chunkStore, embedder, collector, m, cfg.Retrieval.MaxChunks)

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := db.DB.PingContext(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("curriculum_store", func(ctx context.Context) health.ComponentHealth {
		if chunkRetriever.BreakerState() == resilience.StateOpen {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "circuit breaker open"}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/lessons/request", h.GenerateLesson)
	mux.HandleFunc("GET /api/v1/curriculum/topics", h.Topics)
	mux.HandleFunc("GET /api/v1/curriculum/search", h.Search)
	mux.HandleFunc("GET /api/v1/curriculum/stats", h.CorpusStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
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

	slog.Info("lessons service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("lessons service stopped")
}
