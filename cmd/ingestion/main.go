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
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/curriculum/store"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/ingestion/handler"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/ingestion/publisher"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/config"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/health"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/kafka"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/logger"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/metrics"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/middleware"
	pkgpostgres "github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/postgres"
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
	slog.Info("starting ingestion service", "port", cfg.Server.Port)

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

	ingestProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ChunkIngest)
	invalidateProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CacheInvalidate)
	analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)

	collector := analytics.NewCollector(analyticsProducer, 10000)
	collector.Start(ctx)
	defer collector.Close()

	pub := publisher.New(chunkStore, ingestProducer, invalidateProducer, collector, m)
	h := handler.New(pub, cfg.Ingestion)

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := db.DB.PingContext(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/curriculum/chunks", h.SubmitChunk)
	mux.HandleFunc("DELETE /api/v1/curriculum/source", h.DeleteSource)
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

	slog.Info("ingestion service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("ingestion service stopped")
}
