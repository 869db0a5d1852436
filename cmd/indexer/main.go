package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/curriculum/store"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/embedding"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/indexer"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/config"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/kafka"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/logger"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/metrics"
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
	slog.Info("starting indexer service", "workers", cfg.Ingestion.EmbedWorkers)

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

	embedder := embedding.NewHashingEmbedder(cfg.Retrieval.EmbeddingDim)
	invalidateProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CacheInvalidate)
	worker := indexer.New(chunkStore, embedder, invalidateProducer, cfg.Ingestion.EmbedWorkers, m)

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ChunkIngest, worker.Handle())

	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("consumer error", "error", err)
		}
	}()

	slog.Info("indexer service ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.ChunkIngest,
		"group", cfg.Kafka.ConsumerGroup,
	)

	if err := worker.Run(ctx); err != nil {
		slog.Error("embed worker error", "error", err)
	}

	slog.Info("indexer service stopped")
}
