// Package indexer computes embeddings for newly ingested curriculum chunks.
// It consumes chunk-ingest events from Kafka, embeds each chunk's text with a
// bounded worker pool, writes the vector back to the store with retries, and
// publishes cache-invalidate events so the lessons service drops stale
// cached lessons.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/embedding"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/ingestion"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/kafka"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/metrics"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/resilience"
)

// ChunkWriter is the store interface the worker writes embeddings through.
type ChunkWriter interface {
	SetEmbedding(ctx context.Context, chunkID string, vec []float64) error
}

// Worker embeds ingested chunks with a bounded goroutine pool.
type Worker struct {
	store              ChunkWriter
	embedder           embedding.Embedder
	invalidateProducer *kafka.Producer
	workers            int
	metrics            *metrics.Metrics
	logger             *slog.Logger
	jobs               chan ingestion.ChunkIngestEvent
}

// New creates a Worker with the given pool size. m may be nil.
func New(store ChunkWriter, embedder embedding.Embedder, invalidateProducer *kafka.Producer, workers int, m *metrics.Metrics) *Worker {
	if workers <= 0 {
		workers = 4
	}
	return &Worker{
		store:              store,
		embedder:           embedder,
		invalidateProducer: invalidateProducer,
		workers:            workers,
		metrics:            m,
		logger:             slog.Default().With("component", "embed-worker"),
		jobs:               make(chan ingestion.ChunkIngestEvent, workers*2),
	}
}

// Run starts the pool and blocks until ctx is cancelled and all in-flight
// jobs have finished.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case event, ok := <-w.jobs:
					if !ok {
						return nil
					}
					w.process(ctx, event)
				}
			}
		})
	}
	w.logger.Info("embed worker pool started", "workers", w.workers)
	return g.Wait()
}

// Handle returns the Kafka handler that feeds the pool. Malformed events are
// logged and skipped so the consumer group keeps moving.
func (w *Worker) Handle() kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.ChunkIngestEvent](value)
		if err != nil {
			w.logger.Error("failed to decode ingest event", "error", err)
			return nil
		}
		if event.ChunkID == "" {
			w.logger.Warn("ingest event missing chunk id, skipping")
			return nil
		}
		select {
		case w.jobs <- event:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Worker) process(ctx context.Context, event ingestion.ChunkIngestEvent) {
	start := time.Now()

	// Titles are embedded alongside the body so topic-only queries still
	// rank the chunk.
	text := strings.Join([]string{event.Topic, event.SectionTitle, event.Body}, "\n")
	vec := w.embedder.Embed(text)

	err := resilience.Retry(ctx, "set-embedding", resilience.RetryConfig{}, func() error {
		return w.store.SetEmbedding(ctx, event.ChunkID, vec)
	})
	if err != nil {
		w.logger.Error("failed to store embedding",
			"chunk_id", event.ChunkID,
			"error", err,
		)
		w.observe("error", start)
		return
	}

	w.logger.Info("chunk embedded",
		"chunk_id", event.ChunkID,
		"subject", event.Subject,
		"grade", event.Grade,
		"dim", len(vec),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	w.observe("ok", start)

	if err := w.publishInvalidate(ctx, event.ChunkID); err != nil {
		w.logger.Error("failed to publish cache invalidation",
			"chunk_id", event.ChunkID,
			"error", err,
		)
	}
}

func (w *Worker) publishInvalidate(ctx context.Context, chunkID string) error {
	if w.invalidateProducer == nil {
		return nil
	}
	err := w.invalidateProducer.Publish(ctx, kafka.Event{
		Key: "invalidate",
		Value: ingestion.CacheInvalidateEvent{
			Reason:    "chunk_embedded",
			ChunkID:   chunkID,
			Timestamp: time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("publishing invalidate event: %w", err)
	}
	return nil
}

func (w *Worker) observe(status string, start time.Time) {
	if w.metrics == nil {
		return
	}
	w.metrics.EmbeddingsTotal.WithLabelValues(status).Inc()
	w.metrics.EmbedLatency.Observe(time.Since(start).Seconds())
}
