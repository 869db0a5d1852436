// Package publisher persists curriculum chunks to PostgreSQL and publishes
// chunk-ingest events to Kafka for the indexer. Writes are idempotent by
// content hash: resubmitting the same section returns the existing chunk.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/analytics"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/curriculum"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/curriculum/store"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/ingestion"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/kafka"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/metrics"
)

// Publisher coordinates chunk persistence and Kafka event production.
type Publisher struct {
	store              *store.Store
	ingestProducer     *kafka.Producer
	invalidateProducer *kafka.Producer
	collector          *analytics.Collector
	metrics            *metrics.Metrics
	logger             *slog.Logger
}

// New creates a Publisher. collector and m may be nil.
func New(s *store.Store, ingestProducer, invalidateProducer *kafka.Producer, collector *analytics.Collector, m *metrics.Metrics) *Publisher {
	return &Publisher{
		store:              s,
		ingestProducer:     ingestProducer,
		invalidateProducer: invalidateProducer,
		collector:          collector,
		metrics:            m,
		logger:             slog.Default().With("component", "chunk-publisher"),
	}
}

// Submit persists the chunk and, when it is new, publishes a ChunkIngestEvent
// keyed by subject so one subject's chunks stay ordered within a partition.
// Duplicate content returns the existing chunk ID with status EXISTS and no
// event.
func (p *Publisher) Submit(ctx context.Context, req *ingestion.ChunkSubmission) (*ingestion.SubmitResponse, error) {
	subject, err := curriculum.ParseSubject(req.Subject)
	if err != nil {
		return nil, err
	}

	chunk := &curriculum.Chunk{
		Subject:      subject,
		Grade:        req.Grade,
		Topic:        strings.TrimSpace(req.Topic),
		SectionTitle: strings.TrimSpace(req.SectionTitle),
		Body:         req.Body,
		Position:     req.Position,
		SourceFile:   req.SourceFile,
	}

	id, created, err := p.store.Insert(ctx, chunk)
	if err != nil {
		return nil, fmt.Errorf("persisting chunk: %w", err)
	}
	if !created {
		return &ingestion.SubmitResponse{ChunkID: id, Status: "EXISTS"}, nil
	}

	if p.metrics != nil {
		p.metrics.ChunksIngestedTotal.WithLabelValues(string(subject)).Inc()
	}
	if p.collector != nil {
		p.collector.Track(analytics.ChunkEvent{
			Type:       analytics.EventChunkIngested,
			ChunkID:    id,
			Subject:    string(subject),
			Grade:      req.Grade,
			Topic:      chunk.Topic,
			SizeBytes:  len(req.Body),
			SourceFile: req.SourceFile,
			Timestamp:  time.Now().UTC(),
		})
	}

	event := kafka.Event{
		Key: string(subject),
		Value: ingestion.ChunkIngestEvent{
			ChunkID:      id,
			Subject:      string(subject),
			Grade:        req.Grade,
			Topic:        chunk.Topic,
			SectionTitle: chunk.SectionTitle,
			Body:         req.Body,
			SourceFile:   req.SourceFile,
			IngestedAt:   time.Now().UTC(),
		},
	}
	if err := p.ingestProducer.Publish(ctx, event); err != nil {
		// The chunk is persisted but will not get an embedding until it is
		// resubmitted or a reindex runs.
		p.logger.Error("failed to publish ingest event, chunk has no embedding yet",
			"chunk_id", id,
			"error", err,
		)
	}

	return &ingestion.SubmitResponse{ChunkID: id, Status: "PENDING"}, nil
}

// DeleteBySource removes every chunk from the given source file and returns
// the deleted count. Used before re-importing a curriculum document.
func (p *Publisher) DeleteBySource(ctx context.Context, sourceFile string) (int64, error) {
	deleted, err := p.store.DeleteBySource(ctx, sourceFile)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		event := kafka.Event{
			Key: "invalidate",
			Value: ingestion.CacheInvalidateEvent{
				Reason:    "source_deleted",
				Timestamp: time.Now().UTC(),
			},
		}
		if err := p.invalidateProducer.Publish(ctx, event); err != nil {
			p.logger.Error("failed to publish invalidate event after delete", "error", err)
		}
	}
	return deleted, nil
}
