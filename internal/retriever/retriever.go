// Package retriever selects curriculum chunks for a lesson request. It runs
// a two-pass similarity search: the raw topic first, then topic plus keyword
// expansion terms (with an ILIKE text-search safety net) when the first pass
// returns too few chunks. Store calls are bounded by a timeout and a circuit
// breaker; any store failure surfaces as ErrRetrievalUnavailable so callers
// can fall back to a generic lesson.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/curriculum"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/expander"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/config"
	apperrors "github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/errors"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/metrics"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/resilience"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/tracing"
)

// Store is the read interface the retriever needs from the curriculum store.
type Store interface {
	QueryByFilter(ctx context.Context, subject curriculum.Subject, grade int) ([]curriculum.Chunk, error)
	SimilaritySearch(ctx context.Context, queryVec []float64, subject curriculum.Subject, grade int, limit int) ([]curriculum.ScoredChunk, error)
	TextSearch(ctx context.Context, terms []string, subject curriculum.Subject, grade int, limit int) ([]curriculum.Chunk, error)
}

// Embedder converts query text into the vector space chunks are stored in.
type Embedder interface {
	Embed(text string) []float64
}

// Retriever runs the two-pass chunk selection.
type Retriever struct {
	store    Store
	embedder Embedder
	cfg      config.RetrievalConfig
	breaker  *resilience.CircuitBreaker
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a Retriever, filling in defaults for zero config values.
func New(store Store, embedder Embedder, cfg config.RetrievalConfig, m *metrics.Metrics) *Retriever {
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = 8
	}
	if cfg.MinResults <= 0 {
		cfg.MinResults = 3
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 20 * time.Second
	}
	return &Retriever{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		breaker: resilience.NewCircuitBreaker("curriculum-store", resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.BreakerFailureThreshold,
			ResetTimeout:     cfg.BreakerResetTimeout,
		}),
		metrics: m,
		logger:  slog.Default().With("component", "retriever"),
	}
}

// BreakerState reports the store circuit breaker state for health and
// metrics.
func (r *Retriever) BreakerState() resilience.State {
	return r.breaker.GetState()
}

// Retrieve returns up to limit chunks for the subject, grade, and topic.
// Every returned chunk's subject and grade exactly equal the request. An
// empty topic yields chunks in chapter order. Zero matches is not an error;
// store failures return ErrRetrievalUnavailable.
func (r *Retriever) Retrieve(ctx context.Context, subject curriculum.Subject, grade int, topic string, limit int) ([]curriculum.Chunk, error) {
	if limit <= 0 || limit > r.cfg.MaxChunks {
		limit = r.cfg.MaxChunks
	}

	topic = strings.TrimSpace(topic)
	if topic == "" {
		chunks, err := r.chapterOrder(ctx, subject, grade)
		if err != nil {
			return nil, err
		}
		if len(chunks) > limit {
			chunks = chunks[:limit]
		}
		return r.enforceFilter(chunks, subject, grade), nil
	}

	start := time.Now()
	first, err := r.similarity(ctx, topic, subject, grade, limit)
	if err != nil {
		return nil, err
	}
	r.observeLatency("raw", start)

	merged := make([]curriculum.Chunk, 0, limit)
	seen := make(map[string]struct{})
	for _, sc := range first {
		seen[sc.ID] = struct{}{}
		merged = append(merged, sc.Chunk)
	}

	if len(first) < r.cfg.MinResults {
		terms := expander.Expand(topic)
		r.logger.Debug("expanding sparse topic",
			"topic", topic,
			"first_pass", len(first),
			"expansion_terms", terms,
		)
		if r.metrics != nil {
			r.metrics.ExpansionPassesTotal.Inc()
		}

		expandedStart := time.Now()
		augmented := topic
		if len(terms) > 0 {
			augmented = topic + " " + strings.Join(terms, " ")
		}
		second, err := r.similarity(ctx, augmented, subject, grade, limit)
		if err != nil {
			return nil, err
		}
		for _, sc := range second {
			if _, dup := seen[sc.ID]; dup {
				continue
			}
			seen[sc.ID] = struct{}{}
			merged = append(merged, sc.Chunk)
		}

		// Text-search safety net: catches chunks whose embeddings have not
		// been computed yet.
		textHits, err := r.textSearch(ctx, append([]string{topic}, terms...), subject, grade, limit)
		if err != nil {
			return nil, err
		}
		for _, chunk := range textHits {
			if _, dup := seen[chunk.ID]; dup {
				continue
			}
			seen[chunk.ID] = struct{}{}
			merged = append(merged, chunk)
		}
		r.observeLatency("expanded", expandedStart)
	}

	if len(merged) > limit {
		merged = merged[:limit]
	}
	if r.metrics != nil {
		r.metrics.RetrievalChunks.Observe(float64(len(merged)))
	}
	return r.enforceFilter(merged, subject, grade), nil
}

func (r *Retriever) similarity(ctx context.Context, query string, subject curriculum.Subject, grade int, limit int) ([]curriculum.ScoredChunk, error) {
	_, span := tracing.StartChildSpan(ctx, "similarity-search")
	defer span.End()
	span.SetAttr("query", query)

	vec := r.embedder.Embed(query)
	var results []curriculum.ScoredChunk
	err := r.callStore(ctx, "similarity-search", func(ctx context.Context) error {
		var err error
		results, err = r.store.SimilaritySearch(ctx, vec, subject, grade, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	span.SetAttr("results", len(results))
	return results, nil
}

func (r *Retriever) textSearch(ctx context.Context, terms []string, subject curriculum.Subject, grade int, limit int) ([]curriculum.Chunk, error) {
	var results []curriculum.Chunk
	err := r.callStore(ctx, "text-search", func(ctx context.Context) error {
		var err error
		results, err = r.store.TextSearch(ctx, terms, subject, grade, limit)
		return err
	})
	return results, err
}

func (r *Retriever) chapterOrder(ctx context.Context, subject curriculum.Subject, grade int) ([]curriculum.Chunk, error) {
	var results []curriculum.Chunk
	err := r.callStore(ctx, "query-by-filter", func(ctx context.Context) error {
		var err error
		results, err = r.store.QueryByFilter(ctx, subject, grade)
		return err
	})
	return results, err
}

// callStore wraps a store call in the circuit breaker and per-call timeout.
// Any failure is translated to ErrRetrievalUnavailable.
func (r *Retriever) callStore(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	err := r.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, r.cfg.StoreTimeout, name, fn)
	})
	if r.metrics != nil {
		r.metrics.CircuitBreakerState.WithLabelValues("curriculum-store").Set(float64(r.breaker.GetState()))
	}
	if err != nil {
		r.logger.Error("store call failed", "operation", name, "error", err)
		return fmt.Errorf("%w: %s: %v", apperrors.ErrRetrievalUnavailable, name, err)
	}
	return nil
}

// enforceFilter drops any chunk whose subject or grade differs from the
// request. The store already filters; a mismatch slipping through would be a
// correctness bug, so it is checked again here.
func (r *Retriever) enforceFilter(chunks []curriculum.Chunk, subject curriculum.Subject, grade int) []curriculum.Chunk {
	filtered := chunks[:0]
	for _, chunk := range chunks {
		if chunk.Subject != subject || chunk.Grade != grade {
			r.logger.Warn("dropping mismatched chunk",
				"chunk_id", chunk.ID,
				"chunk_subject", chunk.Subject,
				"chunk_grade", chunk.Grade,
			)
			continue
		}
		filtered = append(filtered, chunk)
	}
	return filtered
}

func (r *Retriever) observeLatency(pass string, start time.Time) {
	if r.metrics != nil {
		r.metrics.RetrievalLatency.WithLabelValues(pass).Observe(time.Since(start).Seconds())
	}
}
