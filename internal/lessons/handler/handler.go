// Package handler exposes the lessons service over HTTP: lesson generation,
// curriculum browsing (topics, search, stats), and cache administration.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/analytics"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/assembler"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/curriculum"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/curriculum/store"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/lessons"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/lessons/cache"
	apperrors "github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/errors"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/logger"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/metrics"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/middleware"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/tracing"
)

// Browser is the curriculum browsing interface backed by the store.
type Browser interface {
	SimilaritySearch(ctx context.Context, queryVec []float64, subject curriculum.Subject, grade int, limit int) ([]curriculum.ScoredChunk, error)
	Topics(ctx context.Context, subject curriculum.Subject, grade int) ([]store.TopicGroup, error)
	CorpusStats(ctx context.Context) (*store.Stats, error)
}

// Embedder embeds free-text search queries.
type Embedder interface {
	Embed(text string) []float64
}

type Handler struct {
	service   *lessons.Service
	cache     *cache.LessonCache
	browser   Browser
	embedder  Embedder
	collector *analytics.Collector
	metrics   *metrics.Metrics
	maxSearch int
	logger    *slog.Logger
}

func New(service *lessons.Service, lessonCache *cache.LessonCache, browser Browser, embedder Embedder, collector *analytics.Collector, m *metrics.Metrics, maxSearch int) *Handler {
	if maxSearch <= 0 {
		maxSearch = 8
	}
	return &Handler{
		service:   service,
		cache:     lessonCache,
		browser:   browser,
		embedder:  embedder,
		collector: collector,
		metrics:   m,
		maxSearch: maxSearch,
		logger:    slog.Default().With("component", "lesson-handler"),
	}
}

// GenerateLesson handles POST /api/v1/lessons/request.
func (h *Handler) GenerateLesson(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req lessons.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx, span := tracing.StartSpan(ctx, "generate-lesson", middleware.GetRequestID(ctx))
	defer func() {
		span.End()
		span.Log()
	}()
	span.SetAttr("subject", req.Subject)
	span.SetAttr("grade", req.Grade)
	span.SetAttr("topic", req.Topic)

	var lesson *assembler.Lesson
	var err error
	cacheHit := false

	if h.cache != nil {
		lesson, cacheHit, err = h.cache.GetOrCompute(ctx, &req, func() (*assembler.Lesson, error) {
			return h.service.Generate(ctx, &req)
		})
	} else {
		lesson, err = h.service.Generate(ctx, &req)
	}

	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("lesson generation rejected",
			"subject", req.Subject,
			"grade", req.Grade,
			"topic", req.Topic,
			"status_code", statusCode,
			"error", err,
		)
		h.writeError(w, statusCode, err.Error())
		return
	}

	latencyMs := time.Since(start).Milliseconds()
	log.Info("lesson generated",
		"subject", req.Subject,
		"grade", req.Grade,
		"topic", req.Topic,
		"degraded", lesson.Degraded,
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)

	if h.metrics != nil {
		if cacheHit {
			h.metrics.CacheHitsTotal.Inc()
		} else {
			h.metrics.CacheMissesTotal.Inc()
		}
	}
	if h.collector != nil && h.cache != nil {
		eventType := analytics.EventCacheMiss
		if cacheHit {
			eventType = analytics.EventCacheHit
		}
		h.collector.Track(analytics.LessonEvent{
			Type:      eventType,
			Subject:   req.Subject,
			Grade:     req.Grade,
			Topic:     req.Topic,
			Degraded:  lesson.Degraded,
			CacheHit:  cacheHit,
			LatencyMs: latencyMs,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, lesson)
}

// Topics handles GET /api/v1/curriculum/topics.
func (h *Handler) Topics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, grade, ok := h.subjectGradeParams(w, r)
	if !ok {
		return
	}
	topics, err := h.browser.Topics(ctx, subject, grade)
	if err != nil {
		logger.FromContext(ctx).Error("topics listing failed", "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "topics listing failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"subject": subject,
		"grade":   grade,
		"topics":  topics,
	})
}

// Search handles GET /api/v1/curriculum/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	subject, grade, ok := h.subjectGradeParams(w, r)
	if !ok {
		return
	}

	limit := h.maxSearch
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	results, err := h.browser.SimilaritySearch(ctx, h.embedder.Embed(query), subject, grade, limit)
	if err != nil {
		logger.FromContext(ctx).Error("curriculum search failed", "q", query, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "curriculum search failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
	})
}

// CorpusStats handles GET /api/v1/curriculum/stats.
func (h *Handler) CorpusStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.browser.CorpusStats(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("corpus stats failed", "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "corpus stats failed")
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) subjectGradeParams(w http.ResponseWriter, r *http.Request) (curriculum.Subject, int, bool) {
	subject, err := curriculum.ParseSubject(r.URL.Query().Get("subject"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return "", 0, false
	}
	grade, err := strconv.Atoi(r.URL.Query().Get("grade"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "grade must be an integer")
		return "", 0, false
	}
	if err := curriculum.ValidateGrade(grade); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return "", 0, false
	}
	return subject, grade, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
