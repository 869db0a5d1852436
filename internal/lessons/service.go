// Package lessons orchestrates the lesson-generation pipeline: validate the
// request, retrieve curriculum chunks, and assemble the payload. A retrieval
// outage degrades to the generic fallback lesson rather than failing the
// request.
package lessons

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/analytics"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/assembler"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/curriculum"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/retriever"
	apperrors "github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/errors"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/metrics"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/middleware"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/tracing"
)

// Request is a lesson-generation request.
type Request struct {
	Subject       string `json:"subject"`
	Grade         int    `json:"grade"`
	Topic         string `json:"topic"`
	SpecificFocus string `json:"specific_focus,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

// Service runs the retrieve-extract-assemble pipeline.
type Service struct {
	retriever *retriever.Retriever
	assembler *assembler.Assembler
	collector *analytics.Collector
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a Service. collector and m may be nil, in which case analytics
// and metrics are skipped.
func New(r *retriever.Retriever, a *assembler.Assembler, collector *analytics.Collector, m *metrics.Metrics) *Service {
	return &Service{
		retriever: r,
		assembler: a,
		collector: collector,
		metrics:   m,
		logger:    slog.Default().With("component", "lesson-service"),
	}
}

// Generate validates the request and produces a lesson. Invalid subject,
// grade, or topic is rejected before any retrieval. A store outage or an
// empty result set both resolve to the degraded fallback lesson, never an
// error.
func (s *Service) Generate(ctx context.Context, req *Request) (*assembler.Lesson, error) {
	subject, err := curriculum.ParseSubject(req.Subject)
	if err != nil {
		return nil, err
	}
	if err := curriculum.ValidateGrade(req.Grade); err != nil {
		return nil, err
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, 400, "topic is required")
	}

	start := time.Now()
	retrieveCtx, span := tracing.StartChildSpan(ctx, "retrieve")
	chunks, err := s.retriever.Retrieve(retrieveCtx, subject, req.Grade, topic, req.Limit)
	span.SetAttr("chunks", len(chunks))
	span.End()
	if err != nil {
		if !errors.Is(err, apperrors.ErrRetrievalUnavailable) {
			return nil, err
		}
		s.logger.Warn("retrieval unavailable, serving fallback lesson",
			"subject", subject,
			"grade", req.Grade,
			"topic", topic,
			"error", err,
		)
		lesson := s.assembler.Fallback(subject, topic)
		s.record(ctx, req, subject, lesson, 0, start, "unavailable")
		return lesson, nil
	}

	_, assembleSpan := tracing.StartChildSpan(ctx, "assemble")
	lesson := s.assembler.Assemble(subject, req.Grade, topic, req.SpecificFocus, chunks)
	assembleSpan.End()

	outcome := "generated"
	if lesson.Degraded {
		outcome = "empty_result"
	}
	s.record(ctx, req, subject, lesson, len(chunks), start, outcome)
	return lesson, nil
}

func (s *Service) record(ctx context.Context, req *Request, subject curriculum.Subject, lesson *assembler.Lesson, chunkCount int, start time.Time, outcome string) {
	if s.metrics != nil {
		s.metrics.LessonRequestsTotal.WithLabelValues(string(subject), outcome).Inc()
		if lesson.Degraded {
			s.metrics.FallbackLessonsTotal.WithLabelValues(outcome).Inc()
		}
	}
	if s.collector == nil {
		return
	}
	s.collector.Track(analytics.LessonEvent{
		Type:       lessonEventType(lesson.Degraded, outcome),
		Subject:    string(subject),
		Grade:      req.Grade,
		Topic:      strings.TrimSpace(req.Topic),
		ChunkCount: chunkCount,
		Degraded:   lesson.Degraded,
		LatencyMs:  time.Since(start).Milliseconds(),
		Timestamp:  time.Now().UTC(),
		RequestID:  middleware.GetRequestID(ctx),
	})
}

// lessonEventType distinguishes the two degraded paths: a store outage emits
// fallback_lesson, an in-range topic with no matching chunks emits
// zero_result.
func lessonEventType(degraded bool, outcome string) analytics.EventType {
	if !degraded {
		return analytics.EventLessonGenerated
	}
	if outcome == "empty_result" {
		return analytics.EventZeroResult
	}
	return analytics.EventFallbackLesson
}
