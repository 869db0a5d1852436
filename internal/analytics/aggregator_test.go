package analytics

import (
	"context"
	"encoding/json"
	"testing"
)

func feedLesson(t *testing.T, agg *Aggregator, event LessonEvent) {
	t.Helper()
	value, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshaling event: %v", err)
	}
	if err := HandleEvent(agg)(context.Background(), []byte("analytics"), value); err != nil {
		t.Fatalf("handling event: %v", err)
	}
}

func feedChunk(t *testing.T, agg *Aggregator, event ChunkEvent) {
	t.Helper()
	value, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshaling event: %v", err)
	}
	if err := HandleEvent(agg)(context.Background(), []byte("analytics"), value); err != nil {
		t.Fatalf("handling event: %v", err)
	}
}

func TestAggregatorCountsLessonEvents(t *testing.T) {
	agg := NewAggregator()

	feedLesson(t, agg, LessonEvent{Type: EventLessonGenerated, Topic: "matter", ChunkCount: 4, LatencyMs: 20})
	feedLesson(t, agg, LessonEvent{Type: EventFallbackLesson, Topic: "unknown", Degraded: true, LatencyMs: 5})
	feedLesson(t, agg, LessonEvent{Type: EventZeroResult, Topic: "obscure", Degraded: true, LatencyMs: 3})

	stats := agg.Stats()
	if stats.TotalLessons != 3 {
		t.Errorf("total lessons = %d, want 3", stats.TotalLessons)
	}
	if stats.FallbackLessons != 2 {
		t.Errorf("fallback lessons = %d, want 2", stats.FallbackLessons)
	}
	if stats.ZeroResultCount != 2 {
		t.Errorf("zero results = %d, want 2", stats.ZeroResultCount)
	}
	if stats.CacheHits != 0 || stats.CacheMisses != 0 {
		t.Errorf("cache hits/misses = %d/%d, want 0/0 without cache events", stats.CacheHits, stats.CacheMisses)
	}
}

func TestAggregatorCountsCacheEventsSeparately(t *testing.T) {
	agg := NewAggregator()

	feedLesson(t, agg, LessonEvent{Type: EventCacheHit, Topic: "matter", CacheHit: true, LatencyMs: 2})
	feedLesson(t, agg, LessonEvent{Type: EventCacheMiss, Topic: "matter", LatencyMs: 20})

	stats := agg.Stats()
	if stats.CacheHits != 1 || stats.CacheMisses != 1 {
		t.Errorf("cache hits/misses = %d/%d, want 1/1", stats.CacheHits, stats.CacheMisses)
	}
	if stats.TotalLessons != 0 {
		t.Errorf("cache events counted as lessons: %d", stats.TotalLessons)
	}
	if len(stats.TopTopics) != 0 {
		t.Errorf("cache events counted toward topics: %+v", stats.TopTopics)
	}
}

// TestAggregatorOneRequestTwoEvents feeds the event pair a single cache-miss
// request produces and checks nothing is double counted.
func TestAggregatorOneRequestTwoEvents(t *testing.T) {
	agg := NewAggregator()

	feedLesson(t, agg, LessonEvent{Type: EventCacheMiss, Topic: "matter", LatencyMs: 25})
	feedLesson(t, agg, LessonEvent{Type: EventLessonGenerated, Topic: "matter", ChunkCount: 4, LatencyMs: 22})

	stats := agg.Stats()
	if stats.TotalLessons != 1 {
		t.Errorf("total lessons = %d, want 1", stats.TotalLessons)
	}
	if stats.CacheMisses != 1 {
		t.Errorf("cache misses = %d, want 1", stats.CacheMisses)
	}
	if len(stats.TopTopics) != 1 || stats.TopTopics[0].Count != 1 {
		t.Errorf("top topics = %+v, want matter counted once", stats.TopTopics)
	}
}

func TestAggregatorCountsChunkEvents(t *testing.T) {
	agg := NewAggregator()

	feedChunk(t, agg, ChunkEvent{Type: EventChunkIngested, ChunkID: "c1", Subject: "science"})
	feedChunk(t, agg, ChunkEvent{Type: EventChunkIngested, ChunkID: "c2", Subject: "math"})

	stats := agg.Stats()
	if stats.TotalChunks != 2 {
		t.Errorf("total chunks = %d, want 2", stats.TotalChunks)
	}
	if stats.TotalLessons != 0 {
		t.Errorf("chunk events counted as lessons: %d", stats.TotalLessons)
	}
}

func TestAggregatorLatencyPercentiles(t *testing.T) {
	agg := NewAggregator()
	for i := int64(1); i <= 100; i++ {
		feedLesson(t, agg, LessonEvent{Type: EventLessonGenerated, Topic: "matter", ChunkCount: 1, LatencyMs: i})
	}

	stats := agg.Stats()
	if stats.P50LatencyMs < 45 || stats.P50LatencyMs > 55 {
		t.Errorf("p50 = %d, want around 50", stats.P50LatencyMs)
	}
	if stats.P95LatencyMs < 90 || stats.P95LatencyMs > 100 {
		t.Errorf("p95 = %d, want around 95", stats.P95LatencyMs)
	}
	if stats.AvgLatencyMs != 50.5 {
		t.Errorf("avg = %v, want 50.5", stats.AvgLatencyMs)
	}
}

func TestAggregatorTopTopics(t *testing.T) {
	agg := NewAggregator()
	for i := 0; i < 3; i++ {
		feedLesson(t, agg, LessonEvent{Type: EventLessonGenerated, Topic: "matter", ChunkCount: 1})
	}
	feedLesson(t, agg, LessonEvent{Type: EventLessonGenerated, Topic: "fractions", ChunkCount: 1})
	feedLesson(t, agg, LessonEvent{Type: EventFallbackLesson, Topic: "obscure", Degraded: true})

	stats := agg.Stats()
	if len(stats.TopTopics) == 0 || stats.TopTopics[0].Topic != "matter" || stats.TopTopics[0].Count != 3 {
		t.Errorf("top topics = %+v, want matter first with 3", stats.TopTopics)
	}
	if len(stats.FallbackTopics) != 1 || stats.FallbackTopics[0].Topic != "obscure" {
		t.Errorf("fallback topics = %+v, want only obscure", stats.FallbackTopics)
	}
}

func TestAggregatorSkipsMalformedEvents(t *testing.T) {
	agg := NewAggregator()
	if err := HandleEvent(agg)(context.Background(), nil, []byte("{not json")); err != nil {
		t.Fatalf("malformed event must not error the consumer: %v", err)
	}
	if stats := agg.Stats(); stats.TotalLessons != 0 || stats.TotalChunks != 0 {
		t.Errorf("malformed event was counted: %+v", stats)
	}
}
