package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/kafka"
)

// AggregatedStats is a point-in-time summary of lesson and ingestion
// activity since the aggregator started.
type AggregatedStats struct {
	TotalLessons      int64        `json:"total_lessons"`
	FallbackLessons   int64        `json:"fallback_lessons"`
	TotalChunks       int64        `json:"total_chunks_ingested"`
	CacheHits         int64        `json:"cache_hits"`
	CacheMisses       int64        `json:"cache_misses"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      int64        `json:"p50_latency_ms"`
	P95LatencyMs      int64        `json:"p95_latency_ms"`
	P99LatencyMs      int64        `json:"p99_latency_ms"`
	TopTopics         []TopicCount `json:"top_topics"`
	FallbackTopics    []TopicCount `json:"fallback_topics"`
	LessonsPerMinute  float64      `json:"lessons_per_minute"`
}

type TopicCount struct {
	Topic string `json:"topic"`
	Count int64  `json:"count"`
}

// Aggregator consumes analytics events from Kafka and keeps in-memory
// rollups for the stats endpoint.
type Aggregator struct {
	mu             sync.RWMutex
	totalLessons   atomic.Int64
	fallbacks      atomic.Int64
	totalChunks    atomic.Int64
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	zeroResults    atomic.Int64
	latencies      []int64
	topicCounts    map[string]int64
	fallbackTopics map[string]int64
	startTime      time.Time

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:      make([]int64, 0, 10000),
		topicCounts:    make(map[string]int64),
		fallbackTopics: make(map[string]int64),
		startTime:      time.Now(),
		logger:         slog.Default().With("component", "analytics-aggregator"),
	}
}

// Start consumes analytics events until ctx is cancelled.
func (a *Aggregator) Start(ctx context.Context, consumer *kafka.Consumer) error {
	a.logger.Info("analytics aggregator starting")
	return consumer.Start(ctx)
}

// HandleEvent returns the Kafka handler that feeds the aggregator. Events
// that fail to decode are logged and skipped so one bad message never stalls
// the consumer group.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[LessonEvent](value)
		if err == nil && event.Type != EventChunkIngested && event.Type != "" {
			agg.recordLessonEvent(event)
			return nil
		}
		chunkEvent, chunkErr := kafka.DecodeJSON[ChunkEvent](value)
		if chunkErr != nil || chunkEvent.Type == "" {
			agg.logger.Error("failed to decode analytics event", "error", err)
			return nil
		}
		agg.recordChunkEvent(chunkEvent)
		return nil
	}
}

// recordLessonEvent routes by event type. One cache-miss request emits two
// events (cache_miss from the handler, then the generation event from the
// service), so lesson totals count only generation events and the cache
// counters count only cache events.
func (a *Aggregator) recordLessonEvent(event LessonEvent) {
	switch event.Type {
	case EventCacheHit:
		a.cacheHits.Add(1)
		return
	case EventCacheMiss:
		a.cacheMisses.Add(1)
		return
	}

	a.totalLessons.Add(1)
	if event.Degraded || event.Type == EventFallbackLesson {
		a.fallbacks.Add(1)
	}
	if event.ChunkCount == 0 {
		a.zeroResults.Add(1)
	}

	a.mu.Lock()
	a.latencies = append(a.latencies, event.LatencyMs)
	a.topicCounts[event.Topic]++
	if event.Degraded || event.Type == EventFallbackLesson {
		a.fallbackTopics[event.Topic]++
	}
	a.mu.Unlock()
}

func (a *Aggregator) recordChunkEvent(event ChunkEvent) {
	a.totalChunks.Add(1)
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalLessons:    a.totalLessons.Load(),
		FallbackLessons: a.fallbacks.Load(),
		TotalChunks:     a.totalChunks.Load(),
		CacheHits:       a.cacheHits.Load(),
		CacheMisses:     a.cacheMisses.Load(),
		ZeroResultCount: a.zeroResults.Load(),
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopTopics = topN(a.topicCounts, 10)
	stats.FallbackTopics = topN(a.fallbackTopics, 10)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.LessonsPerMinute = float64(stats.TotalLessons) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []TopicCount {
	result := make([]TopicCount, 0, len(counts))
	for topic, count := range counts {
		result = append(result, TopicCount{Topic: topic, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Topic < result[j].Topic
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
