package analytics

import "time"

type EventType string

const (
	EventLessonGenerated EventType = "lesson_generated"
	EventFallbackLesson  EventType = "fallback_lesson"
	EventCacheHit        EventType = "cache_hit"
	EventCacheMiss       EventType = "cache_miss"
	EventZeroResult      EventType = "zero_result"
	EventChunkIngested   EventType = "chunk_ingested"
)

// LessonEvent records one lesson-generation request.
type LessonEvent struct {
	Type       EventType `json:"type"`
	Subject    string    `json:"subject"`
	Grade      int       `json:"grade"`
	Topic      string    `json:"topic"`
	ChunkCount int       `json:"chunk_count"`
	Degraded   bool      `json:"degraded"`
	CacheHit   bool      `json:"cache_hit"`
	LatencyMs  int64     `json:"latency_ms"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
}

// ChunkEvent records one chunk ingestion.
type ChunkEvent struct {
	Type       EventType `json:"type"`
	ChunkID    string    `json:"chunk_id"`
	Subject    string    `json:"subject"`
	Grade      int       `json:"grade"`
	Topic      string    `json:"topic"`
	SizeBytes  int       `json:"size_bytes"`
	SourceFile string    `json:"source_file,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
