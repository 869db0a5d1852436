// Package ingestion defines the wire types for curriculum chunk submission
// and the Kafka events that flow to the indexer.
package ingestion

import "time"

// ChunkSubmission is the request body for submitting one curriculum section.
type ChunkSubmission struct {
	Subject      string `json:"subject"`
	Grade        int    `json:"grade"`
	Topic        string `json:"topic"`
	SectionTitle string `json:"section_title"`
	Body         string `json:"body"`
	Position     int    `json:"position,omitempty"`
	SourceFile   string `json:"source_file,omitempty"`
}

// SubmitResponse acknowledges a chunk submission. Status is PENDING for new
// chunks awaiting embedding and EXISTS for idempotent duplicates.
type SubmitResponse struct {
	ChunkID string `json:"chunk_id"`
	Status  string `json:"status"`
}

// ChunkIngestEvent is published to Kafka for each newly persisted chunk and
// consumed by the indexer's embed worker.
type ChunkIngestEvent struct {
	ChunkID      string    `json:"chunk_id"`
	Subject      string    `json:"subject"`
	Grade        int       `json:"grade"`
	Topic        string    `json:"topic"`
	SectionTitle string    `json:"section_title"`
	Body         string    `json:"body"`
	SourceFile   string    `json:"source_file,omitempty"`
	IngestedAt   time.Time `json:"ingested_at"`
}

// CacheInvalidateEvent tells the lessons service to flush its lesson cache
// after the corpus changed.
type CacheInvalidateEvent struct {
	Reason    string    `json:"reason"`
	ChunkID   string    `json:"chunk_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
