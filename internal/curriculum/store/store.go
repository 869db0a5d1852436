// Package store persists curriculum chunks in PostgreSQL and serves the
// retrieval queries the lesson pipeline runs: chapter-ordered listing,
// cosine-similarity ranking over stored embeddings, and ILIKE text search.
// Embeddings are stored as float8[] columns via pq.Float64Array.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/curriculum"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/embedding"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS curriculum_chunks (
	id            UUID PRIMARY KEY,
	subject       TEXT NOT NULL,
	grade         INT NOT NULL,
	topic         TEXT NOT NULL,
	section_title TEXT NOT NULL,
	body          TEXT NOT NULL,
	position      INT NOT NULL DEFAULT 0,
	source_file   TEXT,
	content_hash  TEXT NOT NULL UNIQUE,
	embedding     FLOAT8[],
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_chunks_subject_grade ON curriculum_chunks (subject, grade, position);
CREATE INDEX IF NOT EXISTS idx_chunks_source_file ON curriculum_chunks (source_file);
`

// Store is the PostgreSQL-backed curriculum chunk repository.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// New creates a Store over the given database client.
func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "curriculum-store"),
	}
}

// EnsureSchema creates the chunk table and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating curriculum schema: %w", err)
	}
	return nil
}

// ContentHash returns the idempotency hash for a chunk: the same section
// submitted twice for the same subject and grade maps to the same hash.
func ContentHash(subject curriculum.Subject, grade int, sectionTitle, body string) string {
	raw := fmt.Sprintf("%s|%d|%s|%s", subject, grade, strings.TrimSpace(sectionTitle), strings.TrimSpace(body))
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

// Insert persists a chunk, generating its ID. Re-inserting identical content
// is idempotent: the existing chunk's ID is returned with created=false.
func (s *Store) Insert(ctx context.Context, chunk *curriculum.Chunk) (string, bool, error) {
	id := uuid.NewString()
	hash := ContentHash(chunk.Subject, chunk.Grade, chunk.SectionTitle, chunk.Body)

	err := s.db.DB.QueryRowContext(ctx,
		`INSERT INTO curriculum_chunks (id, subject, grade, topic, section_title, body, position, source_file, content_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (content_hash) DO NOTHING
		RETURNING id`,
		id, chunk.Subject, chunk.Grade, chunk.Topic, chunk.SectionTitle, chunk.Body,
		chunk.Position, nullableString(chunk.SourceFile), hash,
	).Scan(&id)
	if err == sql.ErrNoRows {
		var existing string
		err := s.db.DB.QueryRowContext(ctx,
			`SELECT id FROM curriculum_chunks WHERE content_hash=$1`, hash).Scan(&existing)
		if err != nil {
			return "", false, fmt.Errorf("resolving duplicate chunk: %w", err)
		}
		s.logger.Info("duplicate chunk submission", "existing_id", existing, "topic", chunk.Topic)
		return existing, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("inserting chunk: %w", err)
	}
	return id, true, nil
}

// SetEmbedding writes the embedding vector for a chunk.
func (s *Store) SetEmbedding(ctx context.Context, chunkID string, vec []float64) error {
	res, err := s.db.DB.ExecContext(ctx,
		`UPDATE curriculum_chunks SET embedding=$2 WHERE id=$1`,
		chunkID, pq.Float64Array(vec))
	if err != nil {
		return fmt.Errorf("updating embedding for chunk %s: %w", chunkID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking embedding update for chunk %s: %w", chunkID, err)
	}
	if rows == 0 {
		return fmt.Errorf("chunk %s not found for embedding update", chunkID)
	}
	return nil
}

// QueryByFilter returns all chunks for a subject and grade in chapter order
// (position, then ID for stability).
func (s *Store) QueryByFilter(ctx context.Context, subject curriculum.Subject, grade int) ([]curriculum.Chunk, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, subject, grade, topic, section_title, body, position, COALESCE(source_file, ''), created_at
		FROM curriculum_chunks
		WHERE subject=$1 AND grade=$2
		ORDER BY position, id`,
		subject, grade)
	if err != nil {
		return nil, fmt.Errorf("querying chunks by filter: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// SimilaritySearch ranks chunks for a subject and grade by cosine similarity
// against queryVec. Chunks without embeddings and chunks with non-positive
// similarity are excluded. Ties are broken by chunk ID so results are
// deterministic.
func (s *Store) SimilaritySearch(ctx context.Context, queryVec []float64, subject curriculum.Subject, grade int, limit int) ([]curriculum.ScoredChunk, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, subject, grade, topic, section_title, body, position, COALESCE(source_file, ''), embedding, created_at
		FROM curriculum_chunks
		WHERE subject=$1 AND grade=$2 AND embedding IS NOT NULL`,
		subject, grade)
	if err != nil {
		return nil, fmt.Errorf("querying chunk embeddings: %w", err)
	}
	defer rows.Close()

	scored := make([]curriculum.ScoredChunk, 0)
	for rows.Next() {
		var c curriculum.Chunk
		var vec pq.Float64Array
		if err := rows.Scan(&c.ID, &c.Subject, &c.Grade, &c.Topic, &c.SectionTitle,
			&c.Body, &c.Position, &c.SourceFile, &vec, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		c.Embedding = []float64(vec)
		score := embedding.Cosine(queryVec, c.Embedding)
		if score <= 0 {
			continue
		}
		scored = append(scored, curriculum.ScoredChunk{Chunk: c, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk rows: %w", err)
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// TextSearch returns chunks whose topic, section title, or body matches any
// of the given terms case-insensitively, in chapter order.
func (s *Store) TextSearch(ctx context.Context, terms []string, subject curriculum.Subject, grade int, limit int) ([]curriculum.Chunk, error) {
	if len(terms) == 0 {
		return []curriculum.Chunk{}, nil
	}

	conditions := make([]string, 0, len(terms))
	args := []any{subject, grade}
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		args = append(args, "%"+term+"%")
		n := len(args)
		conditions = append(conditions,
			fmt.Sprintf("(topic ILIKE $%d OR section_title ILIKE $%d OR body ILIKE $%d)", n, n, n))
	}
	if len(conditions) == 0 {
		return []curriculum.Chunk{}, nil
	}

	query := fmt.Sprintf(
		`SELECT id, subject, grade, topic, section_title, body, position, COALESCE(source_file, ''), created_at
		FROM curriculum_chunks
		WHERE subject=$1 AND grade=$2 AND (%s)
		ORDER BY position, id`, strings.Join(conditions, " OR "))
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("text-searching chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// TopicGroup summarises one topic within a subject and grade.
type TopicGroup struct {
	Topic       string   `json:"topic"`
	Subtopics   []string `json:"subtopics"`
	Description string   `json:"description"`
	ChunkCount  int      `json:"chunk_count"`
}

// Topics groups the chunks for a subject and grade by topic, listing section
// titles as subtopics and using the first section's opening text as a
// description preview.
func (s *Store) Topics(ctx context.Context, subject curriculum.Subject, grade int) ([]TopicGroup, error) {
	chunks, err := s.QueryByFilter(ctx, subject, grade)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0)
	groups := make(map[string]*TopicGroup)
	for _, c := range chunks {
		g, ok := groups[c.Topic]
		if !ok {
			g = &TopicGroup{Topic: c.Topic, Description: preview(c.Body, 200)}
			groups[c.Topic] = g
			order = append(order, c.Topic)
		}
		g.Subtopics = append(g.Subtopics, c.SectionTitle)
		g.ChunkCount++
	}

	result := make([]TopicGroup, 0, len(order))
	for _, topic := range order {
		result = append(result, *groups[topic])
	}
	return result, nil
}

// Stats holds corpus-wide chunk counts.
type Stats struct {
	TotalChunks    int64            `json:"total_chunks"`
	EmbeddedChunks int64            `json:"embedded_chunks"`
	BySubject      map[string]int64 `json:"by_subject"`
	ByGrade        map[int]int64    `json:"by_grade"`
}

// CorpusStats returns chunk counts in total, with embeddings, and broken
// down by subject and grade.
func (s *Store) CorpusStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		BySubject: make(map[string]int64),
		ByGrade:   make(map[int]int64),
	}

	err := s.db.DB.QueryRowContext(ctx,
		`SELECT count(*), count(embedding) FROM curriculum_chunks`).
		Scan(&stats.TotalChunks, &stats.EmbeddedChunks)
	if err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}

	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT subject, grade, count(*) FROM curriculum_chunks GROUP BY subject, grade`)
	if err != nil {
		return nil, fmt.Errorf("grouping chunk counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var subject string
		var grade int
		var count int64
		if err := rows.Scan(&subject, &grade, &count); err != nil {
			return nil, fmt.Errorf("scanning chunk counts: %w", err)
		}
		stats.BySubject[subject] += count
		stats.ByGrade[grade] += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk counts: %w", err)
	}
	return stats, nil
}

// DeleteBySource removes every chunk ingested from the given source file and
// returns how many were deleted. Used by the reindex path before re-importing
// a curriculum document.
func (s *Store) DeleteBySource(ctx context.Context, sourceFile string) (int64, error) {
	res, err := s.db.DB.ExecContext(ctx,
		`DELETE FROM curriculum_chunks WHERE source_file=$1`, sourceFile)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks for source %s: %w", sourceFile, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted chunks: %w", err)
	}
	s.logger.Info("chunks deleted by source", "source_file", sourceFile, "deleted", deleted)
	return deleted, nil
}

func scanChunks(rows *sql.Rows) ([]curriculum.Chunk, error) {
	chunks := make([]curriculum.Chunk, 0)
	for rows.Next() {
		var c curriculum.Chunk
		if err := rows.Scan(&c.ID, &c.Subject, &c.Grade, &c.Topic, &c.SectionTitle,
			&c.Body, &c.Position, &c.SourceFile, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk rows: %w", err)
	}
	return chunks, nil
}

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if idx := strings.Index(body, "\n"); idx > 0 {
		body = strings.TrimSpace(body[:idx])
	}
	if len(body) > max {
		body = body[:max] + "..."
	}
	return body
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
