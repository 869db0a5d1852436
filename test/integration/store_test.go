// Package integration contains tests that exercise the curriculum store and
// the lesson pipeline against real PostgreSQL and Redis instances. Each test
// skips itself when its backing service is unavailable.
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/curriculum"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/curriculum/store"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/embedding"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/config"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/postgres"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	db, err := postgres.New(testPostgresConfig())
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testPostgresConfig() config.PostgresConfig {
	return config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "curriculum_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "curriculum"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// newTestStore builds a chunk store with the schema applied.
func newTestStore(t *testing.T, db *postgres.Client) *store.Store {
	t.Helper()
	s := store.New(db)
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	return s
}

// uniqueSource returns a source-file name unique to this test run so test
// chunks never collide with leftovers from earlier runs, and registers a
// cleanup that deletes everything inserted under it.
func uniqueSource(t *testing.T, s *store.Store) string {
	t.Helper()
	source := fmt.Sprintf("%s-%d.md", t.Name(), time.Now().UnixNano())
	t.Cleanup(func() {
		if _, err := s.DeleteBySource(context.Background(), source); err != nil {
			t.Errorf("cleaning up chunks for %s: %v", source, err)
		}
	})
	return source
}

func seedChunk(t *testing.T, s *store.Store, source, topic, title, body string) string {
	t.Helper()
	id, created, err := s.Insert(context.Background(), &curriculum.Chunk{
		Subject:      curriculum.SubjectScience,
		Grade:        10,
		Topic:        topic,
		SectionTitle: title,
		Body:         body,
		SourceFile:   source,
	})
	if err != nil {
		t.Fatalf("seeding chunk %q: %v", title, err)
	}
	if !created {
		t.Fatalf("seed chunk %q already existed", title)
	}
	return id
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

// TestInsertIdempotent verifies that resubmitting identical chunk content
// returns the existing chunk instead of creating a duplicate.
func TestInsertIdempotent(t *testing.T) {
	db := skipIfNoPostgres(t)
	s := newTestStore(t, db)
	source := uniqueSource(t, s)

	chunk := &curriculum.Chunk{
		Subject:      curriculum.SubjectScience,
		Grade:        10,
		Topic:        "matter",
		SectionTitle: "States of Matter " + source,
		Body:         "Matter exists as solid, liquid, and gas. Seed: " + source,
		SourceFile:   source,
	}

	firstID, created, err := s.Insert(context.Background(), chunk)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if !created {
		t.Fatal("first insert reported created=false")
	}

	secondID, created, err := s.Insert(context.Background(), chunk)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if created {
		t.Error("duplicate insert reported created=true")
	}
	if secondID != firstID {
		t.Errorf("duplicate insert returned id %s, want %s", secondID, firstID)
	}
}

// TestSimilaritySearchRanking seeds two chunks with real embeddings and
// checks that the chunk matching the query ranks above the unrelated one.
func TestSimilaritySearchRanking(t *testing.T) {
	db := skipIfNoPostgres(t)
	s := newTestStore(t, db)
	source := uniqueSource(t, s)
	embedder := embedding.NewHashingEmbedder(embedding.DefaultDim)

	matterID := seedChunk(t, s, source, "matter",
		"Particles of Matter "+source,
		"Matter is made of particles. Particles in solids vibrate in fixed positions. Seed: "+source)
	soundID := seedChunk(t, s, source, "sound",
		"Properties of Sound "+source,
		"Sound travels as waves through a medium such as air or water. Seed: "+source)

	for id, body := range map[string]string{
		matterID: "matter particles solids vibrate positions",
		soundID:  "sound waves medium air water",
	} {
		if err := s.SetEmbedding(context.Background(), id, embedder.Embed(body)); err != nil {
			t.Fatalf("setting embedding for %s: %v", id, err)
		}
	}

	results, err := s.SimilaritySearch(context.Background(),
		embedder.Embed("matter particles"), curriculum.SubjectScience, 10, 50)
	if err != nil {
		t.Fatalf("similarity search: %v", err)
	}

	matterRank, soundRank := -1, -1
	for i, r := range results {
		switch r.ID {
		case matterID:
			matterRank = i
		case soundID:
			soundRank = i
		}
	}
	if matterRank == -1 {
		t.Fatal("matter chunk missing from similarity results")
	}
	if soundRank != -1 && soundRank < matterRank {
		t.Errorf("unrelated chunk ranked %d above matching chunk at %d", soundRank, matterRank)
	}
}

// TestSimilaritySearchExcludesOtherGrades verifies subject and grade
// filtering happens in the query, not post hoc.
func TestSimilaritySearchExcludesOtherGrades(t *testing.T) {
	db := skipIfNoPostgres(t)
	s := newTestStore(t, db)
	source := uniqueSource(t, s)
	embedder := embedding.NewHashingEmbedder(embedding.DefaultDim)

	id, created, err := s.Insert(context.Background(), &curriculum.Chunk{
		Subject:      curriculum.SubjectScience,
		Grade:        8,
		Topic:        "matter",
		SectionTitle: "Grade 8 Matter " + source,
		Body:         "Matter is anything that has mass. Seed: " + source,
		SourceFile:   source,
	})
	if err != nil || !created {
		t.Fatalf("seeding grade 8 chunk: created=%v err=%v", created, err)
	}
	if err := s.SetEmbedding(context.Background(), id, embedder.Embed("matter mass")); err != nil {
		t.Fatalf("setting embedding: %v", err)
	}

	results, err := s.SimilaritySearch(context.Background(),
		embedder.Embed("matter mass"), curriculum.SubjectScience, 10, 50)
	if err != nil {
		t.Fatalf("similarity search: %v", err)
	}
	for _, r := range results {
		if r.ID == id {
			t.Fatal("grade 8 chunk leaked into grade 10 results")
		}
	}
}

// TestTextSearchFindsUnembeddedChunks verifies the ILIKE fallback reaches
// chunks whose embeddings have not been computed yet.
func TestTextSearchFindsUnembeddedChunks(t *testing.T) {
	db := skipIfNoPostgres(t)
	s := newTestStore(t, db)
	source := uniqueSource(t, s)

	marker := fmt.Sprintf("photosynthesis%d", time.Now().UnixNano())
	id := seedChunk(t, s, source, "plants",
		"Plant Nutrition "+source,
		"Plants make food through "+marker+" using sunlight. Seed: "+source)

	results, err := s.TextSearch(context.Background(), []string{marker}, curriculum.SubjectScience, 10, 10)
	if err != nil {
		t.Fatalf("text search: %v", err)
	}
	if len(results) != 1 || results[0].ID != id {
		t.Fatalf("text search results = %+v, want the single seeded chunk", results)
	}
}

// TestTopicsGrouping verifies chunks are grouped by topic with section titles
// as subtopics.
func TestTopicsGrouping(t *testing.T) {
	db := skipIfNoPostgres(t)
	s := newTestStore(t, db)
	source := uniqueSource(t, s)

	topic := fmt.Sprintf("energy-%d", time.Now().UnixNano())
	seedChunk(t, s, source, topic, "Forms of Energy", "Energy takes many forms. Seed: "+source)
	seedChunk(t, s, source, topic, "Energy Transfer", "Energy moves between objects. Seed: "+source)

	groups, err := s.Topics(context.Background(), curriculum.SubjectScience, 10)
	if err != nil {
		t.Fatalf("listing topics: %v", err)
	}

	var found *store.TopicGroup
	for i := range groups {
		if groups[i].Topic == topic {
			found = &groups[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("topic %q missing from listing", topic)
	}
	if found.ChunkCount != 2 || len(found.Subtopics) != 2 {
		t.Errorf("group = %+v, want 2 chunks and 2 subtopics", found)
	}
	if found.Description == "" {
		t.Error("expected a description preview from the first chunk")
	}
}

// TestDeleteBySource verifies source deletion removes exactly the chunks
// ingested from that file.
func TestDeleteBySource(t *testing.T) {
	db := skipIfNoPostgres(t)
	s := newTestStore(t, db)
	source := uniqueSource(t, s)
	keepSource := uniqueSource(t, s)

	seedChunk(t, s, source, "fractions", "Adding Fractions "+source, "Add numerators over a common denominator. Seed: "+source)
	seedChunk(t, s, source, "fractions", "Comparing Fractions "+source, "Compare fractions with a common denominator. Seed: "+source)
	keptID := seedChunk(t, s, keepSource, "fractions", "Equivalent Fractions "+keepSource, "Equivalent fractions name the same amount. Seed: "+keepSource)

	deleted, err := s.DeleteBySource(context.Background(), source)
	if err != nil {
		t.Fatalf("deleting by source: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	chunks, err := s.QueryByFilter(context.Background(), curriculum.SubjectScience, 10)
	if err != nil {
		t.Fatalf("querying after delete: %v", err)
	}
	kept := false
	for _, c := range chunks {
		if c.SourceFile == source {
			t.Errorf("chunk %s from deleted source still present", c.ID)
		}
		if c.ID == keptID {
			kept = true
		}
	}
	if !kept {
		t.Error("chunk from a different source was deleted")
	}
}

// TestCorpusStats verifies counts reflect inserted chunks and embeddings.
func TestCorpusStats(t *testing.T) {
	db := skipIfNoPostgres(t)
	s := newTestStore(t, db)
	source := uniqueSource(t, s)
	embedder := embedding.NewHashingEmbedder(embedding.DefaultDim)

	before, err := s.CorpusStats(context.Background())
	if err != nil {
		t.Fatalf("corpus stats before: %v", err)
	}

	id := seedChunk(t, s, source, "grammar", "Parts of Speech "+source, "Nouns name people, places, and things. Seed: "+source)
	if err := s.SetEmbedding(context.Background(), id, embedder.Embed("nouns grammar")); err != nil {
		t.Fatalf("setting embedding: %v", err)
	}

	after, err := s.CorpusStats(context.Background())
	if err != nil {
		t.Fatalf("corpus stats after: %v", err)
	}
	if after.TotalChunks != before.TotalChunks+1 {
		t.Errorf("total chunks = %d, want %d", after.TotalChunks, before.TotalChunks+1)
	}
	if after.EmbeddedChunks != before.EmbeddedChunks+1 {
		t.Errorf("embedded chunks = %d, want %d", after.EmbeddedChunks, before.EmbeddedChunks+1)
	}
	if after.BySubject["science"] <= before.BySubject["science"] {
		t.Errorf("science count did not increase: %d -> %d",
			before.BySubject["science"], after.BySubject["science"])
	}
}
