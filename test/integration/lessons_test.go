package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/assembler"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/curriculum/store"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/embedding"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/lessons"
	lhandler "github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/lessons/handler"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/retriever"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/config"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/middleware"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/postgres"
)

// newLessonServer wires the full lesson pipeline (store, retriever,
// assembler, handler) over a real database, without Redis or Kafka.
func newLessonServer(t *testing.T, db *postgres.Client) (*httptest.Server, *store.Store) {
	t.Helper()
	chunkStore := newTestStore(t, db)
	embedder := embedding.NewHashingEmbedder(embedding.DefaultDim)

	r := retriever.New(chunkStore, embedder, config.RetrievalConfig{
		MaxChunks:    8,
		MinResults:   3,
		StoreTimeout: 10 * time.Second,
	}, nil)
	svc := lessons.New(r, assembler.New(config.LessonsConfig{}), nil, nil)
	h := lhandler.New(svc, nil, chunkStore, embedder, nil, nil, 8)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/lessons/request", h.GenerateLesson)
	mux.HandleFunc("GET /api/v1/curriculum/topics", h.Topics)
	mux.HandleFunc("GET /api/v1/curriculum/search", h.Search)
	mux.HandleFunc("GET /api/v1/curriculum/stats", h.CorpusStats)

	srv := httptest.NewServer(middleware.RequestID(mux))
	t.Cleanup(srv.Close)
	return srv, chunkStore
}

func postLesson(t *testing.T, srv *httptest.Server, req *lessons.Request) (*http.Response, []byte) {
	t.Helper()
	body, _ := json.Marshal(req)
	resp, err := http.Post(srv.URL+"/api/v1/lessons/request", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("lesson request failed: %v", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	return resp, respBody
}

// TestLessonRequestEndToEnd seeds an embedded chunk and generates a full
// lesson from it through the HTTP handler.
func TestLessonRequestEndToEnd(t *testing.T) {
	db := skipIfNoPostgres(t)
	srv, chunkStore := newLessonServer(t, db)
	source := uniqueSource(t, chunkStore)
	embedder := embedding.NewHashingEmbedder(embedding.DefaultDim)

	body := "Students will learn to:\n- Define matter\n- List the states of matter\n\n" +
		"Matter is anything that has mass and occupies space. Seed: " + source
	id := seedChunk(t, chunkStore, source, "matter", "States of Matter "+source, body)
	if err := chunkStore.SetEmbedding(context.Background(), id, embedder.Embed("matter states mass space")); err != nil {
		t.Fatalf("setting embedding: %v", err)
	}

	resp, respBody := postLesson(t, srv, &lessons.Request{
		Subject: "science",
		Grade:   10,
		Topic:   "matter",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, respBody)
	}

	var lesson assembler.Lesson
	if err := json.Unmarshal(respBody, &lesson); err != nil {
		t.Fatalf("decoding lesson: %v", err)
	}
	if lesson.Title != "Matter - Sierra Leone Curriculum" {
		t.Errorf("title = %q", lesson.Title)
	}
	if lesson.EstimatedTime <= 0 {
		t.Errorf("estimated time = %d, want positive", lesson.EstimatedTime)
	}
}

// TestLessonRequestValidation verifies the handler maps validation failures
// to 400 responses.
func TestLessonRequestValidation(t *testing.T) {
	db := skipIfNoPostgres(t)
	srv, _ := newLessonServer(t, db)

	cases := []struct {
		name string
		req  *lessons.Request
	}{
		{"unknown subject", &lessons.Request{Subject: "history", Grade: 8, Topic: "colonialism"}},
		{"grade out of range", &lessons.Request{Subject: "math", Grade: 3, Topic: "counting"}},
		{"missing topic", &lessons.Request{Subject: "math", Grade: 8}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, respBody := postLesson(t, srv, tc.req)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", resp.StatusCode, respBody)
			}
		})
	}
}

// TestLessonRequestUnknownTopicDegrades verifies an in-range request with no
// matching chunks still returns a usable lesson marked degraded.
func TestLessonRequestUnknownTopicDegrades(t *testing.T) {
	db := skipIfNoPostgres(t)
	srv, _ := newLessonServer(t, db)

	resp, respBody := postLesson(t, srv, &lessons.Request{
		Subject: "english",
		Grade:   7,
		Topic:   "topic_with_no_chunks_xyz",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, respBody)
	}
	var lesson assembler.Lesson
	if err := json.Unmarshal(respBody, &lesson); err != nil {
		t.Fatalf("decoding lesson: %v", err)
	}
	if !lesson.Degraded {
		t.Error("expected degraded lesson for topic with no chunks")
	}
	if lesson.Content == "" || len(lesson.Objectives) == 0 {
		t.Errorf("degraded lesson incomplete: %+v", lesson)
	}
}

// TestCurriculumSearchEndpoint verifies query validation and result shape.
func TestCurriculumSearchEndpoint(t *testing.T) {
	db := skipIfNoPostgres(t)
	srv, _ := newLessonServer(t, db)

	resp, err := http.Get(srv.URL + "/api/v1/curriculum/search?subject=science&grade=10")
	if err != nil {
		t.Fatalf("search request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing q: expected 400, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/v1/curriculum/search?q=matter&subject=science&grade=10")
	if err != nil {
		t.Fatalf("search request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload struct {
		Query   string            `json:"query"`
		Results []json.RawMessage `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding search response: %v", err)
	}
	if payload.Query != "matter" {
		t.Errorf("query echoed as %q", payload.Query)
	}
}

// TestTopicsEndpointRejectsBadGrade verifies parameter validation on the
// browsing endpoints.
func TestTopicsEndpointRejectsBadGrade(t *testing.T) {
	db := skipIfNoPostgres(t)
	srv, _ := newLessonServer(t, db)

	resp, err := http.Get(srv.URL + "/api/v1/curriculum/topics?subject=science&grade=99")
	if err != nil {
		t.Fatalf("topics request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}
