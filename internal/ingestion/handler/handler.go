package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/ingestion"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/ingestion/publisher"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/ingestion/validator"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/config"
	apperrors "github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/errors"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/logger"
)

type Handler struct {
	publisher *publisher.Publisher
	cfg       config.IngestionConfig
	logger    *slog.Logger
}

func New(pub *publisher.Publisher, cfg config.IngestionConfig) *Handler {
	return &Handler{
		publisher: pub,
		cfg:       cfg,
		logger:    slog.Default().With("component", "ingestion-handler"),
	}
}

// SubmitChunk handles POST /api/v1/curriculum/chunks.
func (h *Handler) SubmitChunk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req ingestion.ChunkSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validator.ValidateSubmission(&req, h.cfg); err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.publisher.Submit(ctx, &req)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("chunk submission failed",
			"subject", req.Subject,
			"grade", req.Grade,
			"topic", req.Topic,
			"status_code", statusCode,
			"error", err,
		)
		h.writeError(w, statusCode, "chunk submission failed")
		return
	}
	log.Info("chunk submitted",
		"chunk_id", resp.ChunkID,
		"status", resp.Status,
		"subject", req.Subject,
		"grade", req.Grade,
	)
	if resp.Status == "EXISTS" {
		h.writeJSON(w, http.StatusOK, resp)
		return
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

// DeleteSource handles DELETE /api/v1/curriculum/source. It removes every
// chunk ingested from the source file named by the "file" query parameter.
func (h *Handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sourceFile := r.URL.Query().Get("file")
	if sourceFile == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'file' is required")
		return
	}

	deleted, err := h.publisher.DeleteBySource(ctx, sourceFile)
	if err != nil {
		logger.FromContext(ctx).Error("source deletion failed", "source_file", sourceFile, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "source deletion failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"source_file": sourceFile,
		"deleted":     deleted,
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
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
