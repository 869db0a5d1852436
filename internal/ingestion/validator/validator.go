// Package validator checks curriculum chunk submissions before persistence.
// It enforces the subject enum, grade bounds, and field length limits, and
// returns per-field error details.
package validator

import (
	"fmt"
	"strings"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/curriculum"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/ingestion"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/config"
)

const minBodyLength = 1

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// ValidateSubmission checks a chunk submission against the configured
// limits. It returns a ValidationError listing every failing field.
func ValidateSubmission(req *ingestion.ChunkSubmission, cfg config.IngestionConfig) error {
	errs := make(map[string]string)

	if _, err := curriculum.ParseSubject(req.Subject); err != nil {
		errs["subject"] = "subject must be one of math, english, science"
	}
	if err := curriculum.ValidateGrade(req.Grade); err != nil {
		errs["grade"] = fmt.Sprintf("grade must be between %d and %d", curriculum.MinGrade, curriculum.MaxGrade)
	}

	if strings.TrimSpace(req.Topic) == "" {
		errs["topic"] = "topic is required"
	} else if len(req.Topic) > cfg.MaxTitleLength {
		errs["topic"] = fmt.Sprintf("topic must be at most %d characters", cfg.MaxTitleLength)
	}

	title := strings.TrimSpace(req.SectionTitle)
	if title == "" {
		errs["section_title"] = "section title is required"
	} else if len(title) > cfg.MaxTitleLength {
		errs["section_title"] = fmt.Sprintf("section title must be at most %d characters", cfg.MaxTitleLength)
	}

	body := strings.TrimSpace(req.Body)
	if len(body) < minBodyLength {
		errs["body"] = "body is required and must not be empty"
	} else if len(body) > cfg.MaxBodyLength {
		errs["body"] = fmt.Sprintf("body must be at most %d characters", cfg.MaxBodyLength)
	}

	if req.Position < 0 {
		errs["position"] = "position must not be negative"
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
