// Package curriculum defines the domain model shared by every service:
// subjects, grade bounds, and the curriculum chunk that lessons are built
// from.
package curriculum

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/errors"
)

// Subject identifies a curriculum subject area.
type Subject string

const (
	SubjectMath    Subject = "math"
	SubjectEnglish Subject = "english"
	SubjectScience Subject = "science"
)

// Grade bounds for the junior and senior secondary curriculum (JSS1 through
// SSS3 mapped onto grades 7-12).
const (
	MinGrade = 7
	MaxGrade = 12
)

// ParseSubject normalises and validates a subject string.
func ParseSubject(s string) (Subject, error) {
	switch Subject(strings.ToLower(strings.TrimSpace(s))) {
	case SubjectMath:
		return SubjectMath, nil
	case SubjectEnglish:
		return SubjectEnglish, nil
	case SubjectScience:
		return SubjectScience, nil
	default:
		return "", fmt.Errorf("%w: %q (want math, english, or science)", apperrors.ErrInvalidSubject, s)
	}
}

// ValidateGrade checks that grade falls within the supported range.
func ValidateGrade(grade int) error {
	if grade < MinGrade || grade > MaxGrade {
		return fmt.Errorf("%w: %d (want %d-%d)", apperrors.ErrInvalidGrade, grade, MinGrade, MaxGrade)
	}
	return nil
}

// Chunk is a single section of curriculum material: one titled passage of a
// chapter, scoped to a subject and grade, optionally carrying an embedding
// vector computed by the indexer.
type Chunk struct {
	ID           string    `json:"id"`
	Subject      Subject   `json:"subject"`
	Grade        int       `json:"grade"`
	Topic        string    `json:"topic"`
	SectionTitle string    `json:"section_title"`
	Body         string    `json:"body"`
	Position     int       `json:"position"`
	SourceFile   string    `json:"source_file,omitempty"`
	Embedding    []float64 `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ScoredChunk pairs a chunk with its similarity score for ranked retrieval.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}
