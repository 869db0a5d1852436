// Package assembler formats retrieved curriculum chunks into the lesson
// payload served to clients. When retrieval comes back empty or unavailable
// it produces a degraded generic lesson instead, so a valid request always
// gets a usable payload.
package assembler

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/curriculum"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/extractor"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/config"
)

const sectionSeparator = "\n\n---\n\n"

// Lesson is the payload returned for a lesson request.
type Lesson struct {
	Title         string              `json:"title"`
	Objectives    []string            `json:"objectives"`
	Content       string              `json:"content"`
	Examples      []extractor.Example `json:"examples"`
	KeyPoints     []string            `json:"key_points"`
	EstimatedTime int                 `json:"estimated_time"`
	Degraded      bool                `json:"degraded"`
	Sources       []string            `json:"sources"`
}

// Assembler builds lessons from chunks under configured display limits.
type Assembler struct {
	cfg config.LessonsConfig
}

// New creates an Assembler, filling in defaults for zero limits.
func New(cfg config.LessonsConfig) *Assembler {
	if cfg.MaxContentChunks <= 0 {
		cfg.MaxContentChunks = 6
	}
	if cfg.MaxExamples <= 0 {
		cfg.MaxExamples = 5
	}
	if cfg.MaxKeyPoints <= 0 {
		cfg.MaxKeyPoints = 8
	}
	if cfg.MaxObjectives <= 0 {
		cfg.MaxObjectives = 6
	}
	return &Assembler{cfg: cfg}
}

// Assemble builds a lesson from the retrieved chunks. The focus string, when
// present, only biases which sections appear first; it never filters chunks
// out. An empty chunk list yields the degraded fallback lesson.
func (a *Assembler) Assemble(subject curriculum.Subject, grade int, topic, focus string, chunks []curriculum.Chunk) *Lesson {
	if len(chunks) == 0 {
		return a.Fallback(subject, topic)
	}

	ordered := orderByFocus(chunks, focus)
	if len(ordered) > a.cfg.MaxContentChunks {
		ordered = ordered[:a.cfg.MaxContentChunks]
	}

	lesson := &Lesson{
		Title:         lessonTitle(topic),
		EstimatedTime: estimatedTime(subject),
		Examples:      make([]extractor.Example, 0, a.cfg.MaxExamples),
		Sources:       make([]string, 0, len(ordered)),
	}

	sections := make([]string, 0, len(ordered)+1)
	sections = append(sections, fmt.Sprintf("# %s", titleCase(topic)))

	seenObjectives := make(map[string]struct{})
	seenPoints := make(map[string]struct{})
	seenProblems := make(map[string]struct{})
	keyPoints := make([]string, 0, a.cfg.MaxKeyPoints)
	objectives := make([]string, 0, a.cfg.MaxObjectives)

	for _, chunk := range ordered {
		sections = append(sections, fmt.Sprintf("## %s\n\n%s", chunk.SectionTitle, strings.TrimSpace(chunk.Body)))
		lesson.Sources = append(lesson.Sources, chunk.SectionTitle)

		for _, obj := range extractor.Objectives(chunk.Body) {
			if _, dup := seenObjectives[obj]; dup {
				continue
			}
			seenObjectives[obj] = struct{}{}
			objectives = append(objectives, obj)
		}
		for _, ex := range extractor.Examples(chunk.Body) {
			if _, dup := seenProblems[ex.Problem]; dup {
				continue
			}
			seenProblems[ex.Problem] = struct{}{}
			lesson.Examples = append(lesson.Examples, ex)
		}
		// Local applications lead the key points so Sierra Leone context
		// sourced from the curriculum surfaces first.
		for _, point := range extractor.Applications(chunk.Body) {
			if _, dup := seenPoints[point]; dup {
				continue
			}
			seenPoints[point] = struct{}{}
			keyPoints = append(keyPoints, point)
		}
		for _, point := range extractor.KeyConcepts(chunk.Body) {
			if _, dup := seenPoints[point]; dup {
				continue
			}
			seenPoints[point] = struct{}{}
			keyPoints = append(keyPoints, point)
		}
	}

	if len(objectives) > a.cfg.MaxObjectives {
		objectives = objectives[:a.cfg.MaxObjectives]
	}
	if len(objectives) == 0 {
		objectives = genericObjectives(subject, topic)
	}
	lesson.Objectives = objectives

	if len(lesson.Examples) > a.cfg.MaxExamples {
		lesson.Examples = lesson.Examples[:a.cfg.MaxExamples]
	}
	if len(keyPoints) > a.cfg.MaxKeyPoints {
		keyPoints = keyPoints[:a.cfg.MaxKeyPoints]
	}
	lesson.KeyPoints = keyPoints
	lesson.Content = strings.Join(sections, sectionSeparator)
	return lesson
}

// Fallback produces the degraded generic lesson used when no curriculum
// content matches or retrieval is unavailable. It names the topic and subject
// but carries no curriculum-sourced claims.
func (a *Assembler) Fallback(subject curriculum.Subject, topic string) *Lesson {
	displayTopic := titleCase(topic)
	content := strings.Join([]string{
		fmt.Sprintf("# %s", displayTopic),
		fmt.Sprintf("This is an introductory lesson on %s for %s students.", strings.ToLower(strings.TrimSpace(topic)), subject),
		fmt.Sprintf("Detailed curriculum material for %s is not available right now. "+
			"Work through the learning objectives below with your teacher, and check back later for the full lesson.", strings.ToLower(strings.TrimSpace(topic))),
	}, "\n\n")

	return &Lesson{
		Title:         lessonTitle(topic),
		Objectives:    genericObjectives(subject, topic),
		Content:       content,
		Examples:      []extractor.Example{},
		KeyPoints: []string{
			fmt.Sprintf("Review your %s notes on related topics", subject),
			"Write down questions to ask your teacher",
			"Practice with exercises from your textbook",
		},
		EstimatedTime: estimatedTime(subject),
		Degraded:      true,
		Sources:       []string{},
	}
}

func lessonTitle(topic string) string {
	return fmt.Sprintf("%s - Sierra Leone Curriculum", titleCase(topic))
}

func genericObjectives(subject curriculum.Subject, topic string) []string {
	t := strings.ToLower(strings.TrimSpace(topic))
	return []string{
		fmt.Sprintf("Understand the key ideas of %s", t),
		fmt.Sprintf("Apply %s concepts to everyday problems", t),
		fmt.Sprintf("Build confidence working through %s exercises in %s", t, subject),
	}
}

// estimatedTime is a fixed per-subject heuristic, not derived from content
// length.
func estimatedTime(subject curriculum.Subject) int {
	switch subject {
	case curriculum.SubjectMath:
		return 45
	case curriculum.SubjectScience:
		return 40
	case curriculum.SubjectEnglish:
		return 35
	default:
		return 30
	}
}

// orderByFocus stably moves chunks mentioning the focus string ahead of the
// rest. With no focus it returns the input order unchanged.
func orderByFocus(chunks []curriculum.Chunk, focus string) []curriculum.Chunk {
	focus = strings.ToLower(strings.TrimSpace(focus))
	if focus == "" {
		return chunks
	}
	matched := make([]curriculum.Chunk, 0, len(chunks))
	rest := make([]curriculum.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.Contains(strings.ToLower(chunk.SectionTitle), focus) ||
			strings.Contains(strings.ToLower(chunk.Body), focus) {
			matched = append(matched, chunk)
		} else {
			rest = append(rest, chunk)
		}
	}
	return append(matched, rest...)
}

func titleCase(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
