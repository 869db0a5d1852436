// Package docparse turns curriculum documents (PDF, markdown, plain text)
// into ordered sections ready for chunk submission. The import CLI feeds its
// output straight to the ingestion service.
package docparse

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Section is one titled passage of a parsed document, in document order.
type Section struct {
	Title    string
	Body     string
	Position int
}

// ParseFile parses a curriculum document by extension. Supported: .pdf, .md,
// .markdown, .txt.
func ParseFile(path string) ([]Section, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return ParsePDF(path)
	case ".md", ".markdown":
		return ParseMarkdown(path)
	case ".txt":
		return ParseText(path)
	default:
		return nil, fmt.Errorf("unsupported document type: %s", path)
	}
}

// sectionize splits plain text into sections at heading-like lines: short
// lines with no terminal punctuation, or lines starting with "Chapter" or
// "Unit". Text before the first heading becomes an "Introduction" section.
func sectionize(text, fallbackTitle string) []Section {
	lines := strings.Split(text, "\n")
	sections := make([]Section, 0)
	title := ""
	var body strings.Builder

	flush := func() {
		content := strings.TrimSpace(body.String())
		body.Reset()
		if content == "" {
			return
		}
		sectionTitle := title
		if sectionTitle == "" {
			if len(sections) == 0 {
				sectionTitle = "Introduction"
			} else {
				sectionTitle = fallbackTitle
			}
		}
		sections = append(sections, Section{
			Title:    sectionTitle,
			Body:     content,
			Position: len(sections),
		})
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isHeadingLine(trimmed) {
			flush()
			title = strings.TrimLeft(trimmed, "# ")
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	if len(sections) == 0 && strings.TrimSpace(text) != "" {
		sections = append(sections, Section{Title: fallbackTitle, Body: strings.TrimSpace(text)})
	}
	return sections
}

func isHeadingLine(line string) bool {
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, "#") {
		return true
	}
	lower := strings.ToLower(line)
	if strings.HasPrefix(lower, "chapter ") || strings.HasPrefix(lower, "unit ") {
		return true
	}
	// Short line, no sentence punctuation, most words capitalised.
	if len(line) > 80 || strings.ContainsAny(line, ".!?,") {
		return false
	}
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > 10 {
		return false
	}
	capitalised := 0
	for _, w := range words {
		if w[0] >= 'A' && w[0] <= 'Z' {
			capitalised++
		}
	}
	return capitalised*2 >= len(words)
}
