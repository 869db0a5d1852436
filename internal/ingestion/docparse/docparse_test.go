package docparse

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestParseMarkdownSections(t *testing.T) {
	path := writeTemp(t, "matter.md", `Intro text before any heading.

# States of Matter

Matter exists in three states.

Students will learn to:

- Define matter
- List the three states

## Changes of State

Heating a solid turns it into a liquid.
`)

	sections, err := ParseMarkdown(path)
	if err != nil {
		t.Fatalf("ParseMarkdown: %v", err)
	}
	if len(sections) != 3 {
		t.Fatalf("sections = %d, want 3: %+v", len(sections), sections)
	}
	if sections[0].Title != "Introduction" {
		t.Errorf("first section title = %q, want Introduction", sections[0].Title)
	}
	if sections[1].Title != "States of Matter" {
		t.Errorf("second section title = %q", sections[1].Title)
	}
	if sections[2].Position != 2 {
		t.Errorf("position = %d, want 2", sections[2].Position)
	}
}

func TestParseMarkdownPreservesBullets(t *testing.T) {
	path := writeTemp(t, "bullets.md", `# Objectives

Students will learn to:

- Define matter
- List the three states
`)

	sections, err := ParseMarkdown(path)
	if err != nil {
		t.Fatalf("ParseMarkdown: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(sections))
	}
	body := sections[0].Body
	if !containsLine(body, "- Define matter") {
		t.Fatalf("bullet marker lost in body:\n%s", body)
	}
}

func TestParseTextHeadingHeuristics(t *testing.T) {
	path := writeTemp(t, "curriculum.txt", `Chapter 1: Numbers and Numeration

Whole numbers are the counting numbers starting from zero.

Chapter 2: Fractions

A fraction represents a part of a whole.
`)

	sections, err := ParseText(path)
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("sections = %d, want 2: %+v", len(sections), sections)
	}
	if sections[0].Title != "Chapter 1: Numbers and Numeration" {
		t.Errorf("first title = %q", sections[0].Title)
	}
	if sections[1].Title != "Chapter 2: Fractions" {
		t.Errorf("second title = %q", sections[1].Title)
	}
}

func TestParseTextNoHeadings(t *testing.T) {
	path := writeTemp(t, "plain.txt", "just one paragraph of lowercase text without any headings at all.")
	sections, err := ParseText(path)
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(sections))
	}
	if sections[0].Title != "Introduction" {
		t.Errorf("section title = %q, want Introduction", sections[0].Title)
	}
}

func TestParseFileUnsupportedType(t *testing.T) {
	if _, err := ParseFile("lesson.docx"); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func containsLine(body, line string) bool {
	for _, l := range splitLines(body) {
		if l == line {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	lines := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}
