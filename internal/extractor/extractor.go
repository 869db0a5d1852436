// Package extractor pulls structured lesson fields out of raw curriculum
// text: learning objectives, key concepts, worked examples, and local
// applications. Every function is a best-effort string scan over one chunk
// body. Missing markers yield empty collections, never errors, and the same
// input always produces the same output.
package extractor

import (
	"strings"
)

const objectivesMarker = "students will learn to:"

var exampleMarkers = []string{"example:", "e.g.,", "for instance"}

// Example is a worked example sliced from a curriculum section.
type Example struct {
	Title       string `json:"title"`
	Problem     string `json:"problem"`
	Solution    string `json:"solution"`
	Explanation string `json:"explanation"`
}

// Objectives collects the bullet lines following the "Students will learn
// to:" marker, stopping at the first blank line or new section heading.
// Returns an empty slice when the marker is absent.
func Objectives(body string) []string {
	lines := strings.Split(body, "\n")
	objectives := make([]string, 0)
	collecting := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !collecting {
			if strings.Contains(strings.ToLower(trimmed), objectivesMarker) {
				collecting = true
			}
			continue
		}
		if trimmed == "" || isHeading(trimmed) {
			break
		}
		if bullet, ok := bulletText(trimmed); ok {
			objectives = append(objectives, bullet)
		}
	}
	return objectives
}

// KeyConcepts collects every bullet line in the body that the objectives
// block has not already claimed.
func KeyConcepts(body string) []string {
	claimed := make(map[string]struct{})
	for _, obj := range Objectives(body) {
		claimed[obj] = struct{}{}
	}

	concepts := make([]string, 0)
	seen := make(map[string]struct{})
	for _, line := range strings.Split(body, "\n") {
		bullet, ok := bulletText(strings.TrimSpace(line))
		if !ok {
			continue
		}
		if _, isObjective := claimed[bullet]; isObjective {
			continue
		}
		if _, dup := seen[bullet]; dup {
			continue
		}
		seen[bullet] = struct{}{}
		concepts = append(concepts, bullet)
	}
	return concepts
}

// Examples scans paragraph blocks introduced by an example marker and splits
// each into problem and solution. A "Solution:" marker takes precedence; a
// question mark ends the problem statement otherwise; with neither, the whole
// block is the problem and the solution is left empty.
func Examples(body string) []Example {
	examples := make([]Example, 0)
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || !hasExampleMarker(block) {
			continue
		}
		examples = append(examples, parseExample(block))
	}
	return examples
}

// Applications collects bullet lines under an "Applications:" header or a
// header mentioning Sierra Leone, stopping at the first non-bullet line.
func Applications(body string) []string {
	applications := make([]string, 0)
	seen := make(map[string]struct{})
	collecting := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		bullet, isBullet := bulletText(trimmed)
		if !collecting {
			lower := strings.ToLower(trimmed)
			if !isBullet && (strings.Contains(lower, "application") || strings.Contains(lower, "sierra leone")) {
				collecting = true
			}
			continue
		}
		if !isBullet {
			collecting = false
			continue
		}
		if _, dup := seen[bullet]; dup {
			continue
		}
		seen[bullet] = struct{}{}
		applications = append(applications, bullet)
	}
	return applications
}

func parseExample(block string) Example {
	ex := Example{Title: "Example"}

	lines := strings.SplitN(block, "\n", 2)
	first := strings.TrimSpace(lines[0])
	rest := ""
	if len(lines) == 2 {
		rest = strings.TrimSpace(lines[1])
	}

	// A short first line like "Example: Simple Interest" is a title with the
	// real content underneath.
	lower := strings.ToLower(first)
	if idx := strings.Index(lower, "example:"); idx >= 0 && rest != "" {
		title := strings.TrimSpace(first[idx+len("example:"):])
		if title != "" {
			ex.Title = title
		}
		block = rest
	}

	lowerBlock := strings.ToLower(block)
	if idx := strings.Index(lowerBlock, "solution:"); idx >= 0 {
		ex.Problem = strings.TrimSpace(block[:idx])
		remainder := strings.TrimSpace(block[idx+len("solution:"):])
		ex.Solution, ex.Explanation = splitExplanation(remainder)
		return ex
	}
	if idx := strings.Index(block, "?"); idx >= 0 && idx < len(block)-1 {
		ex.Problem = strings.TrimSpace(block[:idx+1])
		ex.Solution, ex.Explanation = splitExplanation(strings.TrimSpace(block[idx+1:]))
		return ex
	}
	ex.Problem = strings.TrimSpace(block)
	return ex
}

func splitExplanation(solution string) (string, string) {
	lower := strings.ToLower(solution)
	if idx := strings.Index(lower, "explanation:"); idx >= 0 {
		return strings.TrimSpace(solution[:idx]), strings.TrimSpace(solution[idx+len("explanation:"):])
	}
	return solution, ""
}

func hasExampleMarker(block string) bool {
	lower := strings.ToLower(block)
	for _, marker := range exampleMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// bulletText strips a leading bullet marker ("-", "*", "•", or "1.") and
// returns the remaining text, reporting whether the line was a bullet.
func bulletText(line string) (string, bool) {
	for _, prefix := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	// Numbered bullets: "1. text", "12. text".
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c >= '0' && c <= '9' {
			continue
		}
		if c == '.' && i > 0 && i+1 < len(line) && line[i+1] == ' ' {
			return strings.TrimSpace(line[i+2:]), true
		}
		break
	}
	return "", false
}

func isHeading(line string) bool {
	return strings.HasPrefix(line, "#")
}
