package docparse

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ParseMarkdown walks the goldmark AST and starts a new section at every
// heading. Text before the first heading becomes an "Introduction" section.
func ParseMarkdown(path string) ([]Section, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading markdown %s: %w", path, err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	fallbackTitle := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sections := make([]Section, 0)
	title := ""
	var body bytes.Buffer

	flush := func() {
		content := strings.TrimSpace(body.String())
		body.Reset()
		if content == "" {
			return
		}
		sectionTitle := title
		if sectionTitle == "" {
			sectionTitle = "Introduction"
		}
		sections = append(sections, Section{
			Title:    sectionTitle,
			Body:     content,
			Position: len(sections),
		})
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		var t string
		switch node := n.(type) {
		case *ast.Heading:
			flush()
			title = nodeText(node, src)
			continue
		case *ast.List:
			// Re-prefix list items so bullet markers survive into the
			// stored chunk body.
			items := make([]string, 0)
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				if itemText := nodeText(item, src); itemText != "" {
					items = append(items, "- "+itemText)
				}
			}
			t = strings.Join(items, "\n")
		default:
			t = nodeText(n, src)
		}
		if t != "" {
			if body.Len() > 0 {
				body.WriteString("\n\n")
			}
			body.WriteString(t)
		}
	}
	flush()

	if len(sections) == 0 && len(strings.TrimSpace(string(src))) > 0 {
		sections = append(sections, Section{Title: fallbackTitle, Body: strings.TrimSpace(string(src))})
	}
	return sections, nil
}

// nodeText gets the raw text content of a goldmark AST node, including
// nested inlines.
func nodeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(nodeText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
