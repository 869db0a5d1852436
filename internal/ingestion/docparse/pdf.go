package docparse

import (
	"fmt"
	"path/filepath"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// ParsePDF extracts the text of every page and sectionizes it by heading
// heuristics. Pages that fail text extraction are skipped rather than
// failing the whole document.
func ParsePDF(path string) ([]Section, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i > 1 {
			buf.WriteString("\n")
		}
		buf.WriteString(text)
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return sectionize(buf.String(), title), nil
}
