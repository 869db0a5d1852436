package docparse

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ParseText sectionizes a plain-text curriculum file.
func ParseText(path string) ([]Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading text file %s: %w", path, err)
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return sectionize(string(data), title), nil
}
