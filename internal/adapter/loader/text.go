package loader

import (
	"fmt"
	"os"
	"strings"

	"policyrag/internal/domain"
)

// pageBreak separates pages in plain-text exports.
const pageBreak = "\f"

// TextLoader reads plain text and markdown files. Form feeds split pages;
// a file without them is a single page.
type TextLoader struct{}

func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

func (l *TextLoader) Load(path string) ([]domain.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v: %w", path, err, domain.ErrSourceNotFound)
	}

	parts := strings.Split(string(data), pageBreak)
	pages := make([]domain.Page, len(parts))
	for i, text := range parts {
		pages[i] = domain.Page{Number: i + 1, Text: text}
	}
	return pages, nil
}
