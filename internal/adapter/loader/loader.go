package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"policyrag/internal/domain"
	"policyrag/internal/port"
)

// Loader resolves a source path to per-page text, choosing an extractor by
// file extension. Only files matching one of the include patterns are
// accepted.
type Loader struct {
	includes []string
	pdf      port.DocumentLoader
	text     port.DocumentLoader
	logger   *slog.Logger
}

func NewLoader(includes []string, logger *slog.Logger) *Loader {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		includes: includes,
		pdf:      NewPDFLoader(logger),
		text:     NewTextLoader(),
		logger:   logger,
	}
}

// Load returns the document's pages. Any path that does not resolve to a
// readable, accepted file yields ErrSourceNotFound.
func (l *Loader) Load(path string) ([]domain.Page, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrSourceNotFound)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, domain.ErrSourceNotFound)
	}
	if !l.shouldInclude(path) {
		return nil, fmt.Errorf("%s does not match %v: %w", path, l.includes, domain.ErrSourceNotFound)
	}

	var pages []domain.Page
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		pages, err = l.pdf.Load(path)
	default:
		pages, err = l.text.Load(path)
	}
	if err != nil {
		return nil, err
	}

	l.logger.Debug("document loaded", "path", path, "pages", len(pages), "bytes", info.Size())
	return pages, nil
}

func (l *Loader) shouldInclude(path string) bool {
	name := filepath.ToSlash(filepath.Base(path))
	for _, pattern := range l.includes {
		matched, err := doublestar.Match(pattern, name)
		if err == nil && matched {
			return true
		}
	}
	return false
}
