package loader

import (
	"fmt"
	"log/slog"

	"github.com/ledongthuc/pdf"
	"policyrag/internal/domain"
)

// PDFLoader extracts plain text page by page.
type PDFLoader struct {
	logger *slog.Logger
}

func NewPDFLoader(logger *slog.Logger) *PDFLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFLoader{logger: logger}
}

// Load returns one Page per PDF page. Pages whose text cannot be extracted
// are returned empty so the chunker skips them.
func (l *PDFLoader) Load(path string) ([]domain.Page, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %v: %w", path, err, domain.ErrSourceNotFound)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]domain.Page, 0, total)
	for i := 1; i <= total; i++ {
		page := domain.Page{Number: i}

		p := r.Page(i)
		if !p.V.IsNull() {
			text, err := p.GetPlainText(nil)
			if err != nil {
				l.logger.Warn("page text extraction failed", "path", path, "page", i, "error", err)
			} else {
				page.Text = text
			}
		}

		pages = append(pages, page)
	}

	return pages, nil
}
