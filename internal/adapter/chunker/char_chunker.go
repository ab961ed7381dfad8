package chunker

import (
	"fmt"
	"strings"

	"policyrag/internal/domain"
)

// DefaultChunkSize is the span length in characters.
const DefaultChunkSize = 500

// CharChunker splits page text into contiguous, non-overlapping spans of a
// fixed number of characters. Spans ignore word and sentence boundaries.
type CharChunker struct {
	size int
}

func NewCharChunker(size int) (*CharChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	return &CharChunker{size: size}, nil
}

// Chunk splits every non-blank page into spans. Spans that are blank after
// trimming are dropped without renumbering the rest, so a span's sequence
// is always offset/size. A document that yields no chunks at all returns
// ErrEmptyExtraction.
func (c *CharChunker) Chunk(source string, pages []domain.Page) ([]domain.Chunk, error) {
	var chunks []domain.Chunk

	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}

		runes := []rune(page.Text)
		for offset := 0; offset < len(runes); offset += c.size {
			end := offset + c.size
			if end > len(runes) {
				end = len(runes)
			}

			text := strings.TrimSpace(string(runes[offset:end]))
			if text == "" {
				continue
			}

			chunks = append(chunks, domain.Chunk{
				Text:     text,
				Page:     page.Number,
				Source:   source,
				Sequence: offset / c.size,
			})
		}
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", source, domain.ErrEmptyExtraction)
	}

	return chunks, nil
}
