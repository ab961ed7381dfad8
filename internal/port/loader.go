package port

import "policyrag/internal/domain"

// DocumentLoader extracts per-page text from a source document.
type DocumentLoader interface {
	// Load returns the pages of the document at path, 1-indexed.
	Load(path string) ([]domain.Page, error)
}
