package port

import "policyrag/internal/domain"

type Chunker interface {
	Chunk(source string, pages []domain.Page) ([]domain.Chunk, error)
}
