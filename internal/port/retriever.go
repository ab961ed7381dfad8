package port

import (
	"context"

	"policyrag/internal/domain"
)

// Retriever defines the interface for searching an indexed collection.
type Retriever interface {
	// Retrieve returns up to k hits for the question, nearest first.
	Retrieve(ctx context.Context, question string, k int) (domain.RetrievalResult, error)
}
