package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"policyrag/internal/domain"
	"policyrag/internal/port"
)

const DefaultTopK = 5

// RetrieveUseCase embeds a question and queries the collection with it.
type RetrieveUseCase struct {
	embedder   port.Embedder
	index      port.VectorIndex
	collection string
	topK       int
	logger     *slog.Logger
}

// NewRetrieveUseCase creates a new retrieve use case. topK is used when a
// caller passes k <= 0.
func NewRetrieveUseCase(
	embedder port.Embedder,
	index port.VectorIndex,
	collection string,
	topK int,
	logger *slog.Logger,
) *RetrieveUseCase {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrieveUseCase{
		embedder:   embedder,
		index:      index,
		collection: collection,
		topK:       topK,
		logger:     logger,
	}
}

// Retrieve returns up to k hits, nearest first. A collection that does not
// exist yet is created and yields an empty result.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, question string, k int) (domain.RetrievalResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrMissingQuestion
	}
	if k <= 0 {
		k = u.topK
	}

	c, err := u.index.Ensure(u.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}

	vector, err := u.embedder.EmbedOne(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	hits, err := u.index.Query(c, vector, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	u.logger.Debug("retrieved", "collection", c.Name, "k", k, "hits", len(hits))
	return hits, nil
}
