package port

import "policyrag/internal/domain"

// VectorIndex stores embedded documents in named collections and answers
// k-nearest-neighbour queries against them.
type VectorIndex interface {
	// Ensure returns the named collection, creating it empty if absent.
	Ensure(name string) (domain.Collection, error)

	// Replace drops the named collection if it exists and recreates it empty.
	// Safe to call repeatedly.
	Replace(name string) (domain.Collection, error)

	// Insert appends documents. The whole batch is rejected on a dimension
	// mismatch or an id that is already present.
	Insert(c domain.Collection, docs []domain.IndexedDocument) error

	// Query returns up to k documents nearest to vector, nearest first.
	// An empty collection yields an empty result.
	Query(c domain.Collection, vector []float32, k int) (domain.RetrievalResult, error)

	// Count returns the number of documents in the collection.
	Count(c domain.Collection) (int, error)

	// Info describes the collection for diagnostics.
	Info(c domain.Collection) (domain.CollectionInfo, error)

	// Location returns where collections are stored.
	Location() string
}

// ModelRecorder is implemented by indexes that remember which embedding
// model a collection was built with.
type ModelRecorder interface {
	SetModel(c domain.Collection, model string) error
}
