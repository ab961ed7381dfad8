package memstore

import (
	"fmt"
	"sync"
	"time"

	"policyrag/internal/adapter/store"
	"policyrag/internal/domain"
)

type collection struct {
	docs      map[string]domain.IndexedDocument
	dimension int
	model     string
	createdAt time.Time
}

// MemoryIndex is a VectorIndex held in process memory. It backs
// `ingest --dry-run`, where nothing is persisted.
type MemoryIndex struct {
	mu          sync.RWMutex
	metric      string
	distance    func(a, b []float32) float64
	collections map[string]*collection
}

func NewMemoryIndex(metric string) (*MemoryIndex, error) {
	distance, err := store.DistanceFunc(metric)
	if err != nil {
		return nil, err
	}
	if metric == "" {
		metric = store.MetricCosine
	}
	return &MemoryIndex{
		metric:      metric,
		distance:    distance,
		collections: make(map[string]*collection),
	}, nil
}

func newCollection() *collection {
	return &collection{
		docs:      make(map[string]domain.IndexedDocument),
		createdAt: time.Now().UTC(),
	}
}

func (s *MemoryIndex) Ensure(name string) (domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = newCollection()
	}
	return domain.Collection{Name: name}, nil
}

func (s *MemoryIndex) Replace(name string) (domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = newCollection()
	return domain.Collection{Name: name}, nil
}

func (s *MemoryIndex) get(name string) (*collection, error) {
	col, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrCollectionNotFound)
	}
	return col, nil
}

// Insert validates the whole batch before storing any of it.
func (s *MemoryIndex) Insert(c domain.Collection, docs []domain.IndexedDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.get(c.Name)
	if err != nil {
		return err
	}

	dimension := col.dimension
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document id must not be empty")
		}
		if dimension == 0 {
			dimension = len(doc.Vector)
		}
		if len(doc.Vector) == 0 || len(doc.Vector) != dimension {
			return fmt.Errorf("document %s: expected %d, got %d: %w", doc.ID, dimension, len(doc.Vector), domain.ErrDimensionMismatch)
		}
		if _, ok := col.docs[doc.ID]; ok || seen[doc.ID] {
			return fmt.Errorf("%s: %w", doc.ID, domain.ErrDuplicateID)
		}
		seen[doc.ID] = true
	}

	for _, doc := range docs {
		col.docs[doc.ID] = doc
	}
	col.dimension = dimension
	return nil
}

func (s *MemoryIndex) Query(c domain.Collection, vector []float32, k int) (domain.RetrievalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, err := s.get(c.Name)
	if err != nil {
		return nil, err
	}
	if col.dimension == 0 || k <= 0 {
		return domain.RetrievalResult{}, nil
	}
	if len(vector) != col.dimension {
		return nil, fmt.Errorf("query: expected %d, got %d: %w", col.dimension, len(vector), domain.ErrDimensionMismatch)
	}

	hits := make(domain.RetrievalResult, 0, len(col.docs))
	for id, doc := range col.docs {
		hits = append(hits, domain.Hit{
			ID:       id,
			Text:     doc.Text,
			Metadata: doc.Metadata,
			Distance: s.distance(vector, doc.Vector),
		})
	}
	return store.Rank(hits, k), nil
}

func (s *MemoryIndex) Count(c domain.Collection) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, err := s.get(c.Name)
	if err != nil {
		return 0, err
	}
	return len(col.docs), nil
}

func (s *MemoryIndex) Info(c domain.Collection) (domain.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, err := s.get(c.Name)
	if err != nil {
		return domain.CollectionInfo{}, err
	}
	return domain.CollectionInfo{
		Name:      c.Name,
		Location:  s.Location(),
		Count:     len(col.docs),
		Dimension: col.dimension,
		Metric:    s.metric,
		Model:     col.model,
		CreatedAt: col.createdAt,
	}, nil
}

func (s *MemoryIndex) SetModel(c domain.Collection, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, err := s.get(c.Name)
	if err != nil {
		return err
	}
	col.model = model
	return nil
}

func (s *MemoryIndex) Location() string {
	return "memory"
}

func (s *MemoryIndex) Close() error {
	return nil
}
