package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.etcd.io/bbolt"
	"policyrag/internal/domain"
)

const collectionPrefix = "collection:"

var (
	bucketDocs = []byte("docs")
	bucketMeta = []byte("meta")
)

// BoltIndex is a VectorIndex persisted in a single bbolt file. Each
// collection is a top-level bucket holding a docs and a meta sub-bucket.
// Search is brute force over the collection.
//
// bbolt holds an exclusive file lock, so only one process may have the
// index open at a time. Concurrent ingestion into the same collection is
// not supported.
type BoltIndex struct {
	db     *bbolt.DB
	path   string
	metric string
	now    func() time.Time
	logger *slog.Logger
}

type storedDoc struct {
	Vector   []float32       `json:"v"`
	Text     string          `json:"t"`
	Metadata domain.Metadata `json:"m,omitempty"`
}

// NewBoltIndex opens (or creates) the index file at path. New collections
// use metric; existing collections keep the metric they were built with.
func NewBoltIndex(path, metric string, logger *slog.Logger) (*BoltIndex, error) {
	if _, err := DistanceFunc(metric); err != nil {
		return nil, err
	}
	if metric == "" {
		metric = MetricCosine
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return nil, fmt.Errorf("index %s is locked by another process", path)
		}
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	if err := db.View(checkSchemas); err != nil {
		db.Close()
		return nil, fmt.Errorf("index %s: %w", path, err)
	}

	return &BoltIndex{
		db:     db,
		path:   path,
		metric: metric,
		now:    time.Now,
		logger: logger,
	}, nil
}

func collectionKey(name string) []byte {
	return []byte(collectionPrefix + name)
}

func (s *BoltIndex) createCollection(tx *bbolt.Tx, name string) error {
	root, err := tx.CreateBucket(collectionKey(name))
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	if _, err := root.CreateBucket(bucketDocs); err != nil {
		return err
	}
	meta, err := root.CreateBucket(bucketMeta)
	if err != nil {
		return err
	}
	return writeSchema(meta, &SchemaInfo{
		Version:   CurrentSchemaVersion,
		Metric:    s.metric,
		CreatedAt: s.now().UTC(),
	})
}

// Ensure returns the collection, creating it if absent.
func (s *BoltIndex) Ensure(name string) (domain.Collection, error) {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(collectionKey(name)) != nil {
			return nil
		}
		s.logger.Info("creating collection", "collection", name, "metric", s.metric)
		return s.createCollection(tx, name)
	})
	if err != nil {
		return domain.Collection{}, err
	}
	return domain.Collection{Name: name}, nil
}

// Replace deletes the collection if present and creates it empty, in one
// transaction.
func (s *BoltIndex) Replace(name string) (domain.Collection, error) {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		err := tx.DeleteBucket(collectionKey(name))
		switch {
		case err == nil:
			s.logger.Info("deleted existing collection", "collection", name)
		case errors.Is(err, bbolt.ErrBucketNotFound):
		default:
			return fmt.Errorf("failed to delete collection %s: %w", name, err)
		}
		return s.createCollection(tx, name)
	})
	if err != nil {
		return domain.Collection{}, err
	}
	return domain.Collection{Name: name}, nil
}

func collectionBuckets(tx *bbolt.Tx, name string) (docs, meta *bbolt.Bucket, err error) {
	root := tx.Bucket(collectionKey(name))
	if root == nil {
		return nil, nil, fmt.Errorf("%s: %w", name, domain.ErrCollectionNotFound)
	}
	docs = root.Bucket(bucketDocs)
	meta = root.Bucket(bucketMeta)
	if docs == nil || meta == nil {
		return nil, nil, fmt.Errorf("collection %s is corrupt: missing sub-bucket", name)
	}
	return docs, meta, nil
}

// Insert stores docs. The first insert into an empty collection fixes its
// dimensionality; the batch is rolled back on any error.
func (s *BoltIndex) Insert(c domain.Collection, docs []domain.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		docsBucket, meta, err := collectionBuckets(tx, c.Name)
		if err != nil {
			return err
		}
		info, err := readSchema(meta)
		if err != nil {
			return err
		}

		for _, doc := range docs {
			if doc.ID == "" {
				return fmt.Errorf("document id must not be empty")
			}
			if len(doc.Vector) == 0 {
				return fmt.Errorf("document %s has an empty vector: %w", doc.ID, domain.ErrDimensionMismatch)
			}
			if info.Dimension == 0 {
				info.Dimension = len(doc.Vector)
			}
			if len(doc.Vector) != info.Dimension {
				return fmt.Errorf("document %s: expected %d, got %d: %w", doc.ID, info.Dimension, len(doc.Vector), domain.ErrDimensionMismatch)
			}
			if docsBucket.Get([]byte(doc.ID)) != nil {
				return fmt.Errorf("%s: %w", doc.ID, domain.ErrDuplicateID)
			}

			data, err := json.Marshal(storedDoc{
				Vector:   doc.Vector,
				Text:     doc.Text,
				Metadata: doc.Metadata,
			})
			if err != nil {
				return err
			}
			if err := docsBucket.Put([]byte(doc.ID), data); err != nil {
				return err
			}
		}

		return writeSchema(meta, info)
	})
}

// Query returns up to k documents nearest to vector.
func (s *BoltIndex) Query(c domain.Collection, vector []float32, k int) (domain.RetrievalResult, error) {
	var hits domain.RetrievalResult

	err := s.db.View(func(tx *bbolt.Tx) error {
		docsBucket, meta, err := collectionBuckets(tx, c.Name)
		if err != nil {
			return err
		}
		info, err := readSchema(meta)
		if err != nil {
			return err
		}

		if info.Dimension == 0 || k <= 0 {
			return nil
		}
		if len(vector) != info.Dimension {
			return fmt.Errorf("query: expected %d, got %d: %w", info.Dimension, len(vector), domain.ErrDimensionMismatch)
		}

		distance, err := DistanceFunc(info.Metric)
		if err != nil {
			return err
		}

		return docsBucket.ForEach(func(id, v []byte) error {
			var stored storedDoc
			if err := json.Unmarshal(v, &stored); err != nil {
				s.logger.Warn("skipping corrupt document", "collection", c.Name, "id", string(id), "error", err)
				return nil
			}
			hits = append(hits, domain.Hit{
				ID:       string(id),
				Text:     stored.Text,
				Metadata: stored.Metadata,
				Distance: distance(vector, stored.Vector),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if hits == nil {
		return domain.RetrievalResult{}, nil
	}
	return Rank(hits, k), nil
}

// Count returns the number of documents in the collection.
func (s *BoltIndex) Count(c domain.Collection) (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		docsBucket, _, err := collectionBuckets(tx, c.Name)
		if err != nil {
			return err
		}
		n = docsBucket.Stats().KeyN
		return nil
	})
	return n, err
}

// Info describes the collection.
func (s *BoltIndex) Info(c domain.Collection) (domain.CollectionInfo, error) {
	out := domain.CollectionInfo{Name: c.Name, Location: s.path}
	err := s.db.View(func(tx *bbolt.Tx) error {
		docsBucket, meta, err := collectionBuckets(tx, c.Name)
		if err != nil {
			return err
		}
		info, err := readSchema(meta)
		if err != nil {
			return err
		}
		out.Count = docsBucket.Stats().KeyN
		out.Dimension = info.Dimension
		out.Metric = info.Metric
		out.Model = info.Model
		out.CreatedAt = info.CreatedAt
		return nil
	})
	return out, err
}

// SetModel records the embedding model the collection was built with.
func (s *BoltIndex) SetModel(c domain.Collection, model string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, meta, err := collectionBuckets(tx, c.Name)
		if err != nil {
			return err
		}
		info, err := readSchema(meta)
		if err != nil {
			return err
		}
		info.Model = model
		return writeSchema(meta, info)
	})
}

// Collections lists collection names.
func (s *BoltIndex) Collections() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			if n, ok := strings.CutPrefix(string(name), collectionPrefix); ok {
				names = append(names, n)
			}
			return nil
		})
	})
	return names, err
}

// Location returns the path of the index file.
func (s *BoltIndex) Location() string {
	return s.path
}

func (s *BoltIndex) Close() error {
	return s.db.Close()
}
