package domain

import (
	"fmt"
	"time"
)

// Metadata keys stored alongside every indexed chunk.
const (
	MetaPage    = "page"
	MetaSource  = "source"
	MetaChunkID = "chunk_id"
)

// Page is the extracted text of one page of a source document.
type Page struct {
	Number int
	Text   string
}

// Chunk is a span of a page's text. Its identity is derived from
// (Source, Page, Sequence) so reruns reproduce the same IDs.
type Chunk struct {
	Text     string
	Page     int
	Source   string
	Sequence int
}

// ID returns the stable identifier "{source}_p{page}_c{sequence}".
func (c Chunk) ID() string {
	return fmt.Sprintf("%s_p%d_c%d", c.Source, c.Page, c.Sequence)
}

// Metadata returns the scalar metadata stored with the chunk.
func (c Chunk) Metadata() Metadata {
	return Metadata{
		MetaPage:    c.Page,
		MetaSource:  c.Source,
		MetaChunkID: c.Sequence,
	}
}

// Metadata maps string keys to scalar values (string, int, float64, bool).
type Metadata map[string]any

// Int reads an integer value, accepting the float64 form produced by JSON decoding.
func (m Metadata) Int(key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// String reads a string value.
func (m Metadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// IndexedDocument is the unit stored in a collection.
type IndexedDocument struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata Metadata
}

// Hit is one ranked entry of a RetrievalResult.
type Hit struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
	Distance float64  `json:"distance"`
}

// RetrievalResult is ordered by ascending distance, nearest first.
type RetrievalResult []Hit

// Collection identifies a named collection inside a vector index.
type Collection struct {
	Name string
}

// CollectionInfo describes a collection for diagnostics.
type CollectionInfo struct {
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Count     int       `json:"count"`
	Dimension int       `json:"dimension"`
	Metric    string    `json:"metric"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Answer is the outcome of a question: the ranked context and either a
// generated answer or an explanatory error string in its place.
type Answer struct {
	Question   string          `json:"question"`
	Answer     string          `json:"answer"`
	TopResults RetrievalResult `json:"top_results"`
	Error      string          `json:"error,omitempty"`
}
