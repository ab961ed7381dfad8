package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"policyrag/internal/adapter/analyzer"
	"policyrag/internal/adapter/chunker"
	"policyrag/internal/adapter/embedding"
	"policyrag/internal/adapter/loader"
	"policyrag/internal/adapter/memstore"
	"policyrag/internal/domain"
)

const testCollection = "leave_policy_pdfs"

var policyPages = []string{
	"Annual leave: every employee accrues twenty one days of annual leave per calendar year. Unused annual leave may be carried over into the next year.",
	"Sick leave requires a medical certificate after three consecutive days of absence from work.",
	"Parental leave is available to all parents following the birth or adoption of a child.",
}

// writePolicy writes a multi-page text document, pages separated by form feeds.
func writePolicy(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "leave_policy.txt")
	if err := os.WriteFile(path, []byte(strings.Join(policyPages, "\f")), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

type fixture struct {
	index    *memstore.MemoryIndex
	embedder *embedding.HashEmbedder
	ingest   *IngestUseCase
}

func newFixture(t *testing.T, size int, opts IngestOptions) *fixture {
	t.Helper()

	index, err := memstore.NewMemoryIndex("cosine")
	if err != nil {
		t.Fatal(err)
	}
	chunk, err := chunker.NewCharChunker(size)
	if err != nil {
		t.Fatal(err)
	}
	embedder, err := embedding.NewHashEmbedder(4096, analyzer.NewTokenizer())
	if err != nil {
		t.Fatal(err)
	}

	if opts.Collection == "" {
		opts.Collection = testCollection
	}
	return &fixture{
		index:    index,
		embedder: embedder,
		ingest: NewIngestUseCase(
			loader.NewLoader([]string{"**/*.txt", "**/*.pdf"}, nil),
			chunk,
			embedder,
			index,
			opts,
			nil,
		),
	}
}

type failingEmbedder struct {
	*embedding.HashEmbedder
}

func (failingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, domain.ErrModelUnavailable
}

func (failingEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return nil, domain.ErrModelUnavailable
}

type stubGenerator struct {
	answer string
	err    error
	prompt string
}

func (g *stubGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.answer, g.err
}

func (g *stubGenerator) ModelName() string {
	return "stub"
}
