package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"policyrag/internal/domain"
	"policyrag/internal/port"
)

const (
	defaultEmbedBatch = 64
	probeSampleLength = 100
)

// ProgressFunc is called as ingestion advances. done and total count items
// of the current stage (pages, chunks or documents).
type ProgressFunc func(stage string, done, total int)

// IngestOptions configures an IngestUseCase.
type IngestOptions struct {
	Collection string
	ProbeQuery string // empty disables the verify probe
	EmbedBatch int
	Progress   ProgressFunc
}

// IngestUseCase turns one document into a freshly rebuilt collection.
type IngestUseCase struct {
	loader   port.DocumentLoader
	chunker  port.Chunker
	embedder port.Embedder
	index    port.VectorIndex
	opts     IngestOptions
	logger   *slog.Logger
}

// NewIngestUseCase creates a new ingest use case.
func NewIngestUseCase(
	loader port.DocumentLoader,
	chunker port.Chunker,
	embedder port.Embedder,
	index port.VectorIndex,
	opts IngestOptions,
	logger *slog.Logger,
) *IngestUseCase {
	if opts.EmbedBatch <= 0 {
		opts.EmbedBatch = defaultEmbedBatch
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestUseCase{
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		opts:     opts,
		logger:   logger,
	}
}

// IngestResult contains the results of an ingestion run.
type IngestResult struct {
	Source     string
	Collection string
	Location   string
	Pages      int
	Chunks     int
	Count      int
	CountErr   error // the stored count could not be read back
	Probe      *ProbeResult
	Duration   time.Duration
}

// ProbeResult is the outcome of the post-ingestion sample query.
type ProbeResult struct {
	Query  string
	Hits   int
	Sample string
	Err    error
}

// Ingest loads the document at path, chunks and embeds it, and replaces the
// collection with the result. Any stage failure aborts the run with a
// *domain.StageError. The old collection is only dropped once every chunk
// has been embedded.
func (u *IngestUseCase) Ingest(ctx context.Context, path string) (*IngestResult, error) {
	start := time.Now()
	source := filepath.Base(path)
	result := &IngestResult{Source: source, Collection: u.opts.Collection, Location: u.index.Location()}

	u.logger.Info("loading document", "path", path)
	pages, err := u.loader.Load(path)
	if err != nil {
		return nil, stageErr(domain.StageLoadDocument, err)
	}
	result.Pages = len(pages)
	u.progress(domain.StageLoadDocument, len(pages), len(pages))

	chunks, err := u.chunker.Chunk(source, pages)
	if err != nil {
		return nil, stageErr(domain.StageChunk, err)
	}
	if len(chunks) == 0 {
		return nil, stageErr(domain.StageChunk, fmt.Errorf("%s: %w", source, domain.ErrEmptyExtraction))
	}
	result.Chunks = len(chunks)
	u.logger.Info("split document", "source", source, "pages", len(pages), "chunks", len(chunks))

	vectors, err := u.embed(ctx, chunks)
	if err != nil {
		return nil, stageErr(domain.StageEmbed, err)
	}

	c, err := u.index.Replace(u.opts.Collection)
	if err != nil {
		return nil, stageErr(domain.StageReplaceCollection, err)
	}

	docs := make([]domain.IndexedDocument, len(chunks))
	for i, chunk := range chunks {
		docs[i] = domain.IndexedDocument{
			ID:       chunk.ID(),
			Vector:   vectors[i],
			Text:     chunk.Text,
			Metadata: chunk.Metadata(),
		}
	}
	if err := u.index.Insert(c, docs); err != nil {
		return nil, stageErr(domain.StageInsert, err)
	}
	u.progress(domain.StageInsert, len(docs), len(docs))

	if recorder, ok := u.index.(port.ModelRecorder); ok {
		if err := recorder.SetModel(c, u.embedder.ModelName()); err != nil {
			u.logger.Warn("failed to record embedding model", "collection", c.Name, "error", err)
		}
	}

	// Verification is informational: nothing below fails the run.
	count, err := u.index.Count(c)
	switch {
	case err != nil:
		result.CountErr = err
		u.logger.Warn("failed to read back stored count", "stage", domain.StageVerify, "collection", c.Name, "error", err)
	case count != len(chunks):
		u.logger.Warn("stored count differs from chunk count", "stage", domain.StageVerify, "count", count, "chunks", len(chunks))
	}
	result.Count = count

	result.Probe = u.probe(ctx, c)
	result.Duration = time.Since(start)

	u.logger.Info("ingestion complete",
		"source", source,
		"collection", c.Name,
		"count", result.Count,
		"duration", result.Duration,
	)
	return result, nil
}

func (u *IngestUseCase) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for i := 0; i < len(chunks); i += u.opts.EmbedBatch {
		end := min(i+u.opts.EmbedBatch, len(chunks))

		texts := make([]string, 0, end-i)
		for _, chunk := range chunks[i:end] {
			texts = append(texts, chunk.Text)
		}

		batch, err := u.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("%w: expected %d vectors, got %d", domain.ErrModelUnavailable, len(texts), len(batch))
		}
		vectors = append(vectors, batch...)
		u.progress(domain.StageEmbed, end, len(chunks))
	}
	return vectors, nil
}

// probe runs the sample query. Its failure is reported, never returned.
func (u *IngestUseCase) probe(ctx context.Context, c domain.Collection) *ProbeResult {
	if u.opts.ProbeQuery == "" {
		return nil
	}
	probe := &ProbeResult{Query: u.opts.ProbeQuery}

	vector, err := u.embedder.EmbedOne(ctx, u.opts.ProbeQuery)
	if err == nil {
		var hits domain.RetrievalResult
		hits, err = u.index.Query(c, vector, 1)
		if err == nil {
			probe.Hits = len(hits)
			if len(hits) > 0 {
				probe.Sample = truncateRunes(hits[0].Text, probeSampleLength)
			}
		}
	}
	if err != nil {
		probe.Err = err
		u.logger.Warn("verification query failed", "query", u.opts.ProbeQuery, "error", err)
	}
	return probe
}

func (u *IngestUseCase) progress(stage string, done, total int) {
	if u.opts.Progress != nil {
		u.opts.Progress(stage, done, total)
	}
}

func stageErr(stage string, err error) error {
	return &domain.StageError{Stage: stage, Err: err}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
