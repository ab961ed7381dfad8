package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestStageError_Unwrap(t *testing.T) {
	err := &StageError{Stage: StageEmbed, Err: fmt.Errorf("batch 0: %w", ErrModelUnavailable)}

	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected errors.Is to reach ErrModelUnavailable")
	}
	if got := err.Error(); got != "embed: batch 0: model unavailable" {
		t.Errorf("unexpected message: %s", got)
	}

	var stageErr *StageError
	wrapped := fmt.Errorf("ingestion failed: %w", err)
	if !errors.As(wrapped, &stageErr) || stageErr.Stage != StageEmbed {
		t.Errorf("expected errors.As to find the embed stage, got %v", stageErr)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrMissingQuestion, "missing_question"},
		{fmt.Errorf("wrap: %w", ErrSourceNotFound), "source_not_found"},
		{&StageError{Stage: StageChunk, Err: ErrEmptyExtraction}, "empty_extraction"},
		{ErrDimensionMismatch, "dimension_mismatch"},
		{ErrGenerationTransport, "generation_transport_error"},
		{ErrNoDocuments, "no_documents"},
		{errors.New("boom"), "internal_error"},
	}

	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestChunkIDAndMetadata(t *testing.T) {
	c := Chunk{Text: "x", Page: 3, Source: "leave_policy.pdf", Sequence: 2}

	if got := c.ID(); got != "leave_policy.pdf_p3_c2" {
		t.Errorf("unexpected id: %s", got)
	}

	meta := c.Metadata()
	if page, ok := meta.Int(MetaPage); !ok || page != 3 {
		t.Errorf("expected page 3, got %v", meta[MetaPage])
	}
	if meta.String(MetaSource) != "leave_policy.pdf" {
		t.Errorf("unexpected source: %v", meta[MetaSource])
	}
	if seq, ok := meta.Int(MetaChunkID); !ok || seq != 2 {
		t.Errorf("expected chunk_id 2, got %v", meta[MetaChunkID])
	}
}

func TestMetadataInt_FromJSONFloat(t *testing.T) {
	meta := Metadata{MetaPage: float64(7)}
	if page, ok := meta.Int(MetaPage); !ok || page != 7 {
		t.Errorf("expected 7, got %d (%v)", page, ok)
	}
	if _, ok := meta.Int("missing"); ok {
		t.Error("expected missing key to report false")
	}
}
