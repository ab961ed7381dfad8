package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSourceNotFound      = errors.New("source not found")
	ErrEmptyExtraction     = errors.New("no text could be extracted")
	ErrModelUnavailable    = errors.New("model unavailable")
	ErrDimensionMismatch   = errors.New("vector dimension mismatch")
	ErrDuplicateID         = errors.New("duplicate document id")
	ErrGenerationTransport = errors.New("generation transport error")
	ErrMissingQuestion     = errors.New("missing question")
	ErrCollectionNotFound  = errors.New("collection not found")
	ErrNoDocuments         = errors.New("no documents available")
)

// Ingestion stages, in execution order.
const (
	StageLoadDocument      = "load_document"
	StageChunk             = "chunk"
	StageEmbed             = "embed"
	StageReplaceCollection = "replace_collection"
	StageInsert            = "insert"
	StageVerify            = "verify"
)

// StageError labels a failure with the ingestion stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ErrorCode maps an error onto a stable code used in error payloads.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingQuestion):
		return "missing_question"
	case errors.Is(err, ErrSourceNotFound):
		return "source_not_found"
	case errors.Is(err, ErrEmptyExtraction):
		return "empty_extraction"
	case errors.Is(err, ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, ErrDuplicateID):
		return "duplicate_id"
	case errors.Is(err, ErrGenerationTransport):
		return "generation_transport_error"
	case errors.Is(err, ErrCollectionNotFound):
		return "collection_not_found"
	case errors.Is(err, ErrNoDocuments):
		return "no_documents"
	default:
		return "internal_error"
	}
}

// GenerationStatusError reports a non-success HTTP status from the
// generation endpoint.
type GenerationStatusError struct {
	StatusCode int
	Message    string
}

func (e *GenerationStatusError) Error() string {
	return fmt.Sprintf("API returned status code %d", e.StatusCode)
}

func (e *GenerationStatusError) Unwrap() error {
	return ErrGenerationTransport
}
