package usecase

import (
	"context"
	"errors"
	"log/slog"

	"policyrag/internal/domain"
	"policyrag/internal/port"
)

// NoDocumentsAnswer is returned in place of a generated answer when the
// collection holds nothing to answer from.
const NoDocumentsAnswer = "No documents available to answer this question. Ingest a policy document first."

// AnswerService retrieves context for a question and, when a generator is
// configured, asks it for an answer.
type AnswerService struct {
	retriever port.Retriever
	assembler *Assembler
	generator port.Generator // nil disables generation
	logger    *slog.Logger
}

func NewAnswerService(retriever port.Retriever, assembler *Assembler, generator port.Generator, logger *slog.Logger) *AnswerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerService{
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		logger:    logger,
	}
}

// Answer returns an error only when retrieval fails. A generation failure
// is reported in the Answer text and Error code while the hits are still
// returned. An empty or absent collection never reaches the generator.
func (s *AnswerService) Answer(ctx context.Context, question string, k int) (*domain.Answer, error) {
	hits, err := s.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = domain.RetrievalResult{}
	}

	answer := &domain.Answer{Question: question, TopResults: hits}
	if len(hits) == 0 {
		s.logger.Info("no documents to answer from", "question", question)
		answer.Answer = NoDocumentsAnswer
		answer.Error = domain.ErrorCode(domain.ErrNoDocuments)
		return answer, nil
	}
	if s.generator == nil {
		return answer, nil
	}

	prompt, err := s.assembler.Assemble(question, hits)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("generating answer",
		"model", s.generator.ModelName(),
		"hits", len(hits),
		"prompt_tokens", s.assembler.EstimateTokens(prompt),
	)

	text, err := s.generator.Complete(ctx, prompt)
	if err != nil {
		s.logger.Error("generation failed", "model", s.generator.ModelName(), "error", err)
		answer.Answer = GenerationErrorText(err)
		answer.Error = domain.ErrorCode(err)
		return answer, nil
	}

	answer.Answer = text
	return answer, nil
}

// GenerationErrorText renders a generation failure as the answer text.
func GenerationErrorText(err error) string {
	var statusErr *domain.GenerationStatusError
	switch {
	case errors.As(err, &statusErr):
		return "Error: " + statusErr.Error()
	case errors.Is(err, domain.ErrGenerationTransport):
		return "Error making API request: " + err.Error()
	default:
		return "Error generating response: " + err.Error()
	}
}
