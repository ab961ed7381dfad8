package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"policyrag/internal/domain"
)

func newAnswerFixture(t *testing.T, gen *stubGenerator) *AnswerService {
	t.Helper()
	path := writePolicy(t, t.TempDir())
	f := newFixture(t, 500, IngestOptions{})
	if _, err := f.ingest.Ingest(context.Background(), path); err != nil {
		t.Fatal(err)
	}

	assembler, err := NewAssembler(nil)
	if err != nil {
		t.Fatal(err)
	}
	retrieve := NewRetrieveUseCase(f.embedder, f.index, testCollection, 5, nil)
	if gen == nil {
		return NewAnswerService(retrieve, assembler, nil, nil)
	}
	return NewAnswerService(retrieve, assembler, gen, nil)
}

func TestAnswer_Generated(t *testing.T) {
	gen := &stubGenerator{answer: "You get twenty one days."}
	svc := newAnswerFixture(t, gen)

	answer, err := svc.Answer(context.Background(), "annual leave days", 2)
	if err != nil {
		t.Fatal(err)
	}
	if answer.Answer != "You get twenty one days." || answer.Error != "" {
		t.Errorf("unexpected answer: %+v", answer)
	}
	if len(answer.TopResults) != 2 {
		t.Errorf("expected 2 hits, got %d", len(answer.TopResults))
	}
	if !strings.Contains(gen.prompt, "User question: annual leave days") {
		t.Errorf("generator did not receive the assembled prompt:\n%s", gen.prompt)
	}
}

func TestAnswer_GenerationFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantText string
		wantCode string
	}{
		{
			name:     "status",
			err:      &domain.GenerationStatusError{StatusCode: 503},
			wantText: "Error: API returned status code 503",
			wantCode: "generation_transport_error",
		},
		{
			name:     "transport",
			err:      fmt.Errorf("%w: connection refused", domain.ErrGenerationTransport),
			wantText: "Error making API request: generation transport error: connection refused",
			wantCode: "generation_transport_error",
		},
		{
			name:     "other",
			err:      errors.New("boom"),
			wantText: "Error generating response: boom",
			wantCode: "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newAnswerFixture(t, &stubGenerator{err: tt.err})

			answer, err := svc.Answer(context.Background(), "annual leave", 3)
			if err != nil {
				t.Fatalf("generation failure must not fail the request: %v", err)
			}
			if answer.Answer != tt.wantText {
				t.Errorf("expected %q, got %q", tt.wantText, answer.Answer)
			}
			if answer.Error != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, answer.Error)
			}
			if len(answer.TopResults) == 0 {
				t.Error("hits must still be returned")
			}
		})
	}
}

func TestAnswer_NoGenerator(t *testing.T) {
	svc := newAnswerFixture(t, nil)

	answer, err := svc.Answer(context.Background(), "sick leave", 0)
	if err != nil {
		t.Fatal(err)
	}
	if answer.Answer != "" {
		t.Errorf("expected no answer text, got %q", answer.Answer)
	}
	if len(answer.TopResults) != 3 {
		t.Errorf("expected all 3 chunks with default k, got %d", len(answer.TopResults))
	}
}

func TestAnswer_MissingQuestion(t *testing.T) {
	svc := newAnswerFixture(t, &stubGenerator{answer: "unused"})

	if _, err := svc.Answer(context.Background(), "", 5); !errors.Is(err, domain.ErrMissingQuestion) {
		t.Errorf("expected ErrMissingQuestion, got %v", err)
	}
}

func TestAnswer_NoDocuments(t *testing.T) {
	f := newFixture(t, 500, IngestOptions{})
	assembler, err := NewAssembler(nil)
	if err != nil {
		t.Fatal(err)
	}
	retrieve := NewRetrieveUseCase(f.embedder, f.index, "never_ingested", 5, nil)

	for _, gen := range []*stubGenerator{{answer: "Employees get 30 days."}, nil} {
		var svc *AnswerService
		if gen == nil {
			svc = NewAnswerService(retrieve, assembler, nil, nil)
		} else {
			svc = NewAnswerService(retrieve, assembler, gen, nil)
		}

		answer, err := svc.Answer(context.Background(), "What is the annual leave limit?", 5)
		if err != nil {
			t.Fatalf("empty collection must not be an error: %v", err)
		}
		if answer.Answer != NoDocumentsAnswer || answer.Error != "no_documents" {
			t.Errorf("unexpected answer: %+v", answer)
		}
		if answer.TopResults == nil || len(answer.TopResults) != 0 {
			t.Errorf("expected an empty, non-nil result, got %v", answer.TopResults)
		}
		if gen != nil && gen.prompt != "" {
			t.Errorf("generator must not be called without documents, got prompt %q", gen.prompt)
		}
	}
}
