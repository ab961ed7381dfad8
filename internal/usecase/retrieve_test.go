package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"policyrag/internal/domain"
)

func TestRetrieve_AnnualLeave(t *testing.T) {
	path := writePolicy(t, t.TempDir())
	f := newFixture(t, 500, IngestOptions{})
	ctx := context.Background()
	if _, err := f.ingest.Ingest(ctx, path); err != nil {
		t.Fatal(err)
	}

	retrieve := NewRetrieveUseCase(f.embedder, f.index, testCollection, 5, nil)
	hits, err := retrieve.Retrieve(ctx, "How many days of annual leave do I get?", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 {
		t.Fatal("expected hits")
	}
	if page, _ := hits[0].Metadata.Int(domain.MetaPage); page != 1 {
		t.Errorf("expected the annual leave page first, got page %d (%s)", page, hits[0].ID)
	}
}

func TestRetrieve_EntitlementSentenceRanksFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.txt")
	pages := []string{
		"Sick leave requires a medical certificate after three consecutive days of absence from work.",
		"Employees are entitled to 21 days annual leave.",
		"Parental leave is available to all parents following the birth or adoption of a child.",
	}
	if err := os.WriteFile(path, []byte(strings.Join(pages, "\f")), 0644); err != nil {
		t.Fatal(err)
	}

	f := newFixture(t, 500, IngestOptions{})
	ctx := context.Background()
	if _, err := f.ingest.Ingest(ctx, path); err != nil {
		t.Fatal(err)
	}

	retrieve := NewRetrieveUseCase(f.embedder, f.index, testCollection, 5, nil)
	hits, err := retrieve.Retrieve(ctx, "What is the annual leave limit?", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].ID != "policy.txt_p2_c0" || hits[0].Text != "Employees are entitled to 21 days annual leave." {
		t.Errorf("expected the entitlement sentence first, got %s %q", hits[0].ID, hits[0].Text)
	}
}

func TestRetrieve_AtMostKAscending(t *testing.T) {
	path := writePolicy(t, t.TempDir())
	f := newFixture(t, 40, IngestOptions{})
	ctx := context.Background()
	result, err := f.ingest.Ingest(ctx, path)
	if err != nil {
		t.Fatal(err)
	}

	retrieve := NewRetrieveUseCase(f.embedder, f.index, testCollection, 5, nil)
	for _, k := range []int{1, 3, result.Count + 5} {
		hits, err := retrieve.Retrieve(ctx, "medical certificate for sick leave", k)
		if err != nil {
			t.Fatal(err)
		}
		if len(hits) > k {
			t.Errorf("k=%d: got %d hits", k, len(hits))
		}
		for i := 1; i < len(hits); i++ {
			if hits[i].Distance < hits[i-1].Distance {
				t.Errorf("k=%d: distances not ascending at %d", k, i)
			}
		}
	}
}

func TestRetrieve_DefaultK(t *testing.T) {
	path := writePolicy(t, t.TempDir())
	f := newFixture(t, 20, IngestOptions{})
	ctx := context.Background()
	result, err := f.ingest.Ingest(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if result.Count <= 2 {
		t.Fatalf("fixture too small: %d chunks", result.Count)
	}

	retrieve := NewRetrieveUseCase(f.embedder, f.index, testCollection, 2, nil)
	hits, err := retrieve.Retrieve(ctx, "leave", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("expected default k=2 hits, got %d", len(hits))
	}
}

func TestRetrieve_EmptyCollection(t *testing.T) {
	f := newFixture(t, 500, IngestOptions{})
	retrieve := NewRetrieveUseCase(f.embedder, f.index, "never_ingested", 5, nil)

	hits, err := retrieve.Retrieve(context.Background(), "annual leave", 5)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected empty result, got %d", len(hits))
	}
}

func TestRetrieve_MissingQuestion(t *testing.T) {
	f := newFixture(t, 500, IngestOptions{})
	retrieve := NewRetrieveUseCase(f.embedder, f.index, testCollection, 5, nil)

	for _, q := range []string{"", "   \n\t"} {
		if _, err := retrieve.Retrieve(context.Background(), q, 5); !errors.Is(err, domain.ErrMissingQuestion) {
			t.Errorf("question %q: expected ErrMissingQuestion, got %v", q, err)
		}
	}
}

func TestRetrieve_EmbedFailure(t *testing.T) {
	f := newFixture(t, 500, IngestOptions{})
	retrieve := NewRetrieveUseCase(failingEmbedder{f.embedder}, f.index, testCollection, 5, nil)

	if _, err := retrieve.Retrieve(context.Background(), "annual leave", 5); !errors.Is(err, domain.ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}
