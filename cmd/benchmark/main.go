package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"policyrag/config"
	"policyrag/internal/adapter/embedding"
	"policyrag/internal/adapter/store"
	"policyrag/internal/domain"
	"policyrag/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding policyrag.yaml and the index")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 5, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir . -q \"query\"")
		fmt.Println("\nReports:")
		fmt.Println("  1. Collection state (count, dimension, model)")
		fmt.Println("  2. Query embedding and search latency")
		fmt.Println("  3. Distance of each hit and an overall rating")
		os.Exit(1)
	}

	if err := config.LoadDotEnv(*dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	idx, err := store.NewBoltIndex(cfg.IndexDBPath(*dir), cfg.Collection.Metric, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	defer idx.Close()

	info, err := idx.Info(domain.Collection{Name: cfg.Collection.Name})
	if err != nil || info.Count == 0 {
		fmt.Fprintf(os.Stderr, "Collection %s is empty - run 'policyrag ingest' first\n", cfg.Collection.Name)
		os.Exit(1)
	}

	embedder, err := embedding.NewFromConfig(cfg.Embedding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}
	if info.Model != "" && info.Model != embedder.ModelName() {
		fmt.Printf("WARNING: collection built with %s, querying with %s\n\n", info.Model, embedder.ModelName())
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Collection: %s (%d documents)\n", info.Name, info.Count)
	fmt.Printf("Model: %s (%s)\n", embedder.ModelName(), cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d, metric: %s\n", info.Dimension, info.Metric)
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	retrieveUC := usecase.NewRetrieveUseCase(embedder, idx, cfg.Collection.Name, *topK, nil)

	start := time.Now()
	hits, err := retrieveUC.Retrieve(context.Background(), *query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	if len(hits) == 0 {
		fmt.Println("No results.")
		return
	}
	fmt.Printf("Top %d matches in %s:\n\n", len(hits), elapsed.Round(time.Millisecond))

	total := 0.0
	for i, h := range hits {
		preview := []rune(strings.ReplaceAll(h.Text, "\n", " "))
		if len(preview) > 150 {
			preview = append(preview[:150], []rune("...")...)
		}
		total += h.Distance

		page, _ := h.Metadata.Int(domain.MetaPage)
		fmt.Printf("%d. [%s %.3f] %s p.%d\n", i+1, rating(h.Distance), h.Distance, h.Metadata.String(domain.MetaSource), page)
		fmt.Printf("   %s\n\n", string(preview))
	}

	avg := total / float64(len(hits))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average distance: %.3f\n", avg)
	fmt.Printf("  Top-1 distance:   %.3f\n", hits[0].Distance)

	switch {
	case avg < 0.5:
		fmt.Println("  Status: GOOD - results are close to the query")
	case avg < 0.7:
		fmt.Println("  Status: OK - results are somewhat related")
	default:
		fmt.Println("  Status: POOR - may need a better embedding model or re-ingestion")
	}
}

// rating buckets a cosine distance.
func rating(d float64) string {
	switch {
	case d < 0.3:
		return "HIGH"
	case d < 0.5:
		return "GOOD"
	case d < 0.7:
		return "OK"
	default:
		return "LOW"
	}
}
