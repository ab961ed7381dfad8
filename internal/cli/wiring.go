package cli

import (
	"fmt"
	"os"

	"policyrag/config"
	"policyrag/internal/adapter/embedding"
	"policyrag/internal/adapter/llm"
	"policyrag/internal/adapter/store"
	"policyrag/internal/port"
)

// openIndex opens the persisted index. With mustExist, a missing index file
// is reported instead of silently created.
func openIndex(cfg *config.Config, dir string, mustExist bool) (*store.BoltIndex, error) {
	dbPath := cfg.IndexDBPath(dir)
	if mustExist {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("no index found at %s. Run 'policyrag ingest <path>' first", dbPath)
		}
	}

	if err := cfg.EnsurePersistDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create persist directory: %w", err)
	}

	idx, err := store.NewBoltIndex(dbPath, cfg.Collection.Metric, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return idx, nil
}

// newQueryEmbedder wraps the configured embedder with the query cache.
func newQueryEmbedder(cfg *config.Config) (port.Embedder, error) {
	embedder, err := embedding.NewFromConfig(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	if cfg.Retrieve.CacheSize <= 0 {
		return embedder, nil
	}
	cache := embedding.NewVectorCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL)
	return embedding.NewCachedEmbedder(embedder, cache), nil
}

// newGenerator returns nil when generation is disabled.
func newGenerator(cfg *config.Config) port.Generator {
	if !cfg.Generation.Enabled {
		return nil
	}
	return llm.NewChatGenerator(cfg.Generation.APIKeyEnv, llm.Options{
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
		Timeout:     cfg.Generation.Timeout,
	})
}
