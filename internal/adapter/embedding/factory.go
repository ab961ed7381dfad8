package embedding

import (
	"fmt"

	"policyrag/config"
	"policyrag/internal/adapter/analyzer"
	"policyrag/internal/port"
)

// NewFromConfig builds the embedder selected by cfg.Provider.
func NewFromConfig(cfg config.EmbeddingConfig) (port.Embedder, error) {
	opts := Options{
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		Dimension: cfg.Dimension,
		BatchSize: cfg.BatchSize,
	}

	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(cfg.APIKeyEnv, opts)
	case "ollama":
		return NewOllamaEmbedder(opts), nil
	case "hash":
		e, err := NewHashEmbedder(cfg.Dimension, analyzer.NewTokenizer())
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
