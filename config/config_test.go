package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Ingest.ChunkSize != 500 {
		t.Errorf("expected ChunkSize=500, got %d", cfg.Ingest.ChunkSize)
	}
	if cfg.Retrieve.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Collection.Name != "leave_policy_pdfs" {
		t.Errorf("expected collection leave_policy_pdfs, got %s", cfg.Collection.Name)
	}
	if cfg.Generation.Timeout != 30*time.Second {
		t.Errorf("expected 30s generation timeout, got %s", cfg.Generation.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "policyrag.yaml")

	content := `
collection:
  name: handbook
  metric: l2
ingest:
  chunk_size: 256
retrieve:
  top_k: 10
generation:
  timeout: 5s
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Ingest.ChunkSize != 256 {
		t.Errorf("expected ChunkSize=256, got %d", cfg.Ingest.ChunkSize)
	}
	if cfg.Collection.Name != "handbook" || cfg.Collection.Metric != "l2" {
		t.Errorf("unexpected collection config: %+v", cfg.Collection)
	}
	if cfg.Retrieve.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Generation.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.Generation.Timeout)
	}
	// Untouched sections keep their defaults.
	if cfg.Embedding.BatchSize != 100 {
		t.Errorf("expected default BatchSize=100, got %d", cfg.Embedding.BatchSize)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "policyrag.yaml")
	if err := os.WriteFile(configPath, []byte("ingest: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".policyrag"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".policyrag", "config.yaml")

	content := `
retrieve:
  top_k: 8
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Retrieve.TopK != 8 {
		t.Errorf("expected TopK=8, got %d", cfg.Retrieve.TopK)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CHROMA_PERSIST_DIRECTORY", "/var/lib/policyrag")
	t.Setenv("CHROMA_COLLECTION_NAME", "hr_docs")
	t.Setenv("MODEL_NAME", "gpt-4o-mini")
	t.Setenv("MAX_TOKENS", "800")
	t.Setenv("FLASK_PORT", "not-a-number")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Collection.PersistDir != "/var/lib/policyrag" {
		t.Errorf("unexpected persist dir: %s", cfg.Collection.PersistDir)
	}
	if cfg.Collection.Name != "hr_docs" {
		t.Errorf("unexpected collection: %s", cfg.Collection.Name)
	}
	if cfg.Generation.Model != "gpt-4o-mini" || cfg.Generation.MaxTokens != 800 {
		t.Errorf("unexpected generation config: %+v", cfg.Generation)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("invalid FLASK_PORT should keep default, got %d", cfg.Server.Port)
	}
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	if err := LoadDotEnv(tmpDir); err != nil {
		t.Fatalf("missing .env should not fail: %v", err)
	}

	t.Setenv("CHROMA_COLLECTION_NAME", "")
	os.Unsetenv("CHROMA_COLLECTION_NAME")
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("CHROMA_COLLECTION_NAME=from_dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadDotEnv(tmpDir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("CHROMA_COLLECTION_NAME"); got != "from_dotenv" {
		t.Errorf("expected value from .env, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.Ingest.ChunkSize = 0 }},
		{"unknown metric", func(c *Config) { c.Collection.Metric = "dot" }},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "fastembed" }},
		{"zero top k", func(c *Config) { c.Retrieve.TopK = 0 }},
		{"zero timeout", func(c *Config) { c.Generation.Timeout = 0 }},
		{"empty collection", func(c *Config) { c.Collection.Name = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestIndexDBPath(t *testing.T) {
	cfg := DefaultConfig()

	path := cfg.IndexDBPath("/home/user/project")
	expected := filepath.Join("/home/user/project", "chroma_db", "index.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	cfg.Collection.PersistDir = "/srv/index"
	if got := cfg.IndexDBPath("/ignored"); got != filepath.Join("/srv/index", "index.db") {
		t.Errorf("absolute persist dir should be used as-is, got %s", got)
	}
}
