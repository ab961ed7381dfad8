package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for policyrag.
type Config struct {
	Collection CollectionConfig `yaml:"collection"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Generation GenerationConfig `yaml:"generation"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// CollectionConfig names the collection and where it is persisted.
type CollectionConfig struct {
	Name       string `yaml:"name"`
	PersistDir string `yaml:"persist_dir"`
	Metric     string `yaml:"metric"` // "cosine" or "l2"
}

// IngestConfig holds ingestion configuration.
type IngestConfig struct {
	ChunkSize  int      `yaml:"chunk_size"` // characters
	Includes   []string `yaml:"includes"`   // accepted source file patterns
	ProbeQuery string   `yaml:"probe_query"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai", "ollama", "hash"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK      int           `yaml:"top_k"`
	CacheSize int           `yaml:"cache_size"` // query embedding cache entries (0 = disabled)
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// GenerationConfig holds answer generation configuration.
type GenerationConfig struct {
	Enabled     bool          `yaml:"enabled"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"` // 0 is sent as the smallest positive float
	Timeout     time.Duration `yaml:"timeout"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Collection: CollectionConfig{
			Name:       "leave_policy_pdfs",
			PersistDir: "chroma_db",
			Metric:     "cosine",
		},
		Ingest: IngestConfig{
			ChunkSize:  500,
			Includes:   []string{"**/*.pdf", "**/*.txt", "**/*.md"},
			ProbeQuery: "annual leave",
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
		},
		Retrieve: RetrieveConfig{
			TopK:      5,
			CacheSize: 256,
			CacheTTL:  10 * time.Minute,
		},
		Generation: GenerationConfig{
			Enabled:     true,
			BaseURL:     "https://api.openai.com/v1",
			APIKeyEnv:   "CUSTOM_API_KEY",
			Model:       "gpt-4",
			MaxTokens:   500,
			Temperature: 0.3,
			Timeout:     30 * time.Second,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for policyrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "policyrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".policyrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// LoadDotEnv loads a .env file from dir into the process environment.
// Variables already set are left untouched; a missing file is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnv overrides configuration from environment variables. The names
// follow the deployment's existing .env files.
func (c *Config) ApplyEnv() {
	c.Collection.PersistDir = getEnv("CHROMA_PERSIST_DIRECTORY", c.Collection.PersistDir)
	c.Collection.Name = getEnv("CHROMA_COLLECTION_NAME", c.Collection.Name)
	c.Embedding.Model = getEnv("FASTEMBED_MODEL_NAME", c.Embedding.Model)
	c.Generation.BaseURL = getEnv("CUSTOM_API_ENDPOINT", c.Generation.BaseURL)
	c.Generation.Model = getEnv("MODEL_NAME", c.Generation.Model)
	c.Generation.MaxTokens = getEnvInt("MAX_TOKENS", c.Generation.MaxTokens)
	c.Generation.Timeout = getEnvDuration("GENERATION_TIMEOUT", c.Generation.Timeout)
	c.Server.Host = getEnv("FLASK_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("FLASK_PORT", c.Server.Port)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Collection.Name == "" {
		return fmt.Errorf("collection.name must not be empty")
	}
	switch c.Collection.Metric {
	case "cosine", "l2":
	default:
		return fmt.Errorf("collection.metric must be cosine or l2, got %q", c.Collection.Metric)
	}
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize)
	}
	switch c.Embedding.Provider {
	case "openai", "ollama", "hash":
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Embedding.Provider == "hash" && c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive for the hash provider")
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("generation.timeout must be positive, got %s", c.Generation.Timeout)
	}
	return nil
}

// IndexDBPath returns the path of the index database. A relative persist
// directory is resolved against dir.
func (c *Config) IndexDBPath(dir string) string {
	persistDir := c.Collection.PersistDir
	if !filepath.IsAbs(persistDir) {
		persistDir = filepath.Join(dir, persistDir)
	}
	return filepath.Join(persistDir, "index.db")
}

// EnsurePersistDir ensures the directory holding the index database exists.
func (c *Config) EnsurePersistDir(dir string) error {
	return os.MkdirAll(filepath.Dir(c.IndexDBPath(dir)), 0755)
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
