// Package config provides configuration loading and structs for the clausegate server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug        bool               `yaml:"debug"`
	Server       ServerConfig       `yaml:"server"`
	Storage      StorageConfig      `yaml:"storage"`
	Corpus       CorpusConfig       `yaml:"corpus"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	Retrieval    RetrievalConfig    `yaml:"retrieval"`
	LLM          LLMConfig          `yaml:"llm"`
	Faithfulness FaithfulnessConfig `yaml:"faithfulness"`
	Cache        CacheConfig        `yaml:"cache"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the clause database, indices, and the audit log.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	BleveIndexPath  string `yaml:"bleve_index_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
	AuditLogPath    string `yaml:"audit_log_path"`
}

// CorpusConfig holds corpus ingestion settings.
type CorpusConfig struct {
	Directories  []string `yaml:"directories"`
	Extensions   []string `yaml:"extensions"`
	Watch        bool     `yaml:"watch"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
}

// EmbeddingConfig holds embedder settings for the semantic channel.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // onnx | openai | hash
	ModelPath  string `yaml:"model_path"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// Channel policies decide what happens when one retrieval channel is unavailable.
const (
	ChannelPolicyDegraded = "degraded"
	ChannelPolicyStrict   = "strict"
)

// RetrievalConfig holds per-channel retrieval settings.
type RetrievalConfig struct {
	TopK          int    `yaml:"top_k"`
	ChannelPolicy string `yaml:"channel_policy"`
}

// LLM providers.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
)

// LLMConfig holds completion service settings. The API key is never read from YAML;
// APIKeyEnv names the environment variable that carries it.
type LLMConfig struct {
	Provider       string  `yaml:"provider"`
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	Temperature    float32 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// Faithfulness strategies.
const (
	StrategySingleCall = "single_call"
	StrategyPerClaim   = "per_claim"
)

// FaithfulnessConfig selects the verifier strategy.
type FaithfulnessConfig struct {
	Strategy string `yaml:"strategy"`
}

// CacheConfig holds the optional full-response cache settings.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	TTLSeconds int  `yaml:"ttl_seconds"`
}

// LoggingConfig holds the rotating log file settings. Empty File disables the file sink.
type LoggingConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// A .env file next to the config (or in the working directory) is loaded into the
// environment first; existing variables are not overwritten.
func Load(path string) (*Config, error) {
	loadDotEnv(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	cfg.Storage.AuditLogPath = expandPath(cfg.Storage.AuditLogPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	if cfg.Logging.File != "" {
		cfg.Logging.File = expandPath(cfg.Logging.File, configDir)
	}
	for i := range cfg.Corpus.Directories {
		cfg.Corpus.Directories[i] = expandPath(cfg.Corpus.Directories[i], configDir)
	}

	return &cfg, nil
}

// Validate rejects unknown enum values.
func (c *Config) Validate() error {
	switch c.Retrieval.ChannelPolicy {
	case ChannelPolicyDegraded, ChannelPolicyStrict:
	default:
		return fmt.Errorf("invalid retrieval.channel_policy %q (supported: degraded, strict)", c.Retrieval.ChannelPolicy)
	}
	switch c.Faithfulness.Strategy {
	case StrategySingleCall, StrategyPerClaim:
	default:
		return fmt.Errorf("invalid faithfulness.strategy %q (supported: single_call, per_claim)", c.Faithfulness.Strategy)
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderOpenRouter:
	default:
		return fmt.Errorf("invalid llm.provider %q (supported: openai, openrouter)", c.LLM.Provider)
	}
	switch c.Embedding.Provider {
	case "onnx", "openai", "hash":
	default:
		return fmt.Errorf("invalid embedding.provider %q (supported: onnx, openai, hash)", c.Embedding.Provider)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	return nil
}

// APIKey returns the completion service key from the environment.
func (l *LLMConfig) APIKey() string {
	return strings.TrimSpace(os.Getenv(l.APIKeyEnv))
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func loadDotEnv(configDir string) {
	for _, p := range []string{filepath.Join(configDir, ".env"), ".env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
