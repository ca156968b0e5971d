package internal

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	IndexFlat  = "flat"
	IndexAnnoy = "annoy"
)

type EmbeddingsConfig struct {
	Backend   string        `yaml:"backend"`
	Model     string        `yaml:"model,omitempty"`
	Dimension int           `yaml:"dimension,omitempty"`
	APIKey    string        `yaml:"api_key,omitempty"`
	BaseURL   string        `yaml:"base_url,omitempty"`
	ModelsDir string        `yaml:"models_dir,omitempty"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheSize int           `yaml:"cache_size"`
	BatchSize int           `yaml:"batch_size"`
}

type IndexConfig struct {
	Backend    string `yaml:"backend"`
	Trees      int    `yaml:"trees,omitempty"`
	Candidates int    `yaml:"candidates,omitempty"`
}

type StartupConfig struct {
	Concurrency   int           `yaml:"concurrency"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
}

type CorpusConfig struct {
	Path string `yaml:"path,omitempty"`
}

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	RateLimit string `yaml:"rate_limit,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

type Config struct {
	Embeddings      EmbeddingsConfig          `yaml:"embeddings"`
	Index           IndexConfig               `yaml:"index"`
	Startup         StartupConfig             `yaml:"startup"`
	Corpus          CorpusConfig              `yaml:"corpus"`
	Server          ServerConfig              `yaml:"server"`
	Log             LogConfig                 `yaml:"log"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Embeddings: EmbeddingsConfig{
			Backend:   BackendOpenAI,
			Model:     DefaultOpenAIModel,
			Timeout:   10 * time.Second,
			CacheSize: 1024,
			BatchSize: 16,
		},
		Index: IndexConfig{
			Backend:    IndexFlat,
			Trees:      DefaultAnnoyOptions().Trees,
			Candidates: DefaultAnnoyOptions().Candidates,
		},
		Startup: StartupConfig{
			Concurrency:   4,
			RetryAttempts: 3,
			RetryBackoff:  500 * time.Millisecond,
		},
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      7071,
			RateLimit: "600-M",
		},
		Log: LogConfig{
			Level: "info",
		},
		Providers: make(map[string]ProviderConfig),
	}
}

// LoadConfig reads path over the defaults. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// ApplyEnv overlays environment variables. API keys from the environment
// only fill in values the file left empty.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv("CONSENT_EMBEDDINGS_BACKEND"); v != "" {
		c.Embeddings.Backend = v
	}
	if v := getenv("CONSENT_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if c.Embeddings.APIKey == "" {
		switch c.Embeddings.Backend {
		case BackendOpenAI:
			c.Embeddings.APIKey = getenv("OPENAI_API_KEY")
		case BackendGemini:
			c.Embeddings.APIKey = getenv("GEMINI_API_KEY")
		}
	}
	if v := getenv("CONSENT_CORPUS"); v != "" {
		c.Corpus.Path = v
	}
	if v := getenv("CONSENT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := getenv("CONSENT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) Validate() error {
	switch c.Embeddings.Backend {
	case BackendOpenAI, BackendGemini, BackendLocal, BackendHash:
	default:
		return fmt.Errorf("%w: unsupported embeddings backend %q", ErrConfiguration, c.Embeddings.Backend)
	}

	switch c.Index.Backend {
	case IndexFlat, IndexAnnoy:
	default:
		return fmt.Errorf("%w: unsupported index backend %q", ErrConfiguration, c.Index.Backend)
	}

	if c.Embeddings.Dimension < 0 {
		return fmt.Errorf("%w: embeddings dimension must not be negative", ErrConfiguration)
	}
	if c.Embeddings.CacheSize < 0 {
		return fmt.Errorf("%w: cache size must not be negative", ErrConfiguration)
	}
	if c.Startup.Concurrency <= 0 {
		return fmt.Errorf("%w: startup concurrency must be positive", ErrConfiguration)
	}
	if c.Startup.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry attempts must not be negative", ErrConfiguration)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port %d", ErrConfiguration, c.Server.Port)
	}

	return nil
}

// IndexBuilder returns the builder selected by index.backend.
func (c *Config) IndexBuilder() IndexBuilder {
	if c.Index.Backend == IndexAnnoy {
		return AnnoyIndexBuilder(AnnoyOptions{Trees: c.Index.Trees, Candidates: c.Index.Candidates})
	}
	return BuildFlatIndex
}

// ClassifierOptions translates the startup section into classifier options.
func (c *Config) ClassifierOptions() []ClassifierOption {
	return []ClassifierOption{
		WithIndexBuilder(c.IndexBuilder()),
		WithConcurrency(c.Startup.Concurrency),
		WithBatchSize(c.Embeddings.BatchSize),
		WithRetry(c.Startup.RetryAttempts, c.Startup.RetryBackoff),
	}
}

// LoadCorpus returns the configured corpus, or the built-in one.
func (c *Config) LoadCorpus() (*Corpus, error) {
	if c.Corpus.Path == "" {
		return DefaultCorpus(), nil
	}
	return LoadCorpus(c.Corpus.Path)
}
