// Package config loads the assistbot configuration. Priority order is
// defaults, then the YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/saninsteinn/assistbot/pipeline"
	"github.com/saninsteinn/assistbot/providers"
)

// Config is the complete assistbot configuration.
type Config struct {
	// Models selects which model answers at each pipeline tier.
	Models ModelsConfig `yaml:"models"`

	// Providers holds per-backend endpoints and credentials.
	Providers providers.Config `yaml:"providers"`

	// Pipeline selects the deployed stage sequence.
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Database is the knowledge-base Postgres connection.
	Database DatabaseConfig `yaml:"database"`

	// Redis backs the embedding cache. Empty Addr disables caching.
	Redis RedisConfig `yaml:"redis"`
}

// ModelsConfig names the models by their prefix-routed identifiers.
type ModelsConfig struct {
	Fast      string `yaml:"fast"`
	Strong    string `yaml:"strong"`
	Embedding string `yaml:"embedding"`
}

// PipelineConfig selects the stage sequence variant.
type PipelineConfig struct {
	Variant pipeline.Variant `yaml:"variant"`
}

// DatabaseConfig is the Postgres connection.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig is the embedding cache connection.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Models: ModelsConfig{
			Fast:      "llama3.1",
			Strong:    "gpt-4o-mini",
			Embedding: "bge-m3",
		},
		Providers: providers.Config{
			Ollama: providers.OllamaConfig{Host: "http://localhost:11434"},
		},
		Pipeline: PipelineConfig{Variant: pipeline.VariantDefault},
	}
}

// Load reads the configuration: defaults, then the YAML file at path (skipped
// when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Models.Fast, "ASSISTBOT_FAST_MODEL")
	setString(&c.Models.Strong, "ASSISTBOT_STRONG_MODEL")
	setString(&c.Models.Embedding, "ASSISTBOT_EMBEDDING_MODEL")

	setString(&c.Providers.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.Providers.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.Providers.Groq.APIKey, "GROQ_API_KEY")
	setString(&c.Providers.Groq.BaseURL, "GROQ_BASE_URL")
	setString(&c.Providers.Ollama.Host, "OLLAMA_HOST")
	setString(&c.Providers.GPUService.Endpoint, "GPU_SERVICE_ENDPOINT")

	if v := os.Getenv("ASSISTBOT_PIPELINE_VARIANT"); v != "" {
		c.Pipeline.Variant = pipeline.Variant(v)
	}

	setString(&c.Database.DSN, "DATABASE_DSN")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Models.Fast == "" {
		return fmt.Errorf("models.fast must be set")
	}
	if c.Models.Strong == "" {
		return fmt.Errorf("models.strong must be set")
	}
	if c.Models.Embedding == "" {
		return fmt.Errorf("models.embedding must be set")
	}
	switch c.Pipeline.Variant {
	case pipeline.VariantDefault, pipeline.VariantFull:
	default:
		return fmt.Errorf("pipeline.variant must be %q or %q, got %q",
			pipeline.VariantDefault, pipeline.VariantFull, c.Pipeline.Variant)
	}
	return nil
}
