package providers

import "time"

// OpenAIConfig configures the hosted OpenAI-compatible backend.
type OpenAIConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// GroqConfig configures the Groq hosted backend.
type GroqConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// OllamaConfig configures a local Ollama inference server.
type OllamaConfig struct {
	Host    string        `json:"host" yaml:"host"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// GPUServiceConfig configures the self-hosted GPU inference service.
type GPUServiceConfig struct {
	Endpoint string        `json:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Config aggregates per-backend settings for the factory.
type Config struct {
	OpenAI     OpenAIConfig     `json:"openai" yaml:"openai"`
	Groq       GroqConfig       `json:"groq" yaml:"groq"`
	Ollama     OllamaConfig     `json:"ollama" yaml:"ollama"`
	GPUService GPUServiceConfig `json:"gpu_service" yaml:"gpu_service"`
}
