// Package factory constructs AI providers from prefix-keyed model names.
//
// The model name carries the routing decision: "groq:llama-3.1-8b" goes to
// Groq, "ollama:llama3" or a bare "llama3" to Ollama, "gpu:saiga" to the GPU
// service, and anything else to the OpenAI-compatible backend.
package factory

import (
	"strings"

	"go.uber.org/zap"

	"github.com/saninsteinn/assistbot/providers"
	"github.com/saninsteinn/assistbot/providers/gpuservice"
	"github.com/saninsteinn/assistbot/providers/groq"
	"github.com/saninsteinn/assistbot/providers/ollama"
	"github.com/saninsteinn/assistbot/providers/openai"
)

// New builds the provider selected by the model name prefix. The prefix is
// stripped before the name is passed to the backend.
func New(model string, cfg providers.Config, logger *zap.Logger) providers.AIProvider {
	switch {
	case strings.HasPrefix(model, "groq:"):
		return groq.New(strings.TrimPrefix(model, "groq:"), cfg.Groq, logger)
	case strings.HasPrefix(model, "gpu:"):
		return gpuservice.New(strings.TrimPrefix(model, "gpu:"), cfg.GPUService, logger)
	case strings.HasPrefix(model, "gpu_service:"):
		return gpuservice.New(strings.TrimPrefix(model, "gpu_service:"), cfg.GPUService, logger)
	case strings.HasPrefix(model, "ollama:"):
		return ollama.New(strings.TrimPrefix(model, "ollama:"), cfg.Ollama, logger)
	case strings.HasPrefix(model, "llama"):
		// Bare llama-family names run locally.
		return ollama.New(model, cfg.Ollama, logger)
	default:
		return openai.New(model, cfg.OpenAI, logger)
	}
}
