package embedding

import (
	"strings"

	"github.com/saninsteinn/assistbot/providers"
)

// New builds the embedder selected by the model name prefix. Hosted
// "text-embedding-*" models go to OpenAI, "gpu:" models to the GPU service,
// everything else to the local Ollama server.
func New(model string, cfg providers.Config) Embedder {
	switch {
	case strings.HasPrefix(model, "text-embedding-"):
		return NewOpenAI(model, cfg.OpenAI)
	case strings.HasPrefix(model, "gpu:"):
		return NewGPUService(strings.TrimPrefix(model, "gpu:"), cfg.GPUService)
	case strings.HasPrefix(model, "ollama:"):
		return NewOllama(strings.TrimPrefix(model, "ollama:"), cfg.Ollama)
	default:
		return NewOllama(model, cfg.Ollama)
	}
}
