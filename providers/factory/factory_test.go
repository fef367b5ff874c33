package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saninsteinn/assistbot/providers"
	"github.com/saninsteinn/assistbot/providers/gpuservice"
	"github.com/saninsteinn/assistbot/providers/groq"
	"github.com/saninsteinn/assistbot/providers/ollama"
	"github.com/saninsteinn/assistbot/providers/openai"
)

func TestNewRoutesByPrefix(t *testing.T) {
	t.Parallel()

	cfg := providers.Config{}

	tests := []struct {
		model     string
		wantModel string
		check     func(p providers.AIProvider) bool
	}{
		{"groq:llama-3.1-8b-instant", "llama-3.1-8b-instant", func(p providers.AIProvider) bool {
			_, ok := p.(*groq.Provider)
			return ok
		}},
		{"gpu:saiga", "saiga", func(p providers.AIProvider) bool {
			_, ok := p.(*gpuservice.Provider)
			return ok
		}},
		{"gpu_service:saiga", "saiga", func(p providers.AIProvider) bool {
			_, ok := p.(*gpuservice.Provider)
			return ok
		}},
		{"ollama:mistral", "mistral", func(p providers.AIProvider) bool {
			_, ok := p.(*ollama.Provider)
			return ok
		}},
		{"llama3.1", "llama3.1", func(p providers.AIProvider) bool {
			_, ok := p.(*ollama.Provider)
			return ok
		}},
		{"gpt-4o-mini", "gpt-4o-mini", func(p providers.AIProvider) bool {
			_, ok := p.(*openai.Provider)
			return ok
		}},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			t.Parallel()
			p := New(tt.model, cfg, nil)
			assert.True(t, tt.check(p))
			assert.Equal(t, tt.wantModel, p.Model())
		})
	}
}
