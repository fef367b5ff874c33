package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/saninsteinn/assistbot/providers"
	"github.com/saninsteinn/assistbot/types"
)

// OllamaEmbedder calls a local Ollama server. The API embeds one prompt per
// request, so texts are processed sequentially.
type OllamaEmbedder struct {
	model  string
	cfg    providers.OllamaConfig
	client *http.Client
}

// NewOllama creates an embedder for the given model.
func NewOllama(model string, cfg providers.OllamaConfig) *OllamaEmbedder {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &OllamaEmbedder{
		model:  model,
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (e *OllamaEmbedder) Model() string { return e.model }

type ollamaWireRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaWireResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embeddings embeds each text with its own request, preserving input order.
func (e *OllamaEmbedder) Embeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := e.embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func (e *OllamaEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	data, err := json.Marshal(ollamaWireRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(e.cfg.Host, "/") + "/api/embeddings"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, types.NewTransportError("ollama", 0, err.Error(), err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, types.NewTransportError("ollama", httpResp.StatusCode, providers.ReadErrMsg(httpResp.Body), nil)
	}

	var wire ollamaWireResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&wire); err != nil {
		return nil, types.NewTransportError("ollama", httpResp.StatusCode, "undecodable response body", err)
	}
	return wire.Embedding, nil
}
