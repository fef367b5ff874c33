package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/saninsteinn/assistbot/providers"
	"github.com/saninsteinn/assistbot/types"
)

const openAIDefaultBaseURL = "https://api.openai.com"

// OpenAIEmbedder calls the hosted embeddings endpoint. All texts go out in a
// single batched request.
type OpenAIEmbedder struct {
	model  string
	cfg    providers.OpenAIConfig
	client *http.Client
}

// NewOpenAI creates an embedder for the given model.
func NewOpenAI(model string, cfg providers.OpenAIConfig) *OpenAIEmbedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = openAIDefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIEmbedder{
		model:  model,
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (e *OpenAIEmbedder) Model() string { return e.model }

type openAIWireRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIWireResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embeddings returns vectors ordered by the response index field, which the
// API does not guarantee to match input order.
func (e *OpenAIEmbedder) Embeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	data, err := json.Marshal(openAIWireRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(e.cfg.BaseURL, "/") + "/v1/embeddings"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, types.NewTransportError("openai", 0, err.Error(), err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, types.NewTransportError("openai", httpResp.StatusCode, providers.ReadErrMsg(httpResp.Body), nil)
	}

	var wire openAIWireResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&wire); err != nil {
		return nil, types.NewTransportError("openai", httpResp.StatusCode, "undecodable response body", err)
	}
	if len(wire.Data) != len(texts) {
		return nil, types.NewTransportError("openai", httpResp.StatusCode,
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(wire.Data)), nil)
	}

	sort.Slice(wire.Data, func(i, j int) bool { return wire.Data[i].Index < wire.Data[j].Index })
	out := make([][]float32, len(wire.Data))
	for i, d := range wire.Data {
		out[i] = d.Embedding
	}
	return out, nil
}
