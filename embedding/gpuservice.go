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

// GPUServiceEmbedder calls the self-hosted GPU service batch embeddings
// endpoint.
type GPUServiceEmbedder struct {
	model  string
	cfg    providers.GPUServiceConfig
	client *http.Client
}

// NewGPUService creates an embedder for the given model.
func NewGPUService(model string, cfg providers.GPUServiceConfig) *GPUServiceEmbedder {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &GPUServiceEmbedder{
		model:  model,
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (e *GPUServiceEmbedder) Model() string { return e.model }

type gpuWireRequest struct {
	Model string   `json:"model"`
	Texts []string `json:"texts"`
}

type gpuWireResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embeddings sends all texts in one batched request.
func (e *GPUServiceEmbedder) Embeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	data, err := json.Marshal(gpuWireRequest{Model: e.model, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(e.cfg.Endpoint, "/") + "/embeddings/"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, types.NewTransportError("gpu_service", 0, err.Error(), err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, types.NewTransportError("gpu_service", httpResp.StatusCode, providers.ReadErrMsg(httpResp.Body), nil)
	}

	var wire gpuWireResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&wire); err != nil {
		return nil, types.NewTransportError("gpu_service", httpResp.StatusCode, "undecodable response body", err)
	}
	if len(wire.Embeddings) != len(texts) {
		return nil, types.NewTransportError("gpu_service", httpResp.StatusCode,
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(wire.Embeddings)), nil)
	}
	return wire.Embeddings, nil
}
