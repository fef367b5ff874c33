// Package gpuservice implements the AIProvider contract over a self-hosted
// GPU inference service with a bespoke dialog endpoint.
package gpuservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/saninsteinn/assistbot/providers"
	"github.com/saninsteinn/assistbot/types"
)

const contextWindow = 8000

// Provider talks to the GPU service dialog endpoint.
type Provider struct {
	model  string
	cfg    providers.GPUServiceConfig
	client *http.Client
	logger *zap.Logger
}

// New creates a provider for the given model.
func New(model string, cfg providers.GPUServiceConfig, logger *zap.Logger) *Provider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		model:  model,
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (p *Provider) Model() string    { return p.model }
func (p *Provider) ContextSize() int { return contextWindow }

// CalculateTokens uses the word-count estimate; the service does not expose
// its tokenizer.
func (p *Provider) CalculateTokens(text string) int {
	return providers.EstimateTokens(text)
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model      string        `json:"model"`
	Messages   []wireMessage `json:"messages"`
	MaxTokens  int           `json:"max_tokens,omitempty"`
	JSONFormat bool          `json:"json_format,omitempty"`
}

type wireResponse struct {
	Response struct {
		Result        string `json:"result"`
		LengthLimited bool   `json:"length_limited"`
		Usage         struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	} `json:"response"`
}

// GetResponse performs one dialog call.
func (p *Provider) GetResponse(ctx context.Context, req *providers.Request) (*types.AIResponse, error) {
	if err := providers.CheckRoleAlternation("gpu_service", req.Messages); err != nil {
		return nil, err
	}

	body := wireRequest{
		Model:      p.model,
		Messages:   convertMessages(req.Messages),
		MaxTokens:  req.EffectiveMaxTokens(),
		JSONFormat: req.JSONFormat,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(p.cfg.Endpoint, "/") + "/dialog/"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewTransportError("gpu_service", 0, err.Error(), err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, types.NewTransportError("gpu_service", httpResp.StatusCode, providers.ReadErrMsg(httpResp.Body), nil)
	}

	var wire wireResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&wire); err != nil {
		return nil, types.NewTransportError("gpu_service", httpResp.StatusCode, "undecodable response body", err)
	}

	resp := &types.AIResponse{
		Usage: &types.TokenUsage{
			Model:            p.model,
			PromptTokens:     wire.Response.Usage.PromptTokens,
			CompletionTokens: wire.Response.Usage.CompletionTokens,
		},
		LengthLimited: wire.Response.LengthLimited,
	}
	if req.JSONFormat {
		obj, parseErr := providers.ParseJSONObject(wire.Response.Result)
		if parseErr != nil {
			return nil, types.NewStructuredOutputError("gpu_service", wire.Response.Result, parseErr)
		}
		resp.JSON = obj
	} else {
		resp.Text = strings.TrimSpace(wire.Response.Result)
	}
	return resp, nil
}

func convertMessages(messages []types.Message) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, wireMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}
