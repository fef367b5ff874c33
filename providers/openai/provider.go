// Package openai implements the AIProvider contract over the hosted
// OpenAI-compatible chat completion API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/saninsteinn/assistbot/providers"
	"github.com/saninsteinn/assistbot/types"
)

const defaultBaseURL = "https://api.openai.com"

// modelWindows maps model name prefixes to context window sizes. Longest
// prefix wins; unknown models fall back to a conservative window.
var modelWindows = map[string]int{
	"gpt-4o":        128000,
	"gpt-4o-mini":   128000,
	"gpt-4-turbo":   128000,
	"gpt-4":         8192,
	"gpt-3.5-turbo": 16385,
}

const fallbackWindow = 8000

// Provider is the hosted OpenAI-compatible chat backend. JSON mode is
// enforced server-side via response_format, so no internal repair loop is
// needed: an unparsable structured response surfaces immediately as a
// StructuredOutputError.
type Provider struct {
	model  string
	cfg    providers.OpenAIConfig
	client *http.Client
	logger *zap.Logger

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
}

// New creates a provider for the given model.
func New(model string, cfg providers.OpenAIConfig, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
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

func (p *Provider) Model() string { return p.model }

// ContextSize returns the model's context window.
func (p *Provider) ContextSize() int {
	var best string
	for prefix := range modelWindows {
		if strings.HasPrefix(p.model, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return fallbackWindow
	}
	return modelWindows[best]
}

// CalculateTokens counts tokens with tiktoken, falling back to a character
// estimate when the encoding data is unavailable.
func (p *Provider) CalculateTokens(text string) int {
	p.encOnce.Do(func() {
		enc, err := tiktoken.EncodingForModel(p.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
		}
		if err != nil {
			p.logger.Warn("tiktoken init failed, using character estimate", zap.Error(err))
			return
		}
		p.enc = enc
	})
	if p.enc == nil {
		return len(text) / 4
	}
	return len(p.enc.Encode(text, nil, nil))
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model          string        `json:"model"`
	Messages       []wireMessage `json:"messages"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat any           `json:"response_format,omitempty"`
}

type wireResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		FinishReason string      `json:"finish_reason"`
		Message      wireMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// GetResponse performs one chat completion call.
func (p *Provider) GetResponse(ctx context.Context, req *providers.Request) (*types.AIResponse, error) {
	body := wireRequest{
		Model:     p.model,
		Messages:  convertMessages(req.Messages),
		MaxTokens: req.EffectiveMaxTokens(),
	}
	if req.JSONFormat {
		body.ResponseFormat = map[string]string{"type": "json_object"}
	}

	start := time.Now()
	wire, err := p.post(ctx, "/v1/chat/completions", body)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("chat completion finished",
		zap.String("model", p.model),
		zap.Duration("took", time.Since(start)))

	if len(wire.Choices) == 0 {
		return nil, types.NewTransportError("openai", 0, "empty choices in response", nil)
	}
	choice := wire.Choices[0]

	resp := &types.AIResponse{
		Usage: &types.TokenUsage{
			Model:            wire.Model,
			PromptTokens:     wire.Usage.PromptTokens,
			CompletionTokens: wire.Usage.CompletionTokens,
		},
		LengthLimited: choice.FinishReason == "length",
	}

	if req.JSONFormat {
		obj, parseErr := providers.ParseJSONObject(choice.Message.Content)
		if parseErr != nil {
			return nil, types.NewStructuredOutputError("openai", choice.Message.Content, parseErr)
		}
		resp.JSON = obj
	} else {
		resp.Text = strings.TrimSpace(choice.Message.Content)
	}
	return resp, nil
}

func (p *Provider) post(ctx context.Context, endpoint string, body wireRequest) (*wireResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(p.cfg.BaseURL, "/") + endpoint
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewTransportError("openai", 0, err.Error(), err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, types.NewTransportError("openai", httpResp.StatusCode, providers.ReadErrMsg(httpResp.Body), nil)
	}

	var wire wireResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&wire); err != nil {
		return nil, types.NewTransportError("openai", httpResp.StatusCode, "undecodable response body", err)
	}
	return &wire, nil
}

func convertMessages(messages []types.Message) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, wireMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}
