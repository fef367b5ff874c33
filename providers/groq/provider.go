// Package groq implements the AIProvider contract over the Groq hosted API.
// The wire format is OpenAI-compatible, but Groq rejects malformed JSON-mode
// generations with a 400 instead of returning them, so the repair heuristic
// here is to re-request on that specific failure.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saninsteinn/assistbot/providers"
	"github.com/saninsteinn/assistbot/types"
)

const defaultBaseURL = "https://api.groq.com/openai"

const maxJSONAttempts = 5

const contextWindow = 8000

// Provider talks to the Groq API.
type Provider struct {
	model  string
	cfg    providers.GroqConfig
	client *http.Client
	logger *zap.Logger

	mu       sync.Mutex
	attempts []int
}

// New creates a provider for the given model.
func New(model string, cfg providers.GroqConfig, logger *zap.Logger) *Provider {
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

func (p *Provider) Model() string    { return p.model }
func (p *Provider) ContextSize() int { return contextWindow }

// CalculateTokens uses the word-count estimate; Groq serves open models
// without a stable public tokenizer.
func (p *Provider) CalculateTokens(text string) int {
	return providers.EstimateTokens(text)
}

// CallAttempts implements providers.AttemptRecorder.
func (p *Provider) CallAttempts() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, len(p.attempts))
	copy(out, p.attempts)
	return out
}

// ResetCallAttempts implements providers.AttemptRecorder.
func (p *Provider) ResetCallAttempts() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts = p.attempts[:0]
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

// GetResponse performs one chat completion call, re-requesting up to
// maxJSONAttempts times when Groq rejects a JSON-mode generation.
func (p *Provider) GetResponse(ctx context.Context, req *providers.Request) (*types.AIResponse, error) {
	body := wireRequest{
		Model:     p.model,
		Messages:  convertMessages(req.Messages),
		MaxTokens: req.EffectiveMaxTokens(),
	}
	if req.JSONFormat {
		body.ResponseFormat = map[string]string{"type": "json_object"}
	}

	var (
		wire    *wireResponse
		lastErr error
	)
	attempts := 0
	for attempts < maxJSONAttempts {
		attempts++

		var err error
		wire, err = p.post(ctx, body)
		if err == nil {
			break
		}
		if req.JSONFormat && isJSONGenerationFailure(err) {
			lastErr = err
			p.logger.Warn("JSON generation rejected by backend, re-requesting",
				zap.Int("attempt", attempts))
			continue
		}
		p.record(attempts)
		return nil, err
	}
	p.record(attempts)

	if wire == nil {
		return nil, types.NewStructuredOutputError("groq", "", lastErr)
	}
	if len(wire.Choices) == 0 {
		return nil, types.NewTransportError("groq", 0, "empty choices in response", nil)
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
			return nil, types.NewStructuredOutputError("groq", choice.Message.Content, parseErr)
		}
		resp.JSON = obj
	} else {
		resp.Text = strings.TrimSpace(choice.Message.Content)
	}
	return resp, nil
}

func (p *Provider) record(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts = append(p.attempts, n)
}

// isJSONGenerationFailure matches Groq's 400 "failed to generate JSON"
// rejection, the only transport-shaped error worth re-requesting.
func isJSONGenerationFailure(err error) bool {
	var tErr *types.TransportError
	if !errors.As(err, &tErr) {
		return false
	}
	return tErr.HTTPStatus == http.StatusBadRequest && strings.Contains(strings.ToLower(tErr.Message), "json")
}

func (p *Provider) post(ctx context.Context, body wireRequest) (*wireResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewTransportError("groq", 0, err.Error(), err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, types.NewTransportError("groq", httpResp.StatusCode, providers.ReadErrMsg(httpResp.Body), nil)
	}

	var wire wireResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&wire); err != nil {
		return nil, types.NewTransportError("groq", httpResp.StatusCode, "undecodable response body", err)
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
