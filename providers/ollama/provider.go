// Package ollama implements the AIProvider contract over a local Ollama
// inference server. Local models are the least reliable JSON emitters of all
// backends, so this provider carries the heaviest internal repair loop.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saninsteinn/assistbot/providers"
	"github.com/saninsteinn/assistbot/types"
)

// maxJSONAttempts bounds the internal re-request loop for garbled JSON-mode
// responses.
const maxJSONAttempts = 5

const contextWindow = 8000

// Provider talks to an Ollama server. It records per-call attempt counts for
// the debug telemetry layer.
type Provider struct {
	model  string
	cfg    providers.OllamaConfig
	client *http.Client
	logger *zap.Logger

	mu       sync.Mutex
	attempts []int
}

// New creates a provider for the given model.
func New(model string, cfg providers.OllamaConfig, logger *zap.Logger) *Provider {
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

// CalculateTokens uses the word-count estimate; Ollama exposes no tokenizer
// endpoint cheap enough to call per text.
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

func (p *Provider) recordAttempts(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts = append(p.attempts, n)
}

type wireMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type wireRequest struct {
	Model    string         `json:"model"`
	Messages []wireMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type wireResponse struct {
	Model   string      `json:"model"`
	Message wireMessage `json:"message"`
	Done    bool        `json:"done"`

	PromptEvalCount int `json:"prompt_eval_count"`
	EvalCount       int `json:"eval_count"`
}

// GetResponse performs one chat call. In JSON mode, garbled responses are
// re-requested up to maxJSONAttempts times before a StructuredOutputError is
// returned. Transport errors abort immediately.
func (p *Provider) GetResponse(ctx context.Context, req *providers.Request) (*types.AIResponse, error) {
	if err := providers.CheckRoleAlternation("ollama", req.Messages); err != nil {
		return nil, err
	}

	body := wireRequest{
		Model:    p.model,
		Messages: convertMessages(req.Messages),
		Stream:   false,
		Options:  map[string]any{"num_predict": req.EffectiveMaxTokens()},
	}
	if req.JSONFormat {
		body.Format = "json"
	}

	var (
		wire     *wireResponse
		obj      map[string]any
		lastRaw  string
		parseErr error
	)

	attempts := 0
	for attempts < maxJSONAttempts {
		attempts++

		var err error
		wire, err = p.post(ctx, body)
		if err != nil {
			p.recordAttempts(attempts)
			return nil, err
		}

		if !req.JSONFormat {
			break
		}

		content := wire.Message.Content
		lastRaw = content
		if providers.LooksGarbled(content) {
			p.logger.Warn("garbled JSON response, re-requesting",
				zap.Int("attempt", attempts))
			parseErr = fmt.Errorf("garbled whitespace in response")
			continue
		}

		obj, parseErr = providers.ParseJSONObject(content)
		if parseErr == nil {
			break
		}
		p.logger.Warn("failed to parse JSON response, re-requesting",
			zap.Int("attempt", attempts),
			zap.Error(parseErr))
	}
	p.recordAttempts(attempts)

	if req.JSONFormat && parseErr != nil && obj == nil {
		return nil, types.NewStructuredOutputError("ollama", lastRaw, parseErr)
	}

	resp := &types.AIResponse{
		Usage: &types.TokenUsage{
			Model:            wire.Model,
			PromptTokens:     wire.PromptEvalCount,
			CompletionTokens: wire.EvalCount,
		},
		LengthLimited: !wire.Done,
	}
	if req.JSONFormat {
		resp.JSON = obj
	} else {
		resp.Text = strings.TrimSpace(wire.Message.Content)
	}
	return resp, nil
}

func (p *Provider) post(ctx context.Context, body wireRequest) (*wireResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(p.cfg.Host, "/") + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewTransportError("ollama", 0, err.Error(), err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, types.NewTransportError("ollama", httpResp.StatusCode, providers.ReadErrMsg(httpResp.Body), nil)
	}

	var wire wireResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&wire); err != nil {
		return nil, types.NewTransportError("ollama", httpResp.StatusCode, "undecodable response body", err)
	}
	return &wire, nil
}

func convertMessages(messages []types.Message) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, wireMessage{Role: string(m.Role), Content: m.Content, Images: m.Images})
	}
	return out
}
