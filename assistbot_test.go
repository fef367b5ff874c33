package assistbot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saninsteinn/assistbot/config"
	"github.com/saninsteinn/assistbot/embedding"
	"github.com/saninsteinn/assistbot/pipeline"
	"github.com/saninsteinn/assistbot/providers"
	"github.com/saninsteinn/assistbot/storage"
	"github.com/saninsteinn/assistbot/types"
)

type scriptedProvider struct {
	model string
}

func (p *scriptedProvider) GetResponse(_ context.Context, req *providers.Request) (*types.AIResponse, error) {
	var prompt string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == types.RoleSystem {
			prompt = req.Messages[i].Content
			break
		}
	}
	switch {
	case strings.Contains(prompt, "Possible topics"):
		return &types.AIResponse{JSON: map[string]any{"topic": "Store Info"}}, nil
	case strings.Contains(prompt, "known questions"):
		return &types.AIResponse{JSON: map[string]any{"question": nil}}, nil
	default:
		return &types.AIResponse{JSON: map[string]any{}}, nil
	}
}

func (p *scriptedProvider) CalculateTokens(text string) int { return len(strings.Fields(text)) }
func (p *scriptedProvider) ContextSize() int                { return 8000 }
func (p *scriptedProvider) Model() string                   { return p.model }

type unitEmbedder struct{}

func (unitEmbedder) Embeddings(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (unitEmbedder) Model() string { return "unit" }

func newTestEnricher(t *testing.T) (*Enricher, uuid.UUID) {
	t.Helper()

	botID := uuid.New()
	topicID := uuid.New()
	docID := uuid.New()

	store := storage.NewMemoryStore()
	store.AddTopic(storage.Topic{ID: topicID, BotID: botID, Title: "Store Info", Status: storage.StatusCompleted})
	store.AddDocument(storage.Document{
		ID: docID, TopicID: topicID,
		Name: "Hours", Path: "Store Info / Hours", Content: "Hours: 9am-6pm",
	})
	for range 5 {
		store.AddQuestion(storage.Question{
			ID: uuid.New(), DocumentID: docID, Text: "When are you open?",
		}, []float32{0.8, 0.6})
	}

	e := New(config.Default(), store, WithLogger(zap.NewNop()))
	e.newProvider = func(model string, _ providers.Config, _ *zap.Logger) providers.AIProvider {
		return &scriptedProvider{model: model}
	}
	e.newEmbedder = func(string, providers.Config) embedding.Embedder {
		return unitEmbedder{}
	}
	e.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return e, botID
}

func TestEnrichWiresPipeline(t *testing.T) {
	t.Parallel()

	e, botID := newTestEnricher(t)
	debug := pipeline.NewDebugInfo()

	conversation := []types.Message{types.NewUserMessage("What are your opening hours?")}
	enriched, err := e.Enrich(context.Background(), conversation, botID, debug, nil)
	require.NoError(t, err)

	require.Len(t, enriched, 2)
	assert.Contains(t, enriched[1].Content, "Hours: 9am-6pm")
	assert.Contains(t, enriched[1].Content, "2024-05-01")

	snapshot := debug.Snapshot()
	assert.Contains(t, snapshot, "classify")
	assert.Contains(t, snapshot, "embedding_search")
}

func TestEnrichInterrupt(t *testing.T) {
	t.Parallel()

	e, botID := newTestEnricher(t)

	conversation := []types.Message{types.NewUserMessage("What are your opening hours?")}
	enriched, err := e.Enrich(context.Background(), conversation, botID, nil,
		func(context.Context) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, conversation, enriched)
}

func TestStrongProviderUsesConfiguredModel(t *testing.T) {
	t.Parallel()

	e, _ := newTestEnricher(t)
	assert.Equal(t, e.cfg.Models.Strong, e.StrongProvider().Model())
}
