package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/saninsteinn/assistbot/providers"
	"github.com/saninsteinn/assistbot/storage"
	"github.com/saninsteinn/assistbot/types"
)

// fakeAI is a scripted provider. respond inspects the request (usually the
// last system message) and fabricates an answer.
type fakeAI struct {
	mu          sync.Mutex
	respond     func(req *providers.Request) (*types.AIResponse, error)
	contextSize int
	tokens      func(text string) int
	calls       []string
}

func (f *fakeAI) GetResponse(_ context.Context, req *providers.Request) (*types.AIResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, lastSystemContent(req.Messages))
	f.mu.Unlock()
	return f.respond(req)
}

func (f *fakeAI) CalculateTokens(text string) int {
	if f.tokens != nil {
		return f.tokens(text)
	}
	return len(strings.Fields(text))
}

func (f *fakeAI) ContextSize() int {
	if f.contextSize > 0 {
		return f.contextSize
	}
	return 8000
}

func (f *fakeAI) Model() string { return "fake-model" }

func (f *fakeAI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func lastSystemContent(messages []types.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.RoleSystem {
			return messages[i].Content
		}
	}
	return ""
}

// fakeEmbedder maps every text through vec.
type fakeEmbedder struct {
	vec func(text string) []float32
}

func (f *fakeEmbedder) Embeddings(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = f.vec(text)
	}
	return out, nil
}

func (f *fakeEmbedder) Model() string { return "fake-embedding" }

// jsonResponse builds a structured fake answer.
func jsonResponse(obj map[string]any) (*types.AIResponse, error) {
	return &types.AIResponse{JSON: obj}, nil
}

// storeFixture is a small knowledge base: one bot, one completed topic with a
// single document carrying enough embedded questions to pass the aggregation
// floor.
type storeFixture struct {
	store    *storage.MemoryStore
	botID    uuid.UUID
	topicID  uuid.UUID
	docID    uuid.UUID
	questVec []float32
}

func newStoreFixture() *storeFixture {
	f := &storeFixture{
		store:    storage.NewMemoryStore(),
		botID:    uuid.New(),
		topicID:  uuid.New(),
		docID:    uuid.New(),
		questVec: []float32{0.8, 0.6},
	}

	f.store.AddTopic(storage.Topic{
		ID:     f.topicID,
		BotID:  f.botID,
		Title:  "Store Info",
		Status: storage.StatusCompleted,
	})
	f.store.AddDocument(storage.Document{
		ID:      f.docID,
		TopicID: f.topicID,
		Name:    "Hours",
		Path:    "Store Info / Hours",
		Content: "Hours: 9am-6pm",
	})

	questions := []string{
		"What are the opening hours?",
		"When does the store open?",
		"When does the store close?",
		"Are you open on weekends?",
		"What time can I visit the store?",
	}
	for _, text := range questions {
		f.store.AddQuestion(storage.Question{
			ID:         uuid.New(),
			DocumentID: f.docID,
			Text:       text,
		}, f.questVec)
	}
	return f
}

// deps wires the fixture into stage dependencies. The query embedding sits at
// cosine distance 0.2 from every stored question: close enough to retrieve,
// far enough to not count as a near-exact match.
func (f *storeFixture) deps(ai *fakeAI) Deps {
	return Deps{
		BotID: f.botID,
		Fast:  ai,
		Embedder: &fakeEmbedder{vec: func(string) []float32 {
			return []float32{1, 0}
		}},
		Store: f.store,
		Debug: NewDebugInfo(),
	}
}
