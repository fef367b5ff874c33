package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saninsteinn/assistbot/providers"
	"github.com/saninsteinn/assistbot/types"
)

func TestOpenAIEmbeddingsOrderedByIndex(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text-embedding-3-small", body["model"])

		// Deliberately out of order.
		err := json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0, 1}},
				{"index": 0, "embedding": []float32{1, 0}},
			},
		})
		require.NoError(t, err)
	}))
	t.Cleanup(srv.Close)

	e := NewOpenAI("text-embedding-3-small", providers.OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL})
	vecs, err := e.Embeddings(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 0}, vecs[0])
	assert.Equal(t, []float32{0, 1}, vecs[1])
}

func TestOpenAIEmbeddingsCountMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float32{1}}},
		})
		require.NoError(t, err)
	}))
	t.Cleanup(srv.Close)

	e := NewOpenAI("text-embedding-3-small", providers.OpenAIConfig{BaseURL: srv.URL})
	_, err := e.Embeddings(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.True(t, types.IsTransport(err))
}

func TestOllamaEmbeddingsSequential(t *testing.T) {
	t.Parallel()

	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		prompts = append(prompts, body["prompt"].(string))

		err := json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float32{float32(len(prompts)), 0},
		})
		require.NoError(t, err)
	}))
	t.Cleanup(srv.Close)

	e := NewOllama("nomic-embed-text", providers.OllamaConfig{Host: srv.URL})
	vecs, err := e.Embeddings(context.Background(), []string{"one", "two", "three"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []string{"one", "two", "three"}, prompts)
	assert.Equal(t, []float32{1, 0}, vecs[0])
	assert.Equal(t, []float32{3, 0}, vecs[2])
}

func TestOllamaEmbeddingsTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	e := NewOllama("missing", providers.OllamaConfig{Host: srv.URL})
	_, err := e.Embeddings(context.Background(), []string{"text"})
	require.Error(t, err)

	var tErr *types.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "ollama", tErr.Provider)
	assert.Equal(t, http.StatusNotFound, tErr.HTTPStatus)
}

func TestGPUServiceEmbeddingsBatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings/", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "e5-large", body["model"])

		err := json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{1, 0}, {0, 1}},
		})
		require.NoError(t, err)
	}))
	t.Cleanup(srv.Close)

	e := NewGPUService("e5-large", providers.GPUServiceConfig{Endpoint: srv.URL})
	vecs, err := e.Embeddings(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{0, 1}, vecs[1])
}

func TestFactoryRoutesByPrefix(t *testing.T) {
	t.Parallel()

	cfg := providers.Config{}

	e := New("text-embedding-3-small", cfg)
	_, ok := e.(*OpenAIEmbedder)
	assert.True(t, ok)

	e = New("gpu:e5-large", cfg)
	_, ok = e.(*GPUServiceEmbedder)
	assert.True(t, ok)
	assert.Equal(t, "e5-large", e.Model())

	e = New("ollama:nomic-embed-text", cfg)
	_, ok = e.(*OllamaEmbedder)
	assert.True(t, ok)
	assert.Equal(t, "nomic-embed-text", e.Model())

	e = New("bge-m3", cfg)
	_, ok = e.(*OllamaEmbedder)
	assert.True(t, ok)
}
