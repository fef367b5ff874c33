// Package embedding provides text embedding clients for the retrieval layer.
// Backends share the providers package config and error types; the model name
// prefix selects the backend, mirroring the chat provider factory.
package embedding

import "context"

// Embedder converts texts into dense vectors.
type Embedder interface {
	// Embeddings returns one vector per input text, in input order.
	Embeddings(ctx context.Context, texts []string) ([][]float32, error)
	// Model returns the configured embedding model identifier.
	Model() string
}
