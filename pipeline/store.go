package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/saninsteinn/assistbot/search"
	"github.com/saninsteinn/assistbot/storage"
)

// KnowledgeStore is the read surface the pipeline needs from the knowledge
// base. storage.PostgresStore and storage.MemoryStore both satisfy it.
type KnowledgeStore interface {
	// Topics returns the completed top-level topics of one bot.
	Topics(ctx context.Context, botID uuid.UUID) ([]storage.Topic, error)
	// SampleQuestions returns up to n random questions under a topic, used as
	// few-shot classification examples.
	SampleQuestions(ctx context.Context, topicID uuid.UUID, n int) ([]storage.Question, error)
	// SearchQuestions returns the n known questions closest to the embedding,
	// ascending by cosine distance.
	SearchQuestions(ctx context.Context, botID uuid.UUID, embedding []float32, n int) ([]storage.ScoredQuestion, error)
	// SearchUnits returns up to n sub-unit hits for document aggregation,
	// ascending by cosine distance.
	SearchUnits(ctx context.Context, botID uuid.UUID, embedding []float32, n int) ([]search.Hit, error)
	// DocumentByID loads one document.
	DocumentByID(ctx context.Context, id uuid.UUID) (*storage.Document, error)
	// DocumentsByIDs loads documents in the order of ids, skipping missing.
	DocumentsByIDs(ctx context.Context, ids []uuid.UUID) ([]storage.Document, error)
}
