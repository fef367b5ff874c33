package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/saninsteinn/assistbot/search"
)

// PostgresStore reads the knowledge base from Postgres, using pgvector's
// `<=>` operator for cosine-distance nearest-neighbor queries.
type PostgresStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPostgresStore creates a store over an existing gorm connection.
func NewPostgresStore(db *gorm.DB, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, logger: logger}
}

// Topics returns the completed top-level topics of one bot, in creation
// order.
func (s *PostgresStore) Topics(ctx context.Context, botID uuid.UUID) ([]Topic, error) {
	var topics []Topic
	err := s.db.WithContext(ctx).
		Where("bot_id = ? AND parent_id IS NULL AND status = ?", botID, StatusCompleted).
		Order("created_at").
		Find(&topics).Error
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	return topics, nil
}

// SampleQuestions returns up to n random questions belonging to documents of
// the given topic, used as few-shot classification examples.
func (s *PostgresStore) SampleQuestions(ctx context.Context, topicID uuid.UUID, n int) ([]Question, error) {
	var questions []Question
	err := s.db.WithContext(ctx).
		Joins("JOIN documents ON documents.id = questions.document_id").
		Where("documents.topic_id = ?", topicID).
		Order("random()").
		Limit(n).
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	return questions, nil
}

// SearchQuestions returns the n questions closest to the embedding across
// the bot's completed topics, ordered ascending by cosine distance.
func (s *PostgresStore) SearchQuestions(ctx context.Context, botID uuid.UUID, embedding []float32, n int) ([]ScoredQuestion, error) {
	type row struct {
		Question
		Distance float64
	}
	vec := pgvector.NewVector(embedding)

	var rows []row
	err := s.db.WithContext(ctx).
		Table("questions").
		Select("questions.*, questions.embedding <=> ? AS distance", vec).
		Joins("JOIN documents ON documents.id = questions.document_id").
		Joins("JOIN topics ON topics.id = documents.topic_id").
		Where("topics.bot_id = ? AND topics.status = ?", botID, StatusCompleted).
		Order("distance").
		Limit(n).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("search questions: %w", err)
	}

	out := make([]ScoredQuestion, 0, len(rows))
	for _, r := range rows {
		out = append(out, ScoredQuestion{Question: r.Question, Distance: r.Distance})
	}
	return out, nil
}

// SearchUnits returns up to n sub-unit hits (question-level) for document
// aggregation, ordered ascending by cosine distance.
func (s *PostgresStore) SearchUnits(ctx context.Context, botID uuid.UUID, embedding []float32, n int) ([]search.Hit, error) {
	scored, err := s.SearchQuestions(ctx, botID, embedding, n)
	if err != nil {
		return nil, err
	}
	hits := make([]search.Hit, 0, len(scored))
	for _, sq := range scored {
		hits = append(hits, search.Hit{
			DocumentID: sq.Question.DocumentID,
			Distance:   sq.Distance,
			Text:       sq.Question.Text,
		})
	}
	return hits, nil
}

// DocumentByID loads a single document.
func (s *PostgresStore) DocumentByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	var doc Document
	err := s.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("document %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return &doc, nil
}

// DocumentsByIDs loads documents for the given ids, returned in the order of
// ids. Missing ids are skipped.
func (s *PostgresStore) DocumentsByIDs(ctx context.Context, ids []uuid.UUID) ([]Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var docs []Document
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	byID := make(map[uuid.UUID]Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	ordered := make([]Document, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			ordered = append(ordered, d)
		}
	}
	return ordered, nil
}
