// Package storage holds the knowledge-base data model and the stores the
// enrichment pipeline reads from. Two implementations are provided: a
// Postgres store backed by pgvector for production, and an in-memory store
// for tests and small installations.
package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ProcessingStatus tracks whether a topic's documents have finished embedding
// generation. Only completed topics participate in retrieval.
type ProcessingStatus string

const (
	StatusPending   ProcessingStatus = "pending"
	StatusCompleted ProcessingStatus = "completed"
)

// Topic is a top-level knowledge-base node scoped to one bot. Classification
// picks one topic per user question (or none for small talk).
type Topic struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BotID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	ParentID  *uuid.UUID       `gorm:"type:uuid;index"`
	Title     string           `gorm:"type:varchar(255);not null"`
	Status    ProcessingStatus `gorm:"type:varchar(32);not null;default:'pending'"`
	CreatedAt time.Time        `gorm:"autoCreateTime"`
}

func (Topic) TableName() string { return "topics" }

// Document is one grounding document within a topic. Path is the
// human-readable location in the knowledge tree ("Store Info / Hours").
type Document struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TopicID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Path      string    `gorm:"type:varchar(1024);not null"`
	Content   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Document) TableName() string { return "documents" }

// Question is a generated question for a document, embedded for retrieval.
// Questions are the sub-units over which document-level scores aggregate.
type Question struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Text       string          `gorm:"type:text;not null"`
	Embedding  pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (Question) TableName() string { return "questions" }

// Sentence is an embedded sentence of a document, an alternative sub-unit
// kept for sentence-level search.
type Sentence struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Text       string          `gorm:"type:text;not null"`
	Embedding  pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (Sentence) TableName() string { return "sentences" }

// ScoredQuestion pairs a question with its cosine distance to the query.
type ScoredQuestion struct {
	Question Question
	Distance float64
}
