package storage

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/saninsteinn/assistbot/search"
)

// MemoryStore is an in-memory knowledge store with brute-force cosine
// search. It implements the same query surface as PostgresStore and is used
// in tests and single-process installations.
type MemoryStore struct {
	mu        sync.RWMutex
	topics    []Topic
	documents []Document
	questions []memQuestion
}

type memQuestion struct {
	question  Question
	embedding []float32
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// AddTopic registers a topic.
func (s *MemoryStore) AddTopic(t Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics = append(s.topics, t)
}

// AddDocument registers a document.
func (s *MemoryStore) AddDocument(d Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, d)
}

// AddQuestion registers an embedded question for a document.
func (s *MemoryStore) AddQuestion(q Question, embedding []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, memQuestion{question: q, embedding: embedding})
}

// Topics returns completed top-level topics of the bot, in insertion order.
func (s *MemoryStore) Topics(ctx context.Context, botID uuid.UUID) ([]Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Topic
	for _, t := range s.topics {
		if t.BotID == botID && t.ParentID == nil && t.Status == StatusCompleted {
			out = append(out, t)
		}
	}
	return out, nil
}

// SampleQuestions returns up to n questions of the topic's documents in a
// random order.
func (s *MemoryStore) SampleQuestions(ctx context.Context, topicID uuid.UUID, n int) ([]Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docIDs := make(map[uuid.UUID]bool)
	for _, d := range s.documents {
		if d.TopicID == topicID {
			docIDs[d.ID] = true
		}
	}

	var candidates []Question
	for _, q := range s.questions {
		if docIDs[q.question.DocumentID] {
			candidates = append(candidates, q.question)
		}
	}
	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, nil
}

// SearchQuestions returns the n closest questions by cosine distance within
// the bot's completed topics.
func (s *MemoryStore) SearchQuestions(ctx context.Context, botID uuid.UUID, embedding []float32, n int) ([]ScoredQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docScope := s.scopedDocuments(botID)

	scored := make([]ScoredQuestion, 0)
	for _, q := range s.questions {
		if _, ok := docScope[q.question.DocumentID]; !ok {
			continue
		}
		scored = append(scored, ScoredQuestion{
			Question: q.question,
			Distance: search.CosineDistance(embedding, q.embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Distance < scored[j].Distance })
	if len(scored) > n {
		scored = scored[:n]
	}
	return scored, nil
}

// SearchUnits returns up to n question-level hits for document aggregation.
func (s *MemoryStore) SearchUnits(ctx context.Context, botID uuid.UUID, embedding []float32, n int) ([]search.Hit, error) {
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
func (s *MemoryStore) DocumentByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.documents {
		if d.ID == id {
			doc := d
			return &doc, nil
		}
	}
	return nil, fmt.Errorf("document %s not found", id)
}

// DocumentsByIDs loads documents in the order of ids, skipping missing ones.
func (s *MemoryStore) DocumentsByIDs(ctx context.Context, ids []uuid.UUID) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[uuid.UUID]Document, len(s.documents))
	for _, d := range s.documents {
		byID[d.ID] = d
	}
	out := make([]Document, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// scopedDocuments maps document id -> document for the bot's completed
// topics. Caller must hold the read lock.
func (s *MemoryStore) scopedDocuments(botID uuid.UUID) map[uuid.UUID]Document {
	topicScope := make(map[uuid.UUID]bool)
	for _, t := range s.topics {
		if t.BotID == botID && t.Status == StatusCompleted {
			topicScope[t.ID] = true
		}
	}
	docs := make(map[uuid.UUID]Document)
	for _, d := range s.documents {
		if topicScope[d.TopicID] {
			docs[d.ID] = d
		}
	}
	return docs
}
