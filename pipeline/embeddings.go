package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saninsteinn/assistbot/search"
)

const (
	relatedQuestionsN = 5

	// Aggregation parameters for the broad document search.
	maxScoresN = 5
	topN       = 5

	// unitSearchN bounds how many sub-unit hits feed the aggregation.
	unitSearchN = 100
)

// EmbeddingsStage embeds the user question and retrieves candidates: the
// closest known questions, then either the single owning document of a
// near-exact question match or the broader aggregated document ranking.
type EmbeddingsStage struct {
	deps Deps
}

// NewEmbeddings creates the stage.
func NewEmbeddings(deps Deps) *EmbeddingsStage { return &EmbeddingsStage{deps: deps} }

func (s *EmbeddingsStage) Name() string { return "embedding_search" }

func (s *EmbeddingsStage) Run(ctx context.Context, st *State) error {
	query := st.UserQuestion()
	s.deps.logger().Debug("search query", zap.String("query", query))

	vectors, err := s.deps.Embedder.Embeddings(ctx, []string{query})
	if err != nil {
		return fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return fmt.Errorf("embed query: expected 1 vector, got %d", len(vectors))
	}
	queryVec := vectors[0]

	questions, err := s.deps.Store.SearchQuestions(ctx, s.deps.BotID, queryVec, relatedQuestionsN)
	if err != nil {
		return fmt.Errorf("search questions: %w", err)
	}
	st.RelatedQuestions = questions

	questionDump := make([]string, 0, len(questions))
	for _, q := range questions {
		questionDump = append(questionDump, fmt.Sprintf("[%s %.4f] %s", q.Question.ID, 1-q.Distance, q.Question.Text))
	}
	s.deps.Debug.Set(s.Name(), "related_questions", questionDump)

	var docIDs []uuid.UUID
	if len(questions) > 0 && questions[0].Distance < search.NearExactThreshold {
		// Near-exact match: the question was effectively asked before, so its
		// owning document wins outright.
		s.deps.Debug.Set(s.Name(), "the_same_question", questions[0].Question.Text)
		docIDs = []uuid.UUID{questions[0].Question.DocumentID}
	} else {
		hits, err := s.deps.Store.SearchUnits(ctx, s.deps.BotID, queryVec, unitSearchN)
		if err != nil {
			return fmt.Errorf("search units: %w", err)
		}
		for _, score := range search.AggregateDocuments(hits, maxScoresN, topN) {
			docIDs = append(docIDs, score.DocumentID)
		}
	}

	documents, err := s.deps.Store.DocumentsByIDs(ctx, docIDs)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	st.Documents = documents

	docDump := make([]string, 0, len(documents))
	for _, d := range documents {
		docDump = append(docDump, fmt.Sprintf("[%s] %s", d.ID, d.Name))
	}
	s.deps.Debug.Set(s.Name(), "documents", docDump)
	return nil
}
