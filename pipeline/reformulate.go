package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/saninsteinn/assistbot/types"
)

// ReformulateQuestionStage rewrites the latest user question as a
// self-contained search query using the conversation history. Off in the
// default pipeline.
type ReformulateQuestionStage struct {
	deps Deps
}

// NewReformulateQuestion creates the stage.
func NewReformulateQuestion(deps Deps) *ReformulateQuestionStage {
	return &ReformulateQuestionStage{deps: deps}
}

func (s *ReformulateQuestionStage) Name() string { return "reformulate_question" }

func (s *ReformulateQuestionStage) Run(ctx context.Context, st *State) error {
	messages := types.WithSystemMessage(st.Messages, reformulatePrompt())
	resp, err := s.deps.askJSON(ctx, s.Name(), messages, 256, func(r *types.AIResponse) bool {
		_, ok := r.StringField("query")
		return ok
	})
	if err != nil {
		return fmt.Errorf("reformulate question: %w", err)
	}

	query, _ := resp.StringField("query")
	s.deps.logger().Info("reformulated question", zap.String("query", query))
	s.deps.Debug.Set(s.Name(), "new_question", query)
	st.SetUserQuestion(query)
	return nil
}

func reformulatePrompt() string {
	return "Reformulate the user's question in a way " +
		"that will help to search answer in the database by sentence embeddings.\n" +
		"Do not answer the question, but just reformulate to provide the search query.\n" +
		"You must use the original query language.\n" +
		jsonPrompt(`{"query": "Reformulated question"}`)
}
