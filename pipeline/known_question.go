package pipeline

import (
	"context"
	"fmt"

	"github.com/saninsteinn/assistbot/storage"
	"github.com/saninsteinn/assistbot/types"
)

// knownQuestionsN caps how many related questions are offered to the model.
const knownQuestionsN = 5

// ChooseKnownQuestionStage asks the model whether any retrieved known
// question has the same answer as the user's question. On a hit the owning
// document replaces the whole candidate list, bypassing broader document
// selection.
type ChooseKnownQuestionStage struct {
	deps Deps
}

// NewChooseKnownQuestion creates the stage.
func NewChooseKnownQuestion(deps Deps) *ChooseKnownQuestionStage {
	return &ChooseKnownQuestionStage{deps: deps}
}

func (s *ChooseKnownQuestionStage) Name() string { return "known_question_choice" }

func (s *ChooseKnownQuestionStage) Run(ctx context.Context, st *State) error {
	questions := st.RelatedQuestions
	if len(questions) > knownQuestionsN {
		questions = questions[:knownQuestionsN]
	}
	if len(questions) == 0 {
		s.deps.Debug.Set(s.Name(), "the_same_question", nil)
		return nil
	}

	texts := make([]string, 0, len(questions))
	for _, q := range questions {
		texts = append(texts, q.Question.Text)
	}

	// The prompt stands alone; conversation history only distracts here.
	messages := []types.Message{
		types.NewSystemMessage(knownQuestionPrompt(st.UserQuestion(), texts)),
	}
	resp, err := s.deps.askJSON(ctx, s.Name(), messages, 256, func(r *types.AIResponse) bool {
		if r.NullField("question") {
			return true
		}
		n, ok := r.IntField("question")
		return ok && n >= 1 && n <= len(questions)
	})
	if err != nil {
		return fmt.Errorf("choose known question: %w", err)
	}

	n, ok := resp.IntField("question")
	if !ok || n == 0 {
		s.deps.Debug.Set(s.Name(), "the_same_question", nil)
		return nil
	}

	chosen := questions[n-1]
	s.deps.Debug.Set(s.Name(), "the_same_question", chosen.Question.Text)

	document, err := s.deps.Store.DocumentByID(ctx, chosen.Question.DocumentID)
	if err != nil {
		return fmt.Errorf("choose known question: %w", err)
	}
	s.deps.Debug.Set(s.Name(), "document", fmt.Sprintf("[%s] %s", document.ID, document.Name))
	st.Documents = []storage.Document{*document}
	return nil
}

func knownQuestionPrompt(userQuestion string, questions []string) string {
	return "The user asked a question:\n" +
		"```\n" +
		userQuestion + "\n" +
		"```\n\n" +
		"Your task is to determine if any of the known questions below have the same meaning as the user's question. " +
		"Two questions have the same meaning if the answer to the user's question would also correctly answer the known question. " +
		"Only consider questions to be the same if their answers would be identical.\n" +
		"Here are the known questions:\n" +
		"```\n" +
		numberedListStr(questions) + "\n" +
		"```\n" +
		"Please provide the number of the known question that matches the user's question in meaning. " +
		"If none of the known questions match the user's question in meaning, provide `null`.\n" +
		jsonPrompt(`{"question": 1}`, `{"question": null}`)
}
