package pipeline

import (
	"context"
	"fmt"

	"github.com/saninsteinn/assistbot/types"
)

// FinalPromptStage appends the closing system instruction: either a
// constraint to answer only from the assembled grounding text, or an apology
// instruction when the context is insufficient. Always the last stage.
type FinalPromptStage struct {
	deps Deps
}

// NewFinalPrompt creates the stage.
func NewFinalPrompt(deps Deps) *FinalPromptStage { return &FinalPromptStage{deps: deps} }

func (s *FinalPromptStage) Name() string { return "final" }

func (s *FinalPromptStage) Run(_ context.Context, st *State) error {
	if st.ContextIsOK() {
		st.Messages = types.WithSystemMessage(st.Messages, s.groundedPrompt(st))
	} else {
		st.Messages = types.WithSystemMessage(st.Messages,
			"Unfortunately, there is not enough information to answer the user's question for you.\n"+
				"Answer the user that you could not help with the question.\n")
	}

	inputDump := make([]string, 0, len(st.Documents))
	for _, d := range st.Documents {
		inputDump = append(inputDump, fmt.Sprintf("[%s] %s", d.ID, d.Name))
	}
	s.deps.Debug.Set(s.Name(), "input", inputDump)
	return nil
}

func (s *FinalPromptStage) groundedPrompt(st *State) string {
	now := s.deps.now().Format("2006-01-02 15:04:05")
	return "You must answer the user only using the following information:\n" +
		"```\n" +
		st.FinalInfo + "\n" +
		"# Current date: `" + now + "`\n\n" +
		"```\n" +
		"As you remember, the question from the user is:\n" +
		"```\n" +
		st.UserQuestion() + "\n" +
		"```\n" +
		"If that information does not contain the answer, you must say that you don't have information like " +
		"\"I'm sorry, I don't have enough information to answer your question.\" (but in user's language).\n" +
		"Follow the original wording as much as possible.\n" +
		"It would be ideal if your answer was an exact and complete quote from the document. " +
		"Don't leave out details in your answer.\n"
}
