package pipeline

import (
	"context"
	"fmt"

	"github.com/saninsteinn/assistbot/types"
)

// CheckContextStage asks the model whether the assembled grounding text
// actually answers the user's question and records the verdict. Off in the
// default pipeline, where fill-info optimistically marks the context ok.
type CheckContextStage struct {
	deps Deps
}

// NewCheckContext creates the stage.
func NewCheckContext(deps Deps) *CheckContextStage { return &CheckContextStage{deps: deps} }

func (s *CheckContextStage) Name() string { return "check_context" }

func (s *CheckContextStage) Run(ctx context.Context, st *State) error {
	if st.FinalInfo == "" {
		st.SetContextOK(false)
		return nil
	}

	messages := types.WithSystemMessage(st.Messages, checkContextPrompt(st.FinalInfo, st.UserQuestion()))
	resp, err := s.deps.askJSON(ctx, s.Name(), messages, 256, func(r *types.AIResponse) bool {
		_, ok := r.BoolField("result")
		return ok
	})
	if err != nil {
		return fmt.Errorf("check context: %w", err)
	}

	ok, _ := resp.BoolField("result")
	st.SetContextOK(ok)
	return nil
}

func checkContextPrompt(info, userQuestion string) string {
	return "You must find out if the information below contains an answer to the user's question.\n" +
		info + "\n" +
		"Do check if the information above contains an answer to the user's question.\n" +
		"As you remember, the user's question is:\n" +
		"```\n" +
		userQuestion + "\n" +
		"```\n" +
		"If the information is enough just answer `true`.\n" +
		"If the information does not contain the answer, answer `false`.\n" +
		jsonPrompt(`{"result": true}`)
}
