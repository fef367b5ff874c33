package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	// fillInfoTokenShare of the fast model's context window is the budget for
	// the assembled grounding text.
	fillInfoTokenShare = 0.15

	// fillInfoMaxDocuments caps how many documents the blob may contain.
	fillInfoMaxDocuments = 3
)

// FillInfoStage greedily packs document contents, in candidate order, into a
// single grounding blob. A document is appended only if the blob stays within
// the token budget; partial documents are never included. The candidate list
// is truncated to the documents actually used.
type FillInfoStage struct {
	deps Deps
}

// NewFillInfo creates the stage.
func NewFillInfo(deps Deps) *FillInfoStage { return &FillInfoStage{deps: deps} }

func (s *FillInfoStage) Name() string { return "fill_info" }

func (s *FillInfoStage) Run(_ context.Context, st *State) error {
	if len(st.Documents) == 0 {
		return nil
	}

	maxTokens := int(float64(s.deps.Fast.ContextSize()) * fillInfoTokenShare)

	var output string
	n := 0
	for _, doc := range st.Documents {
		if n >= fillInfoMaxDocuments {
			break
		}
		candidate := fmt.Sprintf("%s# %s:\n```\n%s\n```\n", output, doc.Path, doc.Content)
		// The first document is always taken; the budget check starts once
		// the blob is non-empty.
		if output != "" && s.deps.Fast.CalculateTokens(candidate) > maxTokens {
			break
		}
		output = candidate
		n++
	}

	s.deps.logger().Info("filled grounding info",
		zap.Int("documents", n),
		zap.Int("tokens", s.deps.Fast.CalculateTokens(output)))

	st.Documents = st.Documents[:n]
	st.FinalInfo = output
	st.SetContextOK(true)
	return nil
}
