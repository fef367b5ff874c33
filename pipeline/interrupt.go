package pipeline

import "context"

// InterruptIfSmallTalkStage is a pure gate: with no classified topic the
// question needs no retrieved context, so the pipeline stops advancing and
// only the final prompt runs.
type InterruptIfSmallTalkStage struct {
	deps Deps
}

// NewInterruptIfSmallTalk creates the stage.
func NewInterruptIfSmallTalk(deps Deps) *InterruptIfSmallTalkStage {
	return &InterruptIfSmallTalkStage{deps: deps}
}

func (s *InterruptIfSmallTalkStage) Name() string { return "interrupt_if_small_talk" }

func (s *InterruptIfSmallTalkStage) Run(_ context.Context, st *State) error {
	if st.Topic == nil {
		st.Done = true
	}
	return nil
}
