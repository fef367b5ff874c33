package pipeline

import (
	"strings"

	"github.com/saninsteinn/assistbot/storage"
	"github.com/saninsteinn/assistbot/types"
)

// State is the mutable record threaded through the pipeline stages. One State
// is created per enrichment request, owned exclusively by that request's
// orchestrator, and discarded once the enriched message list is returned.
//
// Stages running in the same concurrent group must write disjoint fields.
// The classify stage writes Topic; the embeddings stage writes Documents and
// RelatedQuestions. Nothing synchronizes access beyond this convention, so
// any new concurrent pairing has to be audited for field overlap.
type State struct {
	// Messages is the working conversation. Stages append system messages;
	// the only in-place mutation is rewriting the latest user question text.
	Messages []types.Message

	// Topic is the classified knowledge-base topic, nil for small talk.
	Topic *storage.Topic

	// RelatedQuestions are the closest known questions to the user question,
	// ordered ascending by distance.
	RelatedQuestions []storage.ScoredQuestion

	// Documents are the candidate grounding documents, ordered by descending
	// relevance confidence at every mutation point.
	Documents []storage.Document

	// FinalInfo is the assembled token-budgeted grounding text. Empty until
	// the fill-info stage runs; non-empty only together with ContextOK set.
	FinalInfo string

	// ContextOK is nil until a stage judged whether the retrieved context is
	// sufficient to answer.
	ContextOK *bool

	// Done stops the orchestrator from advancing to the next stage group.
	Done bool
}

// NewState creates a state over a conversation.
func NewState(messages []types.Message) *State {
	return &State{Messages: messages}
}

// UserQuestion returns the trimmed text of the latest message, which by
// convention is the user's question.
func (s *State) UserQuestion() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return strings.TrimSpace(s.Messages[len(s.Messages)-1].Content)
}

// SetUserQuestion rewrites the latest message text. Used by the reformulation
// stage only.
func (s *State) SetUserQuestion(question string) {
	if len(s.Messages) == 0 {
		return
	}
	s.Messages[len(s.Messages)-1].Content = question
}

// SetContextOK records the context-sufficiency judgment.
func (s *State) SetContextOK(ok bool) {
	s.ContextOK = &ok
}

// ContextIsOK reports the judgment, false while unset.
func (s *State) ContextIsOK() bool {
	return s.ContextOK != nil && *s.ContextOK
}
