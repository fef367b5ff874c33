package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saninsteinn/assistbot/fuzzy"
	"github.com/saninsteinn/assistbot/storage"
	"github.com/saninsteinn/assistbot/types"
)

const (
	// chooseDocsCandidatesN caps how many candidate titles the model sees.
	chooseDocsCandidatesN = 10

	// chooseDocsMinScore is the fuzzy-match floor for mapping a returned row
	// back to a document title. Anything weaker rejects the whole response.
	chooseDocsMinScore = 90

	// chooseDocsKeepN candidates from the original ranking always survive the
	// selection, unioned with the model's picks.
	chooseDocsKeepN = 2
)

// ChooseDocsStage shows the model the candidate document titles and asks it
// to pick up to 3 relevant rows verbatim. Each returned row is fuzzy-matched
// back to a document; an ambiguous, absent or duplicated match rejects the
// response and re-prompts. The final candidate list is the top ranked
// documents unioned with the picks, deduplicated, order preserved.
type ChooseDocsStage struct {
	deps Deps
}

// NewChooseDocs creates the stage.
func NewChooseDocs(deps Deps) *ChooseDocsStage { return &ChooseDocsStage{deps: deps} }

func (s *ChooseDocsStage) Name() string { return "choice" }

func (s *ChooseDocsStage) Run(ctx context.Context, st *State) error {
	documents := st.Documents
	if len(documents) > chooseDocsCandidatesN {
		documents = documents[:chooseDocsCandidatesN]
	}
	if len(documents) == 0 {
		return nil
	}

	titles := make([]string, 0, len(documents))
	for _, d := range documents {
		titles = append(titles, strings.ReplaceAll(d.Path, " / ", ". "))
	}

	messages := types.WithSystemMessage(st.Messages, chooseDocsPrompt(titles, st.UserQuestion()))

	var chosen []storage.Document
	_, err := s.deps.askJSON(ctx, s.Name(), messages, 256, func(r *types.AIResponse) bool {
		rows, ok := r.StringSliceField("documents")
		if !ok {
			s.deps.logger().Warn("no documents field in response")
			return false
		}
		chosen = chosen[:0]
		seen := make(map[uuid.UUID]bool, len(rows))
		for _, row := range rows {
			doc, ok := s.selectDoc(documents, titles, row)
			if !ok {
				s.deps.logger().Warn("unmatched document row", zap.String("row", row))
				return false
			}
			if seen[doc.ID] {
				s.deps.logger().Warn("duplicate document selected", zap.String("id", doc.ID.String()))
				return false
			}
			seen[doc.ID] = true
			chosen = append(chosen, doc)
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("choose docs: %w", err)
	}

	chosenDump := make([]string, 0, len(chosen))
	for _, d := range chosen {
		chosenDump = append(chosenDump, fmt.Sprintf("[%s] %s", d.ID, d.Name))
	}
	s.deps.Debug.Set(s.Name(), "chosen", chosenDump)

	keep := st.Documents
	if len(keep) > chooseDocsKeepN {
		keep = keep[:chooseDocsKeepN]
	}
	merged := make([]storage.Document, 0, len(keep)+len(chosen))
	seen := make(map[uuid.UUID]bool, len(keep)+len(chosen))
	for _, d := range append(append([]storage.Document{}, keep...), chosen...) {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		merged = append(merged, d)
	}
	st.Documents = merged
	return nil
}

// selectDoc maps a model-returned row back to a candidate document.
func (s *ChooseDocsStage) selectDoc(documents []storage.Document, titles []string, row string) (storage.Document, bool) {
	best, ok := fuzzy.ExtractBest(row, titles)
	if !ok || best.Score < chooseDocsMinScore {
		return storage.Document{}, false
	}
	return documents[best.Index], true
}

func chooseDocsPrompt(titles []string, userQuestion string) string {
	return "You can answer the user using information from these documents:\n" +
		listStr(titles) + "\n" +
		"However, you must choose up to 3 documents from the list above to get details.\n" +
		"Give the rows from the list above that relate to the user's question:\n" +
		"```\n" +
		userQuestion + "\n" +
		"```\n" +
		"Give each selected row in full - EXACTLY as it represented in the list.\n" +
		"Do not hesitate to provide MULTIPLE rows if necessary.\n" +
		"If none of the documents are relevant to the user's question, just provide an empty list.\n" +
		jsonPrompt(`{"documents": ["Row one", "Row two"]}`)
}
