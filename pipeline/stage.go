// Package pipeline implements the context-enrichment pipeline: a fixed
// sequence of stages, some running concurrently, that takes a conversation,
// classifies its topic, retrieves grounding documents via vector search and
// assembles a token-budgeted final system prompt for answer generation.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saninsteinn/assistbot/embedding"
	"github.com/saninsteinn/assistbot/providers"
	"github.com/saninsteinn/assistbot/retry"
	"github.com/saninsteinn/assistbot/types"
)

// Stage is one step of the enrichment pipeline. Run mutates the shared state
// in place.
type Stage interface {
	Name() string
	Run(ctx context.Context, st *State) error
}

// Deps carries everything a stage may need. Fast handles the cheap
// intermediate decisions; Strong is reserved for final answer generation by
// the caller and passed through for stages that may need it.
type Deps struct {
	BotID    uuid.UUID
	Fast     providers.AIProvider
	Strong   providers.AIProvider
	Embedder embedding.Embedder
	Store    KnowledgeStore
	Logger   *zap.Logger
	Debug    *DebugInfo

	// Now is the clock used by the final prompt. Defaults to time.Now.
	Now func() time.Time
}

func (d *Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func (d *Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// askJSON runs one structured fast-model call under the retry protocol.
// Structured-output failures from the provider count as failed attempts;
// transport errors abort. Attempt counts and the answering model land in the
// stage's debug record.
func (d *Deps) askJSON(
	ctx context.Context,
	stage string,
	messages []types.Message,
	maxTokens int,
	condition func(*types.AIResponse) bool,
) (*types.AIResponse, error) {
	outcome, err := retry.RepeatUntil(ctx, func(ctx context.Context) (*types.AIResponse, error) {
		return d.Fast.GetResponse(ctx, &providers.Request{
			Messages:   messages,
			MaxTokens:  maxTokens,
			JSONFormat: true,
		})
	}, condition,
		retry.WithRetryOn(types.IsStructuredOutput),
		retry.WithLogger(d.logger()))

	d.Debug.Set(stage, "attempts", outcome.Attempts)
	d.Debug.Set(stage, "model", d.Fast.Model())
	if err != nil {
		return nil, err
	}
	return outcome.Value, nil
}
