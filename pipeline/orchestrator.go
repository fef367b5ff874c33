package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/saninsteinn/assistbot/types"
)

// Variant selects the deployed stage sequence.
type Variant string

const (
	// VariantDefault is the deployed pipeline: classify and retrieval run
	// concurrently, a near-duplicate known question can short-circuit
	// document selection, and fill-info packs the candidates directly.
	VariantDefault Variant = "default"

	// VariantFull additionally runs AI-driven document selection and the
	// context-sufficiency check.
	VariantFull Variant = "full"
)

// InterruptFunc is checked between stage groups. Returning true abandons the
// remaining stages immediately; the conversation is returned as-is. Used to
// drop enrichment work made stale by a newer user message.
type InterruptFunc func(ctx context.Context) bool

// Orchestrator runs the enrichment pipeline over one conversation at a time.
// Stages inside one group run concurrently and must write disjoint state
// fields.
type Orchestrator struct {
	deps      Deps
	variant   Variant
	interrupt InterruptFunc
}

// NewOrchestrator creates an orchestrator. interrupt may be nil.
func NewOrchestrator(deps Deps, variant Variant, interrupt InterruptFunc) *Orchestrator {
	if variant == "" {
		variant = VariantDefault
	}
	return &Orchestrator{deps: deps, variant: variant, interrupt: interrupt}
}

// Enrich runs the pipeline over the conversation and returns the enriched
// message list. The internal done flag skips the intermediate stages but the
// final prompt still runs; an external interrupt halts outright.
func (o *Orchestrator) Enrich(ctx context.Context, messages []types.Message) ([]types.Message, error) {
	st := NewState(messages)

	for _, group := range o.groups() {
		if err := o.runGroup(ctx, group, st); err != nil {
			return nil, err
		}
		if o.interrupt != nil && o.interrupt(ctx) {
			o.deps.logger().Info("pipeline interrupted")
			return st.Messages, nil
		}
		if st.Done {
			break
		}
	}

	if err := o.runGroup(ctx, []Stage{NewFinalPrompt(o.deps)}, st); err != nil {
		return nil, err
	}
	return st.Messages, nil
}

func (o *Orchestrator) groups() [][]Stage {
	d := o.deps
	groups := [][]Stage{
		{NewClassify(d), NewEmbeddings(d)},
		{NewInterruptIfSmallTalk(d)},
		{NewChooseKnownQuestion(d)},
	}
	if o.variant == VariantFull {
		groups = append(groups, []Stage{NewChooseDocs(d)})
	}
	groups = append(groups, []Stage{NewFillInfo(d)})
	if o.variant == VariantFull {
		groups = append(groups, []Stage{NewCheckContext(d)})
	}
	return groups
}

func (o *Orchestrator) runGroup(ctx context.Context, group []Stage, st *State) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, stage := range group {
		g.Go(func() error {
			start := time.Now()
			err := stage.Run(ctx, st)
			took := time.Since(start)
			o.deps.Debug.Set(stage.Name(), "took", took.Seconds())
			o.deps.logger().Debug("stage finished",
				zap.String("stage", stage.Name()),
				zap.Duration("took", took),
				zap.Error(err))
			if err != nil {
				return fmt.Errorf("stage %s: %w", stage.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
