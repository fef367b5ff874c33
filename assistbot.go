// Package assistbot enriches bot conversations with knowledge-base context
// before answer generation. A conversation enters the enrichment pipeline,
// gets classified, matched against embedded knowledge documents and leaves
// with a final system prompt constraining the answering model to the
// retrieved context.
//
// The pipeline, retrieval, provider and storage layers live in subpackages;
// this package wires them together behind a single entry point:
//
//	cfg, _ := config.Load("config.yaml")
//	store := storage.NewPostgresStore(db, logger)
//	enricher := assistbot.New(cfg, store, assistbot.WithLogger(logger))
//	messages, err := enricher.Enrich(ctx, conversation, botID, debug, nil)
package assistbot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/saninsteinn/assistbot/config"
	"github.com/saninsteinn/assistbot/embedding"
	"github.com/saninsteinn/assistbot/pipeline"
	"github.com/saninsteinn/assistbot/providers"
	"github.com/saninsteinn/assistbot/providers/factory"
	"github.com/saninsteinn/assistbot/types"
)

// Enricher is the top-level entry point. Provider instances are constructed
// fresh per enrichment call; no state is shared across requests beyond the
// store and the optional embedding cache.
type Enricher struct {
	cfg    *config.Config
	store  pipeline.KnowledgeStore
	logger *zap.Logger
	cache  redis.UniversalClient

	newProvider func(model string, cfg providers.Config, logger *zap.Logger) providers.AIProvider
	newEmbedder func(model string, cfg providers.Config) embedding.Embedder
	now         func() time.Time
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Enricher) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRedis sets the Redis client backing the embedding cache. Without it,
// and without a configured Redis address, embeddings are computed on every
// call.
func WithRedis(client redis.UniversalClient) Option {
	return func(e *Enricher) { e.cache = client }
}

// New creates an Enricher over a knowledge store.
func New(cfg *config.Config, store pipeline.KnowledgeStore, opts ...Option) *Enricher {
	e := &Enricher{
		cfg:         cfg,
		store:       store,
		logger:      zap.NewNop(),
		newProvider: factory.New,
		newEmbedder: embedding.New,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil && cfg.Redis.Addr != "" {
		e.cache = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return e
}

// Enrich runs the pipeline over the conversation for one bot and returns the
// enriched message list, ready to be handed to the strong model for final
// answer generation. debug may be nil; interrupt may be nil.
func (e *Enricher) Enrich(
	ctx context.Context,
	conversation []types.Message,
	botID uuid.UUID,
	debug *pipeline.DebugInfo,
	interrupt pipeline.InterruptFunc,
) ([]types.Message, error) {
	embedder := e.newEmbedder(e.cfg.Models.Embedding, e.cfg.Providers)
	if e.cache != nil {
		embedder = embedding.NewCached(embedder, e.cache, e.cfg.Redis.TTL, e.logger)
	}

	deps := pipeline.Deps{
		BotID:    botID,
		Fast:     e.newProvider(e.cfg.Models.Fast, e.cfg.Providers, e.logger),
		Strong:   e.newProvider(e.cfg.Models.Strong, e.cfg.Providers, e.logger),
		Embedder: embedder,
		Store:    e.store,
		Logger:   e.logger,
		Debug:    debug,
		Now:      e.now,
	}

	o := pipeline.NewOrchestrator(deps, e.cfg.Pipeline.Variant, interrupt)
	return o.Enrich(ctx, conversation)
}

// StrongProvider returns a fresh provider for the configured strong model,
// for callers generating the final answer from the enriched conversation.
func (e *Enricher) StrongProvider() providers.AIProvider {
	return e.newProvider(e.cfg.Models.Strong, e.cfg.Providers, e.logger)
}
