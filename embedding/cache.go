package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultCacheTTL bounds how long a cached vector stays valid.
const DefaultCacheTTL = 30 * 24 * time.Hour

// CachedEmbedder wraps an Embedder with a Redis cache keyed by model and
// text. Cache failures degrade to computing the vector; they never fail the
// request.
type CachedEmbedder struct {
	inner  Embedder
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached wraps inner with a Redis cache.
func NewCached(inner Embedder, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *CachedEmbedder {
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (c *CachedEmbedder) Model() string { return c.inner.Model() }

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(c.inner.Model() + "\x00" + text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

// Embeddings serves cached vectors where possible and computes only the
// misses, preserving input order.
func (c *CachedEmbedder) Embeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		data, err := c.client.Get(ctx, c.key(text)).Bytes()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				c.logger.Warn("embedding cache read failed", zap.Error(err))
			}
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, text)
			continue
		}
		var vec []float32
		if err := json.Unmarshal(data, &vec); err != nil {
			c.logger.Warn("corrupt embedding cache entry", zap.Error(err))
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, text)
			continue
		}
		out[i] = vec
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	computed, err := c.inner.Embeddings(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(computed) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(computed), len(missTexts))
	}

	for j, i := range missIdx {
		out[i] = computed[j]
		data, err := json.Marshal(computed[j])
		if err != nil {
			continue
		}
		if err := c.client.Set(ctx, c.key(missTexts[j]), data, c.ttl).Err(); err != nil {
			c.logger.Warn("embedding cache write failed", zap.Error(err))
		}
	}
	return out, nil
}
