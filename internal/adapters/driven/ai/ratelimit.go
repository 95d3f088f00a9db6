package ai

import (
	"context"
	"math"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure RateLimitedEmbedding implements the interface.
var _ driven.EmbeddingService = (*RateLimitedEmbedding)(nil)

// RateLimitedEmbedding throttles calls to an embedding provider with a
// token bucket. Each Embed costs one token; EmbedBatch costs one token per
// text, capped at the burst size.
type RateLimitedEmbedding struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// NewRateLimitedEmbedding wraps svc with a limiter of rps requests per second.
// The burst is rps rounded up, with a minimum of one.
func NewRateLimitedEmbedding(svc driven.EmbeddingService, rps float64) *RateLimitedEmbedding {
	burst := max(int(math.Ceil(rps)), 1)
	return &RateLimitedEmbedding{
		EmbeddingService: svc,
		limiter:          rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Embed waits for a token, then embeds text.
func (r *RateLimitedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch waits for len(texts) tokens (at most the burst), then embeds.
func (r *RateLimitedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	n := min(max(len(texts), 1), r.limiter.Burst())
	if err := r.limiter.WaitN(ctx, n); err != nil {
		return nil, err
	}
	return r.EmbeddingService.EmbedBatch(ctx, texts)
}
