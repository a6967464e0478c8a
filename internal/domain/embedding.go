package domain

import (
	"context"
	"fmt"
	"time"
)

// Embedder turns one normalized text into a vector. The match engine embeds
// queries through it; the corpus was built with the same model, so every
// vector it returns must have the corpus dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder embeds many proposal texts per call. Used by the vectorizer.
// Embeddings[i] belongs to texts[i].
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker is implemented by providers that can be reached without
// embedding anything (e.g. listing models).
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult is one vector plus the tokens the provider billed for it.
// A cache hit reports zero tokens.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult holds vectors in input order and the summed usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// Add appends one result, keeping the usage totals.
func (r *BatchEmbeddingResult) Add(res EmbeddingResult) {
	r.Embeddings = append(r.Embeddings, res.Embedding)
	r.PromptTokens += res.PromptTokens
	r.TotalTokens += res.TotalTokens
}

// EnsureReady probes the provider before anything is served.
// An unreachable provider is an ErrInitialization; a provider without a
// HealthChecker is taken as ready. timeout <= 0 leaves ctx unbounded.
func EnsureReady(ctx context.Context, provider any, timeout time.Duration) error {
	hc, ok := provider.(HealthChecker)
	if !ok {
		return nil
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding provider unavailable: %w: %w", ErrInitialization, err)
	}
	return nil
}
