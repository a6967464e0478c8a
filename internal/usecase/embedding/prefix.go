package embedding

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/propmatch/internal/domain"
)

// Role is what a text is embedded as. Instruction-tuned models (e5,
// Qwen3-Embedding) want a different prefix for each.
type Role string

// Roles.
const (
	RoleQuery    Role = "query"
	RoleDocument Role = "document"
)

// Prefixed embeds texts of one role, prepending that role's instruction.
// The prefix goes in front of the already normalized text, so the cache
// below it keys on what the provider actually sees.
type Prefixed struct {
	inner  domain.Embedder
	role   Role
	prefix string
}

// NewPrefixed wraps inner for role. An empty prefix passes texts through.
func NewPrefixed(inner domain.Embedder, role Role, prefix string) *Prefixed {
	return &Prefixed{inner: inner, role: role, prefix: prefix}
}

// Embed embeds one text of the configured role.
func (p *Prefixed) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := p.inner.Embed(ctx, p.prefix+text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed %s: %w", p.role, err)
	}
	return res, nil
}

// BatchEmbed embeds texts in order, natively when inner batches.
func (p *Prefixed) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	in := texts
	if p.prefix != "" {
		in = make([]string, len(texts))
		for i, t := range texts {
			in[i] = p.prefix + t
		}
	}

	var (
		res domain.BatchEmbeddingResult
		err error
	)
	if be, ok := p.inner.(domain.BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, in)
	} else {
		res, err = embedEach(ctx, p.inner, in)
	}
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed %s: %w", p.role, err)
	}
	return res, nil
}

// embedEach embeds one text per call for providers without a batch endpoint.
// It stops at the first failure or when ctx is done.
func embedEach(ctx context.Context, e domain.Embedder, texts []string) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return domain.BatchEmbeddingResult{}, err
		}
		res, err := e.Embed(ctx, t)
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("text %d: %w", i, err)
		}
		out.Add(res)
	}
	return out, nil
}
