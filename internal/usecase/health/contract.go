package health

import (
	"context"

	"github.com/kailas-cloud/propmatch/internal/corpus"
)

// CorpusSource exposes the corpus in effect.
type CorpusSource interface {
	Current() *corpus.Corpus
}

// CachePinger checks embedding cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
