package match

import (
	"context"

	"github.com/kailas-cloud/propmatch/internal/corpus"
	"github.com/kailas-cloud/propmatch/internal/domain"
)

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// CorpusSource yields the corpus in effect for one request.
// *corpus.Holder satisfies it; a request keeps using the corpus it started with.
type CorpusSource interface {
	Current() *corpus.Corpus
}
