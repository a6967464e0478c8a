// Package match ranks corpus proposals against a theme/tags query.
package match

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propmatch/internal/domain"
	dommatch "github.com/kailas-cloud/propmatch/internal/domain/match"
	"github.com/kailas-cloud/propmatch/internal/domain/query"
	"github.com/kailas-cloud/propmatch/internal/domain/similarity"
	"github.com/kailas-cloud/propmatch/internal/logger"
	"github.com/kailas-cloud/propmatch/internal/metrics"
)

// Service is the match engine shared by the HTTP, CLI and library surfaces.
// It holds no per-request state; Suggest is safe for concurrent use.
type Service struct {
	embed     Embedder
	corpus    CorpusSource
	tagsMode  query.TagsMode
	precision int
	defaults  Params
	logger    *zap.Logger
}

// New creates a match service with threshold 0.35, top 3, split tags and
// three-digit rounding.
func New(embed Embedder, corpus CorpusSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		embed:     embed,
		corpus:    corpus,
		tagsMode:  query.TagsSplit,
		precision: similarity.DefaultPrecision,
		defaults:  Params{Threshold: DefaultThreshold, TopK: DefaultTopK},
		logger:    logger,
	}
}

// WithDefaults sets the threshold and top-K used when a request does not override them.
func (s *Service) WithDefaults(threshold float64, topK int) *Service {
	s.defaults = Params{Threshold: threshold, TopK: topK}
	return s
}

// WithTagsMode selects how tags join the theme before embedding.
func (s *Service) WithTagsMode(m query.TagsMode) *Service {
	if m.IsValid() {
		s.tagsMode = m
	}
	return s
}

// WithPrecision sets the number of decimal digits scores are rounded to (3 or 4).
func (s *Service) WithPrecision(digits int) *Service {
	if digits >= similarity.MinPrecision && digits <= similarity.MaxPrecision {
		s.precision = digits
	}
	return s
}

// Suggest returns up to TopK proposals whose rounded similarity to the query
// is at least Threshold, best first. Equal scores keep corpus order.
//
// An empty theme fails with domain.ErrThemeRequired before any embedding work.
// Provider failures are wrapped in domain.ErrMatchEngine. No match is an
// empty result, not an error.
func (s *Service) Suggest(
	ctx context.Context, theme, tags string, opts ...Option,
) ([]dommatch.Match, error) {
	params := s.defaults
	for _, o := range opts {
		o(&params)
	}
	if err := params.validate(); err != nil {
		metrics.SuggestRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	q, err := query.New(theme, tags)
	if err != nil {
		metrics.SuggestRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	log := logger.FromContextOr(ctx, s.logger)

	text, err := q.Text(s.tagsMode)
	if err != nil {
		metrics.SuggestRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build query text: %w: %w", domain.ErrMatchEngine, err)
	}

	// Pin the corpus for the whole request so a concurrent reload is not observed mid-ranking.
	c := s.corpus.Current()

	log.Info("Suggestion request",
		zap.String("theme", q.Theme()),
		zap.String("tags", q.Tags()),
		zap.String("query_text", text),
		zap.Float64("threshold", params.Threshold),
		zap.Int("top_k", params.TopK),
	)

	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		metrics.SuggestRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("vectorize query: %w: %w", domain.ErrMatchEngine, err)
	}
	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

	if dims := c.Dimensions(); dims > 0 && len(emb.Embedding) != dims {
		metrics.SuggestRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("query vector does not fit corpus: %w: %w",
			domain.ErrMatchEngine, domain.NewDimensionMismatch(len(emb.Embedding), dims))
	}

	scored := s.score(log, emb.Embedding, c.Entries(), params.Threshold)
	scored = rank(scored, params.TopK)

	outcome := "matched"
	if len(scored) == 0 {
		outcome = "empty"
		log.Info("No relevant project suggestions found")
	} else {
		log.Info("Final suggestions", zap.Strings("titles", dommatch.Titles(scored)))
	}
	metrics.SuggestRequestsTotal.WithLabelValues(outcome).Inc()
	metrics.SuggestResults.Observe(float64(len(scored)))

	return scored, nil
}
