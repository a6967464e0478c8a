// Package vectorize turns extracted proposal texts into the embedded corpus.
package vectorize

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/propmatch/internal/domain"
	"github.com/kailas-cloud/propmatch/internal/domain/proposal"
	"github.com/kailas-cloud/propmatch/internal/domain/text"
)

// Defaults for chunking the corpus across provider calls.
const (
	DefaultBatchSize = 64
	DefaultWorkers   = 4
)

// SkipReason explains why a proposal was not vectorized.
type SkipReason string

// Skip reasons.
const (
	ReasonMissingFields  SkipReason = "missing_fields"
	ReasonTooShort       SkipReason = "too_short"
	ReasonDuplicateTitle SkipReason = "duplicate_title"
)

// Skip records one proposal left out.
type Skip struct {
	Index  int
	Title  string
	Reason SkipReason
}

// Report summarizes a run.
type Report struct {
	Total      int
	Vectorized int
	Tokens     int
	Skipped    []Skip
}

// Service embeds proposal texts with the document embedder.
type Service struct {
	embed         domain.BatchEmbedder
	batchSize     int
	workers       int
	minTextLength int
	logger        *zap.Logger
}

// New creates a vectorizer with default batching and no minimum text length.
func New(embed domain.BatchEmbedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		embed:     embed,
		batchSize: DefaultBatchSize,
		workers:   DefaultWorkers,
		logger:    logger,
	}
}

// WithBatching sets texts per provider call and concurrent calls.
func (s *Service) WithBatching(batchSize, workers int) *Service {
	if batchSize > 0 {
		s.batchSize = batchSize
	}
	if workers > 0 {
		s.workers = workers
	}
	return s
}

// WithMinTextLength skips proposals whose trimmed text is shorter than n characters.
func (s *Service) WithMinTextLength(n int) *Service {
	s.minTextLength = n
	return s
}

type pending struct {
	title string
	text  string
}

// Run embeds normalize(title + " " + text) for every usable input, in input order.
// Any provider failure aborts the run; nothing partial is returned.
func (s *Service) Run(ctx context.Context, inputs []Input) ([]proposal.Record, Report, error) {
	report := Report{Total: len(inputs)}
	work := make([]pending, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))

	for i, in := range inputs {
		title := strings.TrimSpace(in.Title)
		body := strings.TrimSpace(in.Text)

		var reason SkipReason
		switch _, dup := seen[title]; {
		case title == "" || body == "":
			reason = ReasonMissingFields
		case len([]rune(body)) < s.minTextLength:
			reason = ReasonTooShort
		case dup:
			reason = ReasonDuplicateTitle
		}
		if reason != "" {
			report.Skipped = append(report.Skipped, Skip{Index: i, Title: title, Reason: reason})
			s.logger.Warn("Skipping proposal",
				zap.Int("index", i),
				zap.String("title", title),
				zap.String("reason", string(reason)),
			)
			continue
		}

		seen[title] = struct{}{}
		work = append(work, pending{title: title, text: text.Normalize(title + " " + body)})
	}

	vectors := make([][]float32, len(work))
	tokens := make([]int, (len(work)+s.batchSize-1)/s.batchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for chunk, start := 0, 0; start < len(work); chunk, start = chunk+1, start+s.batchSize {
		end := min(start+s.batchSize, len(work))
		g.Go(func() error {
			texts := make([]string, end-start)
			for i := range texts {
				texts[i] = work[start+i].text
			}
			res, err := s.embed.BatchEmbed(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed proposals %d-%d: %w", start, end-1, err)
			}
			if len(res.Embeddings) != len(texts) {
				return fmt.Errorf("embed proposals %d-%d: got %d embeddings for %d texts: %w",
					start, end-1, len(res.Embeddings), len(texts), domain.ErrEmbeddingProviderError)
			}
			copy(vectors[start:end], res.Embeddings)
			tokens[chunk] = res.TotalTokens
			s.logger.Debug("Vectorized chunk", zap.Int("from", start), zap.Int("to", end-1))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, report, err
	}

	records := make([]proposal.Record, 0, len(work))
	for i, w := range work {
		rec, err := proposal.New(w.title, vectors[i])
		if err != nil {
			return nil, report, fmt.Errorf("proposal %q: %w: %w", w.title, domain.ErrEmbeddingProviderError, err)
		}
		records = append(records, rec)
	}
	for _, t := range tokens {
		report.Tokens += t
	}
	report.Vectorized = len(records)

	s.logger.Info("Vectorization completed",
		zap.Int("vectorized", report.Vectorized),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("tokens", report.Tokens),
	)
	return records, report, nil
}
