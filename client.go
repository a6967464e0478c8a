package propmatch

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propmatch/internal/corpus"
	"github.com/kailas-cloud/propmatch/internal/domain"
	"github.com/kailas-cloud/propmatch/internal/domain/query"
	"github.com/kailas-cloud/propmatch/internal/domain/similarity"
	"github.com/kailas-cloud/propmatch/internal/transport/openai"
	"github.com/kailas-cloud/propmatch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/propmatch/internal/usecase/health"
	matchuc "github.com/kailas-cloud/propmatch/internal/usecase/match"
	"github.com/kailas-cloud/propmatch/internal/usecase/vectorize"
)

// Suggestion is one recommended proposal.
type Suggestion struct {
	Title string
	Score float64
}

// Document is a proposal text to vectorize.
type Document struct {
	Title string
	Text  string
}

// VectorizeReport summarizes a Vectorize run.
type VectorizeReport struct {
	Total      int
	Vectorized int
	Skipped    int
	Tokens     int
}

// HealthStatus represents the aggregated client health.
type HealthStatus struct {
	Status  string            // "ok", "degraded", "error"
	Checks  map[string]string // component → "ok"/"empty"/"error"
	Entries int
}

// SuggestOption overrides a client default for one Suggest call.
type SuggestOption func(*[]matchuc.Option)

// SuggestThreshold sets the minimum similarity for one call.
func SuggestThreshold(t float64) SuggestOption {
	return func(o *[]matchuc.Option) { *o = append(*o, matchuc.WithThreshold(t)) }
}

// SuggestTopK caps the result length for one call. Zero returns every match.
func SuggestTopK(k int) SuggestOption {
	return func(o *[]matchuc.Option) { *o = append(*o, matchuc.WithTopK(k)) }
}

// Client matches themes against a loaded proposal corpus.
// It is safe for concurrent use.
type Client struct {
	cfg      *clientConfig
	holder   *corpus.Holder
	loader   *corpus.Loader
	engine   *matchuc.Service
	health   *healthuc.Service
	document domain.BatchEmbedder
	obs      *observer
}

// New builds the embedding provider, loads the corpus and returns a ready client.
// An unreachable provider, or a corpus that cannot be read or has no valid
// records, fails with ErrInitialization.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	base, provider, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	readyStart := time.Now()
	if err := domain.EnsureReady(ctx, base, cfg.timeout); err != nil {
		obs.observe("init", readyStart, err, "provider", provider)
		return nil, err
	}
	inst := embedding.NewInstrumentedEmbedder(base, provider, cfg.model, zap.NewNop()).
		WithTimeout(cfg.timeout)

	queryEmbed := embedding.NewPrefixed(inst, embedding.RoleQuery, cfg.queryInstruction)
	docEmbed := embedding.NewPrefixed(inst, embedding.RoleDocument, cfg.documentInstruction)

	c := &Client{
		cfg:      cfg,
		loader:   corpus.NewLoader(zap.NewNop()).WithAllowEmpty(cfg.allowEmpty),
		document: docEmbed,
		obs:      obs,
	}

	start := time.Now()
	loaded, err := c.load()
	obs.observe("load", start, err)
	if err != nil {
		return nil, err
	}
	c.holder = corpus.NewHolder(loaded)

	c.engine = matchuc.New(queryEmbed, c.holder, zap.NewNop()).
		WithDefaults(cfg.threshold, cfg.topK).
		WithTagsMode(query.TagsMode(cfg.tagsMode)).
		WithPrecision(cfg.precision)

	var checker healthuc.EmbeddingChecker
	if hc, ok := base.(domain.HealthChecker); ok {
		checker = hc
	}
	c.health = healthuc.New(c.holder, nil, checker)

	return c, nil
}

func (cfg *clientConfig) validate() error {
	if cfg.embedder == nil && cfg.model == "" {
		return fmt.Errorf("embedder or openai model is required: %w", ErrValidation)
	}
	if cfg.topK < 0 {
		return fmt.Errorf("top_k must not be negative, got %d: %w", cfg.topK, ErrValidation)
	}
	if cfg.precision < similarity.MinPrecision || cfg.precision > similarity.MaxPrecision {
		return fmt.Errorf("precision must be %d or %d, got %d: %w",
			similarity.MinPrecision, similarity.MaxPrecision, cfg.precision, ErrValidation)
	}
	if !query.TagsMode(cfg.tagsMode).IsValid() {
		return fmt.Errorf("unknown tags mode %q: %w", cfg.tagsMode, ErrValidation)
	}
	if cfg.timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %w", ErrValidation)
	}
	return nil
}

func buildEmbedder(cfg *clientConfig) (domain.Embedder, string, error) {
	if cfg.embedder != nil {
		return adaptEmbedder(cfg.embedder), "custom", nil
	}
	if strings.TrimSpace(cfg.apiKey) == "" {
		return nil, "", fmt.Errorf("openai api key is empty: %w", ErrInitialization)
	}
	return openai.NewEmbedder(&openai.Config{
		APIKey:     cfg.apiKey,
		BaseURL:    cfg.baseURL,
		Model:      cfg.model,
		Dimensions: cfg.dimensions,
		Provider:   "openai",
		Logger:     zap.NewNop(),
	}), "openai", nil
}

func (c *Client) load() (*corpus.Corpus, error) {
	var (
		loaded *corpus.Corpus
		report corpus.Report
		err    error
	)
	if c.cfg.corpusReader != nil {
		loaded, report, err = c.loader.Load(c.cfg.corpusReader)
	} else {
		loaded, report, err = c.loader.LoadFile(c.cfg.corpusFile)
	}
	if err != nil {
		return nil, err
	}
	c.obs.corpusLoaded(report.Loaded, len(report.Skipped))
	return loaded, nil
}

// Suggest returns proposals similar to theme plus tags, best first.
// An empty theme fails with ErrThemeRequired; no match is an empty slice.
func (c *Client) Suggest(ctx context.Context, theme, tags string, opts ...SuggestOption) ([]Suggestion, error) {
	start := time.Now()

	var mopts []matchuc.Option
	for _, o := range opts {
		o(&mopts)
	}

	matches, err := c.engine.Suggest(ctx, theme, tags, mopts...)
	c.obs.observe("suggest", start, err, "results", len(matches))
	if err != nil {
		return nil, err
	}

	out := make([]Suggestion, len(matches))
	for i := range matches {
		out[i] = Suggestion{Title: matches[i].Title(), Score: matches[i].Score()}
	}
	return out, nil
}

// Reload re-reads the corpus file and swaps it in. In-flight Suggest calls
// finish on the corpus they started with. On failure the current corpus stays.
// Clients built WithCorpusReader cannot reload.
func (c *Client) Reload(_ context.Context) error {
	start := time.Now()
	if c.cfg.corpusReader != nil {
		err := fmt.Errorf("corpus was read from a stream: %w", ErrValidation)
		c.obs.observe("reload", start, err)
		return err
	}
	loaded, err := c.load()
	c.obs.observe("reload", start, err)
	if err != nil {
		return err
	}
	c.holder.Swap(loaded)
	return nil
}

// Len returns the number of proposals in the current corpus.
func (c *Client) Len() int {
	return c.holder.Current().Len()
}

// Health reports corpus state and embedding provider reachability.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:  string(report.Status),
		Checks:  checks,
		Entries: report.Entries,
	}
}

// Vectorize embeds docs with the document embedder and writes a corpus to w
// in the format New reads. Nothing is written if any provider call fails.
func (c *Client) Vectorize(ctx context.Context, docs []Document, w io.Writer) (VectorizeReport, error) {
	start := time.Now()

	inputs := make([]vectorize.Input, len(docs))
	for i, d := range docs {
		inputs[i] = vectorize.Input{Title: d.Title, Text: d.Text}
	}

	records, report, err := vectorize.New(c.document, zap.NewNop()).Run(ctx, inputs)
	if err == nil {
		err = corpus.Write(w, records)
	}
	c.obs.observe("vectorize", start, err, "vectorized", report.Vectorized)
	if err != nil {
		return VectorizeReport{}, err
	}

	return VectorizeReport{
		Total:      report.Total,
		Vectorized: report.Vectorized,
		Skipped:    len(report.Skipped),
		Tokens:     report.Tokens,
	}, nil
}

// VectorizeFile writes the corpus for docs to path. The file is removed on failure.
func (c *Client) VectorizeFile(ctx context.Context, docs []Document, path string) (VectorizeReport, error) {
	f, err := os.Create(path) //nolint:gosec // caller-supplied output path
	if err != nil {
		return VectorizeReport{}, fmt.Errorf("create %s: %w", path, err)
	}
	report, err := c.Vectorize(ctx, docs, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", path, cerr)
	}
	if err != nil {
		_ = os.Remove(path)
		return VectorizeReport{}, err
	}
	return report, nil
}
