// propmatch is the terminal surface of the project matcher.
//
// Использование:
//
//	propmatch [match] [-theme "..." -tags "a, b"] [-threshold 0.65] [-top-k 0]
//	propmatch vectorize [-in proposals.json] [-out vectorized_proposals.json]
//	propmatch version
//
// Without -theme the match command prompts for theme and tags.
// Configuration comes from config/<ENV>.yaml and a .env file, as for the API.
//
// Env vars:
//
//	ENV             config name (default: local)
//	OPENAI_API_KEY  embedding provider key
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propmatch/internal/config"
	"github.com/kailas-cloud/propmatch/internal/corpus"
	"github.com/kailas-cloud/propmatch/internal/domain"
	"github.com/kailas-cloud/propmatch/internal/domain/proposal"
	"github.com/kailas-cloud/propmatch/internal/domain/query"
	logpkg "github.com/kailas-cloud/propmatch/internal/logger"
	"github.com/kailas-cloud/propmatch/internal/transport/cli"
	openaiEmb "github.com/kailas-cloud/propmatch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/propmatch/internal/usecase/embedding"
	matchuc "github.com/kailas-cloud/propmatch/internal/usecase/match"
	"github.com/kailas-cloud/propmatch/internal/usecase/vectorize"
	"github.com/kailas-cloud/propmatch/internal/version"
)

const (
	cmdMatch     = "match"
	cmdVectorize = "vectorize"
	cmdVersion   = "version"
)

func main() {
	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGTERM, syscall.SIGINT,
	)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		cancel()
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

type matchFlags struct {
	theme     string
	tags      string
	threshold float64
	topK      int
}

type vectorizeFlags struct {
	in            string
	out           string
	minTextLength int
	batchSize     int
	workers       int
}

// parseMatchFlags parses match flags. Negative threshold/top-k mean "use config".
func parseMatchFlags(args []string) (matchFlags, error) {
	f := matchFlags{}
	fs := flag.NewFlagSet(cmdMatch, flag.ContinueOnError)
	fs.StringVar(&f.theme, "theme", "", "project theme (prompted when empty)")
	fs.StringVar(&f.tags, "tags", "", "comma-separated tags")
	fs.Float64Var(&f.threshold, "threshold", -1, "minimum similarity (default: match.cli_threshold)")
	fs.IntVar(&f.topK, "top-k", -1, "max results, 0 = all (default: match.cli_top_k)")
	if err := fs.Parse(args); err != nil {
		return matchFlags{}, err
	}
	return f, nil
}

// parseVectorizeFlags parses vectorize flags. Empty paths and negative numbers mean "use config".
func parseVectorizeFlags(args []string) (vectorizeFlags, error) {
	f := vectorizeFlags{}
	fs := flag.NewFlagSet(cmdVectorize, flag.ContinueOnError)
	fs.StringVar(&f.in, "in", "", "proposal texts, JSON [{title, text}] (default: corpus.source_path)")
	fs.StringVar(&f.out, "out", "", "output corpus (default: corpus.path)")
	fs.IntVar(&f.minTextLength, "min-text-length", -1, "skip texts shorter than this (default: corpus.min_text_length)")
	fs.IntVar(&f.batchSize, "batch-size", vectorize.DefaultBatchSize, "texts per provider call")
	fs.IntVar(&f.workers, "workers", vectorize.DefaultWorkers, "parallel provider calls")
	if err := fs.Parse(args); err != nil {
		return vectorizeFlags{}, err
	}
	return f, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := cmdMatch
	if len(args) > 0 {
		switch args[0] {
		case cmdVersion:
			_, err := fmt.Fprintln(stdout, version.String())
			return err
		case cmdMatch, cmdVectorize:
			cmd, args = args[0], args[1:]
		}
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewCLILogger(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cmd == cmdVectorize {
		f, err := parseVectorizeFlags(args)
		if err != nil {
			return err
		}
		return runVectorize(ctx, cfg, f, stdout, logger)
	}

	f, err := parseMatchFlags(args)
	if err != nil {
		return err
	}
	return runMatch(ctx, cfg, f, stdin, stdout, logger)
}

func runMatch(
	ctx context.Context, cfg config.Config, f matchFlags,
	stdin io.Reader, stdout io.Writer, logger *zap.Logger,
) error {
	loaded, _, err := corpus.NewLoader(logger).
		WithAllowEmpty(cfg.Corpus.AllowEmpty).
		LoadFile(cfg.Corpus.Path)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	embedder, err := newEmbedder(ctx, cfg.Embedding, embeddinguc.RoleQuery, logger)
	if err != nil {
		return err
	}
	engine := matchuc.New(embedder, corpus.NewHolder(loaded), logger).
		WithDefaults(cfg.Match.CLIThreshold, cfg.Match.CLITopK).
		WithTagsMode(query.TagsMode(cfg.Match.TagsMode)).
		WithPrecision(cfg.Match.Precision)

	opts := cli.MatchOptions{
		Theme:       f.theme,
		Tags:        f.tags,
		Interactive: f.theme == "",
		Threshold:   cfg.Match.CLIThreshold,
		TopK:        cfg.Match.CLITopK,
	}
	if f.threshold >= 0 {
		opts.Threshold = f.threshold
	}
	if f.topK >= 0 {
		opts.TopK = f.topK
	}

	if _, err := cli.NewMatcher(engine, stdin, stdout).Run(ctx, opts); err != nil {
		if errors.Is(err, domain.ErrThemeRequired) {
			return errors.New("theme is required")
		}
		return fmt.Errorf("match: %w", err)
	}
	return nil
}

func runVectorize(
	ctx context.Context, cfg config.Config, f vectorizeFlags,
	stdout io.Writer, logger *zap.Logger,
) error {
	start := time.Now()

	in := f.in
	if in == "" {
		in = cfg.Corpus.SourcePath
	}
	out := f.out
	if out == "" {
		out = cfg.Corpus.Path
	}
	minLen := cfg.Corpus.MinTextLength
	if f.minTextLength >= 0 {
		minLen = f.minTextLength
	}

	inputs, err := vectorize.ReadSourcesFile(in)
	if err != nil {
		return err
	}

	embedder, err := newEmbedder(ctx, cfg.Embedding, embeddinguc.RoleDocument, logger)
	if err != nil {
		return err
	}

	records, report, err := vectorize.New(embedder, logger).
		WithBatching(f.batchSize, f.workers).
		WithMinTextLength(minLen).
		Run(ctx, inputs)
	if err != nil {
		return fmt.Errorf("vectorize: %w", err)
	}

	if err := writeCorpus(out, records); err != nil {
		return err
	}

	_, err = fmt.Fprintf(stdout,
		"Vectorized %d of %d proposals into %s (%d skipped, %d tokens, %s)\n",
		report.Vectorized, report.Total, out, len(report.Skipped), report.Tokens,
		time.Since(start).Round(time.Millisecond))
	return err
}

// writeCorpus writes to a temp file and renames it, so a running server
// never reloads a half-written corpus.
func writeCorpus(path string, records []proposal.Record) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp) //nolint:gosec // operator-supplied output path
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if err := corpus.Write(f, records); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// newEmbedder assembles OpenAI -> Instrumented -> Prefixed for role and
// fails fast when the provider does not answer.
func newEmbedder(
	ctx context.Context, embCfg config.EmbeddingConfig, role embeddinguc.Role, logger *zap.Logger,
) (*embeddinguc.Prefixed, error) {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     embCfg.APIKey,
		BaseURL:    embCfg.BaseURL,
		Model:      embCfg.Model,
		Dimensions: embCfg.Dimensions,
		Provider:   embCfg.Provider,
		Logger:     logger,
	})
	timeout := time.Duration(embCfg.TimeoutSec) * time.Second
	if err := domain.EnsureReady(ctx, base, timeout); err != nil {
		return nil, err
	}

	inst := embeddinguc.NewInstrumentedEmbedder(base, embCfg.Provider, embCfg.Model, logger).
		WithTimeout(timeout).
		WithRateLimit(embCfg.RateLimitRPS, embCfg.RateLimitBurst)

	prefix := embCfg.QueryInstruction
	if role == embeddinguc.RoleDocument {
		prefix = embCfg.DocumentInstruction
	}
	return embeddinguc.NewPrefixed(inst, role, prefix), nil
}
