package propmatch

import (
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Library defaults, matching the diagnostic matcher.
const (
	DefaultThreshold  = 0.65
	DefaultTopK       = 0
	DefaultPrecision  = 4
	DefaultCorpusFile = "vectorized_proposals.json"
	defaultTimeout    = 10 * time.Second
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	embedder Embedder

	apiKey              string
	baseURL             string
	model               string
	dimensions          int
	queryInstruction    string
	documentInstruction string
	timeout             time.Duration

	corpusFile   string
	corpusReader io.Reader
	allowEmpty   bool

	threshold float64
	topK      int
	precision int
	tagsMode  string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		timeout:    defaultTimeout,
		corpusFile: DefaultCorpusFile,
		threshold:  DefaultThreshold,
		topK:       DefaultTopK,
		precision:  DefaultPrecision,
		tagsMode:   "split",
	}
}

// WithEmbedder sets a custom embedding provider. It takes precedence over WithOpenAI.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAI uses an OpenAI-compatible embeddings API.
func WithOpenAI(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
		c.model = model
	})
}

// WithBaseURL points WithOpenAI at another OpenAI-compatible server (Nebius, Ollama, vLLM).
func WithBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = url
	})
}

// WithDimensions requests a reduced embedding size from models that support it.
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithInstructions sets the prefixes some models expect for documents and queries.
func WithInstructions(document, query string) Option {
	return optionFunc(func(c *clientConfig) {
		c.documentInstruction = document
		c.queryInstruction = query
	})
}

// WithTimeout bounds every embedding call. Zero disables the bound. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithCorpusFile loads the vectorized proposals from path.
// Default: vectorized_proposals.json.
func WithCorpusFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.corpusFile = path
		c.corpusReader = nil
	})
}

// WithCorpusReader loads the vectorized proposals from r instead of a file.
func WithCorpusReader(r io.Reader) Option {
	return optionFunc(func(c *clientConfig) {
		c.corpusReader = r
	})
}

// WithAllowEmpty accepts a corpus with no valid records; every query then returns nothing.
func WithAllowEmpty() Option {
	return optionFunc(func(c *clientConfig) {
		c.allowEmpty = true
	})
}

// WithThreshold sets the default minimum similarity (inclusive).
func WithThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.threshold = t
	})
}

// WithTopK caps the number of suggestions. Zero returns every match.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithPrecision sets the number of decimal digits scores are rounded to (3 or 4).
func WithPrecision(digits int) Option {
	return optionFunc(func(c *clientConfig) {
		c.precision = digits
	})
}

// WithRawTags appends the tags string to the theme as-is instead of
// splitting and rejoining it.
func WithRawTags() Option {
	return optionFunc(func(c *clientConfig) {
		c.tagsMode = "raw"
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
