package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propmatch/internal/domain"
	"github.com/kailas-cloud/propmatch/internal/domain/proposal"
)

// SkipReason explains why a source record was left out of the corpus.
type SkipReason string

// Skip reasons.
const (
	ReasonMalformed         SkipReason = "malformed"
	ReasonMissingTitle      SkipReason = "missing_title"
	ReasonMissingEmbedding  SkipReason = "missing_embedding"
	ReasonDimensionMismatch SkipReason = "dimension_mismatch"
	ReasonDuplicateTitle    SkipReason = "duplicate_title"
)

// Skip records one excluded source record.
type Skip struct {
	Index  int
	Title  string
	Reason SkipReason
	Detail string
}

// Report summarizes a load.
type Report struct {
	Total      int
	Loaded     int
	Dimensions int
	Skipped    []Skip
}

// recordDTO uses pointers so a missing field is distinguishable from an empty one.
type recordDTO struct {
	Title     *string   `json:"title"`
	Embedding []float32 `json:"embedding"`
}

// Loader parses the vectorized proposal collection.
type Loader struct {
	allowEmpty   bool
	skippedTotal *prometheus.CounterVec
	logger       *zap.Logger
}

// NewLoader creates a loader. An empty result is an initialization error
// unless WithAllowEmpty is set.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// WithAllowEmpty lets a source with zero valid records load as an empty corpus.
func (l *Loader) WithAllowEmpty(allow bool) *Loader {
	l.allowEmpty = allow
	return l
}

// WithSkipCounter counts skipped records by label "reason".
func (l *Loader) WithSkipCounter(c *prometheus.CounterVec) *Loader {
	l.skippedTotal = c
	return l
}

// LoadFile opens path and loads it.
func (l *Loader) LoadFile(path string) (*Corpus, Report, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, Report{}, fmt.Errorf("open corpus %s: %w: %w", path, domain.ErrInitialization, err)
	}
	defer func() { _ = f.Close() }()

	return l.Load(f)
}

// Load reads a JSON array of {"title", "embedding"} objects.
// Invalid records are skipped and reported; only an unparsable source
// (or an empty one, see WithAllowEmpty) fails the load.
func (l *Loader) Load(r io.Reader) (*Corpus, Report, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, Report{}, fmt.Errorf("decode corpus: %w: %w", domain.ErrInitialization, err)
	}

	report := Report{Total: len(raw)}
	entries := make([]proposal.Record, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	dims := 0

	skip := func(i int, title string, reason SkipReason, detail string) {
		report.Skipped = append(report.Skipped, Skip{Index: i, Title: title, Reason: reason, Detail: detail})
		if l.skippedTotal != nil {
			l.skippedTotal.WithLabelValues(string(reason)).Inc()
		}
		l.logger.Warn("Skipping proposal",
			zap.Int("index", i),
			zap.String("title", title),
			zap.String("reason", string(reason)),
			zap.String("detail", detail),
		)
	}

	for i, msg := range raw {
		var dto recordDTO
		if err := json.Unmarshal(msg, &dto); err != nil {
			skip(i, "", ReasonMalformed, err.Error())
			continue
		}

		title := ""
		if dto.Title != nil {
			title = *dto.Title
		}
		if strings.TrimSpace(title) == "" {
			skip(i, "", ReasonMissingTitle, "")
			continue
		}

		rec, err := proposal.New(title, dto.Embedding)
		if err != nil {
			skip(i, title, ReasonMissingEmbedding, err.Error())
			continue
		}

		if dims == 0 {
			dims = rec.Dimensions()
		} else if rec.Dimensions() != dims {
			skip(i, title, ReasonDimensionMismatch, domain.NewDimensionMismatch(rec.Dimensions(), dims).Error())
			continue
		}

		if _, dup := seen[title]; dup {
			skip(i, title, ReasonDuplicateTitle, "")
			continue
		}
		seen[title] = struct{}{}

		entries = append(entries, rec)
	}

	report.Loaded = len(entries)
	report.Dimensions = dims

	if len(entries) == 0 && !l.allowEmpty {
		return nil, report, fmt.Errorf("corpus has no valid records (%d skipped): %w",
			len(report.Skipped), domain.ErrInitialization)
	}

	l.logger.Info("Loaded proposals",
		zap.Int("loaded", report.Loaded),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("dimensions", dims),
	)

	return New(entries), report, nil
}
