package corpus

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/propmatch/internal/domain"
	"github.com/kailas-cloud/propmatch/internal/domain/proposal"
)

func newSkipCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_corpus_skipped_total",
	}, []string{"reason"})
}

func TestLoad_Valid(t *testing.T) {
	src := `[
		{"title": "Chat App", "embedding": [1, 0, 0]},
		{"title": "Inventory System", "embedding": [0, 1, 0]}
	]`

	c, report, err := NewLoader(nil).Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 2 || c.Dimensions() != 3 {
		t.Fatalf("expected 2 entries of 3 dims, got %d/%d", c.Len(), c.Dimensions())
	}
	entries := c.Entries()
	if entries[0].Title() != "Chat App" || entries[1].Title() != "Inventory System" {
		t.Errorf("load order not preserved: %q, %q", entries[0].Title(), entries[1].Title())
	}
	if report.Total != 2 || report.Loaded != 2 || len(report.Skipped) != 0 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestLoad_SkipsInvalidRecords(t *testing.T) {
	tests := []struct {
		name   string
		record string
		reason SkipReason
	}{
		{"missing embedding", `{"title": "No Vector"}`, ReasonMissingEmbedding},
		{"empty embedding", `{"title": "No Vector", "embedding": []}`, ReasonMissingEmbedding},
		{"missing title", `{"embedding": [1, 1, 0]}`, ReasonMissingTitle},
		{"blank title", `{"title": "  ", "embedding": [1, 1, 0]}`, ReasonMissingTitle},
		{"wrong types", `{"title": 42, "embedding": "x"}`, ReasonMalformed},
		{"not an object", `"just a string"`, ReasonMalformed},
		{"other dimension", `{"title": "Short", "embedding": [1, 0]}`, ReasonDimensionMismatch},
		{"duplicate", `{"title": "Chat App", "embedding": [0, 0, 1]}`, ReasonDuplicateTitle},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			counter := newSkipCounter()
			src := `[{"title": "Chat App", "embedding": [1, 0, 0]}, ` + tc.record + `]`

			c, report, err := NewLoader(nil).WithSkipCounter(counter).Load(strings.NewReader(src))
			if err != nil {
				t.Fatalf("one bad record must not fail the load: %v", err)
			}
			if c.Len() != 1 || c.Entries()[0].Title() != "Chat App" {
				t.Fatalf("expected only Chat App, got %d entries", c.Len())
			}
			if len(report.Skipped) != 1 {
				t.Fatalf("expected one skip, got %+v", report.Skipped)
			}
			skip := report.Skipped[0]
			if skip.Index != 1 || skip.Reason != tc.reason {
				t.Errorf("expected index 1 reason %s, got %+v", tc.reason, skip)
			}
			if got := testutil.ToFloat64(counter.WithLabelValues(string(tc.reason))); got != 1 {
				t.Errorf("expected skip counter 1, got %v", got)
			}
		})
	}
}

func TestLoad_FirstRecordSetsDimension(t *testing.T) {
	src := `[
		{"title": "Broken"},
		{"title": "A", "embedding": [1, 0]},
		{"title": "B", "embedding": [1, 0, 0]},
		{"title": "C", "embedding": [0, 1]}
	]`

	c, report, err := NewLoader(nil).Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Dimensions() != 2 || c.Len() != 2 {
		t.Fatalf("expected A and C at 2 dims, got %d entries at %d", c.Len(), c.Dimensions())
	}
	if report.Dimensions != 2 || len(report.Skipped) != 2 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestLoad_EmptySource(t *testing.T) {
	for _, src := range []string{`[]`, `[{"title": "x"}, {"embedding": [1]}]`} {
		_, _, err := NewLoader(nil).Load(strings.NewReader(src))
		if !errors.Is(err, domain.ErrInitialization) {
			t.Errorf("source %s: expected ErrInitialization, got %v", src, err)
		}
	}
}

func TestLoad_AllowEmpty(t *testing.T) {
	c, report, err := NewLoader(nil).WithAllowEmpty(true).Load(strings.NewReader(`[]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil || c.Len() != 0 || report.Loaded != 0 {
		t.Errorf("expected empty corpus, got %+v", report)
	}
}

func TestLoad_Unparsable(t *testing.T) {
	for _, src := range []string{``, `{"title": "x"}`, `[{"title": `, `null garbage`} {
		_, _, err := NewLoader(nil).WithAllowEmpty(true).Load(strings.NewReader(src))
		if !errors.Is(err, domain.ErrInitialization) {
			t.Errorf("source %q: expected ErrInitialization, got %v", src, err)
		}
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, _, err := NewLoader(nil).LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, domain.ErrInitialization) {
		t.Fatalf("expected ErrInitialization, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestWrite_LoadsBack(t *testing.T) {
	a, _ := proposal.New("Chat App", []float32{0.25, -0.5, 1})
	b, _ := proposal.New("Inventory System", []float32{0, 1, 0.125})

	var buf bytes.Buffer
	if err := Write(&buf, []proposal.Record{a, b}); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, _, err := NewLoader(nil).Load(&buf)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	got := c.Entries()[0].Embedding()
	if got[0] != 0.25 || got[1] != -0.5 || got[2] != 1 {
		t.Errorf("embedding changed: %v", got)
	}
}

func TestHolder_Swap(t *testing.T) {
	a, _ := proposal.New("A", []float32{1})
	b, _ := proposal.New("B", []float32{1})
	first := New([]proposal.Record{a})
	h := NewHolder(first)

	pinned := h.Current()
	prev := h.Swap(New([]proposal.Record{a, b}))

	if prev != first {
		t.Error("Swap must return the previous corpus")
	}
	if h.Current().Len() != 2 {
		t.Errorf("expected new corpus, got %d entries", h.Current().Len())
	}
	if pinned.Len() != 1 {
		t.Error("a pinned corpus must not change after swap")
	}
}

func TestCorpus_NilSafe(t *testing.T) {
	var c *Corpus
	if c.Len() != 0 || c.Dimensions() != 0 || c.Entries() != nil {
		t.Error("nil corpus must read as empty")
	}
}
