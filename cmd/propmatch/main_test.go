package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/propmatch/internal/corpus"
	"github.com/kailas-cloud/propmatch/internal/domain/proposal"
	"github.com/kailas-cloud/propmatch/internal/usecase/vectorize"
)

func TestParseMatchFlags(t *testing.T) {
	f, err := parseMatchFlags([]string{"-theme", "Chat app", "-tags", "mobile, realtime", "-top-k", "2"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.theme != "Chat app" || f.tags != "mobile, realtime" {
		t.Errorf("theme/tags = %q/%q", f.theme, f.tags)
	}
	if f.topK != 2 {
		t.Errorf("topK = %d, want 2", f.topK)
	}
	if f.threshold >= 0 {
		t.Errorf("unset threshold should stay negative, got %v", f.threshold)
	}
}

func TestParseMatchFlags_Unknown(t *testing.T) {
	if _, err := parseMatchFlags([]string{"-bogus"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestParseVectorizeFlags_Defaults(t *testing.T) {
	f, err := parseVectorizeFlags(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.in != "" || f.out != "" {
		t.Errorf("paths should default to config, got in=%q out=%q", f.in, f.out)
	}
	if f.minTextLength != -1 {
		t.Errorf("minTextLength = %d, want -1", f.minTextLength)
	}
	if f.batchSize != vectorize.DefaultBatchSize || f.workers != vectorize.DefaultWorkers {
		t.Errorf("batching = %d/%d", f.batchSize, f.workers)
	}
}

func TestWriteCorpus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectorized_proposals.json")

	rec, err := proposal.New("Chat App", []float32{1, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if err := writeCorpus(path, []proposal.Record{rec}); err != nil {
		t.Fatalf("writeCorpus: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}

	c, _, err := corpus.NewLoader(nil).LoadFile(path)
	if err != nil {
		t.Fatalf("load written corpus: %v", err)
	}
	if c.Len() != 1 || c.Entries()[0].Title() != "Chat App" {
		t.Errorf("loaded %d entries", c.Len())
	}
}

func TestWriteCorpus_BadDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.json")
	err := writeCorpus(path, nil)
	if err == nil || !strings.Contains(err.Error(), "create") {
		t.Fatalf("expected create error, got %v", err)
	}
}

func TestRun_Version(t *testing.T) {
	var out strings.Builder
	if err := run(t.Context(), []string{"version"}, strings.NewReader(""), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out.String(), "propmatch ") {
		t.Errorf("output = %q", out.String())
	}
}
