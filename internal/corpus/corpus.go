// Package corpus loads embedded proposals and holds them as immutable,
// process-wide state for the match engine.
package corpus

import (
	"sync/atomic"

	"github.com/kailas-cloud/propmatch/internal/domain/proposal"
)

// Corpus is an immutable, ordered collection of proposal records.
// Iteration order equals load order and is the tie-break order for equal scores.
type Corpus struct {
	entries    []proposal.Record
	dimensions int
}

// New builds a corpus from already validated records.
// All records are expected to share one dimension.
func New(entries []proposal.Record) *Corpus {
	c := &Corpus{entries: entries}
	if len(entries) > 0 {
		c.dimensions = entries[0].Dimensions()
	}
	return c
}

// Entries returns the records in load order. The slice must not be modified.
func (c *Corpus) Entries() []proposal.Record {
	if c == nil {
		return nil
	}
	return c.entries
}

// Len returns the number of records.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Dimensions returns the shared vector length, 0 for an empty corpus.
func (c *Corpus) Dimensions() int {
	if c == nil {
		return 0
	}
	return c.dimensions
}

// Holder publishes the current corpus to concurrent readers.
// Replacing the corpus is a single atomic pointer swap; readers that already
// hold the previous corpus keep iterating it unchanged.
type Holder struct {
	current atomic.Pointer[Corpus]
}

// NewHolder creates a holder with an initial corpus.
func NewHolder(c *Corpus) *Holder {
	h := &Holder{}
	h.current.Store(c)
	return h
}

// Current returns the corpus in effect.
func (h *Holder) Current() *Corpus {
	return h.current.Load()
}

// Swap replaces the corpus and returns the previous one.
func (h *Holder) Swap(c *Corpus) *Corpus {
	return h.current.Swap(c)
}
