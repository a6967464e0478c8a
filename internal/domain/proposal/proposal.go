// Package proposal holds the embedded project proposal aggregate.
package proposal

import (
	"errors"
	"fmt"
	"strings"
)

// Record is a previously embedded proposal: a unique title and its vector.
type Record struct {
	title     string
	embedding []float32
}

// New validates a record. Title must be non-empty after trimming and the
// embedding must have at least one component.
func New(title string, embedding []float32) (Record, error) {
	if strings.TrimSpace(title) == "" {
		return Record{}, errors.New("title is required")
	}
	if len(embedding) == 0 {
		return Record{}, fmt.Errorf("embedding is required for %q", title)
	}
	return Record{title: title, embedding: embedding}, nil
}

// Title returns the proposal title.
func (r *Record) Title() string { return r.title }

// Embedding returns the stored vector. Callers must not modify it.
func (r *Record) Embedding() []float32 { return r.embedding }

// Dimensions returns the vector length.
func (r *Record) Dimensions() int { return len(r.embedding) }

// Source is an unvectorized proposal as produced by the text extractor.
type Source struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}
