// Package query builds the text that is embedded for a suggestion request.
package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/propmatch/internal/domain"
	"github.com/kailas-cloud/propmatch/internal/domain/text"
)

// TagsMode selects how the comma-separated tags string joins the theme.
type TagsMode string

const (
	// TagsSplit splits tags on commas, trims them, drops empties and rejoins with ", ".
	TagsSplit TagsMode = "split"
	// TagsRaw appends the tags string as-is.
	TagsRaw TagsMode = "raw"
)

// IsValid checks if the mode is one of the supported values.
func (m TagsMode) IsValid() bool {
	return m == TagsSplit || m == TagsRaw
}

// Query is a validated suggestion query.
type Query struct {
	theme string
	tags  string
}

// New trims inputs and rejects an empty theme with domain.ErrThemeRequired.
func New(theme, tags string) (Query, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return Query{}, domain.ErrThemeRequired
	}
	return Query{theme: theme, tags: strings.TrimSpace(tags)}, nil
}

// Theme returns the trimmed theme.
func (q *Query) Theme() string { return q.theme }

// Tags returns the trimmed raw tags string.
func (q *Query) Tags() string { return q.tags }

// Text returns the normalized text to embed. Normalization runs on the
// final combined string in both modes.
func (q *Query) Text(mode TagsMode) (string, error) {
	var tags string
	switch mode {
	case TagsSplit, "":
		tags = strings.Join(SplitTags(q.tags), ", ")
	case TagsRaw:
		tags = q.tags
	default:
		return "", fmt.Errorf("unknown tags mode %q", mode)
	}
	if tags == "" {
		return text.Normalize(q.theme), nil
	}
	return text.Normalize(q.theme + " " + tags), nil
}

// SplitTags splits on commas and drops blank entries.
func SplitTags(tags string) []string {
	var out []string
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
