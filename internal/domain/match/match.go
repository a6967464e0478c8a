// Package match holds per-query scoring results.
package match

// Match is a corpus entry scored against one query.
type Match struct {
	title string
	score float64
}

// New creates a match.
func New(title string, score float64) Match {
	return Match{title: title, score: score}
}

// Title returns the proposal title.
func (m *Match) Title() string { return m.title }

// Score returns the rounded cosine similarity.
func (m *Match) Score() float64 { return m.score }

// Titles projects matches onto their titles, preserving order.
func Titles(matches []Match) []string {
	out := make([]string, len(matches))
	for i := range matches {
		out[i] = matches[i].Title()
	}
	return out
}
