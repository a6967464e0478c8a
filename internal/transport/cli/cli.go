// Package cli is the interactive terminal surface of the match engine.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	dommatch "github.com/kailas-cloud/propmatch/internal/domain/match"
	matchuc "github.com/kailas-cloud/propmatch/internal/usecase/match"
)

// Prompts shown in interactive mode.
const (
	PromptTheme = "Enter your project theme: "
	PromptTags  = "Enter tags (comma-separated): "
)

// Suggester ranks proposals for a theme/tags query.
type Suggester interface {
	Suggest(ctx context.Context, theme, tags string, opts ...matchuc.Option) ([]dommatch.Match, error)
}

// MatchOptions configure one match run. Theme and Tags are prompted for when Interactive is set.
type MatchOptions struct {
	Theme       string
	Tags        string
	Interactive bool
	Threshold   float64
	TopK        int
}

// Matcher reads a query, runs the engine and prints the ranked list.
type Matcher struct {
	suggester Suggester
	in        *bufio.Reader
	out       io.Writer
}

// NewMatcher creates a matcher reading answers from in and writing to out.
func NewMatcher(s Suggester, in io.Reader, out io.Writer) *Matcher {
	return &Matcher{suggester: s, in: bufio.NewReader(in), out: out}
}

// Run executes one query and prints the result.
func (m *Matcher) Run(ctx context.Context, opts MatchOptions) ([]dommatch.Match, error) {
	theme, tags := opts.Theme, opts.Tags
	if opts.Interactive {
		var err error
		if theme, err = m.ask(PromptTheme); err != nil {
			return nil, err
		}
		if tags, err = m.ask(PromptTags); err != nil {
			return nil, err
		}
	}

	matches, err := m.suggester.Suggest(ctx, theme, tags,
		matchuc.WithThreshold(opts.Threshold), matchuc.WithTopK(opts.TopK))
	if err != nil {
		return nil, err
	}

	if err := PrintMatches(m.out, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// ask prints a prompt and reads one trimmed line. A final line without newline is accepted.
func (m *Matcher) ask(prompt string) (string, error) {
	if _, err := io.WriteString(m.out, prompt); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}
	line, err := m.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// PrintMatches writes the numbered result list, or a no-results notice.
func PrintMatches(w io.Writer, matches []dommatch.Match) error {
	var b strings.Builder
	b.WriteString("\n")
	if len(matches) == 0 {
		b.WriteString("No relevant proposals found.\n")
	} else {
		fmt.Fprintf(&b, "Found %d relevant proposal(s):\n", len(matches))
		for i := range matches {
			fmt.Fprintf(&b, "%d. %s — Similarity: %s\n",
				i+1, matches[i].Title(), strconv.FormatFloat(matches[i].Score(), 'f', -1, 64))
		}
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
