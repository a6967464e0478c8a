package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/propmatch/internal/domain"
	dommatch "github.com/kailas-cloud/propmatch/internal/domain/match"
	matchuc "github.com/kailas-cloud/propmatch/internal/usecase/match"
)

// --- Mocks ---

type mockSuggester struct {
	matches []dommatch.Match
	err     error

	theme  string
	tags   string
	params matchuc.Params
}

func (m *mockSuggester) Suggest(_ context.Context, theme, tags string, opts ...matchuc.Option) ([]dommatch.Match, error) {
	m.theme, m.tags = theme, tags
	for _, o := range opts {
		o(&m.params)
	}
	if strings.TrimSpace(theme) == "" {
		return nil, domain.ErrThemeRequired
	}
	return m.matches, m.err
}

// --- Tests ---

func TestMatcher_Interactive(t *testing.T) {
	s := &mockSuggester{matches: []dommatch.Match{
		dommatch.New("Chat App", 0.912),
		dommatch.New("Team Messenger", 0.7),
	}}
	var out bytes.Buffer

	_, err := NewMatcher(s, strings.NewReader("  Messaging platform \nrealtime, mobile\n"), &out).
		Run(context.Background(), MatchOptions{Interactive: true, Threshold: 0.65})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.theme != "Messaging platform" || s.tags != "realtime, mobile" {
		t.Errorf("unexpected query %q / %q", s.theme, s.tags)
	}
	if s.params.Threshold != 0.65 || s.params.TopK != 0 {
		t.Errorf("unexpected params %+v", s.params)
	}

	want := PromptTheme + PromptTags +
		"\nFound 2 relevant proposal(s):\n" +
		"1. Chat App — Similarity: 0.912\n" +
		"2. Team Messenger — Similarity: 0.7\n"
	if out.String() != want {
		t.Errorf("output mismatch:\ngot:  %q\nwant: %q", out.String(), want)
	}
}

func TestMatcher_InteractiveEOF(t *testing.T) {
	s := &mockSuggester{}
	var out bytes.Buffer

	// tags line without trailing newline
	_, err := NewMatcher(s, strings.NewReader("Inventory\ngo"), &out).
		Run(context.Background(), MatchOptions{Interactive: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.tags != "go" {
		t.Errorf("expected last line without newline to be read, got %q", s.tags)
	}
}

func TestMatcher_EmptyThemeFromPrompt(t *testing.T) {
	var out bytes.Buffer
	_, err := NewMatcher(&mockSuggester{}, strings.NewReader(""), &out).
		Run(context.Background(), MatchOptions{Interactive: true})
	if !errors.Is(err, domain.ErrThemeRequired) {
		t.Fatalf("expected ErrThemeRequired, got %v", err)
	}
}

func TestMatcher_FlagsNoPrompt(t *testing.T) {
	s := &mockSuggester{matches: []dommatch.Match{}}
	var out bytes.Buffer

	_, err := NewMatcher(s, strings.NewReader("ignored\n"), &out).
		Run(context.Background(), MatchOptions{Theme: "Chat", Tags: "go", Threshold: 0.5, TopK: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out.String(), PromptTheme) {
		t.Error("must not prompt when theme comes from flags")
	}
	if s.params.TopK != 3 || s.params.Threshold != 0.5 {
		t.Errorf("unexpected params %+v", s.params)
	}
	if out.String() != "\nNo relevant proposals found.\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestMatcher_EngineError(t *testing.T) {
	s := &mockSuggester{err: domain.ErrMatchEngine}
	var out bytes.Buffer

	_, err := NewMatcher(s, strings.NewReader(""), &out).Run(context.Background(), MatchOptions{Theme: "x"})
	if !errors.Is(err, domain.ErrMatchEngine) {
		t.Fatalf("expected ErrMatchEngine, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("nothing should be printed on error, got %q", out.String())
	}
}
