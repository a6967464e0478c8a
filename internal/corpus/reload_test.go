package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func setup(t *testing.T) (string, *Holder, time.Time) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vectorized_proposals.json")
	base := time.Now().Add(-time.Hour)
	writeFile(t, path, `[{"title": "Chat App", "embedding": [1, 0]}]`, base)

	c, _, err := NewLoader(nil).LoadFile(path)
	if err != nil {
		t.Fatalf("initial load: %v", err)
	}
	return path, NewHolder(c), base
}

func TestReloader_Unchanged(t *testing.T) {
	path, h, _ := setup(t)
	r := NewReloader(path, NewLoader(nil), h, time.Second, nil)

	swapped, err := r.ReloadIfChanged()
	if err != nil || swapped {
		t.Fatalf("expected no reload, got swapped=%v err=%v", swapped, err)
	}
}

func TestReloader_SwapsOnChange(t *testing.T) {
	path, h, base := setup(t)
	var notified *Corpus
	r := NewReloader(path, NewLoader(nil), h, time.Second, nil).
		OnSwap(func(c *Corpus) { notified = c })

	writeFile(t, path, `[{"title": "Chat App", "embedding": [1, 0]}, {"title": "Wiki", "embedding": [0, 1]}]`,
		base.Add(time.Minute))

	swapped, err := r.ReloadIfChanged()
	if err != nil || !swapped {
		t.Fatalf("expected reload, got swapped=%v err=%v", swapped, err)
	}
	if h.Current().Len() != 2 {
		t.Errorf("expected 2 entries after reload, got %d", h.Current().Len())
	}
	if notified != h.Current() {
		t.Error("OnSwap must receive the new corpus")
	}

	swapped, _ = r.ReloadIfChanged()
	if swapped {
		t.Error("second check without change must not reload")
	}
}

func TestReloader_KeepsPreviousOnFailure(t *testing.T) {
	path, h, base := setup(t)
	before := h.Current()
	r := NewReloader(path, NewLoader(nil), h, time.Second, nil)

	writeFile(t, path, `[{"title": "broken"`, base.Add(time.Minute))

	swapped, err := r.ReloadIfChanged()
	if err == nil || swapped {
		t.Fatalf("expected failed reload, got swapped=%v err=%v", swapped, err)
	}
	if h.Current() != before {
		t.Error("failed reload must keep the previous corpus")
	}
}

func TestReloader_RunStopsOnCancel(t *testing.T) {
	path, h, base := setup(t)
	r := NewReloader(path, NewLoader(nil), h, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	writeFile(t, path, `[{"title": "A", "embedding": [1]}, {"title": "B", "embedding": [1]}, {"title": "C", "embedding": [1]}]`,
		base.Add(time.Minute))

	deadline := time.After(2 * time.Second)
	for h.Current().Len() != 3 {
		select {
		case <-deadline:
			t.Fatal("reload did not happen")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
