package corpus

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// Reloader polls the corpus file and swaps in a fresh corpus when the file changes.
// A failed reload keeps the previous corpus.
type Reloader struct {
	path     string
	loader   *Loader
	holder   *Holder
	interval time.Duration
	logger   *zap.Logger
	modTime  time.Time
	onSwap   func(*Corpus)
}

// NewReloader creates a reloader. The current file modification time is taken
// as the baseline, so the first tick does not reload an unchanged file.
func NewReloader(path string, loader *Loader, holder *Holder, interval time.Duration, logger *zap.Logger) *Reloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reloader{
		path:     path,
		loader:   loader,
		holder:   holder,
		interval: interval,
		logger:   logger,
	}
	if fi, err := os.Stat(path); err == nil {
		r.modTime = fi.ModTime()
	}
	return r
}

// OnSwap registers a callback invoked after each successful swap.
func (r *Reloader) OnSwap(fn func(*Corpus)) *Reloader {
	r.onSwap = fn
	return r
}

// Run polls until ctx is done.
func (r *Reloader) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.ReloadIfChanged(); err != nil {
				r.logger.Error("Corpus reload failed, keeping previous corpus",
					zap.String("path", r.path),
					zap.Error(err),
				)
			}
		}
	}
}

// ReloadIfChanged reloads the file when its modification time moved.
// Returns true when a new corpus was swapped in.
func (r *Reloader) ReloadIfChanged() (bool, error) {
	fi, err := os.Stat(r.path)
	if err != nil {
		return false, fmt.Errorf("stat corpus: %w", err)
	}
	if !fi.ModTime().After(r.modTime) {
		return false, nil
	}

	c, report, err := r.loader.LoadFile(r.path)
	if err != nil {
		return false, err
	}
	r.modTime = fi.ModTime()

	prev := r.holder.Swap(c)
	r.logger.Info("Corpus reloaded",
		zap.Int("previous", prev.Len()),
		zap.Int("loaded", report.Loaded),
		zap.Int("skipped", len(report.Skipped)),
	)
	if r.onSwap != nil {
		r.onSwap(c)
	}
	return true, nil
}
