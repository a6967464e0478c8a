package match

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/propmatch/internal/domain"
)

// Defaults used when the service is built without explicit settings.
const (
	DefaultThreshold = 0.35
	DefaultTopK      = 3
)

// Params are the per-request ranking knobs.
type Params struct {
	// Threshold is the minimum rounded similarity kept (inclusive).
	Threshold float64
	// TopK caps the result length. Zero disables the cap.
	TopK int
}

// Option overrides one of the service defaults for a single request.
type Option func(*Params)

// WithThreshold sets the minimum similarity for this request.
func WithThreshold(t float64) Option {
	return func(p *Params) { p.Threshold = t }
}

// WithTopK sets the result cap for this request. Zero returns every match.
func WithTopK(k int) Option {
	return func(p *Params) { p.TopK = k }
}

func (p Params) validate() error {
	if math.IsNaN(p.Threshold) || math.IsInf(p.Threshold, 0) {
		return fmt.Errorf("threshold must be a finite number: %w", domain.ErrValidation)
	}
	if p.TopK < 0 {
		return fmt.Errorf("top_k must not be negative, got %d: %w", p.TopK, domain.ErrValidation)
	}
	return nil
}
