package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a missing or malformed user-supplied field.
	ErrValidation = errors.New("validation failed")
	// ErrThemeRequired signals an empty theme after trimming.
	ErrThemeRequired = fmt.Errorf("theme is required: %w", ErrValidation)
	// ErrInitialization signals that the corpus or the embedding provider could not be loaded.
	ErrInitialization = errors.New("initialization failed")
	// ErrDimensionMismatch signals vectors of different length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrMatchEngine signals a failure while serving a single suggestion request.
	ErrMatchEngine = errors.New("match engine error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// DimensionMismatchError carries both vector lengths.
type DimensionMismatchError struct {
	Left  int
	Right int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: %d vs %d", ErrDimensionMismatch.Error(), e.Left, e.Right)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(left, right int) error {
	return &DimensionMismatchError{Left: left, Right: right}
}
