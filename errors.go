package propmatch

import "github.com/kailas-cloud/propmatch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation             = domain.ErrValidation
	ErrThemeRequired          = domain.ErrThemeRequired
	ErrInitialization         = domain.ErrInitialization
	ErrDimensionMismatch      = domain.ErrDimensionMismatch
	ErrMatchEngine            = domain.ErrMatchEngine
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
