package port

import (
	"errors"

	"github.com/arturoeanton/authorlens/internal/domain"
)

// Sentinel errors used across ports.
var (
	ErrInvalidQuery        = errors.New("invalid query parameters")
	ErrInvalidInput        = errors.New("invalid provider input")
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrProviderRateLimited = errors.New("ai provider rate limited")
	ErrDimensionMismatch   = errors.New("embedding dimension mismatch")
	ErrAuthorNotFound      = errors.New("author not found")
	ErrVersionConflict     = errors.New("author version conflict")
)

// RetrievalError marks a search that failed after its parameters validated.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string { return "retrieval failed: " + e.Err.Error() }
func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError marks a question whose retrieval succeeded but whose answer
// generation failed. Matches carries the retrieved context so callers can
// still surface the authors that were found.
type GenerationError struct {
	Err     error
	Matches []domain.AuthorMatch
}

func (e *GenerationError) Error() string { return "answer generation failed: " + e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// CreationError marks an author creation rejected before anything was persisted.
type CreationError struct {
	Err error
}

func (e *CreationError) Error() string { return "author creation failed: " + e.Err.Error() }
func (e *CreationError) Unwrap() error { return e.Err }

// UpdateError marks an author update rejected in full, fields unchanged.
type UpdateError struct {
	ID  string
	Err error
}

func (e *UpdateError) Error() string { return "author update rejected: " + e.Err.Error() }
func (e *UpdateError) Unwrap() error { return e.Err }
