package port

import (
	"context"

	"github.com/arturoeanton/authorlens/internal/domain"
)

// AuthorIndex abstracts the vector-backed author catalog. Writes are atomic:
// either the full record with a valid same-dimension embedding is stored, or
// the call fails with the store untouched.
type AuthorIndex interface {
	// CreateAuthor persists a new author with its embedding.
	CreateAuthor(ctx context.Context, a *domain.Author) (*domain.Author, error)

	// UpdateAuthor replaces an author's fields and embedding. The author's
	// Version must equal the stored version; a stale version fails with
	// ErrVersionConflict and leaves the record unchanged.
	UpdateAuthor(ctx context.Context, a *domain.Author) (*domain.Author, error)

	// GetAuthor retrieves an author by ID.
	GetAuthor(ctx context.Context, id string) (*domain.Author, error)

	// ListAuthors returns up to limit authors in insertion order.
	ListAuthors(ctx context.Context, limit int) ([]domain.Author, error)

	// DeleteAuthor removes an author by ID.
	DeleteAuthor(ctx context.Context, id string) error

	// Nearest returns up to k authors ordered by ascending distance to the
	// query vector. An empty store yields an empty slice, not an error.
	// Ties are returned in the store's natural order.
	Nearest(ctx context.Context, vector []float32, k int) ([]domain.Neighbor, error)
}
