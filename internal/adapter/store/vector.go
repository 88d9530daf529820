package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/arturoeanton/authorlens/internal/domain"
	"github.com/arturoeanton/authorlens/internal/port"
)

// AuthorStore implements port.AuthorIndex on top of Postgres with pgvector.
type AuthorStore struct {
	store *PostgresStore
	spec  domain.IndexSpec
}

// NewAuthorStore creates an author index backed by the given Postgres store.
func NewAuthorStore(store *PostgresStore, spec domain.IndexSpec) *AuthorStore {
	return &AuthorStore{store: store, spec: spec}
}

// CreateAuthor persists a new author row together with its embedding.
func (s *AuthorStore) CreateAuthor(ctx context.Context, a *domain.Author) (*domain.Author, error) {
	if err := s.checkDimension(a.Embedding); err != nil {
		return nil, err
	}

	query := `INSERT INTO authors (id, name, email, bio, expertise, embedding, embedding_text, embedding_hash, version)
	          VALUES ($1, $2, $3, $4, $5, $6::vector, $7, $8, 1)
	          RETURNING id, name, email, bio, expertise, embedding_text, embedding_hash, version, created_at, updated_at`

	row := s.store.db.QueryRowContext(ctx, query,
		a.ID, a.Name, a.Email, a.Bio, a.Expertise,
		vectorToString(a.Embedding), a.EmbeddingText, a.EmbeddingHash,
	)

	created, err := scanAuthor(row)
	if err != nil {
		return nil, fmt.Errorf("create author: %w", err)
	}
	created.Embedding = a.Embedding
	return created, nil
}

// UpdateAuthor replaces an author's fields under compare-and-swap on version.
// A nil Embedding leaves the stored vector and its source text untouched.
func (s *AuthorStore) UpdateAuthor(ctx context.Context, a *domain.Author) (*domain.Author, error) {
	var row *sql.Row
	if a.Embedding != nil {
		if err := s.checkDimension(a.Embedding); err != nil {
			return nil, err
		}
		query := `UPDATE authors
		          SET name = $1, email = $2, bio = $3, expertise = $4,
		              embedding = $5::vector, embedding_text = $6, embedding_hash = $7,
		              version = version + 1, updated_at = NOW()
		          WHERE id = $8 AND version = $9
		          RETURNING id, name, email, bio, expertise, embedding_text, embedding_hash, version, created_at, updated_at`
		row = s.store.db.QueryRowContext(ctx, query,
			a.Name, a.Email, a.Bio, a.Expertise,
			vectorToString(a.Embedding), a.EmbeddingText, a.EmbeddingHash,
			a.ID, a.Version,
		)
	} else {
		query := `UPDATE authors
		          SET name = $1, email = $2, bio = $3, expertise = $4,
		              version = version + 1, updated_at = NOW()
		          WHERE id = $5 AND version = $6
		          RETURNING id, name, email, bio, expertise, embedding_text, embedding_hash, version, created_at, updated_at`
		row = s.store.db.QueryRowContext(ctx, query,
			a.Name, a.Email, a.Bio, a.Expertise, a.ID, a.Version,
		)
	}

	updated, err := scanAuthor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.missingOrConflict(ctx, a.ID)
		}
		return nil, fmt.Errorf("update author: %w", err)
	}
	updated.Embedding = a.Embedding
	return updated, nil
}

// GetAuthor retrieves an author by ID. The stored vector itself is not loaded;
// freshness checks use the embedding source text hash.
func (s *AuthorStore) GetAuthor(ctx context.Context, id string) (*domain.Author, error) {
	query := `SELECT id, name, email, bio, expertise, embedding_text, embedding_hash, version, created_at, updated_at
	          FROM authors WHERE id = $1`

	a, err := scanAuthor(s.store.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, port.ErrAuthorNotFound
		}
		return nil, fmt.Errorf("get author: %w", err)
	}
	return a, nil
}

// ListAuthors returns up to limit authors, oldest first.
func (s *AuthorStore) ListAuthors(ctx context.Context, limit int) ([]domain.Author, error) {
	query := `SELECT id, name, email, bio, expertise, embedding_text, embedding_hash, version, created_at, updated_at
	          FROM authors ORDER BY created_at LIMIT $1`

	rows, err := s.store.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	var authors []domain.Author
	for rows.Next() {
		var a domain.Author
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Email, &a.Bio, &a.Expertise,
			&a.EmbeddingText, &a.EmbeddingHash, &a.Version, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

// DeleteAuthor removes an author by ID.
func (s *AuthorStore) DeleteAuthor(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete author: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return port.ErrAuthorNotFound
	}
	return nil
}

// Nearest returns up to k authors ordered by ascending distance to the query
// vector, using the operator matching the configured metric.
func (s *AuthorStore) Nearest(ctx context.Context, vector []float32, k int) ([]domain.Neighbor, error) {
	if err := s.checkDimension(vector); err != nil {
		return nil, err
	}

	op := "<=>"
	if s.spec.Metric == domain.MetricL2 {
		op = "<->"
	}
	query := fmt.Sprintf(`SELECT id, name, email, bio, expertise, embedding_text, embedding_hash, version, created_at, updated_at,
	                 embedding %s $1::vector AS distance
	          FROM authors
	          WHERE embedding IS NOT NULL
	          ORDER BY embedding %s $1::vector
	          LIMIT $2`, op, op)

	rows, err := s.store.db.QueryContext(ctx, query, vectorToString(vector), k)
	if err != nil {
		return nil, fmt.Errorf("nearest authors: %w", err)
	}
	defer rows.Close()

	var neighbors []domain.Neighbor
	for rows.Next() {
		var n domain.Neighbor
		if err := rows.Scan(
			&n.Author.ID, &n.Author.Name, &n.Author.Email, &n.Author.Bio, &n.Author.Expertise,
			&n.Author.EmbeddingText, &n.Author.EmbeddingHash, &n.Author.Version,
			&n.Author.CreatedAt, &n.Author.UpdatedAt, &n.Distance,
		); err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, rows.Err()
}

func (s *AuthorStore) checkDimension(vector []float32) error {
	if len(vector) != s.spec.Dimension {
		return fmt.Errorf("got %d dimensions, index has %d: %w", len(vector), s.spec.Dimension, port.ErrDimensionMismatch)
	}
	return nil
}

// missingOrConflict distinguishes a stale version from a missing row after a
// CAS update matched nothing.
func (s *AuthorStore) missingOrConflict(ctx context.Context, id string) error {
	var exists bool
	err := s.store.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM authors WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("update author: %w", err)
	}
	if exists {
		return port.ErrVersionConflict
	}
	return port.ErrAuthorNotFound
}

func scanAuthor(row *sql.Row) (*domain.Author, error) {
	var a domain.Author
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.Bio, &a.Expertise,
		&a.EmbeddingText, &a.EmbeddingHash, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// vectorToString converts a float32 slice to pgvector string format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = fmt.Sprintf("%g", val)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
