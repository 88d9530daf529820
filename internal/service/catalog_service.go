package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arturoeanton/authorlens/internal/domain"
	"github.com/arturoeanton/authorlens/internal/port"
)

// CatalogService owns author persistence and keeps every stored embedding in
// sync with the descriptive fields it was derived from. Writes are all or
// nothing: an author is never persisted with a missing or stale embedding.
type CatalogService struct {
	ai      port.AIProvider
	index   port.AuthorIndex
	timeout time.Duration
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(ai port.AIProvider, index port.AuthorIndex, timeout time.Duration) *CatalogService {
	return &CatalogService{ai: ai, index: index, timeout: timeout}
}

// Create embeds the author's profile and persists the full record atomically.
// If embedding fails, nothing is stored.
func (s *CatalogService) Create(ctx context.Context, fields domain.AuthorFields) (*domain.Author, error) {
	if strings.TrimSpace(fields.Name) == "" || strings.TrimSpace(fields.Email) == "" {
		return nil, &port.CreationError{Err: fmt.Errorf("name and email are required: %w", port.ErrInvalidQuery)}
	}

	text := domain.EmbeddingSourceText(fields.Bio, fields.Expertise)
	vector, err := s.embed(ctx, text)
	if err != nil {
		return nil, &port.CreationError{Err: fmt.Errorf("embed profile: %w", err)}
	}

	author := &domain.Author{
		ID:            uuid.NewString(),
		Name:          fields.Name,
		Email:         fields.Email,
		Bio:           fields.Bio,
		Expertise:     fields.Expertise,
		Embedding:     vector,
		EmbeddingText: text,
		EmbeddingHash: domain.EmbeddingTextHash(text),
	}

	ictx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	created, err := s.index.CreateAuthor(ictx, author)
	if err != nil {
		return nil, &port.CreationError{Err: err}
	}

	slog.Info("author created", "id", created.ID, "name", created.Name)
	return created, nil
}

// Update replaces an author's descriptive fields. If the embedding source text
// changed, the profile is re-embedded before committing; if re-embedding
// fails, the update is rejected in full and the stored record is untouched.
// version must be the version the caller read; a stale version fails with
// ErrVersionConflict.
func (s *CatalogService) Update(ctx context.Context, id string, version int, fields domain.AuthorFields) (*domain.Author, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := &domain.Author{
		ID:        id,
		Name:      fields.Name,
		Email:     fields.Email,
		Bio:       fields.Bio,
		Expertise: fields.Expertise,
		Version:   version,
	}

	text := domain.EmbeddingSourceText(fields.Bio, fields.Expertise)
	if hash := domain.EmbeddingTextHash(text); hash != current.EmbeddingHash {
		vector, err := s.embed(ctx, text)
		if err != nil {
			return nil, &port.UpdateError{ID: id, Err: fmt.Errorf("re-embed profile: %w", err)}
		}
		next.Embedding = vector
		next.EmbeddingText = text
		next.EmbeddingHash = hash
	}

	ictx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	updated, err := s.index.UpdateAuthor(ictx, next)
	if err != nil {
		if errors.Is(err, port.ErrVersionConflict) || errors.Is(err, port.ErrAuthorNotFound) {
			return nil, err
		}
		return nil, &port.UpdateError{ID: id, Err: err}
	}

	slog.Info("author updated", "id", id, "version", updated.Version, "re_embedded", next.Embedding != nil)
	return updated, nil
}

// Get retrieves an author by ID.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Author, error) {
	ictx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.index.GetAuthor(ictx, id)
}

// List returns up to limit authors.
func (s *CatalogService) List(ctx context.Context, limit int) ([]domain.Author, error) {
	ictx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.index.ListAuthors(ictx, limit)
}

// Delete removes an author by ID.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	ictx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.index.DeleteAuthor(ictx, id)
}

const summarySystemPrompt = `You summarize author profiles for a catalog.
Reply with 2-3 sentences highlighting the author's main characteristics and
contributions, based only on the given profile.`

// Summarize generates a short profile summary for an author.
func (s *CatalogService) Summarize(ctx context.Context, id string) (string, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("Name: %s\nBio: %s\nExpertise: %s", a.Name, a.Bio, a.Expertise)

	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	summary, err := s.ai.Generate(gctx, summarySystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("summarize author: %w", err)
	}
	return summary, nil
}

func (s *CatalogService) embed(ctx context.Context, text string) ([]float32, error) {
	ectx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.ai.Embed(ectx, text)
}
