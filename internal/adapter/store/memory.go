package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/arturoeanton/authorlens/internal/domain"
	"github.com/arturoeanton/authorlens/internal/port"
)

// MemoryStore is a brute-force in-memory implementation of port.AuthorIndex.
// It backs local development without Postgres and the service test suites.
type MemoryStore struct {
	mu      sync.RWMutex
	spec    domain.IndexSpec
	authors map[string]*domain.Author
	order   []string // insertion order, also the tie-break for equal distances
}

// NewMemoryStore creates an empty in-memory author index.
func NewMemoryStore(spec domain.IndexSpec) *MemoryStore {
	return &MemoryStore{
		spec:    spec,
		authors: make(map[string]*domain.Author),
	}
}

// CreateAuthor stores a copy of the author with version 1.
func (s *MemoryStore) CreateAuthor(ctx context.Context, a *domain.Author) (*domain.Author, error) {
	if err := s.checkDimension(a.Embedding); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.authors[a.ID]; ok {
		return nil, fmt.Errorf("author %s already exists", a.ID)
	}

	now := time.Now().UTC()
	stored := cloneAuthor(a)
	stored.Version = 1
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.authors[stored.ID] = stored
	s.order = append(s.order, stored.ID)
	return cloneAuthor(stored), nil
}

// UpdateAuthor replaces an author's fields under compare-and-swap on version.
// A nil Embedding leaves the stored vector and its source text untouched.
func (s *MemoryStore) UpdateAuthor(ctx context.Context, a *domain.Author) (*domain.Author, error) {
	if a.Embedding != nil {
		if err := s.checkDimension(a.Embedding); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.authors[a.ID]
	if !ok {
		return nil, port.ErrAuthorNotFound
	}
	if current.Version != a.Version {
		return nil, port.ErrVersionConflict
	}

	stored := cloneAuthor(a)
	if a.Embedding == nil {
		stored.Embedding = current.Embedding
		stored.EmbeddingText = current.EmbeddingText
		stored.EmbeddingHash = current.EmbeddingHash
	}
	stored.Version = current.Version + 1
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = time.Now().UTC()

	s.authors[stored.ID] = stored
	return cloneAuthor(stored), nil
}

// GetAuthor retrieves an author by ID.
func (s *MemoryStore) GetAuthor(ctx context.Context, id string) (*domain.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.authors[id]
	if !ok {
		return nil, port.ErrAuthorNotFound
	}
	return cloneAuthor(a), nil
}

// ListAuthors returns up to limit authors in insertion order.
func (s *MemoryStore) ListAuthors(ctx context.Context, limit int) ([]domain.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	authors := make([]domain.Author, 0, len(s.order))
	for _, id := range s.order {
		if a, ok := s.authors[id]; ok {
			authors = append(authors, *cloneAuthor(a))
			if len(authors) == limit {
				break
			}
		}
	}
	return authors, nil
}

// DeleteAuthor removes an author by ID.
func (s *MemoryStore) DeleteAuthor(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.authors[id]; !ok {
		return port.ErrAuthorNotFound
	}
	delete(s.authors, id)
	for i, stored := range s.order {
		if stored == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Nearest scans all authors and returns up to k ordered by ascending distance.
// Equal distances keep insertion order.
func (s *MemoryStore) Nearest(ctx context.Context, vector []float32, k int) ([]domain.Neighbor, error) {
	if err := s.checkDimension(vector); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	neighbors := make([]domain.Neighbor, 0, len(s.order))
	for _, id := range s.order {
		a := s.authors[id]
		if a.Embedding == nil {
			continue
		}
		neighbors = append(neighbors, domain.Neighbor{
			Author:   *cloneAuthor(a),
			Distance: s.distance(vector, a.Embedding),
		})
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})

	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

func (s *MemoryStore) checkDimension(vector []float32) error {
	if len(vector) != s.spec.Dimension {
		return fmt.Errorf("got %d dimensions, index has %d: %w", len(vector), s.spec.Dimension, port.ErrDimensionMismatch)
	}
	return nil
}

func (s *MemoryStore) distance(a, b []float32) float64 {
	if s.spec.Metric == domain.MetricL2 {
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return math.Sqrt(sum)
	}
	return cosineDistance(a, b)
}

// cosineDistance is 1 - cosine similarity, ranging over [0,2].
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

func cloneAuthor(a *domain.Author) *domain.Author {
	c := *a
	if a.Embedding != nil {
		c.Embedding = make([]float32, len(a.Embedding))
		copy(c.Embedding, a.Embedding)
	}
	return &c
}
