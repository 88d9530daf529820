package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arturoeanton/authorlens/internal/domain"
	"github.com/arturoeanton/authorlens/internal/port"
)

// RetrievalService turns a free-text query into a ranked, threshold-filtered
// list of author matches.
type RetrievalService struct {
	ai      port.AIProvider
	index   port.AuthorIndex
	spec    domain.IndexSpec
	timeout time.Duration
}

// NewRetrievalService creates a new retrieval service. The index spec must
// match the one the index and the embedding model were built with.
func NewRetrievalService(ai port.AIProvider, index port.AuthorIndex, spec domain.IndexSpec, timeout time.Duration) *RetrievalService {
	return &RetrievalService{ai: ai, index: index, spec: spec, timeout: timeout}
}

// Search embeds the query, asks the index for the nearest authors, and
// returns matches at or above the similarity threshold. The index's
// distance-ascending order is the authoritative rank; results are filtered
// but never re-sorted. An empty result is a valid outcome, not an error.
func (s *RetrievalService) Search(ctx context.Context, query string, topK int, threshold float64) ([]domain.AuthorMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty: %w", port.ErrInvalidQuery)
	}
	if topK < 1 {
		return nil, fmt.Errorf("top_k must be at least 1: %w", port.ErrInvalidQuery)
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("similarity_threshold must be within [0,1]: %w", port.ErrInvalidQuery)
	}

	slog.Info("semantic search", "top_k", topK, "threshold", threshold)

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, &port.RetrievalError{Err: fmt.Errorf("embed query: %w", err)}
	}

	nctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	neighbors, err := s.index.Nearest(nctx, vector, topK)
	if err != nil {
		return nil, &port.RetrievalError{Err: fmt.Errorf("nearest authors: %w", err)}
	}

	matches := make([]domain.AuthorMatch, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Author.Stale() {
			continue
		}
		similarity := s.spec.Metric.Similarity(n.Distance)
		if similarity < threshold {
			continue
		}
		matches = append(matches, domain.AuthorMatch{Author: n.Author, Similarity: similarity})
	}
	return matches, nil
}

func (s *RetrievalService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	ectx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.ai.Embed(ectx, query)
}
