package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/authorlens/internal/adapter/store"
	"github.com/arturoeanton/authorlens/internal/domain"
	"github.com/arturoeanton/authorlens/internal/port"
)

var testSpec = domain.IndexSpec{Dimension: 3, Metric: domain.MetricCosine}

func newRetrievalFixture(t *testing.T, provider *stubProvider) (*RetrievalService, *store.MemoryStore) {
	t.Helper()
	index := store.NewMemoryStore(testSpec)
	return NewRetrievalService(provider, index, testSpec, 5*time.Second), index
}

func TestSearch_RejectsInvalidParameters(t *testing.T) {
	provider := &stubProvider{embedFn: fixedEmbed([]float32{1, 0, 0})}
	svc, _ := newRetrievalFixture(t, provider)
	ctx := context.Background()

	cases := []struct {
		name      string
		query     string
		topK      int
		threshold float64
	}{
		{"empty query", "   ", 5, 0.3},
		{"zero top_k", "robots", 0, 0.3},
		{"negative threshold", "robots", 5, -0.1},
		{"threshold above one", "robots", 5, 1.1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Search(ctx, tc.query, tc.topK, tc.threshold)
			assert.ErrorIs(t, err, port.ErrInvalidQuery)
		})
	}
	assert.Equal(t, 0, provider.embedCalls, "invalid parameters must not reach the provider")
}

func TestSearch_EmptyStoreReturnsNoError(t *testing.T) {
	provider := &stubProvider{embedFn: fixedEmbed([]float32{1, 0, 0})}
	svc, _ := newRetrievalFixture(t, provider)

	matches, err := svc.Search(context.Background(), "dystopian robots", 5, 0.3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearch_RanksAndFiltersByThreshold(t *testing.T) {
	provider := &stubProvider{embedFn: fixedEmbed([]float32{1, 0, 0})}
	svc, index := newRetrievalFixture(t, provider)
	ctx := context.Background()

	// Cosine similarities to the query [1,0,0]: exact match 1.0,
	// orthogonal 0.5 after normalization, opposite 0.0.
	_, err := index.CreateAuthor(ctx, testAuthor("a-orthogonal", "orthogonal", []float32{0, 1, 0}))
	require.NoError(t, err)
	_, err = index.CreateAuthor(ctx, testAuthor("a-exact", "exact", []float32{2, 0, 0}))
	require.NoError(t, err)
	_, err = index.CreateAuthor(ctx, testAuthor("a-opposite", "opposite", []float32{-1, 0, 0}))
	require.NoError(t, err)

	matches, err := svc.Search(ctx, "dystopian robots", 10, 0.4)
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "a-exact", matches[0].ID)
	assert.Equal(t, "a-orthogonal", matches[1].ID)
	for i, m := range matches {
		assert.GreaterOrEqual(t, m.Similarity, 0.4)
		if i > 0 {
			assert.LessOrEqual(t, m.Similarity, matches[i-1].Similarity, "similarity must be non-increasing")
		}
	}
}

func TestSearch_RespectsTopK(t *testing.T) {
	provider := &stubProvider{embedFn: fixedEmbed([]float32{1, 0, 0})}
	svc, index := newRetrievalFixture(t, provider)
	ctx := context.Background()

	for _, a := range []*domain.Author{
		testAuthor("a1", "first", []float32{1, 0, 0}),
		testAuthor("a2", "second", []float32{1, 0.1, 0}),
		testAuthor("a3", "third", []float32{1, 0.2, 0}),
	} {
		_, err := index.CreateAuthor(ctx, a)
		require.NoError(t, err)
	}

	matches, err := svc.Search(ctx, "anything", 2, 0)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestSearch_PerfectThresholdWithoutPerfectMatch(t *testing.T) {
	provider := &stubProvider{embedFn: fixedEmbed([]float32{1, 0, 0})}
	svc, index := newRetrievalFixture(t, provider)
	ctx := context.Background()

	_, err := index.CreateAuthor(ctx, testAuthor("a1", "close", []float32{1, 0.3, 0}))
	require.NoError(t, err)

	matches, err := svc.Search(ctx, "anything", 5, 1.0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearch_ExcludesStaleAuthors(t *testing.T) {
	provider := &stubProvider{embedFn: fixedEmbed([]float32{1, 0, 0})}
	svc, index := newRetrievalFixture(t, provider)
	ctx := context.Background()

	stale := testAuthor("a-stale", "stale", []float32{1, 0, 0})
	stale.EmbeddingHash = "outdated"
	_, err := index.CreateAuthor(ctx, stale)
	require.NoError(t, err)
	_, err = index.CreateAuthor(ctx, testAuthor("a-fresh", "fresh", []float32{1, 0, 0}))
	require.NoError(t, err)

	matches, err := svc.Search(ctx, "anything", 5, 0.3)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a-fresh", matches[0].ID)
}

func TestSearch_WrapsProviderFailure(t *testing.T) {
	provider := &stubProvider{embedFn: func(string) ([]float32, error) {
		return nil, port.ErrProviderUnavailable
	}}
	svc, _ := newRetrievalFixture(t, provider)

	_, err := svc.Search(context.Background(), "anything", 5, 0.3)

	var retrievalErr *port.RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
	assert.ErrorIs(t, err, port.ErrProviderUnavailable)
}
