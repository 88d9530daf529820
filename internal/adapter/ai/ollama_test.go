package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/authorlens/internal/port"
)

func newTestProvider(url string) *OllamaProvider {
	embed := OllamaEndpointConfig{BaseURL: url, Model: "bge-m3"}
	chat := OllamaEndpointConfig{BaseURL: url, Model: "qwen3"}
	return NewOllamaProvider(embed, chat, 64, 5*time.Second)
}

func TestEmbed_ParsesResponse(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embeddings": [][]float32{{0.1, 0.2, 0.3}},
		})
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	vector, err := provider.Embed(context.Background(), "dystopian robots")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
	assert.Equal(t, "/api/embed", gotPath)
	assert.Equal(t, "bge-m3", gotBody["model"])
	assert.Equal(t, "dystopian robots", gotBody["input"])
}

func TestEmbed_RejectsEmptyAndOversizedInput(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	ctx := context.Background()

	_, err := provider.Embed(ctx, "   ")
	assert.ErrorIs(t, err, port.ErrInvalidInput)

	_, err = provider.Embed(ctx, strings.Repeat("x", 65))
	assert.ErrorIs(t, err, port.ErrInvalidInput)

	assert.False(t, called, "invalid input must be rejected before any network call")
}

func TestEmbed_ClassifiesHTTPErrors(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, port.ErrProviderRateLimited},
		{http.StatusBadRequest, port.ErrInvalidInput},
		{http.StatusInternalServerError, port.ErrProviderUnavailable},
		{http.StatusServiceUnavailable, port.ErrProviderUnavailable},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		provider := newTestProvider(server.URL)
		_, err := provider.Embed(context.Background(), "query")
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)

		server.Close()
	}
}

func TestEmbed_EmptyEmbeddingsIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"embeddings": [][]float32{}})
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	_, err := provider.Embed(context.Background(), "query")
	assert.ErrorIs(t, err, port.ErrProviderUnavailable)
}

func TestEmbedBatch_ParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embeddings": [][]float32{{0.1}, {0.2}},
		})
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	vectors, err := provider.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1}, {0.2}}, vectors)
}

func TestGenerate_SendsSystemAndUserMessages(t *testing.T) {
	var gotBody struct {
		Model    string `json:"model"`
		Stream   bool   `json:"stream"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": "the answer"},
		})
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	answer, err := provider.Generate(context.Background(), "be helpful", "who wrote this?")
	require.NoError(t, err)

	assert.Equal(t, "the answer", answer)
	assert.Equal(t, "qwen3", gotBody.Model)
	assert.False(t, gotBody.Stream)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, "be helpful", gotBody.Messages[0].Content)
	assert.Equal(t, "user", gotBody.Messages[1].Role)
	assert.Equal(t, "who wrote this?", gotBody.Messages[1].Content)
}

func TestGenerate_RejectsEmptyPrompt(t *testing.T) {
	provider := newTestProvider("http://127.0.0.1:1")

	_, err := provider.Generate(context.Background(), "system", "  ")
	assert.ErrorIs(t, err, port.ErrInvalidInput)
}

func TestPost_SendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embeddings": [][]float32{{0.1}},
		})
	}))
	defer server.Close()

	embed := OllamaEndpointConfig{BaseURL: server.URL, Model: "bge-m3", Token: "secret"}
	provider := NewOllamaProvider(embed, OllamaEndpointConfig{}, 64, 5*time.Second)

	_, err := provider.Embed(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestEmbed_CanceledContextIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server notices the client disconnect and
		// cancels the request context; otherwise Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := provider.Embed(ctx, "query")
	assert.ErrorIs(t, err, port.ErrProviderUnavailable)
}
