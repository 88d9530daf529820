package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/arturoeanton/authorlens/internal/port"
)

// OllamaEndpointConfig holds the configuration for a single Ollama endpoint.
type OllamaEndpointConfig struct {
	BaseURL string // e.g. http://localhost:11434 or https://api.ollama.com
	Model   string // e.g. bge-m3, qwen3
	Token   string // Bearer token for Ollama Cloud (empty = no auth)
}

// OllamaProvider implements port.AIProvider using the Ollama REST API.
// Supports separate endpoints for embed vs chat (different URLs, models, and tokens).
// It performs no caching and no retries; failures are classified into the
// port error taxonomy so callers can decide what is retryable.
type OllamaProvider struct {
	embed      OllamaEndpointConfig
	chat       OllamaEndpointConfig
	maxInput   int
	httpClient *http.Client
}

// NewOllamaProvider creates a new Ollama-backed AI provider with separate
// embed/chat configs. maxInput caps accepted input size in bytes; timeout is
// the transport-level limit, distinct from any context deadline the caller sets.
func NewOllamaProvider(embed, chat OllamaEndpointConfig, maxInput int, timeout time.Duration) *OllamaProvider {
	if maxInput <= 0 {
		maxInput = 8192
	}
	return &OllamaProvider{
		embed:      embed,
		chat:       chat,
		maxInput:   maxInput,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ModelName returns the chat model identifier.
func (o *OllamaProvider) ModelName() string {
	return o.chat.Model
}

// Embed generates a vector embedding for the given text.
func (o *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := o.checkInput(text); err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}

	payload := map[string]interface{}{
		"model": o.embed.Model,
		"input": text,
	}

	body, err := o.post(ctx, o.embed, "/api/embed", payload)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}

	var resp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama embed decode: %w", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("ollama embed: empty response: %w", port.ErrProviderUnavailable)
	}

	return resp.Embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one call.
func (o *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for _, t := range texts {
		if err := o.checkInput(t); err != nil {
			return nil, fmt.Errorf("ollama embed batch: %w", err)
		}
	}

	payload := map[string]interface{}{
		"model": o.embed.Model,
		"input": texts,
	}

	body, err := o.post(ctx, o.embed, "/api/embed", payload)
	if err != nil {
		return nil, fmt.Errorf("ollama embed batch: %w", err)
	}

	var resp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama embed batch decode: %w", err)
	}

	return resp.Embeddings, nil
}

// Generate sends a prompt and returns the complete model response.
func (o *OllamaProvider) Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return "", fmt.Errorf("ollama generate: empty prompt: %w", port.ErrInvalidInput)
	}

	messages := []map[string]string{
		{"role": "system", "content": systemPrompt},
		{"role": "user", "content": userPrompt},
	}

	payload := map[string]interface{}{
		"model":    o.chat.Model,
		"messages": messages,
		"stream":   false,
	}

	body, err := o.post(ctx, o.chat, "/api/chat", payload)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}

	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ollama generate decode: %w", err)
	}

	return resp.Message.Content, nil
}

// checkInput rejects empty or oversized embedding inputs before any network call.
func (o *OllamaProvider) checkInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("empty text: %w", port.ErrInvalidInput)
	}
	if len(text) > o.maxInput {
		return fmt.Errorf("text exceeds %d bytes: %w", o.maxInput, port.ErrInvalidInput)
	}
	return nil
}

// post is a helper for POST requests to an Ollama endpoint (with optional bearer token).
func (o *OllamaProvider) post(ctx context.Context, cfg OllamaEndpointConfig, path string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error (%d): %s: %w", resp.StatusCode, string(body), classifyStatus(resp.StatusCode))
	}

	return io.ReadAll(resp.Body)
}

// classifyStatus maps an HTTP status to the port error taxonomy.
func classifyStatus(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return port.ErrProviderRateLimited
	case code == http.StatusBadRequest || code == http.StatusRequestEntityTooLarge:
		return port.ErrInvalidInput
	default:
		return port.ErrProviderUnavailable
	}
}

// classifyTransport maps transport failures and timeouts to ErrProviderUnavailable.
// A caller-enforced deadline firing is treated identically to the provider being down.
func classifyTransport(err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("timeout: %w", port.ErrProviderUnavailable)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("deadline exceeded: %w", port.ErrProviderUnavailable)
	}
	return fmt.Errorf("%v: %w", err, port.ErrProviderUnavailable)
}
