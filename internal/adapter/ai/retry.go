package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arturoeanton/authorlens/internal/port"
)

// RetryProvider wraps an AIProvider with bounded exponential backoff on
// rate-limit errors. It retries nothing else: invalid input never succeeds on
// a second try, and availability failures are surfaced to the caller. The core
// services never retry on their own; this decorator is wired in at startup.
type RetryProvider struct {
	inner       port.AIProvider
	maxAttempts int
	baseDelay   time.Duration
}

// NewRetryProvider creates a retrying decorator around an AI provider.
func NewRetryProvider(inner port.AIProvider, maxAttempts int, baseDelay time.Duration) *RetryProvider {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryProvider{inner: inner, maxAttempts: maxAttempts, baseDelay: baseDelay}
}

// ModelName returns the inner provider's generation model identifier.
func (r *RetryProvider) ModelName() string {
	return r.inner.ModelName()
}

// Embed delegates to the inner provider, retrying on rate limits.
func (r *RetryProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return retryRateLimited(ctx, r, func() ([]float32, error) {
		return r.inner.Embed(ctx, text)
	})
}

// EmbedBatch delegates to the inner provider, retrying on rate limits.
func (r *RetryProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return retryRateLimited(ctx, r, func() ([][]float32, error) {
		return r.inner.EmbedBatch(ctx, texts)
	})
}

// Generate delegates to the inner provider, retrying on rate limits.
func (r *RetryProvider) Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	return retryRateLimited(ctx, r, func() (string, error) {
		return r.inner.Generate(ctx, systemPrompt, userPrompt)
	})
}

func retryRateLimited[T any](ctx context.Context, r *RetryProvider, call func() (T, error)) (T, error) {
	var zero T
	delay := r.baseDelay
	for attempt := 1; ; attempt++ {
		out, err := call()
		if err == nil || !errors.Is(err, port.ErrProviderRateLimited) || attempt >= r.maxAttempts {
			return out, err
		}

		slog.Warn("provider rate limited, backing off", "attempt", attempt, "delay", delay)
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("retry aborted: %w", port.ErrProviderUnavailable)
		case <-time.After(delay):
		}
		delay *= 2
	}
}
