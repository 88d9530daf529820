package port

import "context"

// AIProvider abstracts the AI backend for embeddings and text generation.
// Implementations can target Ollama, OpenAI, or any compatible API.
// Implementations must not cache results and must not retry on their own;
// both policies belong to the caller.
type AIProvider interface {
	// ModelName returns the identifier of the generation model being used.
	ModelName() string

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Generate sends a prompt and returns the complete model response.
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
