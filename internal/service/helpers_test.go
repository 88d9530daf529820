package service

import (
	"context"
	"sync"

	"github.com/arturoeanton/authorlens/internal/domain"
)

// stubProvider implements port.AIProvider with programmable behavior.
type stubProvider struct {
	mu sync.Mutex

	embedFn    func(text string) ([]float32, error)
	generateFn func(system, prompt string) (string, error)

	embedCalls int
	prompts    []string
	systems    []string
}

func (p *stubProvider) ModelName() string { return "stub-model" }

func (p *stubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	p.embedCalls++
	p.mu.Unlock()
	return p.embedFn(text)
}

func (p *stubProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := p.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (p *stubProvider) Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	p.mu.Lock()
	p.systems = append(p.systems, systemPrompt)
	p.prompts = append(p.prompts, userPrompt)
	p.mu.Unlock()
	if p.generateFn != nil {
		return p.generateFn(systemPrompt, userPrompt)
	}
	return "stub answer", nil
}

func fixedEmbed(vector []float32) func(string) ([]float32, error) {
	return func(string) ([]float32, error) {
		v := make([]float32, len(vector))
		copy(v, vector)
		return v, nil
	}
}

// testAuthor builds a searchable author whose stored embedding matches its
// descriptive fields.
func testAuthor(id, name string, vector []float32) *domain.Author {
	bio := "bio of " + name
	expertise := "expertise of " + name
	text := domain.EmbeddingSourceText(bio, expertise)
	return &domain.Author{
		ID:            id,
		Name:          name,
		Email:         name + "@example.com",
		Bio:           bio,
		Expertise:     expertise,
		Embedding:     vector,
		EmbeddingText: text,
		EmbeddingHash: domain.EmbeddingTextHash(text),
	}
}
