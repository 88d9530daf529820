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

// AnswerService composes grounded natural-language answers from retrieved
// author profiles.
type AnswerService struct {
	ai        port.AIProvider
	retrieval *RetrievalService
	threshold float64
	timeout   time.Duration
}

// NewAnswerService creates a new answer service. threshold is the minimum
// similarity an author must reach to be used as answer context.
func NewAnswerService(ai port.AIProvider, retrieval *RetrievalService, threshold float64, timeout time.Duration) *AnswerService {
	return &AnswerService{ai: ai, retrieval: retrieval, threshold: threshold, timeout: timeout}
}

const answerSystemPrompt = `You are AuthorLens, a librarian assistant for an author catalog.
Answer questions using only the author profiles supplied as context.
If no profiles are supplied, or none of them contain the answer, say that no
matching authors were found. Never invent authors or facts about them.`

// Ask retrieves context for the question and generates an answer grounded in
// it. Generation proceeds even with empty context; the prompt then states that
// no authors were found so the model cannot fabricate them. If generation
// fails after retrieval succeeded, the returned GenerationError carries the
// retrieved matches.
func (s *AnswerService) Ask(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	matches, err := s.retrieval.Search(ctx, question, topK, s.threshold)
	if err != nil {
		return nil, err
	}

	slog.Info("composing answer", "context_authors", len(matches))

	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	answer, err := s.ai.Generate(gctx, answerSystemPrompt, BuildAnswerPrompt(question, matches))
	if err != nil {
		return nil, &port.GenerationError{Err: err, Matches: matches}
	}

	return &domain.Answer{Question: question, Answer: answer, Context: matches}, nil
}

// BuildAnswerPrompt renders the question and retrieved profiles into a
// deterministic generation prompt. Each profile is numbered and delimited in
// rank order so an answer's claims can be traced back to a specific entry.
func BuildAnswerPrompt(question string, matches []domain.AuthorMatch) string {
	var sb strings.Builder
	if len(matches) == 0 {
		sb.WriteString("No matching authors were found in the catalog for this question.\n")
	} else {
		sb.WriteString("Author profiles found in the catalog, most relevant first:\n")
		for i, m := range matches {
			fmt.Fprintf(&sb, "\n--- Author %d: %s ---\nEmail: %s\nBio: %s\nExpertise: %s\n",
				i+1, m.Name, m.Email, m.Bio, m.Expertise)
		}
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	return sb.String()
}
