package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/authorlens/internal/service"
)

// Bounds for caller-supplied top_k values.
const (
	maxSearchTopK = 50
	maxAskTopK    = 20
)

// SearchHandler handles semantic search and question-answering endpoints.
type SearchHandler struct {
	retrieval *service.RetrievalService
	answers   *service.AnswerService

	defaultSearchTopK      int
	defaultSearchThreshold float64
	defaultAskTopK         int
}

// NewSearchHandler creates a new search handler with request defaults.
func NewSearchHandler(retrieval *service.RetrievalService, answers *service.AnswerService, searchTopK int, searchThreshold float64, askTopK int) *SearchHandler {
	return &SearchHandler{
		retrieval:              retrieval,
		answers:                answers,
		defaultSearchTopK:      searchTopK,
		defaultSearchThreshold: searchThreshold,
		defaultAskTopK:         askTopK,
	}
}

// Register sets up search routes.
func (h *SearchHandler) Register(api fiber.Router) {
	api.Post("/search", h.Search)
	api.Post("/ask", h.Ask)
}

// Search performs semantic search over the author catalog.
func (h *SearchHandler) Search(c fiber.Ctx) error {
	var body struct {
		Query               string   `json:"query"`
		TopK                *int     `json:"top_k"`
		SimilarityThreshold *float64 `json:"similarity_threshold"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	topK := h.defaultSearchTopK
	if body.TopK != nil {
		topK = *body.TopK
	}
	if topK < 1 || topK > maxSearchTopK {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "top_k must be between 1 and 50"})
	}

	threshold := h.defaultSearchThreshold
	if body.SimilarityThreshold != nil {
		threshold = *body.SimilarityThreshold
	}

	results, err := h.retrieval.Search(c.Context(), body.Query, topK, threshold)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"results": results, "count": len(results)})
}

// Ask answers a question grounded in retrieved author profiles.
func (h *SearchHandler) Ask(c fiber.Ctx) error {
	var body struct {
		Question string `json:"question"`
		TopK     *int   `json:"top_k"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	topK := h.defaultAskTopK
	if body.TopK != nil {
		topK = *body.TopK
	}
	if topK < 1 || topK > maxAskTopK {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "top_k must be between 1 and 20"})
	}

	answer, err := h.answers.Ask(c.Context(), body.Question, topK)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(answer)
}
