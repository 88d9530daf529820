package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/authorlens/internal/domain"
	"github.com/arturoeanton/authorlens/internal/service"
)

// AuthorHandler handles author catalog CRUD endpoints.
type AuthorHandler struct {
	catalog *service.CatalogService
}

// NewAuthorHandler creates a new author handler.
func NewAuthorHandler(catalog *service.CatalogService) *AuthorHandler {
	return &AuthorHandler{catalog: catalog}
}

// Register sets up author routes.
func (h *AuthorHandler) Register(api fiber.Router) {
	authors := api.Group("/authors")
	authors.Post("/", h.Create)
	authors.Get("/", h.List)
	authors.Get("/:id", h.Get)
	authors.Put("/:id", h.Update)
	authors.Delete("/:id", h.Delete)
	authors.Post("/:id/summary", h.Summarize)
}

// Create registers a new author; the profile embedding is computed before
// anything is persisted.
func (h *AuthorHandler) Create(c fiber.Ctx) error {
	var body domain.AuthorFields
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	created, err := h.catalog.Create(c.Context(), body)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// List returns authors from the catalog.
func (h *AuthorHandler) List(c fiber.Ctx) error {
	limit := queryInt(c, "limit", 100)
	if limit < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be at least 1"})
	}

	authors, err := h.catalog.List(c.Context(), limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"authors": authors, "count": len(authors)})
}

// Get returns a single author by ID.
func (h *AuthorHandler) Get(c fiber.Ctx) error {
	author, err := h.catalog.Get(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(author)
}

// Update replaces an author's descriptive fields. The body must carry the
// version the caller last read; stale versions are rejected with 409.
func (h *AuthorHandler) Update(c fiber.Ctx) error {
	var body struct {
		domain.AuthorFields
		Version int `json:"version"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Version < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "version is required"})
	}

	updated, err := h.catalog.Update(c.Context(), c.Params("id"), body.Version, body.AuthorFields)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(updated)
}

// Delete removes an author.
func (h *AuthorHandler) Delete(c fiber.Ctx) error {
	if err := h.catalog.Delete(c.Context(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Summarize generates a short profile summary for an author.
func (h *AuthorHandler) Summarize(c fiber.Ctx) error {
	summary, err := h.catalog.Summarize(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"id": c.Params("id"), "summary": summary})
}

// queryInt reads an integer query param with a default value.
func queryInt(c fiber.Ctx, key string, defaultVal int) int {
	v := c.Query(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
