package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/authorlens/internal/port"
)

// errorResponse maps a service error to an HTTP status and JSON body.
func errorResponse(c fiber.Ctx, err error) error {
	var genErr *port.GenerationError
	if errors.As(err, &genErr) {
		// Retrieval succeeded, so the found authors are still useful to the caller.
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "answer generation failed",
			"context": genErr.Matches,
		})
	}

	switch {
	case errors.Is(err, port.ErrInvalidQuery), errors.Is(err, port.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, port.ErrAuthorNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "author not found"})
	case errors.Is(err, port.ErrVersionConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "version conflict, re-read the author and retry"})
	case errors.Is(err, port.ErrProviderRateLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "ai provider rate limited"})
	case errors.Is(err, port.ErrProviderUnavailable):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "ai provider unavailable"})
	case errors.Is(err, port.ErrDimensionMismatch):
		// Dimension drift is an invariant violation, never surfaced as caller error.
		slog.Error("embedding dimension mismatch", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
