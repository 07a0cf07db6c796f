package session

import (
	"log/slog"

	"github.com/Anvoria/blogly/internal/utils"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	provider Provider
}

func NewHandler(p Provider) *Handler {
	return &Handler{provider: p}
}

// Session returns the caller's comment session id, creating it when needed.
// Serves both GET and POST /api/comments/session.
func (h *Handler) Session(c *fiber.Ctx) error {
	id, err := h.provider.GetOrCreate(c)
	if err != nil {
		slog.Error("Failed to issue comment session", "error", err)
		return utils.ErrorResponse(c, utils.ErrInternalServer)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"sessionId": id.String(),
	})
}
