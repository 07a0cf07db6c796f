package view

import (
	"errors"
	"log/slog"

	"github.com/Anvoria/blogly/internal/domain/session"
	"github.com/Anvoria/blogly/internal/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handler struct {
	viewService Service
	sessions    session.Provider
}

func NewHandler(s Service, sessions session.Provider) *Handler {
	return &Handler{viewService: s, sessions: sessions}
}

// RecordView handles POST /api/posts/:id/views
func (h *Handler) RecordView(c *fiber.Ctx) error {
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, utils.ErrBadRequest.WithDetails("invalid post id"))
	}

	viewer := Viewer{IP: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
	if sid, ok := h.sessions.Current(c); ok {
		viewer.SessionID = sid.String()
	}

	counted, err := h.viewService.Record(c.UserContext(), postID, viewer)
	if err != nil {
		switch {
		case errors.Is(err, ErrPostNotFound):
			return utils.ErrorResponse(c, utils.ErrNotFound)
		case errors.Is(err, ErrNoViewer):
			return utils.ErrorResponse(c, utils.ErrBadRequest.WithDetails(err.Error()))
		default:
			slog.Error("Failed to record view", "post_id", postID, "error", err)
			return utils.ErrorResponse(c, utils.ErrInternalServer)
		}
	}

	return utils.SuccessResponse(c, fiber.Map{"counted": counted}, "View recorded")
}

// ViewCount handles GET /api/posts/:id/views
func (h *Handler) ViewCount(c *fiber.Ctx) error {
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, utils.ErrBadRequest.WithDetails("invalid post id"))
	}

	n, err := h.viewService.CountForPost(c.UserContext(), postID)
	if err != nil {
		slog.Error("Failed to count views", "post_id", postID, "error", err)
		return utils.ErrorResponse(c, utils.ErrInternalServer)
	}

	return utils.SuccessResponse(c, fiber.Map{"views": n}, "Views retrieved successfully")
}

// Analytics handles GET /api/admin/analytics/views
func (h *Handler) Analytics(c *fiber.Ctx) error {
	summary, err := h.viewService.Summary(c.UserContext(), c.QueryInt("days"), c.QueryInt("limit"))
	if err != nil {
		slog.Error("Failed to build view summary", "error", err)
		return utils.ErrorResponse(c, utils.ErrInternalServer)
	}

	return utils.SuccessResponse(c, summary, "Analytics retrieved successfully")
}
