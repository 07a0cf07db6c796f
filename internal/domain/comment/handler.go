package comment

import (
	"errors"
	"log/slog"

	"github.com/Anvoria/blogly/internal/domain/auth"
	"github.com/Anvoria/blogly/internal/domain/session"
	"github.com/Anvoria/blogly/internal/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handler struct {
	commentService Service
	sessions       session.Provider
}

func NewHandler(s Service, sessions session.Provider) *Handler {
	return &Handler{commentService: s, sessions: sessions}
}

// errorFor maps service errors to API errors. Not-found and forbidden carry generic
// messages so callers learn nothing about comments they cannot touch.
func errorFor(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return utils.ErrorResponse(c, utils.ErrBadRequest)
	case errors.Is(err, ErrCommentNotFound), errors.Is(err, ErrPostNotFound):
		return utils.ErrorResponse(c, utils.ErrNotFound)
	case errors.Is(err, ErrForbidden):
		return utils.ErrorResponse(c, utils.ErrForbidden)
	case errors.Is(err, ErrContentRequired),
		errors.Is(err, ErrContentTooLong),
		errors.Is(err, ErrAuthorTooLong),
		errors.Is(err, ErrInvalidStatus):
		return utils.ErrorResponse(c, utils.ErrBadRequest.WithDetails(err.Error()))
	default:
		slog.Error("Comment request failed", "path", c.Path(), "error", err)
		return utils.ErrorResponse(c, utils.ErrInternalServer)
	}
}

// DeleteComment handles DELETE /api/comments/:id
func (h *Handler) DeleteComment(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return utils.ErrorResponse(c, utils.ErrBadRequest)
	}

	req := DeleteRequest{CommentID: id}
	if sid, ok := h.sessions.Current(c); ok {
		req.SessionID = sid
	}
	if identity := auth.GetIdentity(c); identity != nil {
		req.UserID = identity.UserID
	}

	if err := h.commentService.Delete(c.UserContext(), req); err != nil {
		return errorFor(c, err)
	}

	return utils.SuccessResponse(c, nil, "Comment deleted successfully")
}

// CreateComment handles POST /api/posts/:id/comments
func (h *Handler) CreateComment(c *fiber.Ctx) error {
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, utils.ErrBadRequest.WithDetails("invalid post id"))
	}

	var body struct {
		AuthorName string `json:"author_name"`
		Content    string `json:"content"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, utils.ErrBadRequest.WithDetails("invalid body"))
	}

	sid, err := h.sessions.GetOrCreate(c)
	if err != nil {
		slog.Error("Failed to issue comment session", "error", err)
		return utils.ErrorResponse(c, utils.ErrInternalServer)
	}

	created, err := h.commentService.Create(c.UserContext(), CreateRequest{
		PostID:     postID,
		AuthorName: body.AuthorName,
		Content:    body.Content,
		SessionID:  sid,
	})
	if err != nil {
		return errorFor(c, err)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"comment":        created.Comment.ToResponse(),
		"deletableUntil": created.DeletableUntil,
	}, "Comment created successfully", fiber.StatusCreated)
}

// ListComments handles GET /api/posts/:id/comments
func (h *Handler) ListComments(c *fiber.Ctx) error {
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, utils.ErrBadRequest.WithDetails("invalid post id"))
	}

	sid, _ := h.sessions.Current(c)
	thread, err := h.commentService.ListForPost(c.UserContext(), postID, sid)
	if err != nil {
		return errorFor(c, err)
	}

	comments := make([]*Response, len(thread.Comments))
	for i, cm := range thread.Comments {
		comments[i] = cm.ToResponse()
	}

	return utils.SuccessResponse(c, fiber.Map{
		"comments":     comments,
		"deletableIds": thread.DeletableIDs,
	}, "Comments retrieved successfully")
}

// ModerateComments handles GET /api/admin/comments
func (h *Handler) ModerateComments(c *fiber.Ctx) error {
	q := ModerationQuery{
		Visibility: Visibility(c.Query("status")),
		Pagination: utils.ParsePagination(c),
	}
	if raw := c.Query("post_id"); raw != "" {
		postID, err := uuid.Parse(raw)
		if err != nil {
			return utils.ErrorResponse(c, utils.ErrBadRequest.WithDetails("invalid post id"))
		}
		q.PostID = &postID
	}

	page, err := h.commentService.ListForModeration(c.UserContext(), q)
	if err != nil {
		return errorFor(c, err)
	}

	comments := make([]*ModerationResponse, len(page.Comments))
	for i, cm := range page.Comments {
		comments[i] = cm.ToModerationResponse()
	}

	return utils.SuccessResponse(c, fiber.Map{
		"comments": comments,
		"total":    page.Total,
		"page":     page.Page,
		"limit":    page.Limit,
	}, "Comments retrieved successfully")
}
