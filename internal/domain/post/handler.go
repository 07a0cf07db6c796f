package post

import (
	"errors"
	"log/slog"

	"github.com/Anvoria/blogly/internal/domain/auth"
	"github.com/Anvoria/blogly/internal/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handler struct {
	postService Service
}

func NewHandler(s Service) *Handler {
	return &Handler{postService: s}
}

// errorFor maps service errors to API errors
func errorFor(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrPostNotFound):
		return utils.ErrorResponse(c, utils.ErrNotFound)
	case errors.Is(err, ErrSlugExists):
		return utils.ErrorResponse(c, utils.ErrConflict.WithDetails(err.Error()))
	case errors.Is(err, ErrInvalidSlug),
		errors.Is(err, ErrUnsupportedLocale),
		errors.Is(err, ErrTitleRequired),
		errors.Is(err, ErrInvalidStatus):
		return utils.ErrorResponse(c, utils.ErrBadRequest.WithDetails(err.Error()))
	default:
		slog.Error("Post request failed", "path", c.Path(), "error", err)
		return utils.ErrorResponse(c, utils.ErrInternalServer)
	}
}

func listResponse(res *ListResult) fiber.Map {
	summaries := make([]*Summary, len(res.Posts))
	for i, p := range res.Posts {
		summaries[i] = p.ToSummary()
	}
	return fiber.Map{
		"posts": summaries,
		"total": res.Total,
		"page":  res.Page,
		"limit": res.Limit,
	}
}

// ListPosts handles the public post listing and search
func (h *Handler) ListPosts(c *fiber.Ctx) error {
	res, err := h.postService.List(c.UserContext(), Query{
		Locale:     c.Query("locale"),
		Search:     c.Query("q"),
		Pagination: utils.ParsePagination(c),
	})
	if err != nil {
		return errorFor(c, err)
	}

	return utils.SuccessResponse(c, listResponse(res), "Posts retrieved successfully")
}

// GetPost handles the retrieval of a published post by slug
func (h *Handler) GetPost(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return utils.ErrorResponse(c, utils.ErrBadRequest)
	}

	p, err := h.postService.GetBySlug(c.UserContext(), slug, c.Query("locale"))
	if err != nil {
		return errorFor(c, err)
	}

	translations, err := h.postService.Translations(c.UserContext(), slug)
	if err != nil {
		return errorFor(c, err)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"post":         p,
		"translations": translations,
	}, "Post retrieved successfully")
}

// AdminListPosts handles the dashboard listing of posts in any status
func (h *Handler) AdminListPosts(c *fiber.Ctx) error {
	res, err := h.postService.ListAll(c.UserContext(), Query{
		Locale:     c.Query("locale"),
		Search:     c.Query("q"),
		Status:     Status(c.Query("status")),
		Pagination: utils.ParsePagination(c),
	})
	if err != nil {
		return errorFor(c, err)
	}

	return utils.SuccessResponse(c, listResponse(res), "Posts retrieved successfully")
}

// CreatePost handles the creation of a new post
func (h *Handler) CreatePost(c *fiber.Ctx) error {
	var in Input
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, utils.ErrBadRequest.WithDetails("invalid body"))
	}

	authorID := ""
	if identity := auth.GetIdentity(c); identity != nil {
		authorID = identity.UserID
	}

	p, err := h.postService.Create(c.UserContext(), authorID, in)
	if err != nil {
		return errorFor(c, err)
	}

	return utils.SuccessResponse(c, fiber.Map{"post": p}, "Post created successfully", fiber.StatusCreated)
}

// UpdatePost handles a partial update of a post
func (h *Handler) UpdatePost(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, utils.ErrBadRequest.WithDetails("invalid post id"))
	}

	var in Input
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, utils.ErrBadRequest.WithDetails("invalid body"))
	}

	p, err := h.postService.Update(c.UserContext(), id, in)
	if err != nil {
		return errorFor(c, err)
	}

	return utils.SuccessResponse(c, fiber.Map{"post": p}, "Post updated successfully")
}

// DeletePost handles the soft deletion of a post
func (h *Handler) DeletePost(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, utils.ErrBadRequest.WithDetails("invalid post id"))
	}

	if err := h.postService.Delete(c.UserContext(), id); err != nil {
		return errorFor(c, err)
	}

	return utils.SuccessResponse(c, nil, "Post deleted successfully")
}
