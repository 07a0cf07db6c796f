package comment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Anvoria/blogly/internal/config"
	"github.com/Anvoria/blogly/internal/domain/admin"
	"github.com/Anvoria/blogly/internal/domain/grant"
	"github.com/Anvoria/blogly/internal/domain/post"
	"github.com/Anvoria/blogly/internal/domain/session"
	"github.com/Anvoria/blogly/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateRequest is a new comment from an anonymous reader
type CreateRequest struct {
	PostID     uuid.UUID
	AuthorName string
	Content    string
	SessionID  session.ID
}

// Created is the stored comment and, when a grant was issued, the end of its deletion window
type Created struct {
	Comment        *Comment
	DeletableUntil *time.Time
}

// Thread is the comment list of one post as seen by one session
type Thread struct {
	Comments     []*Comment
	DeletableIDs []uuid.UUID
}

// DeleteRequest identifies the comment and everything known about the caller
type DeleteRequest struct {
	CommentID string
	SessionID session.ID
	UserID    string
}

// ModerationQuery is a dashboard listing request
type ModerationQuery struct {
	Visibility Visibility
	PostID     *uuid.UUID
	utils.Pagination
}

// ModerationPage is one page of the moderation listing
type ModerationPage struct {
	Comments []*Comment
	Total    int64
	utils.Pagination
}

// Service defines comment operations
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Created, error)
	ListForPost(ctx context.Context, postID uuid.UUID, sid session.ID) (*Thread, error)
	Delete(ctx context.Context, req DeleteRequest) error
	ListForModeration(ctx context.Context, q ModerationQuery) (*ModerationPage, error)
}

type service struct {
	repo   Repository
	ledger grant.Ledger
	posts  post.Finder
	admins admin.Checker
	limits config.CommentsConfig
}

// NewService creates a comment service
func NewService(repo Repository, ledger grant.Ledger, posts post.Finder, admins admin.Checker, limits config.CommentsConfig) Service {
	return &service{
		repo:   repo,
		ledger: ledger,
		posts:  posts,
		admins: admins,
		limits: limits,
	}
}

// Create stores a comment on a published post and grants its session the right to delete it.
// The grant is best-effort: the comment is kept even when the ledger write fails.
func (s *service) Create(ctx context.Context, req CreateRequest) (*Created, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrContentRequired
	}
	if utf8.RuneCountInString(content) > s.limits.ContentLimit() {
		return nil, ErrContentTooLong
	}

	author := strings.TrimSpace(req.AuthorName)
	if author == "" {
		author = DefaultAuthorName
	}
	if utf8.RuneCountInString(author) > s.limits.AuthorLimit() {
		return nil, ErrAuthorTooLong
	}

	p, err := s.publishedPost(ctx, req.PostID)
	if err != nil {
		return nil, err
	}

	c := &Comment{
		PostID:     p.ID,
		AuthorName: author,
		Content:    content,
		Locale:     p.Locale,
		SessionID:  req.SessionID.String(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	created := &Created{Comment: c}
	if expiresAt, err := s.ledger.Grant(ctx, req.SessionID, c.ID); err != nil {
		slog.Warn("Failed to grant comment deletion right", "comment_id", c.ID, "session_id", req.SessionID, "error", err)
	} else {
		created.DeletableUntil = &expiresAt
	}

	return created, nil
}

// ListForPost returns the live comments of a published post and which of them sid may delete.
// A ledger failure only hides the delete affordance.
func (s *service) ListForPost(ctx context.Context, postID uuid.UUID, sid session.ID) (*Thread, error) {
	if _, err := s.publishedPost(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := s.repo.FindByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	deletable, err := s.ledger.ListDeletable(ctx, sid, postID)
	if err != nil {
		slog.Warn("Failed to list deletable comments", "post_id", postID, "session_id", sid, "error", err)
		deletable = []uuid.UUID{}
	}

	return &Thread{Comments: comments, DeletableIDs: deletable}, nil
}

// Delete soft-deletes a comment for an admin or for the session holding a live grant.
// Missing and already-deleted comments both yield ErrCommentNotFound, including the
// loser of two concurrent deletes.
func (s *service) Delete(ctx context.Context, req DeleteRequest) error {
	commentID, err := uuid.Parse(strings.TrimSpace(req.CommentID))
	if err != nil || commentID == uuid.Nil {
		return ErrInvalidRequest
	}

	if _, err := s.repo.FindActiveByID(ctx, commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to load comment: %w", err)
	}

	asAdmin := s.isAdmin(ctx, req.UserID)
	if !asAdmin && !s.ledger.Check(ctx, req.SessionID, commentID) {
		// A denial caused by the request deadline is a storage failure, not a verdict
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("failed to check deletion grant: %w", err)
		}
		return ErrForbidden
	}

	n, err := s.repo.SoftDelete(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if n == 0 {
		return ErrCommentNotFound
	}

	if !asAdmin {
		if err := s.ledger.Revoke(ctx, req.SessionID, commentID); err != nil {
			slog.Warn("Failed to revoke deletion grant", "comment_id", commentID, "session_id", req.SessionID, "error", err)
		}
	}

	slog.Info("Comment deleted", "comment_id", commentID, "admin", asAdmin)
	return nil
}

// isAdmin treats a registry failure as "not an admin"; the caller then needs a grant like anyone else
func (s *service) isAdmin(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	ok, err := s.admins.IsAdmin(ctx, userID)
	if err != nil {
		slog.Warn("Admin check failed, falling back to deletion grant", "user_id", userID, "error", err)
		return false
	}
	return ok
}

// ListForModeration pages through comments for the dashboard
func (s *service) ListForModeration(ctx context.Context, q ModerationQuery) (*ModerationPage, error) {
	if q.Visibility == "" {
		q.Visibility = VisibilityActive
	}
	if !q.Visibility.IsValid() {
		return nil, ErrInvalidStatus
	}

	page := utils.NewPagination(q.Page, q.Limit)
	comments, total, err := s.repo.FindForModeration(ctx, ModerationFilter{
		Visibility: q.Visibility,
		PostID:     q.PostID,
		Offset:     page.Offset(),
		Limit:      page.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return &ModerationPage{Comments: comments, Total: total, Pagination: page}, nil
}

func (s *service) publishedPost(ctx context.Context, postID uuid.UUID) (*post.Post, error) {
	p, err := s.posts.FindPublishedByID(ctx, postID)
	if err != nil {
		if errors.Is(err, post.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	return p, nil
}
