package comment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visibility selects comments by deletion state
type Visibility string

const (
	VisibilityActive  Visibility = "active"
	VisibilityDeleted Visibility = "deleted"
	VisibilityAll     Visibility = "all"
)

// IsValid checks if the visibility filter is known
func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityActive, VisibilityDeleted, VisibilityAll:
		return true
	default:
		return false
	}
}

// ModerationFilter narrows the moderation listing
type ModerationFilter struct {
	Visibility Visibility
	PostID     *uuid.UUID
	Offset     int
	Limit      int
}

// Repository interface for comment operations
type Repository interface {
	Create(ctx context.Context, c *Comment) error
	FindActiveByID(ctx context.Context, id uuid.UUID) (*Comment, error)
	FindByPost(ctx context.Context, postID uuid.UUID) ([]*Comment, error)
	FindForModeration(ctx context.Context, f ModerationFilter) ([]*Comment, int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new comment repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

// Create creates a new comment
func (r *repository) Create(ctx context.Context, c *Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// FindActiveByID gets a comment that has not been deleted
func (r *repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*Comment, error) {
	var c Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByPost gets the live comments of a post, oldest first
func (r *repository) FindByPost(ctx context.Context, postID uuid.UUID) ([]*Comment, error) {
	var comments []*Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *repository) moderationQuery(ctx context.Context, f ModerationFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&Comment{})
	switch f.Visibility {
	case VisibilityDeleted:
		q = q.Unscoped().Where("deleted_at IS NOT NULL")
	case VisibilityAll:
		q = q.Unscoped()
	}
	if f.PostID != nil {
		q = q.Where("post_id = ?", *f.PostID)
	}
	return q
}

// FindForModeration returns one page of comments for the dashboard, newest first
func (r *repository) FindForModeration(ctx context.Context, f ModerationFilter) ([]*Comment, int64, error) {
	var total int64
	if err := r.moderationQuery(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []*Comment
	err := r.moderationQuery(ctx, f).
		Order("created_at DESC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// SoftDelete sets deleted_at on a live comment. The deleted_at IS NULL guard makes this a
// compare-and-set: of two concurrent calls for the same id only one affects a row.
func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Comment{})
	return res.RowsAffected, res.Error
}
