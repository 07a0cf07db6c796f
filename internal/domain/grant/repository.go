package grant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository interface for deletion grant storage
type Repository interface {
	Upsert(ctx context.Context, g *Grant) error
	Find(ctx context.Context, sessionID string, commentID uuid.UUID) (*Grant, error)
	Delete(ctx context.Context, sessionID string, commentID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	FindActiveCommentIDs(ctx context.Context, sessionID string, postID uuid.UUID, now time.Time) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new grant repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

// Upsert inserts g, or moves the expiry of the existing row for the same pair to g.ExpiresAt
func (r *repository) Upsert(ctx context.Context, g *Grant) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "comment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"expires_at"}),
	}).Create(g).Error
}

// Find returns the grant row for the pair
func (r *repository) Find(ctx context.Context, sessionID string, commentID uuid.UUID) (*Grant, error) {
	var g Grant
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND comment_id = ?", sessionID, commentID).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Delete removes the grant row for the pair. Deleting a missing row is not an error.
func (r *repository) Delete(ctx context.Context, sessionID string, commentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("session_id = ? AND comment_id = ?", sessionID, commentID).
		Delete(&Grant{}).Error
}

// DeleteExpired removes every row whose expiry is at or before now
func (r *repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&Grant{})
	return res.RowsAffected, res.Error
}

// FindActiveCommentIDs lists the live comments under postID that sessionID may still delete
func (r *repository) FindActiveCommentIDs(ctx context.Context, sessionID string, postID uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&Grant{}).
		Joins("JOIN comments ON comments.id = comment_deletion_grants.comment_id").
		Where("comment_deletion_grants.session_id = ?", sessionID).
		Where("comment_deletion_grants.expires_at > ?", now).
		Where("comments.post_id = ? AND comments.deleted_at IS NULL", postID).
		Order("comments.created_at ASC").
		Pluck("comment_deletion_grants.comment_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
