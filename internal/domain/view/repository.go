package view

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository interface for view storage
type Repository interface {
	Insert(ctx context.Context, v *PostView) (bool, error)
	CountByPost(ctx context.Context, postID uuid.UUID) (int64, error)
	DailyCounts(ctx context.Context, since string) ([]DailyCount, error)
	TopPosts(ctx context.Context, since string, limit int) ([]PostCount, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new view repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

// Insert stores v unless the same viewer already has a row for that post and day.
// It reports whether a row was written.
func (r *repository) Insert(ctx context.Context, v *PostView) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(v)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountByPost returns the number of counted views of a post
func (r *repository) CountByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&PostView{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}

// DailyCounts returns per-day totals from since (inclusive), oldest first
func (r *repository) DailyCounts(ctx context.Context, since string) ([]DailyCount, error) {
	var rows []DailyCount
	err := r.db.WithContext(ctx).
		Model(&PostView{}).
		Select("view_date AS date, COUNT(*) AS views").
		Where("view_date >= ?", since).
		Group("view_date").
		Order("view_date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TopPosts returns the most viewed posts from since (inclusive)
func (r *repository) TopPosts(ctx context.Context, since string, limit int) ([]PostCount, error) {
	var rows []PostCount
	err := r.db.WithContext(ctx).
		Model(&PostView{}).
		Select("post_id, COUNT(*) AS views").
		Where("view_date >= ?", since).
		Group("post_id").
		Order("views DESC, post_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
