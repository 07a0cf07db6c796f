package admin

import (
	"context"

	"gorm.io/gorm"
)

// Repository interface for admin registry operations
type Repository interface {
	Create(ctx context.Context, a *Admin) error
	FindByUserID(ctx context.Context, userID string) (*Admin, error)
	FindAll(ctx context.Context) ([]*Admin, error)
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new admin repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

// Create creates a new admin
func (r *repository) Create(ctx context.Context, a *Admin) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// FindByUserID gets an admin by identity-provider user id
func (r *repository) FindByUserID(ctx context.Context, userID string) (*Admin, error) {
	var a Admin
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindAll gets all admins, oldest first
func (r *repository) FindAll(ctx context.Context) ([]*Admin, error) {
	var admins []*Admin
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}

// DeleteByUserID removes the row outright so the user can be granted again later
func (r *repository) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Unscoped().Where("user_id = ?", userID).Delete(&Admin{})
	return res.RowsAffected, res.Error
}
