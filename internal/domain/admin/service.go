package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Anvoria/blogly/internal/cache"
	"gorm.io/gorm"
)

// Checker answers whether a user id belongs to an admin
type Checker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Service manages the admin registry
type Service interface {
	Checker
	Grant(ctx context.Context, userID, email, note string) (*Admin, error)
	Revoke(ctx context.Context, userID string) error
	List(ctx context.Context) ([]*Admin, error)
}

type service struct {
	repo  Repository
	cache *cache.AdminCache
}

// NewService creates an admin Service. adminCache may be nil.
func NewService(repo Repository, adminCache *cache.AdminCache) Service {
	return &service{repo: repo, cache: adminCache}
}

// IsAdmin checks the cache first and falls back to the registry table.
// Storage errors are returned so callers can deny access.
func (s *service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	userID = normalizeUserID(userID)
	if userID == "" {
		return false, nil
	}

	cached, err := s.cache.Get(ctx, userID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		slog.Warn("Admin cache read failed, using database", "user_id", userID, "error", err)
	}

	isAdmin := true
	if _, err := s.repo.FindByUserID(ctx, userID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("failed to look up admin: %w", err)
		}
		isAdmin = false
	}

	if err := s.cache.Set(ctx, userID, isAdmin); err != nil {
		slog.Warn("Failed to cache admin flag", "user_id", userID, "error", err)
	}

	return isAdmin, nil
}

// Grant adds userID to the registry
func (s *service) Grant(ctx context.Context, userID, email, note string) (*Admin, error) {
	userID = normalizeUserID(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	if _, err := s.repo.FindByUserID(ctx, userID); err == nil {
		return nil, ErrAdminExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	a := &Admin{UserID: userID, Email: email, Note: note}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	s.invalidate(ctx, userID)
	slog.Info("Admin granted", "user_id", userID)
	return a, nil
}

// Revoke removes userID from the registry
func (s *service) Revoke(ctx context.Context, userID string) error {
	userID = normalizeUserID(userID)
	if userID == "" {
		return ErrInvalidUserID
	}

	n, err := s.repo.DeleteByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke admin: %w", err)
	}

	s.invalidate(ctx, userID)
	if n == 0 {
		return ErrAdminNotFound
	}

	slog.Info("Admin revoked", "user_id", userID)
	return nil
}

// List returns every admin
func (s *service) List(ctx context.Context) ([]*Admin, error) {
	return s.repo.FindAll(ctx)
}

func (s *service) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		slog.Warn("Failed to invalidate admin cache", "user_id", userID, "error", err)
	}
}
