package post

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Filter narrows a post listing
type Filter struct {
	Locale        string
	Search        string
	Status        Status
	PublishedOnly bool
	Offset        int
	Limit         int
}

// Repository interface for post operations
type Repository interface {
	Create(ctx context.Context, p *Post) error
	Save(ctx context.Context, p *Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*Post, error)
	FindBySlug(ctx context.Context, slug, locale string) (*Post, error)
	FindAll(ctx context.Context, f Filter) ([]*Post, int64, error)
	FindLocales(ctx context.Context, slug string, publishedOnly bool) ([]string, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new post repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

// Create creates a new post
func (r *repository) Create(ctx context.Context, p *Post) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Save writes every column of p
func (r *repository) Save(ctx context.Context, p *Post) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// FindByID gets a post by ID
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	var p Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindBySlug gets a post by slug and locale, in any status
func (r *repository) FindBySlug(ctx context.Context, slug, locale string) (*Post, error) {
	var p Post
	if err := r.db.WithContext(ctx).Where("slug = ? AND locale = ?", slug, locale).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// likeEscaper makes % and _ in a search term match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func (r *repository) filtered(ctx context.Context, f Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&Post{})
	if f.PublishedOnly {
		q = q.Where("status = ?", StatusPublished)
	} else if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Locale != "" {
		q = q.Where("locale = ?", f.Locale)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(excerpt) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\'`, like, like, like)
	}
	return q
}

// FindAll returns one page of posts matching f and the total match count
func (r *repository) FindAll(ctx context.Context, f Filter) ([]*Post, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at DESC"
	if f.PublishedOnly {
		order = "published_at DESC, created_at DESC"
	}

	var posts []*Post
	err := r.filtered(ctx, f).
		Order(order).
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// FindLocales lists the locales a slug exists in
func (r *repository) FindLocales(ctx context.Context, slug string, publishedOnly bool) ([]string, error) {
	q := r.db.WithContext(ctx).Model(&Post{}).Where("slug = ?", slug)
	if publishedOnly {
		q = q.Where("status = ?", StatusPublished)
	}

	var locales []string
	if err := q.Order("locale ASC").Pluck("locale", &locales).Error; err != nil {
		return nil, err
	}
	return locales, nil
}

// Delete soft-deletes a post
func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Post{})
	return res.RowsAffected, res.Error
}
