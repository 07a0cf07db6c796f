package post

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Anvoria/blogly/internal/config"
	"github.com/Anvoria/blogly/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Query is a public or admin listing request
type Query struct {
	Locale string
	Search string
	Status Status
	utils.Pagination
}

// ListResult is one page of posts
type ListResult struct {
	Posts []*Post
	Total int64
	utils.Pagination
}

// Input carries the editable fields of a post. Nil fields are left unchanged on update.
type Input struct {
	Slug    *string   `json:"slug"`
	Locale  *string   `json:"locale"`
	Title   *string   `json:"title"`
	Excerpt *string   `json:"excerpt"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
	Status  *Status   `json:"status"`
}

// Finder looks up posts that readers can see
type Finder interface {
	FindPublishedByID(ctx context.Context, id uuid.UUID) (*Post, error)
}

// Service defines post browsing and content management
type Service interface {
	Finder
	List(ctx context.Context, q Query) (*ListResult, error)
	GetBySlug(ctx context.Context, slug, locale string) (*Post, error)
	Translations(ctx context.Context, slug string) ([]string, error)

	ListAll(ctx context.Context, q Query) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*Post, error)
	Create(ctx context.Context, authorID string, in Input) (*Post, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (*Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	app  *config.AppConfig
	now  func() time.Time
}

// NewService creates a post service for the locales configured in app
func NewService(repo Repository, app *config.AppConfig) Service {
	return &service{repo: repo, app: app, now: time.Now}
}

func (s *service) FindPublishedByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsPublished() {
		return nil, ErrPostNotFound
	}
	return p, nil
}

// List returns published posts, newest first
func (s *service) List(ctx context.Context, q Query) (*ListResult, error) {
	if q.Locale != "" && !s.app.SupportsLocale(q.Locale) {
		return nil, ErrUnsupportedLocale
	}
	return s.list(ctx, q, true)
}

// ListAll returns posts in any status for the dashboard
func (s *service) ListAll(ctx context.Context, q Query) (*ListResult, error) {
	if q.Status != "" && !q.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	return s.list(ctx, q, false)
}

func (s *service) list(ctx context.Context, q Query, publishedOnly bool) (*ListResult, error) {
	page := utils.NewPagination(q.Page, q.Limit)
	posts, total, err := s.repo.FindAll(ctx, Filter{
		Locale:        q.Locale,
		Search:        q.Search,
		Status:        q.Status,
		PublishedOnly: publishedOnly,
		Offset:        page.Offset(),
		Limit:         page.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return &ListResult{Posts: posts, Total: total, Pagination: page}, nil
}

// GetBySlug returns the published post in locale, falling back to the default locale
func (s *service) GetBySlug(ctx context.Context, slug, locale string) (*Post, error) {
	fallback := s.app.FallbackLocale()
	if locale == "" {
		locale = fallback
	}

	candidates := []string{locale}
	if locale != fallback {
		candidates = append(candidates, fallback)
	}

	for _, l := range candidates {
		p, err := s.repo.FindBySlug(ctx, slug, l)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get post: %w", err)
		}
		if p.IsPublished() {
			return p, nil
		}
	}
	return nil, ErrPostNotFound
}

// Translations lists the locales a published slug is available in
func (s *service) Translations(ctx context.Context, slug string) ([]string, error) {
	locales, err := s.repo.FindLocales(ctx, slug, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	return locales, nil
}

// Get returns a post in any status
func (s *service) Get(ctx context.Context, id uuid.UUID) (*Post, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return p, nil
}

// Create creates a post. Slug, locale and title are required; status defaults to draft.
func (s *service) Create(ctx context.Context, authorID string, in Input) (*Post, error) {
	p := &Post{Status: StatusDraft, AuthorID: authorID, Tags: Tags{}}
	if in.Locale == nil {
		locale := s.app.FallbackLocale()
		in.Locale = &locale
	}
	if in.Slug == nil {
		return nil, ErrInvalidSlug
	}
	if in.Title == nil {
		return nil, ErrTitleRequired
	}

	if err := s.apply(p, in); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindBySlug(ctx, p.Slug, p.Locale); err == nil {
		return nil, ErrSlugExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugExists
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return p, nil
}

// Update changes the non-nil fields of in
func (s *service) Update(ctx context.Context, id uuid.UUID, in Input) (*Post, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	oldSlug, oldLocale := p.Slug, p.Locale
	if err := s.apply(p, in); err != nil {
		return nil, err
	}

	if p.Slug != oldSlug || p.Locale != oldLocale {
		if _, err := s.repo.FindBySlug(ctx, p.Slug, p.Locale); err == nil {
			return nil, ErrSlugExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check slug: %w", err)
		}
	}

	if err := s.repo.Save(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugExists
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	return p, nil
}

// Delete soft-deletes a post
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}

// apply validates in and copies it onto p. The first publication stamps PublishedAt.
func (s *service) apply(p *Post, in Input) error {
	if in.Slug != nil {
		slug := strings.TrimSpace(*in.Slug)
		if !slugPattern.MatchString(slug) {
			return ErrInvalidSlug
		}
		p.Slug = slug
	}
	if in.Locale != nil {
		locale := strings.TrimSpace(*in.Locale)
		if !s.app.SupportsLocale(locale) {
			return ErrUnsupportedLocale
		}
		p.Locale = locale
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return ErrTitleRequired
		}
		p.Title = title
	}
	if in.Excerpt != nil {
		p.Excerpt = strings.TrimSpace(*in.Excerpt)
	}
	if in.Content != nil {
		p.Content = *in.Content
	}
	if in.Tags != nil {
		p.Tags = normalizeTags(*in.Tags)
	}
	if in.Status != nil {
		if !in.Status.IsValid() {
			return ErrInvalidStatus
		}
		p.Status = *in.Status
	}

	if p.IsPublished() && p.PublishedAt == nil {
		now := s.now().UTC()
		p.PublishedAt = &now
	}
	return nil
}

// normalizeTags lowercases, trims and de-duplicates tags, keeping their order
func normalizeTags(in []string) Tags {
	out := make(Tags, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
