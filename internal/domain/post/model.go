package post

import (
	"database/sql/driver"
	"time"

	"github.com/Anvoria/blogly/internal/database"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Status is the publication state of a post
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Tags is stored as a Postgres text[] column
type Tags []string

// Value implements driver.Valuer
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		t = Tags{}
	}
	return pq.StringArray(t).Value()
}

// Scan implements sql.Scanner
func (t *Tags) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*t = Tags(arr)
	return nil
}

// GormDataType implements schema.GormDataTypeInterface
func (Tags) GormDataType() string {
	return "text[]"
}

// GormDBDataType falls back to plain text outside Postgres; the array literal is kept as-is
func (Tags) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// Post is one locale's version of an article. Versions sharing a slug are translations of each other.
type Post struct {
	database.BaseModel
	Slug        string     `gorm:"column:slug;type:varchar(200);not null;uniqueIndex:idx_posts_slug_locale,where:deleted_at IS NULL" json:"slug"`
	Locale      string     `gorm:"column:locale;type:varchar(10);not null;uniqueIndex:idx_posts_slug_locale,where:deleted_at IS NULL" json:"locale"`
	Title       string     `gorm:"column:title;type:varchar(300);not null" json:"title"`
	Excerpt     string     `gorm:"column:excerpt;type:text;not null;default:''" json:"excerpt"`
	Content     string     `gorm:"column:content;type:text;not null;default:''" json:"content"`
	Tags        Tags       `gorm:"column:tags;not null" json:"tags"`
	Status      Status     `gorm:"column:status;type:varchar(20);not null;default:'draft'" json:"status"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	AuthorID    string     `gorm:"column:author_id;type:varchar(255);not null;default:''" json:"author_id,omitempty"`
}

// IsPublished reports whether the post is visible to the public
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// Summary is the list view of a post, without the body
type Summary struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Locale      string     `json:"locale"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Tags        []string   `json:"tags"`
	Status      Status     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// ToSummary converts a Post to its list representation
func (p *Post) ToSummary() *Summary {
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &Summary{
		ID:          p.ID.String(),
		Slug:        p.Slug,
		Locale:      p.Locale,
		Title:       p.Title,
		Excerpt:     p.Excerpt,
		Tags:        tags,
		Status:      p.Status,
		PublishedAt: p.PublishedAt,
	}
}
