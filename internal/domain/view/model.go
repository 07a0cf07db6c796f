package view

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DateLayout is the format of PostView.ViewDate
const DateLayout = "2006-01-02"

// PostView records that one viewer saw one post on one UTC day.
// The unique index is what limits a viewer to one counted view per post per day.
type PostView struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	PostID     uuid.UUID `gorm:"column:post_id;type:uuid;not null;uniqueIndex:idx_post_views_daily,priority:1"`
	ViewerHash string    `gorm:"column:viewer_hash;type:varchar(64);not null;uniqueIndex:idx_post_views_daily,priority:2"`
	ViewDate   string    `gorm:"column:view_date;type:varchar(10);not null;uniqueIndex:idx_post_views_daily,priority:3;index:idx_post_views_view_date"`
}

func (PostView) TableName() string {
	return "post_views"
}

// BeforeCreate assigns a random UUID when the caller did not set one
func (v *PostView) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Viewer is what is known about the reader; only its hash is stored
type Viewer struct {
	SessionID string
	IP        string
	UserAgent string
}

// DailyCount is the number of counted views on one day
type DailyCount struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

// PostCount is the number of counted views of one post
type PostCount struct {
	PostID uuid.UUID `json:"post_id"`
	Views  int64     `json:"views"`
}

// Summary is the dashboard view of recent traffic
type Summary struct {
	Since    string       `json:"since"`
	Total    int64        `json:"total"`
	Daily    []DailyCount `json:"daily"`
	TopPosts []PostCount  `json:"top_posts"`
}
