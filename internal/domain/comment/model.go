package comment

import (
	"time"

	"github.com/Anvoria/blogly/internal/database"
	"github.com/google/uuid"
)

// DefaultAuthorName is used when a commenter leaves the name blank
const DefaultAuthorName = "Anonymous"

// Comment is an anonymous reader comment under a post. Deletion sets deleted_at and never removes the row.
type Comment struct {
	database.BaseModel
	PostID     uuid.UUID `gorm:"column:post_id;type:uuid;not null;index:idx_comments_post_id" json:"post_id"`
	AuthorName string    `gorm:"column:author_name;type:varchar(100);not null" json:"author_name"`
	Content    string    `gorm:"column:content;type:text;not null" json:"content"`
	Locale     string    `gorm:"column:locale;type:varchar(10);not null;default:''" json:"locale"`
	SessionID  string    `gorm:"column:session_id;type:varchar(64);not null;default:''" json:"-"`
}

// Response is the public representation of a comment
type Response struct {
	ID         uuid.UUID `json:"id"`
	PostID     uuid.UUID `json:"post_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	Locale     string    `json:"locale"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToResponse converts a Comment to its public representation
func (c *Comment) ToResponse() *Response {
	return &Response{
		ID:         c.ID,
		PostID:     c.PostID,
		AuthorName: c.AuthorName,
		Content:    c.Content,
		Locale:     c.Locale,
		CreatedAt:  c.CreatedAt,
	}
}

// ModerationResponse is the dashboard representation, including deleted comments
type ModerationResponse struct {
	*Response
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// ToModerationResponse converts a Comment for the moderation list
func (c *Comment) ToModerationResponse() *ModerationResponse {
	r := &ModerationResponse{Response: c.ToResponse()}
	if c.DeletedAt.Valid {
		t := c.DeletedAt.Time
		r.DeletedAt = &t
	}
	return r
}
