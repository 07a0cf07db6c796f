package grant

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultWindow is how long a session keeps the right to delete a comment it created
const DefaultWindow = 30 * time.Minute

// Grant is one ledger row: session SessionID may delete CommentID until ExpiresAt.
// At most one row exists per (SessionID, CommentID).
type Grant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
	SessionID string    `gorm:"column:session_id;type:varchar(64);not null;uniqueIndex:idx_grants_session_comment,priority:1"`
	CommentID uuid.UUID `gorm:"column:comment_id;type:uuid;not null;uniqueIndex:idx_grants_session_comment,priority:2"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index:idx_grants_expires_at"`
}

// TableName overrides the default pluralised name
func (Grant) TableName() string {
	return "comment_deletion_grants"
}

// BeforeCreate assigns a random UUID when the caller did not set one
func (g *Grant) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// ActiveAt reports whether the grant is still valid at t
func (g *Grant) ActiveAt(t time.Time) bool {
	return t.Before(g.ExpiresAt)
}
