package admin

import (
	"strings"

	"github.com/Anvoria/blogly/internal/database"
)

// Admin marks an identity-provider user as a blog administrator
type Admin struct {
	database.BaseModel
	UserID string `gorm:"column:user_id;type:varchar(255);not null;uniqueIndex:idx_admins_user_id" json:"user_id"`
	Email  string `gorm:"column:email;type:varchar(255);not null;default:''" json:"email"`
	Note   string `gorm:"column:note;type:text;not null;default:''" json:"note,omitempty"`
}

// normalizeUserID trims the subject claim so lookups match what was stored
func normalizeUserID(userID string) string {
	return strings.TrimSpace(userID)
}
