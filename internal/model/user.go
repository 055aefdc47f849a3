package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns tasks. Every task read or write is scoped
// by the owning user's id.
type User struct {
	ID             uuid.UUID `gorm:"type:text;primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex" json:"email"`
	PasswordHash   string    `json:"-"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Phone          string    `json:"phone,omitempty"`
	TelegramChatID *int64    `gorm:"index" json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
