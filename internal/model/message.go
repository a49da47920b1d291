package model

import "time"

// Message roles and attachment types.
const (
	RoleUser = "user"
	RoleBot  = "bot"

	AttachmentText = "text"
	AttachmentFile = "file"
)

// Message is immutable once created; transcripts are ordered by CreatedAt
// within a session.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SessionID      uint      `gorm:"not null;index" json:"session_id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Role           string    `gorm:"size:16;not null;index" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	AttachmentType string    `gorm:"size:16" json:"attachment_type,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
