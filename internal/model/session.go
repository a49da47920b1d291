package model

import "time"

// Session contexts. The context is fixed when the session is created and
// tells the assistant what kind of conversation this is.
const (
	ContextUpload         = "upload"
	ContextMedicineSearch = "medicine-search"
	ContextQuestion       = "question"
)

// ValidContext reports whether ctx is one of the known session contexts.
func ValidContext(ctx string) bool {
	switch ctx {
	case ContextUpload, ContextMedicineSearch, ContextQuestion:
		return true
	}
	return false
}

type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Title     string    `gorm:"size:128;not null" json:"title"`
	Context   string    `gorm:"size:32;not null" json:"context"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
