package model

import "time"

// UploadRecord is the upload-activity row written after a successful
// extraction. The file bytes themselves are never stored, only the derived
// text and the file metadata.
type UploadRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	Email         string    `gorm:"size:128;not null" json:"email"`
	FileName      string    `gorm:"size:256;not null" json:"file_name"`
	FileType      string    `gorm:"size:64;not null" json:"file_type"`
	FileSizeBytes int64     `gorm:"not null" json:"file_size_bytes"`
	ExtractedText string    `gorm:"type:text;not null" json:"extracted_text"`
	Analysis      string    `gorm:"type:text" json:"analysis,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
