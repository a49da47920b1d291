package repository

import (
	"fmt"

	"gorm.io/gorm"

	"medilens/internal/model"
)

type UploadRecordRepository struct {
	db *gorm.DB
}

func NewUploadRecordRepository(db *gorm.DB) *UploadRecordRepository {
	return &UploadRecordRepository{db: db}
}

func (r *UploadRecordRepository) Create(record *model.UploadRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("create upload record failed: %w", err)
	}
	return nil
}

func (r *UploadRecordRepository) ListByUserID(userID uint, limit int) ([]model.UploadRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var records []model.UploadRecord
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list upload records failed: %w", err)
	}
	return records, nil
}

// SetAnalysis attaches the assistant's analysis to an existing record.
func (r *UploadRecordRepository) SetAnalysis(recordID uint, analysis string) error {
	if err := r.db.Model(&model.UploadRecord{}).Where("id = ?", recordID).
		Update("analysis", analysis).Error; err != nil {
		return fmt.Errorf("update upload record analysis failed: %w", err)
	}
	return nil
}
