package app

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"medilens/internal/extract"
	"medilens/internal/model"
	"medilens/internal/upload"
)

// UploadStore persists upload-activity rows; implemented by the gorm
// repository.
type UploadStore interface {
	Create(record *model.UploadRecord) error
	ListByUserID(userID uint, limit int) ([]model.UploadRecord, error)
	SetAnalysis(recordID uint, analysis string) error
}

// UploadService runs the ingestion pipeline: validate, extract, record.
// Validation always happens first; extraction is never attempted on a
// rejected file.
type UploadService struct {
	validator  *upload.Validator
	dispatcher *extract.Dispatcher
	uploads    UploadStore
	users      UserStore
	language   string
	logger     *zap.Logger
}

func NewUploadService(
	validator *upload.Validator,
	dispatcher *extract.Dispatcher,
	uploads UploadStore,
	users UserStore,
	defaultLanguage string,
	logger *zap.Logger,
) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{
		validator:  validator,
		dispatcher: dispatcher,
		uploads:    uploads,
		users:      users,
		language:   defaultLanguage,
		logger:     logger,
	}
}

type ProcessFileInput struct {
	UserID   uint
	FileName string
	MIMEType string
	Data     []byte
	// Language hints the OCR charset; empty uses the configured default.
	Language string
	// OnProgress receives 0-100 during OCR, for UI feedback only.
	OnProgress func(percent int)
}

type ProcessFileResult struct {
	RecordID      uint   `json:"record_id"`
	FileName      string `json:"file_name"`
	ExtractedText string `json:"extracted_text"`
}

// ProcessFile validates and extracts one uploaded file, then records the
// upload activity. The file bytes are transient; only the derived text and
// metadata survive the call.
func (s *UploadService) ProcessFile(ctx context.Context, input ProcessFileInput) (*ProcessFileResult, error) {
	if input.UserID == 0 || len(input.Data) == 0 {
		return nil, ErrInvalidInput
	}

	if err := s.validator.Validate(input.MIMEType, int64(len(input.Data))); err != nil {
		return nil, err
	}

	extractor, err := s.dispatcher.ForMIMEType(input.MIMEType)
	if err != nil {
		return nil, err
	}

	language := input.Language
	if language == "" {
		language = s.language
	}
	text, err := extractor.Extract(ctx, extract.Request{
		Data:       input.Data,
		FileName:   input.FileName,
		Language:   language,
		OnProgress: input.OnProgress,
	})
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidInput
	}

	record := &model.UploadRecord{
		UserID:        user.ID,
		Email:         user.Email,
		FileName:      strings.TrimSpace(input.FileName),
		FileType:      input.MIMEType,
		FileSizeBytes: int64(len(input.Data)),
		ExtractedText: text,
		CreatedAt:     time.Now(),
	}
	// Recording activity is best-effort; the extracted text is still
	// returned when the write fails.
	if err := s.uploads.Create(record); err != nil {
		s.logger.Warn("record upload activity failed",
			zap.Uint("user_id", user.ID), zap.String("file", record.FileName), zap.Error(err))
	}

	return &ProcessFileResult{
		RecordID:      record.ID,
		FileName:      record.FileName,
		ExtractedText: text,
	}, nil
}

// AttachAnalysis stores the assistant's reply next to the upload record that
// produced the analyzed text.
func (s *UploadService) AttachAnalysis(recordID uint, analysis string) {
	if recordID == 0 || strings.TrimSpace(analysis) == "" {
		return
	}
	if err := s.uploads.SetAnalysis(recordID, analysis); err != nil {
		s.logger.Warn("attach analysis failed", zap.Uint("record_id", recordID), zap.Error(err))
	}
}

// ListUploads returns the user's recent upload activity.
func (s *UploadService) ListUploads(userID uint, limit int) ([]model.UploadRecord, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.uploads.ListByUserID(userID, limit)
}
