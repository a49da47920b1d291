package app

import (
	"context"
	"errors"
	"testing"

	"medilens/internal/extract"
	"medilens/internal/model"
	"medilens/internal/upload"
)

type fakeUploadStore struct {
	records   []model.UploadRecord
	createErr error
	analyses  map[uint]string
}

func (f *fakeUploadStore) Create(record *model.UploadRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	record.ID = uint(len(f.records) + 1)
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeUploadStore) ListByUserID(userID uint, _ int) ([]model.UploadRecord, error) {
	var out []model.UploadRecord
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeUploadStore) SetAnalysis(recordID uint, analysis string) error {
	if f.analyses == nil {
		f.analyses = map[uint]string{}
	}
	f.analyses[recordID] = analysis
	return nil
}

type countingRecognizer struct {
	text  string
	calls int
}

func (c *countingRecognizer) Recognize(_ context.Context, _ []byte, _ string, _ func(int)) (string, error) {
	c.calls++
	return c.text, nil
}

func newTestUploadService(recognizer extract.Recognizer) (*UploadService, *fakeUploadStore) {
	store := &fakeUploadStore{}
	users := &fakeUserStore{users: map[uint]*model.User{
		1: {ID: 1, Username: "pat", Email: "pat@example.com"},
	}}
	svc := NewUploadService(
		upload.NewValidator(upload.DefaultMaxFileSize),
		extract.NewDispatcher(recognizer),
		store,
		users,
		"eng",
		nil,
	)
	return svc, store
}

func TestProcessFilePlainText(t *testing.T) {
	svc, store := newTestUploadService(nil)

	result, err := svc.ProcessFile(context.Background(), ProcessFileInput{
		UserID:   1,
		FileName: "rx.txt",
		MIMEType: "text/plain",
		Data:     []byte("Amoxicillin 500mg three times daily"),
	})
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if result.ExtractedText != "Amoxicillin 500mg three times daily" {
		t.Errorf("extracted = %q", result.ExtractedText)
	}
	if len(store.records) != 1 {
		t.Fatalf("stored %d records, want 1", len(store.records))
	}
	rec := store.records[0]
	if rec.FileType != "text/plain" || rec.FileSizeBytes != 35 || rec.Email != "pat@example.com" {
		t.Errorf("record = %+v", rec)
	}
}

func TestProcessFileRejectsBeforeExtraction(t *testing.T) {
	recognizer := &countingRecognizer{text: "should never run"}
	svc, store := newTestUploadService(recognizer)

	_, err := svc.ProcessFile(context.Background(), ProcessFileInput{
		UserID:   1,
		FileName: "report.zip",
		MIMEType: "application/zip",
		Data:     []byte{0x50, 0x4b, 0x03, 0x04},
	})
	if !errors.Is(err, upload.ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
	if recognizer.calls != 0 {
		t.Errorf("recognizer invoked %d times for a rejected file", recognizer.calls)
	}
	if len(store.records) != 0 {
		t.Error("no record should be written for a rejected file")
	}
}

func TestProcessFileRejectsOversized(t *testing.T) {
	recognizer := &countingRecognizer{}
	svc, _ := newTestUploadService(recognizer)

	_, err := svc.ProcessFile(context.Background(), ProcessFileInput{
		UserID:   1,
		FileName: "scan.png",
		MIMEType: "image/png",
		Data:     make([]byte, upload.DefaultMaxFileSize+1),
	})
	if !errors.Is(err, upload.ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}
	if recognizer.calls != 0 {
		t.Error("recognizer must not run on an oversized file")
	}
}

func TestProcessFileRecordFailureStillReturnsText(t *testing.T) {
	svc, store := newTestUploadService(nil)
	store.createErr = errors.New("db down")

	result, err := svc.ProcessFile(context.Background(), ProcessFileInput{
		UserID:   1,
		FileName: "rx.txt",
		MIMEType: "text/plain",
		Data:     []byte("Ibuprofen 200mg as needed"),
	})
	if err != nil {
		t.Fatalf("ProcessFile should not fail when the activity write fails: %v", err)
	}
	if result.ExtractedText != "Ibuprofen 200mg as needed" {
		t.Errorf("extracted = %q", result.ExtractedText)
	}
}

func TestAttachAnalysis(t *testing.T) {
	svc, store := newTestUploadService(nil)

	svc.AttachAnalysis(7, "Take with food.")
	if store.analyses[7] != "Take with food." {
		t.Errorf("analyses = %v", store.analyses)
	}

	svc.AttachAnalysis(0, "ignored")
	svc.AttachAnalysis(8, "   ")
	if len(store.analyses) != 1 {
		t.Errorf("blank or zero-id analyses should be dropped: %v", store.analyses)
	}
}
