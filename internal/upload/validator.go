// Package upload validates files before any extraction work happens.
package upload

import (
	"errors"
	"fmt"
)

// DefaultMaxFileSize is the upload cap when no limit is configured.
const DefaultMaxFileSize = 10 * 1024 * 1024

// Accepted MIME types, as declared by the client.
var allowedMIMETypes = map[string]struct{}{
	"application/pdf": {},
	"text/plain":      {},
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/bmp":       {},
	"image/webp":      {},
}

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
)

type Validator struct {
	maxFileSize int64
}

func NewValidator(maxFileSize int64) *Validator {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Validator{maxFileSize: maxFileSize}
}

func (v *Validator) MaxFileSize() int64 {
	return v.maxFileSize
}

// Validate checks the declared MIME type against the allow-list and the size
// against the cap. The returned error names the constraint that failed;
// callers must check it before invoking extraction.
func (v *Validator) Validate(mimeType string, sizeBytes int64) error {
	if _, ok := allowedMIMETypes[mimeType]; !ok {
		return fmt.Errorf("%w: %q (accepted: PDF, plain text, JPEG, PNG, GIF, BMP, WebP)",
			ErrUnsupportedType, mimeType)
	}
	if sizeBytes > v.maxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrFileTooLarge, sizeBytes, v.maxFileSize)
	}
	return nil
}

// Allowed lists the accepted MIME types; used by the API to describe limits.
func Allowed() []string {
	types := make([]string, 0, len(allowedMIMETypes))
	for t := range allowedMIMETypes {
		types = append(types, t)
	}
	return types
}
