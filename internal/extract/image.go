package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// OCRPlaceholder is returned when recognition yields nothing readable.
const OCRPlaceholder = "No readable text was found in this image. " +
	"Try a sharper photo with the text clearly visible."

// Recognizer is the optical character recognition capability the image
// strategy depends on. Implemented by ocr.Recognizer.
type Recognizer interface {
	Recognize(ctx context.Context, data []byte, language string, onProgress func(percent int)) (string, error)
}

var ErrOCRUnavailable = errors.New("image text recognition is not configured")

// Image runs OCR over a raster image of any accepted format.
type Image struct {
	Recognizer Recognizer
}

func (i *Image) Extract(ctx context.Context, req Request) (string, error) {
	if i.Recognizer == nil {
		return "", ErrOCRUnavailable
	}

	reportProgress(req, 0)
	text, err := i.Recognizer.Recognize(ctx, req.Data, req.Language, func(percent int) {
		reportProgress(req, percent)
	})
	if err != nil {
		return "", fmt.Errorf("failed to extract text from image: %w", err)
	}
	reportProgress(req, 100)

	if strings.TrimSpace(text) == "" {
		return OCRPlaceholder, nil
	}
	return strings.TrimSpace(text), nil
}
