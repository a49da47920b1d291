// Package extract turns validated uploads into text. One strategy exists per
// file family (plain text, PDF, raster image); the dispatcher selects it by
// the declared MIME type. Extraction never yields a silent empty string: the
// result is real content, an explicit placeholder, or an error.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Request carries one file's bytes plus per-call options. Language and
// OnProgress only matter to the image strategy; the others ignore them.
type Request struct {
	Data     []byte
	FileName string
	Language string
	// OnProgress receives 0-100 during OCR. UI feedback only; the result
	// does not depend on it.
	OnProgress func(percent int)
}

type Extractor interface {
	Extract(ctx context.Context, req Request) (string, error)
}

var ErrUnsupportedType = errors.New("no extraction strategy for file type")

// Dispatcher maps MIME types to extraction strategies.
type Dispatcher struct {
	plain Extractor
	pdf   Extractor
	image Extractor
}

// NewDispatcher wires the three strategies. recognizer may be nil when OCR
// is not configured; image extraction then fails with a clear message while
// the other types keep working.
func NewDispatcher(recognizer Recognizer) *Dispatcher {
	return &Dispatcher{
		plain: &PlainText{},
		pdf:   &PDF{},
		image: &Image{Recognizer: recognizer},
	}
}

// ForMIMEType returns the strategy for the declared type. Callers are
// expected to have run upload validation first; an unknown type here is a
// programming error surfaced as ErrUnsupportedType.
func (d *Dispatcher) ForMIMEType(mimeType string) (Extractor, error) {
	switch {
	case mimeType == "text/plain":
		return d.plain, nil
	case mimeType == "application/pdf":
		return d.pdf, nil
	case strings.HasPrefix(mimeType, "image/"):
		return d.image, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, mimeType)
}

func reportProgress(req Request, percent int) {
	if req.OnProgress == nil {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	req.OnProgress(percent)
}
