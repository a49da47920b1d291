package extract

import (
	"bytes"
	"context"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Below this many printable characters a PDF is assumed to hold scanned
// images or layout the decoder cannot read, and the placeholder is returned
// instead of garbage.
const minPDFTextLen = 50

// PDFPlaceholder is returned for PDFs with no extractable text.
const PDFPlaceholder = "This PDF appears to contain images or complex formatting. " +
	"No readable text could be extracted; try uploading a photo of the document instead."

// PDF extracts text via the PDF decoder, falling back to a best-effort scan
// of the raw bytes when the structured extraction yields nothing.
type PDF struct{}

func (p *PDF) Extract(_ context.Context, req Request) (string, error) {
	if text := decodePDF(req.Data); printableLen(text) >= minPDFTextLen {
		return strings.TrimSpace(text), nil
	}

	// Best-effort: strip non-printable bytes from the raw stream. Catches
	// uncompressed text objects in PDFs the decoder chokes on.
	if text := printableScan(req.Data); printableLen(text) >= minPDFTextLen {
		return strings.TrimSpace(text), nil
	}

	return PDFPlaceholder, nil
}

func decodePDF(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return ""
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return ""
	}
	return string(out)
}

func printableScan(data []byte) string {
	var b strings.Builder
	lastSpace := true
	for _, c := range string(data) {
		if unicode.IsPrint(c) && c != unicode.ReplacementChar {
			b.WriteRune(c)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return b.String()
}

func printableLen(s string) int {
	n := 0
	for _, c := range s {
		if !unicode.IsSpace(c) && unicode.IsPrint(c) {
			n++
		}
	}
	return n
}
