package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeRecognizer struct {
	text string
	err  error
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ []byte, _ string, onProgress func(int)) (string, error) {
	if onProgress != nil {
		onProgress(50)
	}
	return f.text, f.err
}

func TestPlainTextVerbatim(t *testing.T) {
	d := NewDispatcher(nil)
	ex, err := d.ForMIMEType("text/plain")
	if err != nil {
		t.Fatalf("ForMIMEType(text/plain): %v", err)
	}

	got, err := ex.Extract(context.Background(), Request{Data: []byte("hello")})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "hello" {
		t.Errorf("Extract = %q, want %q", got, "hello")
	}
}

func TestPlainTextRejectsBinary(t *testing.T) {
	ex := &PlainText{}
	_, err := ex.Extract(context.Background(), Request{Data: []byte{0xff, 0xfe, 0x00, 0x81}})
	if err == nil {
		t.Fatal("Extract on invalid UTF-8 should fail")
	}
	if !strings.Contains(err.Error(), "failed to read text file") {
		t.Errorf("error should be human-readable, got %v", err)
	}
}

func TestPDFPlaceholderForImageOnlyPDF(t *testing.T) {
	ex := &PDF{}
	// Binary junk with too little printable text to pass the heuristic.
	data := append([]byte("%PDF-1.4 "), make([]byte, 2048)...)
	got, err := ex.Extract(context.Background(), Request{Data: data})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != PDFPlaceholder {
		t.Errorf("Extract = %q, want placeholder", got)
	}
}

func TestPDFBestEffortScan(t *testing.T) {
	ex := &PDF{}
	// Not a decodable PDF, but carries plenty of printable text in the raw
	// stream; the fallback scan should recover it.
	body := "Take one tablet of Amoxicillin 500mg three times daily after meals for seven days."
	data := append([]byte{0x00, 0x01, 0x02}, []byte(body)...)
	got, err := ex.Extract(context.Background(), Request{Data: data})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(got, "Amoxicillin 500mg") {
		t.Errorf("Extract = %q, want recovered text", got)
	}
}

func TestImagePlaceholderForEmptyOCR(t *testing.T) {
	ex := &Image{Recognizer: &fakeRecognizer{text: "   \n\t "}}
	got, err := ex.Extract(context.Background(), Request{Data: []byte("png")})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != OCRPlaceholder {
		t.Errorf("Extract = %q, want placeholder", got)
	}
	if got == "" {
		t.Error("extraction must never return an empty string")
	}
}

func TestImageProgressReachesCompletion(t *testing.T) {
	ex := &Image{Recognizer: &fakeRecognizer{text: "Rx: Ibuprofen 200mg"}}

	var seen []int
	_, err := ex.Extract(context.Background(), Request{
		Data:       []byte("png"),
		OnProgress: func(p int) { seen = append(seen, p) },
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(seen) == 0 || seen[0] != 0 || seen[len(seen)-1] != 100 {
		t.Errorf("progress sequence %v should start at 0 and end at 100", seen)
	}
	for _, p := range seen {
		if p < 0 || p > 100 {
			t.Errorf("progress %d out of range", p)
		}
	}
}

func TestImageErrorIsDescriptive(t *testing.T) {
	ex := &Image{Recognizer: &fakeRecognizer{err: errors.New("model not loaded")}}
	_, err := ex.Extract(context.Background(), Request{Data: []byte("png")})
	if err == nil || !strings.Contains(err.Error(), "failed to extract text from image") {
		t.Errorf("error = %v, want wrapped extraction message", err)
	}
}

func TestImageWithoutRecognizer(t *testing.T) {
	ex := &Image{}
	_, err := ex.Extract(context.Background(), Request{Data: []byte("png")})
	if !errors.Is(err, ErrOCRUnavailable) {
		t.Errorf("error = %v, want ErrOCRUnavailable", err)
	}
}

func TestDispatcherSelection(t *testing.T) {
	d := NewDispatcher(&fakeRecognizer{})

	cases := []struct {
		mime    string
		wantErr bool
	}{
		{mime: "text/plain"},
		{mime: "application/pdf"},
		{mime: "image/png"},
		{mime: "image/webp"},
		{mime: "application/zip", wantErr: true},
	}
	for _, tc := range cases {
		ex, err := d.ForMIMEType(tc.mime)
		if tc.wantErr {
			if !errors.Is(err, ErrUnsupportedType) {
				t.Errorf("ForMIMEType(%q) err = %v, want ErrUnsupportedType", tc.mime, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ForMIMEType(%q): %v", tc.mime, err)
			continue
		}
		if ex == nil {
			t.Errorf("ForMIMEType(%q) returned nil extractor", tc.mime)
		}
	}
}
