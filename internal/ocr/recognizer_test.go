package ocr

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestCTCGreedyDecode(t *testing.T) {
	charset := []rune("abc")
	// classes = blank + a,b,c = 4
	oneHot := func(idx int) []float32 {
		row := make([]float32, 4)
		row[idx] = 1
		return row
	}
	flatten := func(rows ...[]float32) []float32 {
		var out []float32
		for _, r := range rows {
			out = append(out, r...)
		}
		return out
	}

	cases := []struct {
		name   string
		scores []float32
		want   string
	}{
		{
			name:   "collapses repeats",
			scores: flatten(oneHot(1), oneHot(1), oneHot(2)),
			want:   "ab",
		},
		{
			name:   "blank separates repeats",
			scores: flatten(oneHot(1), oneHot(0), oneHot(1)),
			want:   "aa",
		},
		{
			name:   "all blanks",
			scores: flatten(oneHot(0), oneHot(0)),
			want:   "",
		},
		{
			name:   "full word",
			scores: flatten(oneHot(1), oneHot(2), oneHot(3)),
			want:   "abc",
		},
	}
	for _, tc := range cases {
		if got := ctcGreedyDecode(tc.scores, 4, charset); got != tc.want {
			t.Errorf("%s: decode = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCTCGreedyDecodeDegenerateInput(t *testing.T) {
	if got := ctcGreedyDecode(nil, 4, []rune("abc")); got != "" {
		t.Errorf("decode(nil) = %q, want empty", got)
	}
	if got := ctcGreedyDecode([]float32{1, 0}, 0, []rune("abc")); got != "" {
		t.Errorf("decode with zero classes = %q, want empty", got)
	}
}

func TestSegmentLinesFindsBands(t *testing.T) {
	// White page with two black stripes.
	img := image.NewGray(image.Rect(0, 0, 100, 60))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	paintRow := func(y int) {
		for x := 0; x < 100; x++ {
			img.SetGray(x, y, color.Gray{Y: 0})
		}
	}
	for y := 10; y < 18; y++ {
		paintRow(y)
	}
	for y := 35; y < 44; y++ {
		paintRow(y)
	}

	bands := segmentLines(img)
	if len(bands) != 2 {
		t.Fatalf("segmentLines found %d bands, want 2 (%v)", len(bands), bands)
	}
	if bands[0].top > 10 || bands[0].bottom < 18 {
		t.Errorf("first band %v should cover rows 10-18", bands[0])
	}
	if bands[1].top > 35 || bands[1].bottom < 44 {
		t.Errorf("second band %v should cover rows 35-44", bands[1])
	}
}

func TestSegmentLinesBlankImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 50, 50))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	if bands := segmentLines(img); len(bands) != 0 {
		t.Errorf("blank image should yield no bands, got %v", bands)
	}
}

func TestPreprocessLineShapeAndRange(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 200, 40))
	out := preprocessLine(img, lineBand{top: 0, bottom: 40})
	if len(out) != lineHeight*lineWidth {
		t.Fatalf("preprocessLine len = %d, want %d", len(out), lineHeight*lineWidth)
	}
	for i, v := range out {
		if v < -1.001 || v > 1.001 {
			t.Fatalf("pixel %d = %f outside [-1, 1]", i, v)
		}
	}
}

func TestLoadCharset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "charset.txt")
	if err := os.WriteFile(path, []byte("a\nb\n\n9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	charset, err := loadCharset(path)
	if err != nil {
		t.Fatalf("loadCharset: %v", err)
	}
	want := []rune{'a', 'b', ' ', '9'}
	if len(charset) != len(want) {
		t.Fatalf("charset = %v, want %v", charset, want)
	}
	for i := range want {
		if charset[i] != want[i] {
			t.Errorf("charset[%d] = %q, want %q", i, charset[i], want[i])
		}
	}
}

func TestLoadCharsetEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "charset.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadCharset(path); err == nil {
		t.Error("loadCharset on empty file should fail")
	}
}
