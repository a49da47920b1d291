// Package ocr recognizes printed text in raster images with a CRNN ONNX
// model. Images are cut into horizontal text lines, each line is fed through
// the network, and the per-timestep class scores are CTC-decoded against a
// charset file.
package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/image/draw"

	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Model input geometry: one grayscale line, 32px tall, padded to 320 wide.
const (
	lineHeight = 32
	lineWidth  = 320
)

// Recognizer runs text recognition. The ONNX session is loaded lazily on
// first use and shared across calls under a mutex.
type Recognizer struct {
	mu sync.Mutex

	modelPath   string
	charsetPath string
	language    string
	libPath     string

	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	outDims []int64
	charset []rune
	inited  bool
}

// NewRecognizer creates a recognizer that lazily loads the model and charset.
// language names the charset's language and is matched against the per-call
// hint; an unknown hint falls back to this default.
func NewRecognizer(modelPath, charsetPath, language, onnxLibPath string) *Recognizer {
	if language == "" {
		language = "eng"
	}
	return &Recognizer{
		modelPath:   modelPath,
		charsetPath: charsetPath,
		language:    language,
		libPath:     onnxLibPath,
	}
}

func (r *Recognizer) initOnce() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inited {
		return nil
	}

	if r.libPath != "" {
		ort.SetSharedLibraryPath(r.libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("onnx init environment: %w", err)
	}

	charset, err := loadCharset(r.charsetPath)
	if err != nil {
		return fmt.Errorf("load charset: %w", err)
	}
	r.charset = charset

	inputs, outputs, err := ort.GetInputOutputInfo(r.modelPath)
	if err != nil {
		return fmt.Errorf("onnx get input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return fmt.Errorf("onnx model has no inputs or outputs")
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1, lineHeight, lineWidth))
	if err != nil {
		return fmt.Errorf("onnx new input tensor: %w", err)
	}
	r.input = inputTensor

	outShape := outputs[0].Dimensions
	outDims := make([]int64, len(outShape))
	for i, d := range outShape {
		if d <= 0 {
			// Dynamic axis; assume it matches the charset (+CTC blank).
			d = int64(len(charset) + 1)
		}
		outDims[i] = d
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(outDims...))
	if err != nil {
		inputTensor.Destroy()
		return fmt.Errorf("onnx new output tensor: %w", err)
	}
	r.output = outputTensor
	r.outDims = outDims

	inputNames := make([]string, len(inputs))
	for i := range inputs {
		inputNames[i] = inputs[i].Name
	}
	outputNames := make([]string, len(outputs))
	for i := range outputs {
		outputNames[i] = outputs[i].Name
	}

	session, err := ort.NewAdvancedSession(r.modelPath, inputNames, outputNames,
		[]ort.Value{r.input}, []ort.Value{r.output}, nil)
	if err != nil {
		outputTensor.Destroy()
		inputTensor.Destroy()
		return fmt.Errorf("onnx new session: %w", err)
	}
	r.session = session
	r.inited = true
	return nil
}

// Recognize returns the text found in the image. onProgress, when non-nil,
// receives 0-100 as lines complete.
func (r *Recognizer) Recognize(ctx context.Context, data []byte, language string, onProgress func(percent int)) (string, error) {
	// One charset per deployment: a hint that differs from the configured
	// language falls back to it rather than failing the upload.
	if err := r.initOnce(); err != nil {
		return "", err
	}

	progress := func(p int) {
		if onProgress != nil {
			onProgress(p)
		}
	}
	progress(5)

	img, err := decodeImage(data)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	gray := toGray(img)
	lines := segmentLines(gray)
	if len(lines) == 0 {
		return "", nil
	}
	progress(10)

	var out []string
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := r.recognizeLine(gray, line)
		if err != nil {
			return "", err
		}
		if text != "" {
			out = append(out, text)
		}
		progress(10 + 85*(i+1)/len(lines))
	}

	progress(100)
	return strings.Join(out, "\n"), nil
}

func (r *Recognizer) recognizeLine(gray *image.Gray, band lineBand) (string, error) {
	inputData := preprocessLine(gray, band)

	r.mu.Lock()
	in := r.input.GetData()
	if len(in) < len(inputData) {
		r.mu.Unlock()
		return "", fmt.Errorf("input tensor size %d < preprocessed %d", len(in), len(inputData))
	}
	copy(in, inputData)
	err := r.session.Run()
	if err != nil {
		r.mu.Unlock()
		return "", fmt.Errorf("onnx run: %w", err)
	}

	scores := make([]float32, len(r.output.GetData()))
	copy(scores, r.output.GetData())
	r.mu.Unlock()

	classes := len(r.charset) + 1 // index 0 is the CTC blank
	if len(r.outDims) > 0 {
		classes = int(r.outDims[len(r.outDims)-1])
	}
	return ctcGreedyDecode(scores, classes, r.charset), nil
}

// Close releases the ONNX session and tensors.
func (r *Recognizer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inited {
		return
	}
	r.session.Destroy()
	r.output.Destroy()
	r.input.Destroy()
	r.inited = false
}

func loadCharset(path string) ([]rune, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var charset []rune
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			charset = append(charset, ' ')
			continue
		}
		charset = append(charset, []rune(line)[0])
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(charset) == 0 {
		return nil, fmt.Errorf("charset file %s is empty", path)
	}
	return charset, nil
}

// ctcGreedyDecode takes flattened [T x classes] scores, picks the argmax per
// timestep, collapses repeats, and drops the blank class at index 0.
func ctcGreedyDecode(scores []float32, classes int, charset []rune) string {
	if classes <= 0 || len(scores) < classes {
		return ""
	}

	var b strings.Builder
	prev := -1
	for t := 0; t+classes <= len(scores); t += classes {
		best := 0
		bestScore := scores[t]
		for c := 1; c < classes; c++ {
			if scores[t+c] > bestScore {
				best = c
				bestScore = scores[t+c]
			}
		}
		if best != prev && best > 0 && best-1 < len(charset) {
			b.WriteRune(charset[best-1])
		}
		prev = best
	}
	return strings.TrimSpace(b.String())
}

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Try JPEG and PNG explicitly (image.Decode may not recognize some)
		img, err = jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			img, err = png.Decode(bytes.NewReader(data))
			if err != nil {
				return nil, err
			}
		}
	}
	return img, nil
}

func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

type lineBand struct {
	top, bottom int
}

// segmentLines finds horizontal text bands with a row-darkness projection:
// rows darker than the page average by a margin belong to text, contiguous
// runs of them form a line.
func segmentLines(gray *image.Gray) []lineBand {
	bounds := gray.Bounds()
	h := bounds.Dy()
	w := bounds.Dx()
	if h == 0 || w == 0 {
		return nil
	}

	darkness := make([]float64, h)
	var total float64
	for y := 0; y < h; y++ {
		var rowSum float64
		for x := 0; x < w; x++ {
			rowSum += 255 - float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
		}
		darkness[y] = rowSum / float64(w)
		total += darkness[y]
	}
	threshold := (total / float64(h)) * 1.1

	var bands []lineBand
	inBand := false
	start := 0
	for y := 0; y < h; y++ {
		if darkness[y] > threshold {
			if !inBand {
				inBand = true
				start = y
			}
			continue
		}
		if inBand {
			inBand = false
			if y-start >= 4 { // ignore specks
				bands = append(bands, lineBand{top: start, bottom: y})
			}
		}
	}
	if inBand && h-start >= 4 {
		bands = append(bands, lineBand{top: start, bottom: h})
	}

	// A uniform image (no contrast) produces no bands; a dense image with no
	// clear gaps is treated as one line.
	if len(bands) == 0 && total/float64(h) > 8 {
		bands = append(bands, lineBand{top: 0, bottom: h})
	}
	return bands
}

// preprocessLine scales one text band to 32px height, pads or crops to 320px
// width, and normalizes pixels to [-1, 1] in NCHW layout.
func preprocessLine(gray *image.Gray, band lineBand) []float32 {
	bounds := gray.Bounds()
	src := gray.SubImage(image.Rect(
		bounds.Min.X, bounds.Min.Y+band.top,
		bounds.Max.X, bounds.Min.Y+band.bottom,
	))

	srcW := bounds.Dx()
	srcH := band.bottom - band.top
	scaledW := srcW * lineHeight / srcH
	if scaledW > lineWidth {
		scaledW = lineWidth
	}
	if scaledW < 1 {
		scaledW = 1
	}

	dst := image.NewGray(image.Rect(0, 0, lineWidth, lineHeight))
	// Pad with white on the right.
	for i := range dst.Pix {
		dst.Pix[i] = 255
	}
	draw.CatmullRom.Scale(dst, image.Rect(0, 0, scaledW, lineHeight), src, src.Bounds(), draw.Src, nil)

	out := make([]float32, lineHeight*lineWidth)
	for y := 0; y < lineHeight; y++ {
		for x := 0; x < lineWidth; x++ {
			v := float32(dst.GrayAt(x, y).Y) / 255.0
			out[y*lineWidth+x] = (v - 0.5) / 0.5
		}
	}
	return out
}
