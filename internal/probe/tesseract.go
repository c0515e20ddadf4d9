package probe

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strconv"
	"strings"
	"time"

	"github.com/npratt/voidhunter/internal/exec"
)

// Recognizer turns an image of a single text line into text.
type Recognizer interface {
	Text(ctx context.Context, img image.Image) (string, error)
}

// TesseractOptions configures the tesseract command line.
type TesseractOptions struct {
	Binary   string
	Language string
	PSM      int
	Timeout  time.Duration
}

// Tesseract recognizes text by piping a PNG into the tesseract CLI.
type Tesseract struct {
	runner exec.CommandRunner
	opts   TesseractOptions
}

// NewTesseract creates a recognizer. Zero option fields fall back to
// "tesseract", "eng" and page segmentation mode 7 (single text line).
func NewTesseract(runner exec.CommandRunner, opts TesseractOptions) *Tesseract {
	if opts.Binary == "" {
		opts.Binary = "tesseract"
	}
	if opts.Language == "" {
		opts.Language = "eng"
	}
	if opts.PSM == 0 {
		opts.PSM = 7
	}
	return &Tesseract{runner: runner, opts: opts}
}

// Args returns the arguments passed to the tesseract binary.
func (t *Tesseract) Args() []string {
	return []string{"stdin", "stdout", "--psm", strconv.Itoa(t.opts.PSM), "-l", t.opts.Language}
}

// Text implements Recognizer.
func (t *Tesseract) Text(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode crop: %w", err)
	}

	if t.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.Timeout)
		defer cancel()
	}

	out, err := t.runner.Run(ctx, buf.Bytes(), t.opts.Binary, t.Args()...)
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
