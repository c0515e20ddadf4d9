package capture

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DirSource replays PNG frames from a directory in lexical order.
type DirSource struct {
	files []string
	next  int
}

// NewDirSource lists the PNG files in dir.
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .png frames in %s", dir)
	}
	slices.Sort(files)
	return &DirSource{files: files}, nil
}

// Len returns the number of frames.
func (d *DirSource) Len() int { return len(d.files) }

// Capture implements Source. It returns ErrExhausted after the last frame.
func (d *DirSource) Capture(ctx context.Context) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.next >= len(d.files) {
		return nil, ErrExhausted
	}
	path := d.files[d.next]
	d.next++
	return LoadPNG(path)
}

// LoadPNG decodes a PNG file into an RGBA image at the origin.
func LoadPNG(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return toRGBA(img), nil
}
