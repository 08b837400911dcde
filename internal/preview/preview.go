// Package preview renders thumbnails for files picked in the documents step.
package preview

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
	"github.com/intern-ship-it/new-chinese-sub016/internal/wizard"
)

// ThumbWidth is the width thumbnails are scaled down to. Height keeps the aspect ratio.
const ThumbWidth = 300

// Generator writes thumbnails into a private cache directory.
type Generator struct {
	dir string
}

// NewGenerator creates the cache directory under root.
func NewGenerator(root string) (*Generator, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating preview directory: %w", err)
	}
	dir, err := os.MkdirTemp(root, "previews-")
	if err != nil {
		return nil, fmt.Errorf("creating preview cache: %w", err)
	}
	logger.Debug("Preview cache at %s", dir)
	return &Generator{dir: dir}, nil
}

// Shared returns a generator that lives as long as some wizard retains it.
// Each open gets a fresh cache directory.
func Shared(root string) *wizard.Shared[*Generator] {
	return wizard.NewShared(
		func() (*Generator, error) { return NewGenerator(root) },
		func(g *Generator) error { return g.Close() },
	)
}

// Dir returns the cache directory.
func (g *Generator) Dir() string { return g.dir }

// Generate builds the preview for f. PDFs get an icon descriptor. Images the
// decoder cannot read (webp) are previewed as an icon too.
func (g *Generator) Generate(f booking.FileHandle) (booking.Preview, error) {
	if !f.IsImage() {
		return booking.Preview{Kind: booking.PreviewPDF}, nil
	}

	src, err := os.Open(f.Path)
	if err != nil {
		return booking.Preview{}, fmt.Errorf("failed to open image file: %w", err)
	}
	defer src.Close()

	img, err := imaging.Decode(src)
	if errors.Is(err, image.ErrFormat) {
		return booking.Preview{Kind: booking.PreviewImage}, nil
	}
	if err != nil {
		return booking.Preview{}, fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := img
	if img.Bounds().Dx() > ThumbWidth {
		thumb = imaging.Resize(img, ThumbWidth, 0, imaging.Lanczos)
	}
	thumbPath := filepath.Join(g.dir, f.ID+".png")
	if err := imaging.Save(thumb, thumbPath); err != nil {
		return booking.Preview{}, fmt.Errorf("failed to save thumbnail: %w", err)
	}

	b := thumb.Bounds()
	return booking.Preview{
		Kind:      booking.PreviewImage,
		ThumbPath: thumbPath,
		Width:     b.Dx(),
		Height:    b.Dy(),
	}, nil
}

// Close removes every thumbnail written by g.
func (g *Generator) Close() error {
	if err := os.RemoveAll(g.dir); err != nil {
		return fmt.Errorf("removing preview cache: %w", err)
	}
	return nil
}
