// Package thumb produces watermarked thumbnails for gallery originals.
package thumb

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	// webp originals are decodable even though thumbnails are written as JPEG.
	_ "golang.org/x/image/webp"
)

var ErrNotImage = errors.New("source is not a decodable image")

// Producer downscales originals to a bounded width, overlays a fixed text
// watermark, and writes JPEG thumbnails.
type Producer struct {
	MaxWidth      int
	WatermarkText string
	Quality       int
}

// NewProducer creates a Producer. maxWidth <= 0 falls back to 1080.
func NewProducer(maxWidth int, watermarkText string) *Producer {
	if maxWidth <= 0 {
		maxWidth = 1080
	}
	return &Producer{
		MaxWidth:      maxWidth,
		WatermarkText: watermarkText,
		Quality:       80,
	}
}

// Produce reads the original at src and writes a thumbnail to dst.
// Smaller images are never upscaled.
func (p *Producer) Produce(src, dst string) error {
	img, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	if img.Bounds().Dx() > p.MaxWidth {
		img = imaging.Resize(img, p.MaxWidth, 0, imaging.Lanczos)
	}

	out := imaging.Clone(img)
	p.applyWatermark(out)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating thumbnail directory: %w", err)
	}

	if err := imaging.Save(out, dst, imaging.JPEGQuality(p.Quality)); err != nil {
		return fmt.Errorf("saving thumbnail: %w", err)
	}
	return nil
}

// applyWatermark draws the watermark text near the bottom-right corner.
// Very small thumbs are left unmarked.
func (p *Producer) applyWatermark(img *image.NRGBA) {
	if p.WatermarkText == "" {
		return
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 200 || h < 150 {
		return
	}

	face := basicfont.Face7x13
	pad := w / 50
	if pad < 10 {
		pad = 10
	}

	textWidth := font.MeasureString(face, p.WatermarkText).Ceil()
	x := w - textWidth - pad
	y := h - pad

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 115}),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(p.WatermarkText)
}
