package thumb

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func writeTestImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestProduceDownscales(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "original.png")
	dst := filepath.Join(dir, "thumbs", "original.png.jpg")
	writeTestImage(t, src, 2400, 1600)

	p := NewProducer(1080, "Test Watermark")
	if err := p.Produce(src, dst); err != nil {
		t.Fatalf("Produce() unexpected error: %v", err)
	}

	out, err := imaging.Open(dst)
	if err != nil {
		t.Fatalf("opening thumbnail: %v", err)
	}
	if got := out.Bounds().Dx(); got != 1080 {
		t.Errorf("thumbnail width = %d, want 1080", got)
	}
	if got := out.Bounds().Dy(); got != 720 {
		t.Errorf("thumbnail height = %d, want 720", got)
	}
}

func TestProduceNeverUpscales(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "small.png")
	dst := filepath.Join(dir, "small.png.jpg")
	writeTestImage(t, src, 640, 480)

	p := NewProducer(1080, "")
	if err := p.Produce(src, dst); err != nil {
		t.Fatalf("Produce() unexpected error: %v", err)
	}

	out, err := imaging.Open(dst)
	if err != nil {
		t.Fatalf("opening thumbnail: %v", err)
	}
	if got := out.Bounds().Dx(); got != 640 {
		t.Errorf("thumbnail width = %d, want 640 (no upscaling)", got)
	}
}

func TestProduceRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "not-image.jpg")
	if err := os.WriteFile(src, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewProducer(1080, "")
	if err := p.Produce(src, filepath.Join(dir, "out.jpg")); err == nil {
		t.Error("Produce() succeeded on a non-image source")
	}
}
