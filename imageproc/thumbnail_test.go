package imageproc

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	// Top-left pixel stays fully transparent.
	img.Set(0, 0, color.NRGBA{})

	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create test image: %v", err)
	}
	defer out.Close()
	if err := png.Encode(out, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
}

func decodeImage(t *testing.T, path string) (image.Image, string) {
	t.Helper()
	in, err := os.Open(path)
	if err != nil {
		t.Fatalf("open result: %v", err)
	}
	defer in.Close()
	img, format, err := image.Decode(in)
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return img, format
}

func TestThumbnailDownscalesWideImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "thumb.png")
	writeTestPNG(t, src, 800, 600)

	if err := Thumbnail(src, dst, 400); err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}

	img, _ := decodeImage(t, dst)
	bounds := img.Bounds()
	if bounds.Dx() != 400 || bounds.Dy() != 300 {
		t.Errorf("got %dx%d, want 400x300", bounds.Dx(), bounds.Dy())
	}
}

func TestThumbnailRoundsHeight(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "thumb.png")
	// 400/533*200 = 150.09..., rounds to 150.
	writeTestPNG(t, src, 533, 200)

	if err := Thumbnail(src, dst, 400); err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}

	img, _ := decodeImage(t, dst)
	bounds := img.Bounds()
	if bounds.Dx() != 400 || bounds.Dy() != 150 {
		t.Errorf("got %dx%d, want 400x150", bounds.Dx(), bounds.Dy())
	}
}

func TestThumbnailKeepsNarrowImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "thumb.png")
	writeTestPNG(t, src, 200, 150)

	if err := Thumbnail(src, dst, 400); err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}

	img, _ := decodeImage(t, dst)
	bounds := img.Bounds()
	if bounds.Dx() != 200 || bounds.Dy() != 150 {
		t.Errorf("got %dx%d, want unchanged 200x150", bounds.Dx(), bounds.Dy())
	}
}

func TestThumbnailPreservesTransparency(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "thumb.png")
	writeTestPNG(t, src, 100, 100)

	if err := Thumbnail(src, dst, 400); err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}

	img, format := decodeImage(t, dst)
	if format != "png" {
		t.Errorf("output format = %q, want png", format)
	}
	if _, _, _, alpha := img.At(0, 0).RGBA(); alpha != 0 {
		t.Errorf("transparent pixel lost, alpha = %d", alpha)
	}
}

func TestThumbnailAlwaysEncodesPNG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "thumb.jpg")
	writeTestPNG(t, src, 100, 100)

	if err := Thumbnail(src, dst, 400); err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}

	if _, format := decodeImage(t, dst); format != "png" {
		t.Errorf("output format = %q, want png regardless of target extension", format)
	}
}

func TestThumbnailRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "thumb.png")
	if err := os.WriteFile(src, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := Thumbnail(src, dst, 400); err == nil {
		t.Fatal("expected error for non-image source")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("thumbnail file left behind after failure")
	}
}
