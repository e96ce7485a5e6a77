package imageproc

import (
	"fmt"
	"log"
	"os"

	"github.com/disintegration/imaging"
)

// DefaultThumbnailWidth caps thumbnail width when no explicit value is
// configured.
const DefaultThumbnailWidth = 400

// Thumbnail writes a downscaled copy of the source image to dstPath.
// Images wider than maxWidth are resized proportionally with Lanczos
// resampling; narrower images are copied unchanged. The output is always
// PNG so transparency survives, whatever dstPath's extension says.
func Thumbnail(srcPath, dstPath string, maxWidth int) error {
	if maxWidth <= 0 {
		maxWidth = DefaultThumbnailWidth
	}

	img, err := imaging.Open(srcPath)
	if err != nil {
		log.Printf("imageproc: open image for thumbnail: %v", err)
		return fmt.Errorf("imageproc: open image for thumbnail: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	out, err := os.Create(dstPath)
	if err != nil {
		log.Printf("imageproc: create thumbnail file: %v", err)
		return fmt.Errorf("imageproc: create thumbnail file: %w", err)
	}
	if err := imaging.Encode(out, img, imaging.PNG); err != nil {
		out.Close()
		os.Remove(dstPath)
		log.Printf("imageproc: encode thumbnail: %v", err)
		return fmt.Errorf("imageproc: encode thumbnail: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dstPath)
		return fmt.Errorf("imageproc: close thumbnail file: %w", err)
	}
	return nil
}
