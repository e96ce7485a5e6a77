package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage areas beneath the base directory. Every stored file lives in
// exactly one of them.
const (
	AreaOriginal   = "original"
	AreaProcessed  = "processed"
	AreaThumbnails = "thumbnails"
)

var areas = []string{AreaOriginal, AreaProcessed, AreaThumbnails}

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// AllowedFile reports whether the filename carries an accepted image
// extension. Names without an extension are rejected.
func AllowedFile(name string) bool {
	ext := strings.ToLower(strings.TrimSpace(filepath.Ext(name)))
	if ext == "" {
		return false
	}
	return allowedExtensions[ext]
}

// NewFilename returns a collision-free storage name preserving the
// lower-cased extension of the provided name. Names without an extension
// fall back to .png.
func NewFilename(original string) string {
	ext := strings.ToLower(strings.TrimSpace(filepath.Ext(original)))
	if ext == "" {
		ext = ".png"
	}
	return uuid.NewString() + ext
}

// FileStore persists uploaded images and their derivatives in three
// sibling directories beneath a single base directory.
type FileStore struct {
	baseDir string
}

func NewFileStore(dir string) (*FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve base dir: %w", err)
	}
	for _, area := range areas {
		if err := os.MkdirAll(filepath.Join(abs, area), 0o755); err != nil {
			return nil, fmt.Errorf("storage: ensure %s dir: %w", area, err)
		}
	}
	return &FileStore{baseDir: abs}, nil
}

// NewFileStoreFromEnv initialises a FileStore rooted at CLOSET_STORAGE_DIR,
// defaulting to ./static/uploads.
func NewFileStoreFromEnv() (*FileStore, error) {
	dir := strings.TrimSpace(os.Getenv("CLOSET_STORAGE_DIR"))
	if dir == "" {
		dir = "./static/uploads"
	}
	return NewFileStore(dir)
}

func (s *FileStore) BaseDir() string {
	if s == nil {
		return ""
	}
	return s.baseDir
}

// Path returns the absolute location of a named file within an area.
func (s *FileStore) Path(area, name string) string {
	return filepath.Join(s.baseDir, area, filepath.Base(name))
}

// Save writes the reader's contents to the named file in the given area
// and returns the number of bytes written.
func (s *FileStore) Save(area, name string, r io.Reader) (int64, error) {
	target := s.Path(area, name)
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("storage: create %s/%s: %w", area, name, err)
	}
	written, err := io.Copy(dst, r)
	if err != nil {
		dst.Close()
		os.Remove(target)
		return 0, fmt.Errorf("storage: write %s/%s: %w", area, name, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(target)
		return 0, fmt.Errorf("storage: close %s/%s: %w", area, name, err)
	}
	return written, nil
}

// SaveTemp writes the reader's contents to a temporary file outside the
// storage areas and returns its path. The caller removes it after use.
func (s *FileStore) SaveTemp(r io.Reader) (string, error) {
	tmp, err := os.CreateTemp("", "closet-upload-*")
	if err != nil {
		return "", fmt.Errorf("storage: create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("storage: close temp file: %w", err)
	}
	return tmp.Name(), nil
}

// Remove deletes the named file from the given area.
func (s *FileStore) Remove(area, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil
	}
	return os.Remove(s.Path(area, trimmed))
}
