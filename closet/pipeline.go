package closet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/0lekW/oleks-closet/imageproc"
	"github.com/0lekW/oleks-closet/storage"
)

// Pipeline orchestrates the image-processing flows: validate, save,
// remove background, thumbnail, persist, with compensating cleanup so a
// failed run leaves neither orphan files nor a partial row behind.
type Pipeline struct {
	store      *Store
	files      *storage.FileStore
	remover    imageproc.Remover
	thumbWidth int
}

func NewPipeline(store *Store, files *storage.FileStore, remover imageproc.Remover, thumbWidth int) *Pipeline {
	if thumbWidth <= 0 {
		thumbWidth = imageproc.DefaultThumbnailWidth
	}
	return &Pipeline{
		store:      store,
		files:      files,
		remover:    remover,
		thumbWidth: thumbWidth,
	}
}

// UploadInput is one uploaded image plus its optional metadata.
type UploadInput struct {
	Filename string
	Data     io.Reader
	Name     string
	Category string
	Tags     []string
}

// ProcessUpload runs the full upload flow and returns the persisted item.
func (p *Pipeline) ProcessUpload(ctx context.Context, in UploadInput) (*ClothingItem, error) {
	filename := strings.TrimSpace(in.Filename)
	if filename == "" || in.Data == nil {
		return nil, fmt.Errorf("%w: no image file supplied", ErrValidation)
	}
	if !storage.AllowedFile(filename) {
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrValidation, filename)
	}

	category := strings.ToLower(strings.TrimSpace(in.Category))
	if category != "" && !ValidCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
	}

	originalName := storage.NewFilename(filename)
	processedName := storage.NewFilename(filename)
	thumbnailName := storage.NewFilename(filename)

	size, err := p.files.Save(storage.AreaOriginal, originalName, in.Data)
	if err != nil {
		return nil, err
	}

	if err := imageproc.RemoveBackground(ctx, p.remover,
		p.files.Path(storage.AreaOriginal, originalName),
		p.files.Path(storage.AreaProcessed, processedName)); err != nil {
		p.discard(storage.AreaOriginal, originalName)
		return nil, fmt.Errorf("%w: remove background: %v", ErrProcessing, err)
	}

	if err := imageproc.Thumbnail(
		p.files.Path(storage.AreaProcessed, processedName),
		p.files.Path(storage.AreaThumbnails, thumbnailName),
		p.thumbWidth); err != nil {
		p.discard(storage.AreaOriginal, originalName)
		p.discard(storage.AreaProcessed, processedName)
		return nil, fmt.Errorf("%w: create thumbnail: %v", ErrProcessing, err)
	}

	item := &ClothingItem{
		OriginalFilename:  originalName,
		ProcessedFilename: processedName,
		ThumbnailFilename: thumbnailName,
		UploadDate:        time.Now().UTC(),
		FileSize:          size,
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		item.Name = &name
	}
	if category != "" {
		item.Category = &category
	}
	if tags, err := marshalTags(in.Tags); err == nil && tags != nil {
		item.Tags = tags
	}

	if err := p.store.Create(ctx, item); err != nil {
		p.discard(storage.AreaOriginal, originalName)
		p.discard(storage.AreaProcessed, processedName)
		p.discard(storage.AreaThumbnails, thumbnailName)
		return nil, err
	}

	return item, nil
}

// ReplaceImage reprocesses an existing item's image. With replace set the
// supplied bytes become the new original; otherwise they are treated as a
// crop of the existing original and processed from a temporary file,
// leaving the stored original and recorded size untouched. The item and
// its old files survive intact unless every image step succeeds.
func (p *Pipeline) ReplaceImage(ctx context.Context, item *ClothingItem, filename string, data io.Reader, replace bool) (*ClothingItem, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" || data == nil {
		return nil, fmt.Errorf("%w: no image file supplied", ErrValidation)
	}
	if !storage.AllowedFile(filename) {
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrValidation, filename)
	}

	var (
		srcPath     string
		newOriginal string
		newSize     int64
		tempPath    string
	)

	if replace {
		newOriginal = storage.NewFilename(filename)
		size, err := p.files.Save(storage.AreaOriginal, newOriginal, data)
		if err != nil {
			return nil, err
		}
		newSize = size
		srcPath = p.files.Path(storage.AreaOriginal, newOriginal)
	} else {
		path, err := p.files.SaveTemp(data)
		if err != nil {
			return nil, err
		}
		tempPath = path
		srcPath = path
	}
	if tempPath != "" {
		defer os.Remove(tempPath)
	}

	processedName := storage.NewFilename(filename)
	thumbnailName := storage.NewFilename(filename)

	if err := imageproc.RemoveBackground(ctx, p.remover, srcPath,
		p.files.Path(storage.AreaProcessed, processedName)); err != nil {
		p.discard(storage.AreaOriginal, newOriginal)
		return nil, fmt.Errorf("%w: remove background: %v", ErrProcessing, err)
	}

	if err := imageproc.Thumbnail(
		p.files.Path(storage.AreaProcessed, processedName),
		p.files.Path(storage.AreaThumbnails, thumbnailName),
		p.thumbWidth); err != nil {
		p.discard(storage.AreaOriginal, newOriginal)
		p.discard(storage.AreaProcessed, processedName)
		return nil, fmt.Errorf("%w: create thumbnail: %v", ErrProcessing, err)
	}

	oldOriginal := item.OriginalFilename
	oldProcessed := item.ProcessedFilename
	oldThumbnail := item.ThumbnailFilename
	oldSize := item.FileSize

	item.ProcessedFilename = processedName
	item.ThumbnailFilename = thumbnailName
	if replace {
		item.OriginalFilename = newOriginal
		item.FileSize = newSize
	}

	if err := p.store.Save(ctx, item); err != nil {
		item.OriginalFilename = oldOriginal
		item.ProcessedFilename = oldProcessed
		item.ThumbnailFilename = oldThumbnail
		item.FileSize = oldSize
		p.discard(storage.AreaOriginal, newOriginal)
		p.discard(storage.AreaProcessed, processedName)
		p.discard(storage.AreaThumbnails, thumbnailName)
		return nil, err
	}

	p.discard(storage.AreaProcessed, oldProcessed)
	p.discard(storage.AreaThumbnails, oldThumbnail)
	if replace {
		p.discard(storage.AreaOriginal, oldOriginal)
	}

	return item, nil
}

// DeleteItem removes the item's three backing files (best-effort) and its
// database row.
func (p *Pipeline) DeleteItem(ctx context.Context, item *ClothingItem) error {
	p.discard(storage.AreaOriginal, item.OriginalFilename)
	p.discard(storage.AreaProcessed, item.ProcessedFilename)
	p.discard(storage.AreaThumbnails, item.ThumbnailFilename)
	return p.store.Delete(ctx, item.ID)
}

// discard removes a stored file, logging (never escalating) any failure.
func (p *Pipeline) discard(area, name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	if err := p.files.Remove(area, name); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("closet: remove %s/%s: %v", area, name, err)
	}
}
