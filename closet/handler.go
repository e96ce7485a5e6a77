package closet

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/0lekW/oleks-closet/imageproc"
	"github.com/0lekW/oleks-closet/storage"
)

const maxUploadBytes int64 = 16 * 1024 * 1024

// uploadsURLPrefix is where main.go serves the storage areas from.
const uploadsURLPrefix = "/static/uploads"

// Module owns the item routes and their dependencies.
type Module struct {
	db       *gorm.DB
	store    *Store
	pipeline *Pipeline
}

// Options configures RegisterRoutes. Zero fields fall back to
// environment-driven defaults.
type Options struct {
	DB                *gorm.DB
	Files             *storage.FileStore
	Remover           imageproc.Remover
	ThumbnailMaxWidth int
}

type itemDTO struct {
	ID           uint64   `json:"id"`
	Name         *string  `json:"name"`
	Category     *string  `json:"category"`
	Tags         []string `json:"tags,omitempty"`
	OriginalURL  string   `json:"original_url"`
	ProcessedURL string   `json:"processed_url"`
	ThumbnailURL string   `json:"thumbnail_url"`
	UploadDate   string   `json:"upload_date"`
	FileSize     int64    `json:"file_size"`
}

func RegisterRoutes(router *gin.Engine, opts Options) (*Module, error) {
	db := opts.DB
	if db == nil {
		opened, err := openDatabaseFromEnv()
		if err != nil {
			return nil, err
		}
		db = opened
	}

	if err := db.AutoMigrate(&ClothingItem{}); err != nil {
		return nil, fmt.Errorf("closet: migrate tables: %w", err)
	}

	files := opts.Files
	if files == nil {
		created, err := storage.NewFileStoreFromEnv()
		if err != nil {
			return nil, err
		}
		files = created
	}

	remover := opts.Remover
	if remover == nil {
		remover = imageproc.NewClientFromEnv()
	}

	thumbWidth := opts.ThumbnailMaxWidth
	if thumbWidth <= 0 {
		if raw := strings.TrimSpace(os.Getenv("THUMBNAIL_MAX_WIDTH")); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				thumbWidth = parsed
			}
		}
	}

	store := NewStore(db)
	module := &Module{
		db:       db,
		store:    store,
		pipeline: NewPipeline(store, files, remover, thumbWidth),
	}

	group := router.Group("/api/items")
	group.GET("", module.handleListItems)
	group.POST("", module.handleUploadItem)
	group.GET("/:id", module.handleGetItem)
	group.PUT("/:id", module.handleUpdateItem)
	group.PUT("/:id/image", module.handleReplaceImage)
	group.DELETE("/:id", module.handleDeleteItem)

	return module, nil
}

func (m *Module) handleListItems(c *gin.Context) {
	filter := ListFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	items, err := m.store.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list items"})
		return
	}

	result := make([]itemDTO, 0, len(items))
	for i := range items {
		result = append(result, toDTO(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": result})
}

func (m *Module) handleGetItem(c *gin.Context) {
	id, ok := itemIDParam(c)
	if !ok {
		return
	}

	item, err := m.store.Get(c.Request.Context(), id)
	if err != nil {
		writeItemError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": toDTO(item)})
}

func (m *Module) handleUploadItem(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("image exceeds %d bytes", maxUploadBytes)})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded image"})
		return
	}
	defer src.Close()

	item, err := m.pipeline.ProcessUpload(c.Request.Context(), UploadInput{
		Filename: fileHeader.Filename,
		Data:     src,
		Name:     c.PostForm("name"),
		Category: c.PostForm("category"),
		Tags:     parseTags(c.PostForm("tags")),
	})
	if err != nil {
		writeItemError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": toDTO(item)})
}

func (m *Module) handleUpdateItem(c *gin.Context) {
	id, ok := itemIDParam(c)
	if !ok {
		return
	}

	var update MetadataUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	item, err := m.store.UpdateMetadata(c.Request.Context(), id, update)
	if err != nil {
		writeItemError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": toDTO(item)})
}

func (m *Module) handleReplaceImage(c *gin.Context) {
	id, ok := itemIDParam(c)
	if !ok {
		return
	}

	item, err := m.store.Get(c.Request.Context(), id)
	if err != nil {
		writeItemError(c, err)
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("image exceeds %d bytes", maxUploadBytes)})
		return
	}

	replace := false
	if raw := strings.TrimSpace(c.PostForm("replace")); raw != "" {
		parsed, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "replace must be a boolean"})
			return
		}
		replace = parsed
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded image"})
		return
	}
	defer src.Close()

	updated, err := m.pipeline.ReplaceImage(c.Request.Context(), item, fileHeader.Filename, src, replace)
	if err != nil {
		writeItemError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": toDTO(updated)})
}

func (m *Module) handleDeleteItem(c *gin.Context) {
	id, ok := itemIDParam(c)
	if !ok {
		return
	}

	item, err := m.store.Get(c.Request.Context(), id)
	if err != nil {
		writeItemError(c, err)
		return
	}

	if err := m.pipeline.DeleteItem(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func itemIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return 0, false
	}
	return id, true
}

func writeItemError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
	case errors.Is(err, ErrProcessing):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func toDTO(item *ClothingItem) itemDTO {
	return itemDTO{
		ID:           item.ID,
		Name:         item.Name,
		Category:     item.Category,
		Tags:         unmarshalTags(item.Tags),
		OriginalURL:  fmt.Sprintf("%s/%s/%s", uploadsURLPrefix, storage.AreaOriginal, item.OriginalFilename),
		ProcessedURL: fmt.Sprintf("%s/%s/%s", uploadsURLPrefix, storage.AreaProcessed, item.ProcessedFilename),
		ThumbnailURL: fmt.Sprintf("%s/%s/%s", uploadsURLPrefix, storage.AreaThumbnails, item.ThumbnailFilename),
		UploadDate:   item.UploadDate.Format(time.RFC3339),
		FileSize:     item.FileSize,
	}
}

func parseTags(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
