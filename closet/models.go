package closet

import (
	"time"

	"gorm.io/datatypes"
)

// ClothingItem ties one original/processed/thumbnail file triple together
// with the user-facing attributes of a stored garment photo.
type ClothingItem struct {
	ID       uint64         `gorm:"primaryKey" json:"id"`
	Name     *string        `gorm:"size:100" json:"name,omitempty"`
	Category *string        `gorm:"size:50" json:"category,omitempty"`
	Tags     datatypes.JSON `gorm:"type:json" json:"tags,omitempty"`

	OriginalFilename  string `gorm:"size:255;not null" json:"original_filename"`
	ProcessedFilename string `gorm:"size:255;not null" json:"processed_filename"`
	ThumbnailFilename string `gorm:"size:255;not null" json:"thumbnail_filename"`

	UploadDate time.Time `gorm:"not null" json:"upload_date"`
	FileSize   int64     `json:"file_size"`
}

func (ClothingItem) TableName() string {
	return "clothing_items"
}

// Categories is the fixed set of accepted item categories.
var Categories = []string{
	"hat",
	"top",
	"outerwear",
	"bottom",
	"shoes",
	"accessory",
	"other",
}

// ValidCategory reports whether the value is a member of Categories.
func ValidCategory(value string) bool {
	for _, category := range Categories {
		if category == value {
			return true
		}
	}
	return false
}
