package closet

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Store provides CRUD access to persisted clothing items.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ListFilter narrows List results. Zero values mean no filtering.
type ListFilter struct {
	Category string // exact match
	Search   string // case-insensitive substring match on name
}

// MetadataUpdate carries a partial metadata change. Nil fields are left
// untouched; blank strings normalize to unset.
type MetadataUpdate struct {
	Name     *string   `json:"name"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
}

func (s *Store) Create(ctx context.Context, item *ClothingItem) error {
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("closet: create item: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id uint64) (*ClothingItem, error) {
	var item ClothingItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns items newest-first, optionally filtered by exact category
// and/or a case-insensitive name substring.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]ClothingItem, error) {
	query := s.db.WithContext(ctx).Model(&ClothingItem{})
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var items []ClothingItem
	if err := query.Order("upload_date DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("closet: list items: %w", err)
	}
	return items, nil
}

// UpdateMetadata applies a partial update and returns the refreshed item.
// An invalid category fails the whole update without touching the record.
func (s *Store) UpdateMetadata(ctx context.Context, id uint64, update MetadataUpdate) (*ClothingItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if update.Name != nil {
		updates["name"] = normalizeStringPointer(update.Name)
	}

	if update.Category != nil {
		category := strings.ToLower(strings.TrimSpace(*update.Category))
		if category == "" {
			updates["category"] = gorm.Expr("NULL")
		} else {
			if !ValidCategory(category) {
				return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
			}
			updates["category"] = category
		}
	}

	if update.Tags != nil {
		tags, err := marshalTags(*update.Tags)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid tags payload", ErrValidation)
		}
		if tags == nil {
			updates["tags"] = gorm.Expr("NULL")
		} else {
			updates["tags"] = tags
		}
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(item).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("closet: update item %d: %w", id, err)
		}
	}

	return s.Get(ctx, id)
}

// Save persists every field of an already-loaded item.
func (s *Store) Save(ctx context.Context, item *ClothingItem) error {
	if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
		return fmt.Errorf("closet: save item %d: %w", item.ID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id uint64) error {
	if err := s.db.WithContext(ctx).Delete(&ClothingItem{}, id).Error; err != nil {
		return fmt.Errorf("closet: delete item %d: %w", id, err)
	}
	return nil
}

// marshalTags encodes a normalized tag list as a JSON array, or nil when
// the list is empty after trimming.
func marshalTags(tags []string) (datatypes.JSON, error) {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	if len(normalized) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

func unmarshalTags(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil
	}
	return tags
}

func normalizeStringPointer(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
