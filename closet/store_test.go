package closet

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "closet.db")), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&ClothingItem{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func seedItem(t *testing.T, store *Store, name, category string, uploaded time.Time) *ClothingItem {
	t.Helper()
	item := &ClothingItem{
		OriginalFilename:  name + "-original.png",
		ProcessedFilename: name + "-processed.png",
		ThumbnailFilename: name + "-thumbnail.png",
		UploadDate:        uploaded,
		FileSize:          1234,
	}
	if name != "" {
		item.Name = &name
	}
	if category != "" {
		item.Category = &category
	}
	if err := store.Create(context.Background(), item); err != nil {
		t.Fatalf("seed item %q: %v", name, err)
	}
	return item
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	store := NewStore(newTestDB(t))
	created := seedItem(t, store, "Denim Jacket", "outerwear", time.Now().UTC())

	got, err := store.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.OriginalFilename != created.OriginalFilename ||
		got.ProcessedFilename != created.ProcessedFilename ||
		got.ThumbnailFilename != created.ThumbnailFilename {
		t.Error("fetched filenames do not match what was stored at creation")
	}
	if got.Category == nil || *got.Category != "outerwear" {
		t.Errorf("category = %v, want outerwear", got.Category)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	store := NewStore(newTestDB(t))
	if _, err := store.Get(context.Background(), 42); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected gorm.ErrRecordNotFound, got %v", err)
	}
}

func TestListFiltersAndOrder(t *testing.T) {
	store := NewStore(newTestDB(t))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedItem(t, store, "White Tee", "top", base)
	jacketTop := seedItem(t, store, "Denim Jacket", "top", base.Add(time.Hour))
	seedItem(t, store, "Rain Jacket", "outerwear", base.Add(2*time.Hour))

	ctx := context.Background()

	all, err := store.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	if *all[0].Name != "Rain Jacket" || *all[2].Name != "White Tee" {
		t.Error("items not ordered newest-first")
	}

	tops, err := store.List(ctx, ListFilter{Category: "top"})
	if err != nil {
		t.Fatalf("List(category=top): %v", err)
	}
	if len(tops) != 2 {
		t.Errorf("len(tops) = %d, want 2", len(tops))
	}
	for _, item := range tops {
		if item.Category == nil || *item.Category != "top" {
			t.Errorf("category filter leaked item %v", item.Name)
		}
	}

	jackets, err := store.List(ctx, ListFilter{Search: "jack"})
	if err != nil {
		t.Fatalf("List(search=jack): %v", err)
	}
	if len(jackets) != 2 {
		t.Errorf("len(jackets) = %d, want 2", len(jackets))
	}

	both, err := store.List(ctx, ListFilter{Category: "top", Search: "JACK"})
	if err != nil {
		t.Fatalf("List(both): %v", err)
	}
	if len(both) != 1 || both[0].ID != jacketTop.ID {
		t.Errorf("combined filters should intersect to the top jacket, got %d items", len(both))
	}
}

func TestUpdateMetadataPartial(t *testing.T) {
	store := NewStore(newTestDB(t))
	item := seedItem(t, store, "Old Name", "top", time.Now().UTC())

	newName := "New Name"
	updated, err := store.UpdateMetadata(context.Background(), item.ID, MetadataUpdate{Name: &newName})
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if updated.Name == nil || *updated.Name != "New Name" {
		t.Errorf("name = %v, want New Name", updated.Name)
	}
	if updated.Category == nil || *updated.Category != "top" {
		t.Error("unspecified category was modified")
	}
}

func TestUpdateMetadataBlankUnsets(t *testing.T) {
	store := NewStore(newTestDB(t))
	item := seedItem(t, store, "Named", "top", time.Now().UTC())

	blank := "  "
	updated, err := store.UpdateMetadata(context.Background(), item.ID, MetadataUpdate{
		Name:     &blank,
		Category: &blank,
	})
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if updated.Name != nil {
		t.Errorf("blank name should unset, got %q", *updated.Name)
	}
	if updated.Category != nil {
		t.Errorf("blank category should unset, got %q", *updated.Category)
	}
}

func TestUpdateMetadataInvalidCategory(t *testing.T) {
	store := NewStore(newTestDB(t))
	item := seedItem(t, store, "Named", "top", time.Now().UTC())

	bad := "spacesuit"
	name := "Should Not Stick"
	if _, err := store.UpdateMetadata(context.Background(), item.ID, MetadataUpdate{
		Name:     &name,
		Category: &bad,
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	got, err := store.Get(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name == nil || *got.Name != "Named" {
		t.Error("record mutated despite invalid category")
	}
}

func TestUpdateMetadataTags(t *testing.T) {
	store := NewStore(newTestDB(t))
	item := seedItem(t, store, "Tagged", "", time.Now().UTC())

	tags := []string{"summer", " casual ", ""}
	updated, err := store.UpdateMetadata(context.Background(), item.ID, MetadataUpdate{Tags: &tags})
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}

	got := unmarshalTags(updated.Tags)
	if len(got) != 2 || got[0] != "summer" || got[1] != "casual" {
		t.Errorf("tags = %v, want [summer casual]", got)
	}

	empty := []string{}
	updated, err = store.UpdateMetadata(context.Background(), item.ID, MetadataUpdate{Tags: &empty})
	if err != nil {
		t.Fatalf("UpdateMetadata(empty tags): %v", err)
	}
	if len(unmarshalTags(updated.Tags)) != 0 {
		t.Error("empty tag list should clear tags")
	}
}

func TestUpdateMetadataMissingItem(t *testing.T) {
	store := NewStore(newTestDB(t))
	name := "x"
	if _, err := store.UpdateMetadata(context.Background(), 99, MetadataUpdate{Name: &name}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected gorm.ErrRecordNotFound, got %v", err)
	}
}
