package services

import (
	"context"

	"wardrobeapi/models"
)

type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortUpdatedAt SortField = "updated_at"
	SortName      SortField = "name"
	SortRandom    SortField = "random"
)

func (f SortField) Valid() bool {
	switch f {
	case SortCreatedAt, SortUpdatedAt, SortName, SortRandom:
		return true
	}
	return false
}

type ClothingQuery struct {
	Category  models.Category
	Tags      []string // item must carry all of them
	Text      string   // case-insensitive substring of name or any tag
	NameOnly  bool     // restrict Text to the name column
	ExcludeID string
	Order     SortField
	Ascending bool
	Offset    int
	Limit     int
}

type OutfitQuery struct {
	Seasons      []models.Season // any of
	Tags         []string        // outfit must carry all of them
	Text         string          // case-insensitive substring of name, description or any tag
	NameOnly     bool
	ContainsItem string
	Order        SortField
	Ascending    bool
	Offset       int
	Limit        int
}

type BatchOperation string

const (
	BatchDelete       BatchOperation = "delete"
	BatchUpdateTags   BatchOperation = "update-tags"
	BatchMoveCategory BatchOperation = "move-category"
)

type ClothingBatch struct {
	Operation BatchOperation
	IDs       []string
	Tags      []string
	Category  models.Category
}

// CatalogProvider is the Catalog Store: the hosted relational store
// holding clothing and outfit rows. List methods return the page and the
// total count matching the filters.
type CatalogProvider interface {
	ListClothing(ctx context.Context, q ClothingQuery) ([]models.Clothing, int64, error)
	GetClothing(ctx context.Context, id string) (*models.Clothing, error)
	ClothingByIDs(ctx context.Context, ids []string) ([]models.Clothing, error)
	CreateClothing(ctx context.Context, item *models.Clothing) error
	UpdateClothing(ctx context.Context, id string, fields map[string]any) (*models.Clothing, error)
	DeleteClothing(ctx context.Context, id string) error
	BatchClothing(ctx context.Context, batch ClothingBatch) (int64, error)

	ListOutfits(ctx context.Context, q OutfitQuery) ([]models.Outfit, int64, error)
	GetOutfit(ctx context.Context, id string) (*models.Outfit, error)
	// CreateOutfit resolves itemIDs against the clothing table in the same
	// transaction as the insert.
	CreateOutfit(ctx context.Context, outfit *models.Outfit, itemIDs []string) error
	// UpdateOutfit re-resolves items when itemIDs is non-nil.
	UpdateOutfit(ctx context.Context, id string, fields map[string]any, itemIDs []string) (*models.Outfit, error)
	DeleteOutfit(ctx context.Context, id string) error

	OutfitSeasonStats(ctx context.Context) ([]models.SeasonCount, error)
	OutfitTagStats(ctx context.Context, limit int) ([]models.TagCount, error)
	ClothingTagStats(ctx context.Context, limit int) ([]models.TagCount, error)
	Counts(ctx context.Context) (models.CatalogCounts, error)
	Ping(ctx context.Context) error
}
