package test

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"wardrobeapi/languageutil"
	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CatalogMock is an in-memory CatalogProvider. When Err is set every call
// fails with it. Random ordering keeps insertion order.
type CatalogMock struct {
	mu       sync.Mutex
	Clothing []models.Clothing
	Outfits  []models.Outfit
	Err      error
	Calls    int
}

func NewCatalogMock() *CatalogMock {
	return &CatalogMock{}
}

func (m *CatalogMock) enter() error {
	m.mu.Lock()
	m.Calls++
	return m.Err
}

// AddClothing stores an item, filling id and timestamps when empty.
func (m *CatalogMock) AddClothing(item models.Clothing) models.Clothing {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&item.JsonModel)
	m.Clothing = append(m.Clothing, item)
	return item
}

func (m *CatalogMock) AddOutfit(outfit models.Outfit) models.Outfit {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&outfit.JsonModel)
	if outfit.Season == "" {
		outfit.Season = models.SeasonAll
	}
	m.Outfits = append(m.Outfits, outfit)
	return outfit
}

func stamp(model *models.JsonModel) {
	if model.ID == "" {
		model.ID = uuid.NewString()
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now()
	}
	if model.UpdatedAt.IsZero() {
		model.UpdatedAt = model.CreatedAt
	}
}

func containsAllTags(have []string, want []string) bool {
	for _, tag := range models.CleanTags(want) {
		if !slices.Contains(have, tag) {
			return false
		}
	}
	return true
}

func anyTagContains(tags []string, text string) bool {
	for _, tag := range tags {
		if languageutil.ContainsFold(tag, text) {
			return true
		}
	}
	return false
}

func less(order services.SortField, ascending bool, aName, bName string, aCreated, bCreated, aUpdated, bUpdated time.Time) bool {
	var result bool
	switch order {
	case services.SortName:
		if aName == bName {
			return false
		}
		result = aName < bName
	case services.SortUpdatedAt:
		if aUpdated.Equal(bUpdated) {
			return false
		}
		result = aUpdated.Before(bUpdated)
	default:
		if aCreated.Equal(bCreated) {
			return false
		}
		result = aCreated.Before(bCreated)
	}
	if ascending {
		return result
	}
	return !result
}

func paginate[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func (m *CatalogMock) ListClothing(ctx context.Context, q services.ClothingQuery) ([]models.Clothing, int64, error) {
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return nil, 0, err
	}
	defer m.mu.Unlock()
	text := strings.TrimSpace(q.Text)
	rows := []models.Clothing{}
	for _, item := range m.Clothing {
		if q.Category != "" && item.Category != q.Category {
			continue
		}
		if !containsAllTags(item.Tags, q.Tags) {
			continue
		}
		if text != "" {
			match := languageutil.ContainsFold(item.Name, text)
			if !q.NameOnly {
				match = match || anyTagContains(item.Tags, text)
			}
			if !match {
				continue
			}
		}
		if q.ExcludeID != "" && item.ID == q.ExcludeID {
			continue
		}
		rows = append(rows, item)
	}
	if q.Order != services.SortRandom {
		sort.SliceStable(rows, func(i, j int) bool {
			return less(q.Order, q.Ascending, rows[i].Name, rows[j].Name, rows[i].CreatedAt, rows[j].CreatedAt, rows[i].UpdatedAt, rows[j].UpdatedAt)
		})
	}
	return paginate(rows, q.Offset, q.Limit), int64(len(rows)), nil
}

func (m *CatalogMock) GetClothing(ctx context.Context, id string) (*models.Clothing, error) {
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	defer m.mu.Unlock()
	for _, item := range m.Clothing {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, &models.NotFoundError{Entity: "clothing", ID: id}
}

func (m *CatalogMock) ClothingByIDs(ctx context.Context, ids []string) ([]models.Clothing, error) {
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	defer m.mu.Unlock()
	rows := []models.Clothing{}
	for _, item := range m.Clothing {
		if slices.Contains(ids, item.ID) {
			rows = append(rows, item)
		}
	}
	return rows, nil
}

func (m *CatalogMock) CreateClothing(ctx context.Context, item *models.Clothing) error {
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return err
	}
	defer m.mu.Unlock()
	stamp(&item.JsonModel)
	m.Clothing = append(m.Clothing, *item)
	return nil
}

func applyClothingFields(item *models.Clothing, fields map[string]any) {
	for key, value := range fields {
		switch key {
		case "name":
			item.Name = value.(string)
		case "category":
			item.Category = value.(models.Category)
		case "image":
			item.Image = value.(string)
		case "tags":
			item.Tags = value.(pq.StringArray)
		}
	}
	item.UpdatedAt = time.Now()
}

func (m *CatalogMock) UpdateClothing(ctx context.Context, id string, fields map[string]any) (*models.Clothing, error) {
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	defer m.mu.Unlock()
	for i := range m.Clothing {
		if m.Clothing[i].ID == id {
			applyClothingFields(&m.Clothing[i], fields)
			updated := m.Clothing[i]
			return &updated, nil
		}
	}
	return nil, &models.NotFoundError{Entity: "clothing", ID: id}
}

func (m *CatalogMock) DeleteClothing(ctx context.Context, id string) error {
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return err
	}
	defer m.mu.Unlock()
	for i := range m.Clothing {
		if m.Clothing[i].ID == id {
			m.Clothing = slices.Delete(m.Clothing, i, i+1)
			return nil
		}
	}
	return &models.NotFoundError{Entity: "clothing", ID: id}
}

func (m *CatalogMock) BatchClothing(ctx context.Context, batch services.ClothingBatch) (int64, error) {
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return 0, err
	}
	defer m.mu.Unlock()
	var affected int64
	kept := m.Clothing[:0]
	for _, item := range m.Clothing {
		if !slices.Contains(batch.IDs, item.ID) {
			kept = append(kept, item)
			continue
		}
		affected++
		switch batch.Operation {
		case services.BatchDelete:
			continue
		case services.BatchUpdateTags:
			applyClothingFields(&item, map[string]any{"tags": models.CleanTags(batch.Tags)})
		case services.BatchMoveCategory:
			applyClothingFields(&item, map[string]any{"category": batch.Category})
		}
		kept = append(kept, item)
	}
	m.Clothing = kept
	return affected, nil
}

func (m *CatalogMock) ListOutfits(ctx context.Context, q services.OutfitQuery) ([]models.Outfit, int64, error) {
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return nil, 0, err
	}
	defer m.mu.Unlock()
	text := strings.TrimSpace(q.Text)
	rows := []models.Outfit{}
	for _, outfit := range m.Outfits {
		if len(q.Seasons) > 0 && !slices.Contains(q.Seasons, outfit.Season) {
			continue
		}
		if !containsAllTags(outfit.Tags, q.Tags) {
			continue
		}
		if text != "" {
			match := languageutil.ContainsFold(outfit.Name, text)
			if !q.NameOnly {
				match = match || languageutil.ContainsFold(outfit.Description, text) || anyTagContains(outfit.Tags, text)
			}
			if !match {
				continue
			}
		}
		if q.ContainsItem != "" && !slices.Contains(outfit.Items, q.ContainsItem) {
			continue
		}
		rows = append(rows, outfit)
	}
	if q.Order != services.SortRandom {
		sort.SliceStable(rows, func(i, j int) bool {
			return less(q.Order, q.Ascending, rows[i].Name, rows[j].Name, rows[i].CreatedAt, rows[j].CreatedAt, rows[i].UpdatedAt, rows[j].UpdatedAt)
		})
	}
	return paginate(rows, q.Offset, q.Limit), int64(len(rows)), nil
}

func (m *CatalogMock) GetOutfit(ctx context.Context, id string) (*models.Outfit, error) {
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	defer m.mu.Unlock()
	for _, outfit := range m.Outfits {
		if outfit.ID == id {
			found := outfit
			return &found, nil
		}
	}
	return nil, &models.NotFoundError{Entity: "outfit", ID: id}
}

func (m *CatalogMock) existingImages() map[string]string {
	existing := make(map[string]string, len(m.Clothing))
	for _, item := range m.Clothing {
		existing[item.ID] = item.Image
	}
	return existing
}

func (m *CatalogMock) CreateOutfit(ctx context.Context, outfit *models.Outfit, itemIDs []string) error {
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return err
	}
	defer m.mu.Unlock()
	items, thumbnail, err := models.ResolveOutfitItems(itemIDs, m.existingImages())
	if err != nil {
		return err
	}
	outfit.Items = items
	outfit.Thumbnail = thumbnail
	if outfit.Season == "" {
		outfit.Season = models.SeasonAll
	}
	stamp(&outfit.JsonModel)
	m.Outfits = append(m.Outfits, *outfit)
	return nil
}

func (m *CatalogMock) UpdateOutfit(ctx context.Context, id string, fields map[string]any, itemIDs []string) (*models.Outfit, error) {
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	defer m.mu.Unlock()
	for i := range m.Outfits {
		if m.Outfits[i].ID != id {
			continue
		}
		outfit := &m.Outfits[i]
		if itemIDs != nil {
			items, thumbnail, err := models.ResolveOutfitItems(itemIDs, m.existingImages())
			if err != nil {
				return nil, err
			}
			outfit.Items = items
			outfit.Thumbnail = thumbnail
		}
		for key, value := range fields {
			switch key {
			case "name":
				outfit.Name = value.(string)
			case "description":
				outfit.Description = value.(string)
			case "season":
				outfit.Season = value.(models.Season)
			case "tags":
				outfit.Tags = value.(pq.StringArray)
			}
		}
		outfit.UpdatedAt = time.Now()
		updated := *outfit
		return &updated, nil
	}
	return nil, &models.NotFoundError{Entity: "outfit", ID: id}
}

func (m *CatalogMock) DeleteOutfit(ctx context.Context, id string) error {
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return err
	}
	defer m.mu.Unlock()
	for i := range m.Outfits {
		if m.Outfits[i].ID == id {
			m.Outfits = slices.Delete(m.Outfits, i, i+1)
			return nil
		}
	}
	return &models.NotFoundError{Entity: "outfit", ID: id}
}

func (m *CatalogMock) OutfitSeasonStats(ctx context.Context) ([]models.SeasonCount, error) {
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	defer m.mu.Unlock()
	counts := map[models.Season]int64{}
	for _, outfit := range m.Outfits {
		counts[outfit.Season]++
	}
	stats := []models.SeasonCount{}
	for _, season := range models.Seasons {
		if counts[season] > 0 {
			stats = append(stats, models.SeasonCount{Season: season, Count: counts[season]})
		}
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })
	return stats, nil
}

func tagCounts(tagLists [][]string, limit int) []models.TagCount {
	counts := map[string]int64{}
	for _, tags := range tagLists {
		for _, tag := range tags {
			counts[tag]++
		}
	}
	stats := make([]models.TagCount, 0, len(counts))
	for tag, count := range counts {
		stats = append(stats, models.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Tag < stats[j].Tag
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

func (m *CatalogMock) OutfitTagStats(ctx context.Context, limit int) ([]models.TagCount, error) {
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	defer m.mu.Unlock()
	lists := make([][]string, 0, len(m.Outfits))
	for _, outfit := range m.Outfits {
		lists = append(lists, outfit.Tags)
	}
	return tagCounts(lists, limit), nil
}

func (m *CatalogMock) ClothingTagStats(ctx context.Context, limit int) ([]models.TagCount, error) {
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	defer m.mu.Unlock()
	lists := make([][]string, 0, len(m.Clothing))
	for _, item := range m.Clothing {
		lists = append(lists, item.Tags)
	}
	return tagCounts(lists, limit), nil
}

func (m *CatalogMock) Counts(ctx context.Context) (models.CatalogCounts, error) {
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return models.CatalogCounts{}, err
	}
	defer m.mu.Unlock()
	return models.CatalogCounts{Clothing: int64(len(m.Clothing)), Outfits: int64(len(m.Outfits))}, nil
}

func (m *CatalogMock) Ping(ctx context.Context) error {
	err := m.enter()
	m.mu.Unlock()
	return err
}

var _ services.CatalogProvider = (*CatalogMock)(nil)
