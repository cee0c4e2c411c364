package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"wardrobeapi/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCatalog implements CatalogProvider over Postgres.
type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		pgErr      *pgconn.PgError
		validation *models.ValidationError
		notFound   *models.NotFoundError
		already    *models.StoreError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &notFound), errors.As(err, &already):
		return err
	case errors.As(err, &pgErr):
		return &models.StoreError{Op: op, Code: pgErr.Code, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &models.StoreError{Op: op, Code: models.CodeTimeout, Err: err}
	}
	return &models.StoreError{Op: op, Code: models.CodeUnknown, Err: err}
}

func orderScope(order SortField, ascending bool) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		switch order {
		case SortRandom:
			return tx.Order("random()")
		case SortName, SortUpdatedAt, SortCreatedAt:
		default:
			order = SortCreatedAt
		}
		return tx.
			Order(clause.OrderByColumn{Column: clause.Column{Name: string(order)}, Desc: !ascending}).
			Order("id")
	}
}

func pageScope(offset, limit int) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if offset > 0 {
			tx = tx.Offset(offset)
		}
		if limit > 0 {
			tx = tx.Limit(limit)
		}
		return tx
	}
}

func clothingFilters(q ClothingQuery) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if q.Category != "" {
			tx = tx.Where("category = ?", q.Category)
		}
		if tags := models.CleanTags(q.Tags); len(tags) > 0 {
			tx = tx.Where("tags @> ?::text[]", tags)
		}
		if text := strings.TrimSpace(q.Text); text != "" {
			pattern := likePattern(text)
			if q.NameOnly {
				tx = tx.Where("name ILIKE ?", pattern)
			} else {
				tx = tx.Where("(name ILIKE ? OR EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE t ILIKE ?))", pattern, pattern)
			}
		}
		if q.ExcludeID != "" {
			tx = tx.Where("id <> ?", q.ExcludeID)
		}
		return tx
	}
}

func outfitFilters(q OutfitQuery) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if len(q.Seasons) > 0 {
			tx = tx.Where("season IN ?", q.Seasons)
		}
		if tags := models.CleanTags(q.Tags); len(tags) > 0 {
			tx = tx.Where("tags @> ?::text[]", tags)
		}
		if text := strings.TrimSpace(q.Text); text != "" {
			pattern := likePattern(text)
			if q.NameOnly {
				tx = tx.Where("name ILIKE ?", pattern)
			} else {
				tx = tx.Where("(name ILIKE ? OR description ILIKE ? OR EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE t ILIKE ?))", pattern, pattern, pattern)
			}
		}
		if q.ContainsItem != "" {
			tx = tx.Where("? = ANY(items)", q.ContainsItem)
		}
		return tx
	}
}

func (c *GormCatalog) ListClothing(ctx context.Context, q ClothingQuery) ([]models.Clothing, int64, error) {
	var total int64
	db := c.db.WithContext(ctx)
	if err := db.Model(&models.Clothing{}).Scopes(clothingFilters(q)).Count(&total).Error; err != nil {
		return nil, 0, storeErr("count clothing", err)
	}
	items := []models.Clothing{}
	err := db.Model(&models.Clothing{}).
		Scopes(clothingFilters(q), orderScope(q.Order, q.Ascending), pageScope(q.Offset, q.Limit)).
		Find(&items).Error
	if err != nil {
		return nil, 0, storeErr("list clothing", err)
	}
	return items, total, nil
}

func (c *GormCatalog) GetClothing(ctx context.Context, id string) (*models.Clothing, error) {
	var item models.Clothing
	err := c.db.WithContext(ctx).Where("id = ?", id).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &models.NotFoundError{Entity: "clothing", ID: id}
	}
	if err != nil {
		return nil, storeErr("get clothing", err)
	}
	return &item, nil
}

func (c *GormCatalog) ClothingByIDs(ctx context.Context, ids []string) ([]models.Clothing, error) {
	ids = models.SanitizeItemIDs(ids)
	items := []models.Clothing{}
	if len(ids) == 0 {
		return items, nil
	}
	if err := c.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, storeErr("clothing by ids", err)
	}
	return items, nil
}

func (c *GormCatalog) CreateClothing(ctx context.Context, item *models.Clothing) error {
	return storeErr("insert clothing", c.db.WithContext(ctx).Create(item).Error)
}

func (c *GormCatalog) UpdateClothing(ctx context.Context, id string, fields map[string]any) (*models.Clothing, error) {
	fields["updated_at"] = time.Now()
	result := c.db.WithContext(ctx).Model(&models.Clothing{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, storeErr("update clothing", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, &models.NotFoundError{Entity: "clothing", ID: id}
	}
	return c.GetClothing(ctx, id)
}

func (c *GormCatalog) DeleteClothing(ctx context.Context, id string) error {
	result := c.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Clothing{})
	if result.Error != nil {
		return storeErr("delete clothing", result.Error)
	}
	if result.RowsAffected == 0 {
		return &models.NotFoundError{Entity: "clothing", ID: id}
	}
	return nil
}

func (c *GormCatalog) BatchClothing(ctx context.Context, batch ClothingBatch) (int64, error) {
	tx := c.db.WithContext(ctx).Model(&models.Clothing{}).Where("id IN ?", batch.IDs)
	var result *gorm.DB
	switch batch.Operation {
	case BatchDelete:
		result = tx.Delete(&models.Clothing{})
	case BatchUpdateTags:
		result = tx.Updates(map[string]any{"tags": models.CleanTags(batch.Tags), "updated_at": time.Now()})
	case BatchMoveCategory:
		result = tx.Updates(map[string]any{"category": batch.Category, "updated_at": time.Now()})
	default:
		return 0, models.NewValidationError("operation", "unsupported batch operation %q", batch.Operation)
	}
	if result.Error != nil {
		return 0, storeErr("batch clothing", result.Error)
	}
	return result.RowsAffected, nil
}

func (c *GormCatalog) ListOutfits(ctx context.Context, q OutfitQuery) ([]models.Outfit, int64, error) {
	var total int64
	db := c.db.WithContext(ctx)
	if err := db.Model(&models.Outfit{}).Scopes(outfitFilters(q)).Count(&total).Error; err != nil {
		return nil, 0, storeErr("count outfits", err)
	}
	outfits := []models.Outfit{}
	err := db.Model(&models.Outfit{}).
		Scopes(outfitFilters(q), orderScope(q.Order, q.Ascending), pageScope(q.Offset, q.Limit)).
		Find(&outfits).Error
	if err != nil {
		return nil, 0, storeErr("list outfits", err)
	}
	return outfits, total, nil
}

func (c *GormCatalog) GetOutfit(ctx context.Context, id string) (*models.Outfit, error) {
	var outfit models.Outfit
	err := c.db.WithContext(ctx).Where("id = ?", id).Take(&outfit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &models.NotFoundError{Entity: "outfit", ID: id}
	}
	if err != nil {
		return nil, storeErr("get outfit", err)
	}
	return &outfit, nil
}

type itemImage struct {
	ID    string
	Image string
}

// lockItems reads the images of the given clothing ids with FOR SHARE so
// they cannot be deleted before the outfit row commits.
func lockItems(tx *gorm.DB, candidates []string) (map[string]string, error) {
	existing := map[string]string{}
	ids := models.SanitizeItemIDs(candidates)
	if len(ids) == 0 {
		return existing, nil
	}
	var rows []itemImage
	err := tx.Model(&models.Clothing{}).
		Select("id", "image").
		Where("id IN ?", ids).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		existing[row.ID] = row.Image
	}
	return existing, nil
}

func (c *GormCatalog) CreateOutfit(ctx context.Context, outfit *models.Outfit, itemIDs []string) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockItems(tx, itemIDs)
		if err != nil {
			return err
		}
		items, thumbnail, err := models.ResolveOutfitItems(itemIDs, existing)
		if err != nil {
			return err
		}
		outfit.Items = items
		outfit.Thumbnail = thumbnail
		return tx.Create(outfit).Error
	})
	return storeErr("insert outfit", err)
}

func (c *GormCatalog) UpdateOutfit(ctx context.Context, id string, fields map[string]any, itemIDs []string) (*models.Outfit, error) {
	var outfit models.Outfit
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&outfit).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.NotFoundError{Entity: "outfit", ID: id}
		}
		if err != nil {
			return err
		}
		if itemIDs != nil {
			existing, err := lockItems(tx, itemIDs)
			if err != nil {
				return err
			}
			items, thumbnail, err := models.ResolveOutfitItems(itemIDs, existing)
			if err != nil {
				return err
			}
			fields["items"] = items
			fields["thumbnail"] = thumbnail
		}
		fields["updated_at"] = time.Now()
		if err := tx.Model(&outfit).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Take(&outfit).Error
	})
	if err != nil {
		return nil, storeErr("update outfit", err)
	}
	return &outfit, nil
}

func (c *GormCatalog) DeleteOutfit(ctx context.Context, id string) error {
	result := c.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Outfit{})
	if result.Error != nil {
		return storeErr("delete outfit", result.Error)
	}
	if result.RowsAffected == 0 {
		return &models.NotFoundError{Entity: "outfit", ID: id}
	}
	return nil
}

func (c *GormCatalog) OutfitSeasonStats(ctx context.Context) ([]models.SeasonCount, error) {
	stats := []models.SeasonCount{}
	err := c.db.WithContext(ctx).Model(&models.Outfit{}).
		Select("season, count(*) AS count").
		Group("season").
		Order("count DESC, season").
		Scan(&stats).Error
	return stats, storeErr("outfit season stats", err)
}

func (c *GormCatalog) tagStats(ctx context.Context, table string, limit int) ([]models.TagCount, error) {
	if limit <= 0 {
		limit = 100
	}
	stats := []models.TagCount{}
	err := c.db.WithContext(ctx).Raw(
		"SELECT t AS tag, count(*) AS count FROM "+table+", unnest(tags) AS t GROUP BY t ORDER BY count DESC, t LIMIT ?",
		limit,
	).Scan(&stats).Error
	return stats, err
}

func (c *GormCatalog) OutfitTagStats(ctx context.Context, limit int) ([]models.TagCount, error) {
	stats, err := c.tagStats(ctx, models.Outfit{}.TableName(), limit)
	return stats, storeErr("outfit tag stats", err)
}

func (c *GormCatalog) ClothingTagStats(ctx context.Context, limit int) ([]models.TagCount, error) {
	stats, err := c.tagStats(ctx, models.Clothing{}.TableName(), limit)
	return stats, storeErr("clothing tag stats", err)
}

func (c *GormCatalog) Counts(ctx context.Context) (models.CatalogCounts, error) {
	var counts models.CatalogCounts
	db := c.db.WithContext(ctx)
	if err := db.Model(&models.Clothing{}).Count(&counts.Clothing).Error; err != nil {
		return counts, storeErr("count clothing", err)
	}
	if err := db.Model(&models.Outfit{}).Count(&counts.Outfits).Error; err != nil {
		return counts, storeErr("count outfits", err)
	}
	return counts, nil
}

func (c *GormCatalog) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return storeErr("ping", err)
	}
	return storeErr("ping", sqlDB.PingContext(ctx))
}

var _ CatalogProvider = (*GormCatalog)(nil)
