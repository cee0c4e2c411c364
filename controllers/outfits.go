package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type OutfitIn struct {
	Name        string        `json:"name" validate:"required,max=50"`
	Description string        `json:"description" validate:"max=200"`
	Items       []string      `json:"items" validate:"required,min=1,max=10"`
	Tags        []string      `json:"tags" validate:"max=10,dive,max=20"`
	Season      models.Season `json:"season" validate:"omitempty,season"`
}

func (in *OutfitIn) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Tags != nil {
		in.Tags = models.CleanTags(in.Tags)
	}
}

type OutfitItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Image    string          `json:"image"`
	Category models.Category `json:"category"`
	Tags     []string        `json:"tags"`
}

// OutfitOut is an outfit with its items expanded. ItemIDs keeps the stored
// ids, including ones whose clothing has since been deleted.
type OutfitOut struct {
	models.Outfit
	Items     []OutfitItem `json:"items"`
	ItemIDs   []string     `json:"itemIds"`
	ItemCount int          `json:"itemCount"`
}

type RecentOutfit struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Thumbnail  string        `json:"thumbnail"`
	Season     models.Season `json:"season"`
	CreateTime time.Time     `json:"createTime"`
}

type OutfitOverview struct {
	Total         int64                   `json:"total"`
	BySeason      map[models.Season]int64 `json:"bySeason"`
	PopularTags   []models.TagCount       `json:"popularTags"`
	RecentOutfits []RecentOutfit          `json:"recentOutfits"`
}

const (
	overviewTags   = 10
	overviewRecent = 5
)

type OutfitsController struct {
	Catalog services.CatalogProvider
	Cache   cacheInvalidator
}

func (controller *OutfitsController) OutfitRoutes(g *echo.Group, guard echo.MiddlewareFunc, cached echo.MiddlewareFunc) {
	g.GET("", controller.ListOutfits, cached)
	g.POST("", controller.CreateOutfit, guard)
	g.GET("/stats/overview", controller.Overview, cached)
	g.GET("/:id", controller.GetOutfit, cached)
	g.PUT("/:id", controller.UpdateOutfit, guard)
	g.DELETE("/:id", controller.DeleteOutfit, guard)
}

func (controller *OutfitsController) invalidateAfterWrite() {
	controller.Cache.invalidate(services.FamilyOutfits, services.FamilySearch, services.FamilyRecommend)
}

// expand resolves the items of every outfit with one lookup.
func (controller *OutfitsController) expand(ctx context.Context, outfits []models.Outfit) ([]OutfitOut, error) {
	var ids []string
	seen := map[string]bool{}
	for _, outfit := range outfits {
		for _, id := range outfit.Items {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	byID := map[string]models.Clothing{}
	if len(ids) > 0 {
		items, err := controller.Catalog.ClothingByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			byID[item.ID] = item
		}
	}

	out := make([]OutfitOut, 0, len(outfits))
	for _, outfit := range outfits {
		expanded := OutfitOut{
			Outfit:  outfit,
			Items:   []OutfitItem{},
			ItemIDs: append([]string{}, outfit.Items...),
		}
		for _, id := range outfit.Items {
			item, ok := byID[id]
			if !ok {
				continue
			}
			expanded.Items = append(expanded.Items, OutfitItem{
				ID:       item.ID,
				Name:     item.Name,
				Image:    item.Image,
				Category: item.Category,
				Tags:     append([]string{}, item.Tags...),
			})
		}
		expanded.ItemCount = len(expanded.Items)
		out = append(out, expanded)
	}
	return out, nil
}

func (controller *OutfitsController) expandOne(ctx context.Context, outfit *models.Outfit) (*OutfitOut, error) {
	out, err := controller.expand(ctx, []models.Outfit{*outfit})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (controller *OutfitsController) ListOutfits(c echo.Context) error {
	page, limit := pageParams(c)
	order, ascending, err := sortParams(c)
	if err != nil {
		return err
	}
	query := services.OutfitQuery{
		Tags:      tagsQuery(c),
		Text:      strings.TrimSpace(c.QueryParam("q")),
		Order:     order,
		Ascending: ascending,
		Offset:    models.Offset(page, limit),
		Limit:     limit,
	}
	if season := models.Season(c.QueryParam("season")); season != "" && season != models.SeasonAll {
		if !season.Valid() {
			return models.NewValidationError("season", "unsupported season %q", season)
		}
		query.Seasons = []models.Season{season}
	}

	ctx := c.Request().Context()
	outfits, total, err := controller.Catalog.ListOutfits(ctx, query)
	if err != nil {
		return err
	}
	expanded, err := controller.expand(ctx, outfits)
	if err != nil {
		return err
	}
	return respondPage(c, expanded, models.NewPagination(page, limit, total))
}

func (controller *OutfitsController) GetOutfit(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	outfit, err := controller.Catalog.GetOutfit(ctx, id)
	if err != nil {
		return err
	}
	expanded, err := controller.expandOne(ctx, outfit)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, expanded, "")
}

func (controller *OutfitsController) CreateOutfit(c echo.Context) error {
	var req OutfitIn
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	req.normalize()
	if err := c.Validate(req); err != nil {
		return err
	}

	outfit := models.Outfit{
		Name:        req.Name,
		Description: req.Description,
		Tags:        models.CleanTags(req.Tags),
		Season:      req.Season,
	}
	if outfit.Season == "" {
		outfit.Season = models.SeasonAll
	}
	ctx := c.Request().Context()
	if err := controller.Catalog.CreateOutfit(ctx, &outfit, req.Items); err != nil {
		return err
	}
	controller.invalidateAfterWrite()
	log.Info().Str("outfit_id", outfit.ID).Int("items", len(outfit.Items)).Msg("Outfit created")

	expanded, err := controller.expandOne(ctx, &outfit)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, expanded, "Outfit created")
}

func (controller *OutfitsController) UpdateOutfit(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req OutfitIn
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	req.normalize()
	if err := c.Validate(req); err != nil {
		return err
	}

	fields := map[string]any{
		"name":        req.Name,
		"description": req.Description,
	}
	if req.Tags != nil {
		fields["tags"] = models.CleanTags(req.Tags)
	}
	if req.Season != "" {
		fields["season"] = req.Season
	}
	ctx := c.Request().Context()
	outfit, err := controller.Catalog.UpdateOutfit(ctx, id, fields, req.Items)
	if err != nil {
		return err
	}
	controller.invalidateAfterWrite()

	expanded, err := controller.expandOne(ctx, outfit)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, expanded, "Outfit updated")
}

func (controller *OutfitsController) DeleteOutfit(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := controller.Catalog.DeleteOutfit(c.Request().Context(), id); err != nil {
		return err
	}
	controller.invalidateAfterWrite()
	return respond(c, http.StatusOK, nil, "Outfit deleted")
}

func (controller *OutfitsController) Overview(c echo.Context) error {
	var (
		counts  models.CatalogCounts
		seasons []models.SeasonCount
		tags    []models.TagCount
		recent  []models.Outfit
	)
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() (err error) {
		counts, err = controller.Catalog.Counts(ctx)
		return err
	})
	g.Go(func() (err error) {
		seasons, err = controller.Catalog.OutfitSeasonStats(ctx)
		return err
	})
	g.Go(func() (err error) {
		tags, err = controller.Catalog.OutfitTagStats(ctx, overviewTags)
		return err
	})
	g.Go(func() (err error) {
		recent, _, err = controller.Catalog.ListOutfits(ctx, services.OutfitQuery{Order: services.SortCreatedAt, Limit: overviewRecent})
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	overview := OutfitOverview{
		Total:         counts.Outfits,
		BySeason:      map[models.Season]int64{},
		PopularTags:   tags,
		RecentOutfits: make([]RecentOutfit, 0, len(recent)),
	}
	if overview.PopularTags == nil {
		overview.PopularTags = []models.TagCount{}
	}
	for _, season := range models.Seasons {
		overview.BySeason[season] = 0
	}
	for _, stat := range seasons {
		overview.BySeason[stat.Season] = stat.Count
	}
	for _, outfit := range recent {
		overview.RecentOutfits = append(overview.RecentOutfits, RecentOutfit{
			ID:         outfit.ID,
			Name:       outfit.Name,
			Thumbnail:  outfit.Thumbnail,
			Season:     outfit.Season,
			CreateTime: outfit.CreatedAt,
		})
	}
	return respond(c, http.StatusOK, overview, "")
}
