package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"wardrobeapi/languageutil"
	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

type Request struct {
	Type       models.RecommendationType
	Season     models.Season
	UserID     string
	ClothingID string
	Limit      int
}

// Engine builds recommendations from the catalog. Store failures inside a
// mode are answered with the canned defaults.
type Engine struct {
	Catalog services.CatalogProvider
	Now     func() time.Time
}

func NewEngine(catalog services.CatalogProvider) *Engine {
	return &Engine{Catalog: catalog, Now: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// ClampLimit maps a requested limit onto 1..50, with 0 meaning the default.
func ClampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultLimit
	case limit < 1:
		return 1
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

func normalize(req Request) (Request, error) {
	if req.Type == "" {
		req.Type = models.RecommendSmart
	}
	if !req.Type.Valid() {
		return req, models.NewValidationError("type", "unsupported recommendation type %q, supported types: smart, random, seasonal, similar", req.Type)
	}
	if req.Season != "" && !req.Season.Valid() {
		return req, models.NewValidationError("season", "unsupported season %q", req.Season)
	}
	req.Limit = ClampLimit(req.Limit)
	return req, nil
}

func (e *Engine) Recommend(ctx context.Context, req Request) ([]models.Recommendation, error) {
	req, err := normalize(req)
	if err != nil {
		return nil, err
	}

	season := req.Season
	if season == "" {
		season = models.CurrentSeason(e.now())
	}

	var recs []models.Recommendation
	switch req.Type {
	case models.RecommendSeasonal:
		recs, err = e.seasonal(ctx, season, req.Limit)
	case models.RecommendSimilar:
		recs, err = e.similar(ctx, req.ClothingID, req.Limit)
	case models.RecommendRandom:
		recs, err = e.random(ctx, req.Limit)
	default:
		recs, err = e.smart(ctx, season, req.Limit)
	}

	if err != nil {
		if models.IsValidation(err) || models.IsNotFound(err) {
			return nil, err
		}
		e.reportFallback(req, err)
		recs = Defaults(req.Season)
	}

	if len(recs) > req.Limit {
		recs = recs[:req.Limit]
	}
	services.RecommendationsServed.WithLabelValues(string(req.Type)).Inc()
	return recs, nil
}

func (e *Engine) reportFallback(req Request, err error) {
	log.Warn().
		Err(err).
		Str("type", string(req.Type)).
		Str("season", string(req.Season)).
		Str("user_id", req.UserID).
		Msg("Recommendation store failure, serving defaults")
	services.RecommendationFallbacks.WithLabelValues(string(req.Type)).Inc()
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("failure_type", "recommendation_fallback")
		scope.SetTag("recommendation_type", string(req.Type))
		sentry.CaptureException(err)
	})
}

func seasonalOutfitQuery(season models.Season, limit int) services.OutfitQuery {
	return services.OutfitQuery{
		Seasons: []models.Season{season, models.SeasonAll},
		Order:   services.SortCreatedAt,
		Limit:   limit,
	}
}

func (e *Engine) seasonal(ctx context.Context, season models.Season, limit int) ([]models.Recommendation, error) {
	var (
		outfits  []models.Outfit
		clothing []models.Clothing
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		outfits, _, err = e.Catalog.ListOutfits(gctx, seasonalOutfitQuery(season, limit*2))
		return err
	})
	g.Go(func() (err error) {
		clothing, _, err = e.Catalog.ListClothing(gctx, services.ClothingQuery{Order: services.SortCreatedAt, Limit: limit * 3})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	name := languageutil.SeasonName(string(season))
	recs := make([]models.Recommendation, 0, limit)
	for _, outfit := range outfits {
		if len(recs) >= limit {
			break
		}
		recs = append(recs, outfitRecommendation("seasonal_outfit_", outfit,
			orDefault(outfit.Description, fmt.Sprintf("%s outfit pick", name)), models.ReasonSeasonal, 0.8))
	}
	for _, item := range clothing {
		if len(recs) >= limit {
			break
		}
		recs = append(recs, clothingRecommendation("seasonal_clothing_", item, item.Name,
			fmt.Sprintf("%s wardrobe pick", name), models.ReasonSeasonal, 0.7))
	}
	return recs, nil
}

func (e *Engine) similar(ctx context.Context, clothingID string, limit int) ([]models.Recommendation, error) {
	if clothingID == "" {
		return nil, models.NewValidationError("clothingId", "similar recommendations require a clothing id")
	}
	if !models.IsUUID(clothingID) {
		return nil, models.NewValidationError("clothingId", "invalid clothing id format")
	}

	target, err := e.Catalog.GetClothing(ctx, clothingID)
	if err != nil {
		return nil, err
	}

	var (
		sameCategory []models.Clothing
		outfits      []models.Outfit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sameCategory, _, err = e.Catalog.ListClothing(gctx, services.ClothingQuery{
			Category:  target.Category,
			ExcludeID: target.ID,
			Order:     services.SortCreatedAt,
			Limit:     limit * 2,
		})
		return err
	})
	g.Go(func() (err error) {
		outfits, _, err = e.Catalog.ListOutfits(gctx, services.OutfitQuery{
			ContainsItem: target.ID,
			Order:        services.SortCreatedAt,
			Limit:        limit,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recs := make([]models.Recommendation, 0, limit)
	for i, item := range sameCategory {
		if i >= limit/2 {
			break
		}
		recs = append(recs, clothingRecommendation("similar_clothing_", item,
			fmt.Sprintf("Similar to %s", target.Name),
			fmt.Sprintf("Same category: %s", item.Name),
			models.ReasonSimilarCategory, 0.8))
	}

	partners := make(map[string]string, len(outfits))
	partnerIDs := make([]string, 0, len(outfits))
	for _, outfit := range outfits {
		for _, id := range outfit.Items {
			if id != target.ID {
				partners[outfit.ID] = id
				partnerIDs = append(partnerIDs, id)
				break
			}
		}
	}
	if len(partnerIDs) == 0 {
		return recs, nil
	}

	found, err := e.Catalog.ClothingByIDs(ctx, partnerIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(found))
	for _, item := range found {
		names[item.ID] = item.Name
	}

	for _, outfit := range outfits {
		partner, ok := names[partners[outfit.ID]]
		if !ok {
			continue
		}
		recs = append(recs, outfitRecommendation("outfit_match_", outfit,
			fmt.Sprintf("Pairs %s with %s", target.Name, partner), models.ReasonOutfitMatch, 0.9))
	}
	return recs, nil
}

func (e *Engine) random(ctx context.Context, limit int) ([]models.Recommendation, error) {
	var (
		outfits  []models.Outfit
		clothing []models.Clothing
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		clothing, _, err = e.Catalog.ListClothing(gctx, services.ClothingQuery{Order: services.SortRandom, Limit: limit})
		return err
	})
	g.Go(func() (err error) {
		outfits, _, err = e.Catalog.ListOutfits(gctx, services.OutfitQuery{Order: services.SortRandom, Limit: limit})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recs := make([]models.Recommendation, 0, len(clothing)+len(outfits))
	for _, item := range clothing {
		recs = append(recs, clothingRecommendation("random_clothing_", item, item.Name,
			"A random pick from your closet", models.ReasonRandom, 0.5))
	}
	for _, outfit := range outfits {
		recs = append(recs, outfitRecommendation("random_outfit_", outfit,
			orDefault(outfit.Description, "A random outfit"), models.ReasonRandom, 0.5))
	}
	return recs, nil
}

func (e *Engine) smart(ctx context.Context, season models.Season, limit int) ([]models.Recommendation, error) {
	var (
		outfits  []models.Outfit
		clothing []models.Clothing
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		outfits, _, err = e.Catalog.ListOutfits(gctx, seasonalOutfitQuery(season, limit*2))
		return err
	})
	g.Go(func() (err error) {
		clothing, _, err = e.Catalog.ListClothing(gctx, services.ClothingQuery{Order: services.SortRandom, Limit: limit * 3})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	freq := TagFrequency{}
	for _, outfit := range outfits {
		freq.Add(outfit.Tags)
	}
	for _, item := range clothing {
		freq.Add(item.Tags)
	}

	now := e.now()
	name := languageutil.SeasonName(string(season))
	used := make(map[string]struct{}, limit)
	recs := make([]models.Recommendation, 0, limit)

	for _, outfit := range outfits {
		if len(recs) >= limit {
			break
		}
		if _, ok := used[outfit.ID]; ok {
			continue
		}
		score := Score(Candidate{Tags: outfit.Tags, Season: outfit.Season, CreatedAt: outfit.CreatedAt}, season, freq, now)
		recs = append(recs, outfitRecommendation("smart_outfit_", outfit,
			orDefault(outfit.Description, fmt.Sprintf("An outfit for %s", name)), models.ReasonSeasonalMatch, score))
		used[outfit.ID] = struct{}{}
	}
	for _, item := range clothing {
		if len(recs) >= limit {
			break
		}
		if _, ok := used[item.ID]; ok {
			continue
		}
		score := Score(Candidate{Tags: item.Tags, CreatedAt: item.CreatedAt}, season, freq, now)
		recs = append(recs, clothingRecommendation("smart_clothing_", item, item.Name,
			fmt.Sprintf("A %s staple", name), models.ReasonSeasonalItem, score))
		used[item.ID] = struct{}{}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Confidence > recs[j].Confidence
	})
	return recs, nil
}

// Stats summarizes the catalog for the recommendation dashboard.
func (e *Engine) Stats(ctx context.Context) (*models.RecommendationStats, error) {
	var (
		counts  models.CatalogCounts
		seasons []models.SeasonCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts, err = e.Catalog.Counts(gctx)
		return err
	})
	g.Go(func() (err error) {
		seasons, err = e.Catalog.OutfitSeasonStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := e.now()
	return &models.RecommendationStats{
		TotalClothing:       counts.Clothing,
		TotalOutfits:        counts.Outfits,
		CurrentSeason:       models.CurrentSeason(now),
		SeasonDistribution:  seasons,
		RecommendationTypes: models.RecommendationTypes,
		LastUpdated:         now.UTC().Format(time.RFC3339),
	}, nil
}

func clothingRecommendation(prefix string, item models.Clothing, title, description string, reason models.Reason, confidence float64) models.Recommendation {
	return models.Recommendation{
		ID:          prefix + item.ID,
		Title:       title,
		Description: description,
		Image:       item.Image,
		Type:        models.EntityClothing,
		Category:    item.Category,
		Tags:        tagsOrEmpty(item.Tags),
		Reason:      reason,
		Confidence:  confidence,
	}
}

func outfitRecommendation(prefix string, outfit models.Outfit, description string, reason models.Reason, confidence float64) models.Recommendation {
	return models.Recommendation{
		ID:          prefix + outfit.ID,
		Title:       outfit.Name,
		Description: description,
		Image:       outfit.Thumbnail,
		Type:        models.EntityOutfit,
		Tags:        tagsOrEmpty(outfit.Tags),
		Season:      outfit.Season,
		Reason:      reason,
		Confidence:  confidence,
	}
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
