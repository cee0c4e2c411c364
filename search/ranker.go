package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"wardrobeapi/languageutil"
	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Kind string

const (
	KindAll      Kind = "all"
	KindClothing Kind = "clothing"
	KindOutfits  Kind = "outfits"
)

type SortBy string

const (
	SortRelevance SortBy = "relevance"
	SortName      SortBy = "name"
	SortCreatedAt SortBy = "created_at"
)

const (
	DefaultLimit          = 20
	MaxLimit              = 100
	DefaultCandidateLimit = 500
	embeddedItems         = 3
)

type Query struct {
	Keyword   string          `json:"keyword"`
	Type      Kind            `json:"type"`
	Category  models.Category `json:"category,omitempty"`
	Season    models.Season   `json:"season,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	SortBy    SortBy          `json:"sortBy"`
	SortOrder string          `json:"sortOrder"`
	Page      int             `json:"page"`
	Limit     int             `json:"limit"`
}

type Page struct {
	Results    []models.SearchResult `json:"results"`
	Query      Query                 `json:"query"`
	Stats      models.SearchStats    `json:"stats"`
	Pagination models.Pagination     `json:"pagination"`
}

// Ranker scores catalog rows against a keyword and merges both kinds into
// one ranked, paginated list.
type Ranker struct {
	Catalog services.CatalogProvider
	// CandidateLimit caps the rows fetched per kind before ranking.
	CandidateLimit int
}

func NewRanker(catalog services.CatalogProvider, candidateLimit int) *Ranker {
	if candidateLimit <= 0 {
		candidateLimit = DefaultCandidateLimit
	}
	return &Ranker{Catalog: catalog, CandidateLimit: candidateLimit}
}

func normalize(q Query) (Query, error) {
	q.Keyword = strings.TrimSpace(q.Keyword)
	if q.Keyword == "" {
		return q, models.NewValidationError("q", "search keyword must not be empty")
	}
	switch q.Type {
	case "":
		q.Type = KindAll
	case KindAll, KindClothing, KindOutfits:
	default:
		return q, models.NewValidationError("type", "unsupported search type %q", q.Type)
	}
	switch q.SortBy {
	case "":
		q.SortBy = SortRelevance
	case SortRelevance, SortName, SortCreatedAt:
	default:
		return q, models.NewValidationError("sortBy", "unsupported sort %q", q.SortBy)
	}
	switch strings.ToLower(q.SortOrder) {
	case "":
		q.SortOrder = "desc"
	case "asc", "desc":
		q.SortOrder = strings.ToLower(q.SortOrder)
	default:
		return q, models.NewValidationError("sortOrder", "sortOrder must be asc or desc")
	}
	if q.Category == "all" {
		q.Category = ""
	}
	if q.Season == models.SeasonAll {
		q.Season = ""
	}
	q.Tags = models.CleanTags(q.Tags)
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.Limit == 0:
		q.Limit = DefaultLimit
	case q.Limit < 1:
		q.Limit = 1
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}
	return q, nil
}

func (r *Ranker) Search(ctx context.Context, q Query) (*Page, error) {
	q, err := normalize(q)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	defer func() {
		services.SearchDuration.WithLabelValues(string(q.Type)).Observe(time.Since(started).Seconds())
	}()

	var clothing, outfits []models.SearchResult
	var g errgroup.Group
	if q.Type == KindAll || q.Type == KindClothing {
		g.Go(func() error {
			clothing = r.searchClothing(ctx, q)
			return nil
		})
	}
	if q.Type == KindAll || q.Type == KindOutfits {
		g.Go(func() error {
			outfits = r.searchOutfits(ctx, q)
			return nil
		})
	}
	_ = g.Wait()

	results := make([]models.SearchResult, 0, len(clothing)+len(outfits))
	results = append(results, clothing...)
	results = append(results, outfits...)
	Sort(results, q.SortBy, q.SortOrder == "asc")

	total := len(results)
	start := min(models.Offset(q.Page, q.Limit), total)
	end := min(start+q.Limit, total)

	return &Page{
		Results: results[start:end],
		Query:   q,
		Stats: models.SearchStats{
			Total:    total,
			Clothing: len(clothing),
			Outfits:  len(outfits),
		},
		Pagination: models.NewPagination(q.Page, q.Limit, int64(total)),
	}, nil
}

func degraded(kind string, q Query, err error) {
	log.Warn().Err(err).Str("kind", kind).Str("keyword", q.Keyword).Msg("Search sub-query failed, treating as empty")
	services.SearchDegraded.WithLabelValues(kind).Inc()
}

func (r *Ranker) searchClothing(ctx context.Context, q Query) []models.SearchResult {
	rows, _, err := r.Catalog.ListClothing(ctx, services.ClothingQuery{
		Category: q.Category,
		Tags:     q.Tags,
		Text:     q.Keyword,
		Order:    services.SortCreatedAt,
		Limit:    r.CandidateLimit,
	})
	if err != nil {
		degraded("clothing", q, err)
		return nil
	}

	results := make([]models.SearchResult, 0, len(rows))
	for _, item := range rows {
		doc := clothingDocument(item)
		results = append(results, models.SearchResult{
			ID:         item.ID,
			Name:       item.Name,
			Type:       models.EntityClothing,
			Score:      Score(doc, q.Keyword),
			Highlights: Highlights(doc, q.Keyword),
			Tags:       tagsOrEmpty(item.Tags),
			CreatedAt:  item.CreatedAt,
			UpdatedAt:  item.UpdatedAt,
			Image:      item.Image,
			Category:   item.Category,
		})
	}
	return results
}

func (r *Ranker) searchOutfits(ctx context.Context, q Query) []models.SearchResult {
	query := services.OutfitQuery{
		Tags:  q.Tags,
		Text:  q.Keyword,
		Order: services.SortCreatedAt,
		Limit: r.CandidateLimit,
	}
	if q.Season != "" {
		query.Seasons = []models.Season{q.Season}
	}
	rows, _, err := r.Catalog.ListOutfits(ctx, query)
	if err != nil {
		degraded("outfits", q, err)
		return nil
	}

	summaries := r.itemSummaries(ctx, rows)
	results := make([]models.SearchResult, 0, len(rows))
	for _, outfit := range rows {
		doc := outfitDocument(outfit)
		items := []models.ItemSummary{}
		for _, id := range firstItems(outfit.Items) {
			if summary, ok := summaries[id]; ok {
				items = append(items, summary)
			}
		}
		season := outfit.Season
		if season == "" {
			season = models.SeasonAll
		}
		results = append(results, models.SearchResult{
			ID:          outfit.ID,
			Name:        outfit.Name,
			Type:        models.EntityOutfit,
			Score:       Score(doc, q.Keyword),
			Highlights:  Highlights(doc, q.Keyword),
			Tags:        tagsOrEmpty(outfit.Tags),
			CreatedAt:   outfit.CreatedAt,
			UpdatedAt:   outfit.UpdatedAt,
			Description: outfit.Description,
			Season:      season,
			Thumbnail:   outfit.Thumbnail,
			Items:       items,
			ItemCount:   len(outfit.Items),
		})
	}
	return results
}

// itemSummaries loads the first few items of every outfit in one lookup.
// A failed lookup leaves the outfits without embedded items.
func (r *Ranker) itemSummaries(ctx context.Context, outfits []models.Outfit) map[string]models.ItemSummary {
	ids := []string{}
	seen := map[string]struct{}{}
	for _, outfit := range outfits {
		for _, id := range firstItems(outfit.Items) {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	summaries := make(map[string]models.ItemSummary, len(ids))
	if len(ids) == 0 {
		return summaries
	}
	items, err := r.Catalog.ClothingByIDs(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Int("items", len(ids)).Msg("Failed to load outfit items for search results")
		return summaries
	}
	for _, item := range items {
		summaries[item.ID] = models.ItemSummary{ID: item.ID, Name: item.Name, Image: item.Image, Category: item.Category}
	}
	return summaries
}

func firstItems(items []string) []string {
	if len(items) > embeddedItems {
		return items[:embeddedItems]
	}
	return items
}

// Sort orders merged results in place. Relevance ignores ascending and
// ranks by score, then clothing before outfits, then newest first.
func Sort(results []models.SearchResult, by SortBy, ascending bool) {
	switch by {
	case SortName:
		sort.SliceStable(results, func(i, j int) bool {
			a, b := languageutil.Fold(results[i].Name), languageutil.Fold(results[j].Name)
			if ascending {
				return a < b
			}
			return a > b
		})
	case SortCreatedAt:
		sort.SliceStable(results, func(i, j int) bool {
			if ascending {
				return results[i].CreatedAt.Before(results[j].CreatedAt)
			}
			return results[i].CreatedAt.After(results[j].CreatedAt)
		})
	default:
		sort.SliceStable(results, func(i, j int) bool {
			a, b := results[i], results[j]
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			if a.Type != b.Type {
				return a.Type == models.EntityClothing
			}
			return a.CreatedAt.After(b.CreatedAt)
		})
	}
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
