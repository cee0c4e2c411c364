package search

import (
	"context"
	"sort"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"golang.org/x/sync/errgroup"
)

// Popular lists the most used clothing tags followed by the newest item
// names, ordered by count.
func (r *Ranker) Popular(ctx context.Context, limit int) ([]models.PopularTerm, error) {
	limit = clampSuggestionLimit(limit)

	var (
		tags   []models.TagCount
		recent []models.Clothing
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tags, err = r.Catalog.ClothingTagStats(gctx, limit)
		return err
	})
	g.Go(func() (err error) {
		recent, _, err = r.Catalog.ListClothing(gctx, services.ClothingQuery{Order: services.SortCreatedAt, Limit: limit})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	terms := make([]models.PopularTerm, 0, len(tags)+len(recent))
	for _, tag := range tags {
		terms = append(terms, models.PopularTerm{Term: tag.Tag, Type: "tag", Count: tag.Count})
	}
	for _, item := range recent {
		terms = append(terms, models.PopularTerm{Term: item.Name, Type: "item", Count: 1})
	}
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].Count > terms[j].Count
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms, nil
}
