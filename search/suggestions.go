package search

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"wardrobeapi/languageutil"
	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSuggestionLimit = 10
	MaxSuggestionLimit     = 20
	minSuggestionRunes     = 2
)

func clampSuggestionLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultSuggestionLimit
	case limit > MaxSuggestionLimit:
		return MaxSuggestionLimit
	}
	return limit
}

// Suggestions returns item and outfit names containing keyword. Names
// starting with keyword come first, then shorter names.
func (r *Ranker) Suggestions(ctx context.Context, keyword string, limit int) ([]string, error) {
	keyword = strings.TrimSpace(keyword)
	if utf8.RuneCountInString(keyword) < minSuggestionRunes {
		return []string{}, nil
	}
	limit = clampSuggestionLimit(limit)

	var clothing []models.Clothing
	var outfits []models.Outfit
	var g errgroup.Group
	g.Go(func() error {
		var err error
		clothing, _, err = r.Catalog.ListClothing(ctx, services.ClothingQuery{Text: keyword, NameOnly: true, Order: services.SortName, Ascending: true, Limit: limit})
		if err != nil {
			log.Warn().Err(err).Str("keyword", keyword).Msg("Clothing suggestions failed")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		outfits, _, err = r.Catalog.ListOutfits(ctx, services.OutfitQuery{Text: keyword, NameOnly: true, Order: services.SortName, Ascending: true, Limit: limit})
		if err != nil {
			log.Warn().Err(err).Str("keyword", keyword).Msg("Outfit suggestions failed")
		}
		return nil
	})
	_ = g.Wait()

	seen := map[string]struct{}{}
	names := []string{}
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for _, item := range clothing {
		add(item.Name)
	}
	for _, outfit := range outfits {
		add(outfit.Name)
	}

	sort.SliceStable(names, func(i, j int) bool {
		iPrefix := languageutil.HasPrefixFold(names[i], keyword)
		jPrefix := languageutil.HasPrefixFold(names[j], keyword)
		if iPrefix != jPrefix {
			return iPrefix
		}
		return utf8.RuneCountInString(names[i]) < utf8.RuneCountInString(names[j])
	})
	if len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}
