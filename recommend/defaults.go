package recommend

import "wardrobeapi/models"

var defaults = []models.Recommendation{
	{
		ID:          "default_1",
		Title:       "Classic Look",
		Description: "A simple, timeless combination",
		Image:       "https://picsum.photos/300/400?random=1",
		Type:        models.EntityOutfit,
		Season:      models.SeasonAll,
		Tags:        []string{"classic", "versatile"},
		Reason:      models.ReasonDefault,
		Confidence:  0.6,
	},
	{
		ID:          "default_2",
		Title:       "Casual Style",
		Description: "Comfortable everyday wear",
		Image:       "https://picsum.photos/300/400?random=2",
		Type:        models.EntityOutfit,
		Season:      models.SeasonAll,
		Tags:        []string{"casual", "comfortable"},
		Reason:      models.ReasonDefault,
		Confidence:  0.6,
	},
	{
		ID:          "default_3",
		Title:       "Formal Occasion",
		Description: "Elegant and polished",
		Image:       "https://picsum.photos/300/400?random=3",
		Type:        models.EntityOutfit,
		Season:      models.SeasonAll,
		Tags:        []string{"formal", "elegant"},
		Reason:      models.ReasonDefault,
		Confidence:  0.6,
	},
}

// Defaults returns copies of the canned recommendations wearable in season.
// An empty season or "all" returns every entry.
func Defaults(season models.Season) []models.Recommendation {
	out := make([]models.Recommendation, 0, len(defaults))
	for _, rec := range defaults {
		if season != "" && season != models.SeasonAll && !rec.Season.Matches(season) {
			continue
		}
		rec.Tags = append([]string(nil), rec.Tags...)
		out = append(out, rec)
	}
	return out
}
