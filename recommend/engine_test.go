package recommend

import (
	"context"
	"fmt"
	"testing"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/test"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var july = time.Date(2024, time.July, 10, 12, 0, 0, 0, time.UTC)

func newEngine(catalog *test.CatalogMock, now time.Time) *Engine {
	engine := NewEngine(catalog)
	engine.Now = func() time.Time { return now }
	return engine
}

func seedCatalog(catalog *test.CatalogMock, n int) {
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		item := catalog.AddClothing(models.Clothing{
			JsonModel: models.JsonModel{CreatedAt: base.Add(time.Duration(i) * time.Minute)},
			Name:      fmt.Sprintf("Item %d", i),
			Category:  models.CategoryTop,
			Image:     fmt.Sprintf("https://img/%d.png", i),
			Tags:      pq.StringArray{"casual"},
		})
		catalog.AddOutfit(models.Outfit{
			JsonModel: models.JsonModel{CreatedAt: base.Add(time.Duration(i) * time.Minute)},
			Name:      fmt.Sprintf("Outfit %d", i),
			Items:     pq.StringArray{item.ID},
			Season:    models.Seasons[i%len(models.Seasons)],
			Tags:      pq.StringArray{"casual", "weekend"},
		})
	}
}

func TestRecommendRespectsLimit(t *testing.T) {
	catalog := test.NewCatalogMock()
	seedCatalog(catalog, 30)
	engine := newEngine(catalog, july)

	for _, recType := range []models.RecommendationType{models.RecommendSmart, models.RecommendRandom, models.RecommendSeasonal} {
		for _, limit := range []int{1, 5, 50} {
			recs, err := engine.Recommend(context.Background(), Request{Type: recType, Limit: limit})
			require.NoError(t, err)
			assert.LessOrEqual(t, len(recs), limit, "type %s limit %d", recType, limit)
			assert.NotEmpty(t, recs)
		}
	}

	target := catalog.Clothing[0]
	recs, err := engine.Recommend(context.Background(), Request{Type: models.RecommendSimilar, ClothingID: target.ID, Limit: 3})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(recs), 3)
}

func TestRecommendLimitClamp(t *testing.T) {
	assert.Equal(t, 10, ClampLimit(0))
	assert.Equal(t, 1, ClampLimit(-4))
	assert.Equal(t, 50, ClampLimit(500))
	assert.Equal(t, 7, ClampLimit(7))
}

func TestRecommendUnknownType(t *testing.T) {
	engine := newEngine(test.NewCatalogMock(), july)
	_, err := engine.Recommend(context.Background(), Request{Type: "trending"})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
}

func TestRecommendSimilarValidation(t *testing.T) {
	engine := newEngine(test.NewCatalogMock(), july)

	_, err := engine.Recommend(context.Background(), Request{Type: models.RecommendSimilar})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))

	_, err = engine.Recommend(context.Background(), Request{Type: models.RecommendSimilar, ClothingID: "not-a-uuid"})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
}

func TestRecommendSimilarMissingTargetIsNotFound(t *testing.T) {
	catalog := test.NewCatalogMock()
	seedCatalog(catalog, 3)
	engine := newEngine(catalog, july)

	recs, err := engine.Recommend(context.Background(), Request{Type: models.RecommendSimilar, ClothingID: uuid.NewString()})
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
	assert.Nil(t, recs)
}

func TestRecommendSimilar(t *testing.T) {
	catalog := test.NewCatalogMock()
	target := catalog.AddClothing(models.Clothing{Name: "Blue Shirt", Category: models.CategoryTop})
	for i := 0; i < 3; i++ {
		catalog.AddClothing(models.Clothing{Name: fmt.Sprintf("Top %d", i), Category: models.CategoryTop})
	}
	jeans := catalog.AddClothing(models.Clothing{Name: "Jeans", Category: models.CategoryBottom})
	catalog.AddOutfit(models.Outfit{Name: "Weekend", Items: pq.StringArray{target.ID, jeans.ID}, Thumbnail: "thumb"})
	// Only the target itself: no partner to pair with.
	catalog.AddOutfit(models.Outfit{Name: "Solo", Items: pq.StringArray{target.ID}})
	engine := newEngine(catalog, july)

	recs, err := engine.Recommend(context.Background(), Request{Type: models.RecommendSimilar, ClothingID: target.ID, Limit: 4})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, models.ReasonSimilarCategory, recs[0].Reason)
	assert.Equal(t, models.ReasonSimilarCategory, recs[1].Reason)
	for _, rec := range recs[:2] {
		assert.Equal(t, models.CategoryTop, rec.Category)
		assert.NotEqual(t, "similar_clothing_"+target.ID, rec.ID)
		assert.Equal(t, 0.8, rec.Confidence)
	}

	match := recs[2]
	assert.Equal(t, models.ReasonOutfitMatch, match.Reason)
	assert.Equal(t, "Weekend", match.Title)
	assert.Equal(t, "Pairs Blue Shirt with Jeans", match.Description)
	assert.Equal(t, "thumb", match.Image)
	assert.Equal(t, 0.9, match.Confidence)
}

func TestRecommendSeasonalOrdering(t *testing.T) {
	catalog := test.NewCatalogMock()
	now := time.Now()
	catalog.AddOutfit(models.Outfit{JsonModel: models.JsonModel{CreatedAt: now.Add(-3 * time.Hour)}, Name: "Beach", Season: models.SeasonSummer})
	catalog.AddOutfit(models.Outfit{JsonModel: models.JsonModel{CreatedAt: now.Add(-2 * time.Hour)}, Name: "Ski", Season: models.SeasonWinter})
	catalog.AddOutfit(models.Outfit{JsonModel: models.JsonModel{CreatedAt: now.Add(-1 * time.Hour)}, Name: "Basics", Season: models.SeasonAll})
	catalog.AddClothing(models.Clothing{Name: "Sandals", Category: models.CategoryShoes})
	engine := newEngine(catalog, july)

	recs, err := engine.Recommend(context.Background(), Request{Type: models.RecommendSeasonal, Season: models.SeasonSummer})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "Basics", recs[0].Title)
	assert.Equal(t, "Beach", recs[1].Title)
	assert.Equal(t, models.EntityOutfit, recs[0].Type)
	assert.Equal(t, 0.8, recs[0].Confidence)
	assert.Equal(t, "Sandals", recs[2].Title)
	assert.Equal(t, models.EntityClothing, recs[2].Type)
	assert.Equal(t, 0.7, recs[2].Confidence)
	for _, rec := range recs {
		assert.Equal(t, models.ReasonSeasonal, rec.Reason)
		assert.NotEqual(t, "Ski", rec.Title)
	}
}

func TestRecommendSmartSortedAndUnique(t *testing.T) {
	catalog := test.NewCatalogMock()
	seedCatalog(catalog, 12)
	engine := newEngine(catalog, time.Now())

	recs, err := engine.Recommend(context.Background(), Request{Type: models.RecommendSmart, Season: models.SeasonSummer, Limit: 8})
	require.NoError(t, err)
	require.Len(t, recs, 8)

	seen := map[string]bool{}
	for i, rec := range recs {
		assert.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
		seen[rec.ID] = true
		assert.GreaterOrEqual(t, rec.Confidence, 0.0)
		assert.LessOrEqual(t, rec.Confidence, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, recs[i-1].Confidence, rec.Confidence)
		}
	}
}

func TestRecommendStoreFailureFallsBackToDefaults(t *testing.T) {
	catalog := test.NewCatalogMock()
	catalog.Err = &models.StoreError{Op: "list outfits", Code: models.CodeTimeout}
	engine := newEngine(catalog, july)

	for _, recType := range []models.RecommendationType{models.RecommendSmart, models.RecommendRandom, models.RecommendSeasonal} {
		recs, err := engine.Recommend(context.Background(), Request{Type: recType, Season: models.SeasonSummer})
		require.NoError(t, err)
		require.Len(t, recs, 3)
		for _, rec := range recs {
			assert.Equal(t, models.ReasonDefault, rec.Reason)
			assert.Equal(t, 0.6, rec.Confidence)
			assert.True(t, rec.Season == models.SeasonSummer || rec.Season == models.SeasonAll)
		}
	}

	recs, err := engine.Recommend(context.Background(), Request{Type: models.RecommendRandom, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	// A store failure while loading the similar target is not a not-found.
	recs, err = engine.Recommend(context.Background(), Request{Type: models.RecommendSimilar, ClothingID: uuid.NewString()})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonDefault, recs[0].Reason)
}

func TestDefaultsAreCopies(t *testing.T) {
	first := Defaults(models.SeasonAll)
	first[0].Tags[0] = "changed"
	assert.Equal(t, "classic", Defaults("")[0].Tags[0])
}

func TestScore(t *testing.T) {
	now := july
	freq := TagFrequency{}
	freq.Add([]string{"casual", "casual", "casual", "linen"})

	score := Score(Candidate{
		Tags:      []string{"casual"},
		Season:    models.SeasonSummer,
		CreatedAt: now.Add(-24 * time.Hour),
	}, models.SeasonSummer, freq, now)
	assert.InDelta(t, 0.93, score, 1e-9)

	score = Score(Candidate{
		Tags:      []string{"linen", "unknown"},
		Season:    models.SeasonWinter,
		CreatedAt: now.Add(-30 * 24 * time.Hour),
	}, models.SeasonSummer, freq, now)
	assert.InDelta(t, 0.51, score, 1e-9)

	// Clothing has no season and gets no season bonus.
	score = Score(Candidate{}, models.SeasonSummer, freq, now)
	assert.InDelta(t, 0.5, score, 1e-9)
}

func TestScoreClampsAtOne(t *testing.T) {
	freq := TagFrequency{}
	tags := make([]string, 50)
	for i := range tags {
		tags[i] = fmt.Sprintf("tag-%d", i)
		for j := 0; j < 40; j++ {
			freq.Add([]string{tags[i]})
		}
	}
	score := Score(Candidate{Tags: tags, Season: models.SeasonAll, CreatedAt: july}, models.SeasonSummer, freq, july)
	assert.Equal(t, 1.0, score)
}

func TestStats(t *testing.T) {
	catalog := test.NewCatalogMock()
	seedCatalog(catalog, 5)
	engine := newEngine(catalog, july)

	stats, err := engine.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalClothing)
	assert.Equal(t, int64(5), stats.TotalOutfits)
	assert.Equal(t, models.SeasonSummer, stats.CurrentSeason)
	assert.Len(t, stats.SeasonDistribution, 5)
	assert.Equal(t, models.RecommendationTypes, stats.RecommendationTypes)
	assert.Equal(t, "2024-07-10T12:00:00Z", stats.LastUpdated)

	catalog.Err = &models.StoreError{Op: "counts", Code: models.CodeUnknown}
	_, err = engine.Stats(context.Background())
	assert.Error(t, err)
}
