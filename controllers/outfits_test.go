package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/test"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOutfitOk(t *testing.T) {
	s := setupTestServer(t)
	shirt := s.catalog.AddClothing(models.Clothing{Name: "Shirt", Category: models.CategoryTop, Image: "shirt.png", Tags: pq.StringArray{"office"}})
	trousers := s.catalog.AddClothing(models.Clothing{Name: "Trousers", Category: models.CategoryBottom, Image: "trousers.png"})

	rec := s.serve(test.NewJSONAuthRequest(http.MethodPost, "/api/outfits", "user-1", OutfitIn{
		Name:  "Office",
		Items: []string{"bogus", uuid.NewString(), shirt.ID, trousers.ID, shirt.ID},
		Tags:  []string{"work"},
	}))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var outfit OutfitOut
	response := decodeEnvelope(t, rec, &outfit)
	assert.Equal(t, "Outfit created", response.Message)
	assert.Equal(t, models.SeasonAll, outfit.Season)
	assert.Equal(t, "shirt.png", outfit.Thumbnail)
	assert.Equal(t, []string{shirt.ID, trousers.ID}, outfit.ItemIDs)
	assert.Equal(t, 2, outfit.ItemCount)
	require.Len(t, outfit.Items, 2)
	assert.Equal(t, OutfitItem{ID: shirt.ID, Name: "Shirt", Image: "shirt.png", Category: models.CategoryTop, Tags: []string{"office"}}, outfit.Items[0])
}

func TestCreateOutfitValidation(t *testing.T) {
	s := setupTestServer(t)
	shirt := s.catalog.AddClothing(models.Clothing{Name: "Shirt", Category: models.CategoryTop})

	tooMany := make([]string, 11)
	for i := range tooMany {
		tooMany[i] = shirt.ID
	}
	cases := map[string]OutfitIn{
		"missing name":   {Items: []string{shirt.ID}},
		"long name":      {Name: "This outfit name is far too long to be accepted by the api", Items: []string{shirt.ID}},
		"no items":       {Name: "Empty"},
		"too many items": {Name: "Crowded", Items: tooMany},
		"bad season":     {Name: "Odd", Items: []string{shirt.ID}, Season: "monsoon"},
		"no valid items": {Name: "Ghost", Items: []string{uuid.NewString(), "bogus"}},
		"long tag":       {Name: "Tagged", Items: []string{shirt.ID}, Tags: []string{"abcdefghijklmnopqrstuvwxyz"}},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := s.serve(test.NewJSONAuthRequest(http.MethodPost, "/api/outfits", "user-1", body))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
	assert.Empty(t, s.catalog.Outfits)
}

func TestListOutfitsEmbedsItems(t *testing.T) {
	s := setupTestServer(t)
	shirt := s.catalog.AddClothing(models.Clothing{Name: "Shirt", Category: models.CategoryTop, Image: "shirt.png"})
	s.catalog.AddOutfit(models.Outfit{Name: "Summer Day", Season: models.SeasonSummer, Items: pq.StringArray{shirt.ID, uuid.NewString()}})
	s.catalog.AddOutfit(models.Outfit{Name: "Winter Night", Season: models.SeasonWinter, Items: pq.StringArray{shirt.ID}})

	rec := s.serve(httptest.NewRequest(http.MethodGet, "/api/outfits?season=summer", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var outfits []OutfitOut
	response := decodeEnvelope(t, rec, &outfits)
	require.Len(t, outfits, 1)
	assert.Equal(t, "Summer Day", outfits[0].Name)
	assert.Len(t, outfits[0].ItemIDs, 2)
	require.Len(t, outfits[0].Items, 1)
	assert.Equal(t, "Shirt", outfits[0].Items[0].Name)
	assert.Equal(t, 1, outfits[0].ItemCount)
	assert.Equal(t, int64(1), response.Pagination.Total)

	rec = s.serve(httptest.NewRequest(http.MethodGet, "/api/outfits?season=all", nil))
	decodeEnvelope(t, rec, &outfits)
	assert.Len(t, outfits, 2)

	assert.Equal(t, http.StatusBadRequest, s.serve(httptest.NewRequest(http.MethodGet, "/api/outfits?season=monsoon", nil)).Code)
}

func TestGetOutfit(t *testing.T) {
	s := setupTestServer(t)
	shirt := s.catalog.AddClothing(models.Clothing{Name: "Shirt", Category: models.CategoryTop})
	outfit := s.catalog.AddOutfit(models.Outfit{Name: "Office", Items: pq.StringArray{shirt.ID}})

	rec := s.serve(httptest.NewRequest(http.MethodGet, "/api/outfits/"+outfit.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var found OutfitOut
	decodeEnvelope(t, rec, &found)
	assert.Equal(t, "Office", found.Name)
	assert.Equal(t, 1, found.ItemCount)

	assert.Equal(t, http.StatusBadRequest, s.serve(httptest.NewRequest(http.MethodGet, "/api/outfits/123", nil)).Code)
	assert.Equal(t, http.StatusNotFound, s.serve(httptest.NewRequest(http.MethodGet, "/api/outfits/"+uuid.NewString(), nil)).Code)
}

func TestUpdateOutfit(t *testing.T) {
	s := setupTestServer(t)
	shirt := s.catalog.AddClothing(models.Clothing{Name: "Shirt", Category: models.CategoryTop, Image: "shirt.png"})
	boots := s.catalog.AddClothing(models.Clothing{Name: "Boots", Category: models.CategoryShoes, Image: "boots.png"})
	outfit := s.catalog.AddOutfit(models.Outfit{Name: "Office", Items: pq.StringArray{shirt.ID}, Thumbnail: "shirt.png", Tags: pq.StringArray{"work"}})

	rec := s.serve(test.NewJSONAuthRequest(http.MethodPut, "/api/outfits/"+outfit.ID, "user-1", OutfitIn{
		Name:   "Rainy Office",
		Items:  []string{boots.ID, shirt.ID},
		Season: models.SeasonAutumn,
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated OutfitOut
	decodeEnvelope(t, rec, &updated)
	assert.Equal(t, "Rainy Office", updated.Name)
	assert.Equal(t, models.SeasonAutumn, updated.Season)
	assert.Equal(t, "boots.png", updated.Thumbnail)
	assert.Equal(t, []string{boots.ID, shirt.ID}, updated.ItemIDs)
	assert.Equal(t, pq.StringArray{"work"}, updated.Tags)

	// items are required on update
	rec = s.serve(test.NewJSONAuthRequest(http.MethodPut, "/api/outfits/"+outfit.ID, "user-1", OutfitIn{Name: "No Items"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.serve(test.NewJSONAuthRequest(http.MethodPut, "/api/outfits/"+uuid.NewString(), "user-1", OutfitIn{Name: "Ghost", Items: []string{shirt.ID}}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteOutfit(t *testing.T) {
	s := setupTestServer(t)
	outfit := s.catalog.AddOutfit(models.Outfit{Name: "Office"})

	rec := s.serve(test.NewJSONAuthRequest(http.MethodDelete, "/api/outfits/"+outfit.ID, "user-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.catalog.Outfits)

	rec = s.serve(test.NewJSONAuthRequest(http.MethodDelete, "/api/outfits/"+outfit.ID, "user-1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOutfitOverview(t *testing.T) {
	s := setupTestServer(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		season := models.SeasonSummer
		if i%2 == 0 {
			season = models.SeasonWinter
		}
		outfit := models.Outfit{Name: fmt.Sprintf("Outfit %d", i), Season: season, Tags: pq.StringArray{"casual"}}
		outfit.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		s.catalog.AddOutfit(outfit)
	}

	rec := s.serve(httptest.NewRequest(http.MethodGet, "/api/outfits/stats/overview", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var overview OutfitOverview
	decodeEnvelope(t, rec, &overview)
	assert.Equal(t, int64(7), overview.Total)
	assert.Equal(t, int64(4), overview.BySeason[models.SeasonWinter])
	assert.Equal(t, int64(3), overview.BySeason[models.SeasonSummer])
	assert.Equal(t, int64(0), overview.BySeason[models.SeasonSpring])
	assert.Equal(t, []models.TagCount{{Tag: "casual", Count: 7}}, overview.PopularTags)
	require.Len(t, overview.RecentOutfits, 5)
	assert.Equal(t, "Outfit 6", overview.RecentOutfits[0].Name)
	assert.True(t, overview.RecentOutfits[0].CreateTime.Equal(base.Add(6*time.Hour)))
}

func TestOutfitWritesInvalidateRecommendations(t *testing.T) {
	s := setupTestServer(t)
	shirt := s.catalog.AddClothing(models.Clothing{Name: "Shirt", Category: models.CategoryTop})

	recommend := func() *http.Request {
		return test.NewJSONRequest(http.MethodPost, "/api/recommend", RecommendIn{Type: models.RecommendSeasonal, Season: models.SeasonSummer})
	}
	s.serve(recommend())
	require.Equal(t, "HIT", s.serve(recommend()).Header().Get("X-Cache"))

	rec := s.serve(test.NewJSONAuthRequest(http.MethodPost, "/api/outfits", "user-1", OutfitIn{Name: "Beach", Items: []string{shirt.ID}, Season: models.SeasonSummer}))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.serve(recommend())
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	var recommendations []models.Recommendation
	decodeEnvelope(t, rec, &recommendations)
	require.NotEmpty(t, recommendations)
	assert.Equal(t, "Beach", recommendations[0].Title)
}
