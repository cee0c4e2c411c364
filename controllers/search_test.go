package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/search"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSearchCatalog(s *testServer) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	jacket := models.Clothing{Name: "Jacket", Category: models.CategoryOuterwear, Image: "jacket.png", Tags: pq.StringArray{"outerwear"}}
	jacket.CreatedAt = base
	denim := models.Clothing{Name: "Denim Jacket", Category: models.CategoryOuterwear, Tags: pq.StringArray{"outerwear", "casual"}}
	denim.CreatedAt = base.Add(time.Hour)
	boots := models.Clothing{Name: "Boots", Category: models.CategoryShoes}
	boots.CreatedAt = base.Add(2 * time.Hour)

	j := s.catalog.AddClothing(jacket)
	s.catalog.AddClothing(denim)
	s.catalog.AddClothing(boots)
	s.catalog.AddOutfit(models.Outfit{Name: "Jacket Weather", Season: models.SeasonAutumn, Items: pq.StringArray{j.ID}})
}

func decodeSearch(t *testing.T, rec *httptest.ResponseRecorder) SearchResponse {
	t.Helper()
	var response SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response), rec.Body.String())
	return response
}

func TestSearchRanksAcrossKinds(t *testing.T) {
	s := setupTestServer(t)
	seedSearchCatalog(s)

	rec := s.serve(httptest.NewRequest(http.MethodGet, "/api/search?q=jacket", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	response := decodeSearch(t, rec)
	assert.True(t, response.Success)
	require.Len(t, response.Data, 3)
	assert.Equal(t, "Jacket", response.Data[0].Name)
	assert.Equal(t, "Denim Jacket", response.Data[1].Name)
	assert.Equal(t, "Jacket Weather", response.Data[2].Name)
	assert.Equal(t, models.EntityOutfit, response.Data[2].Type)
	require.Len(t, response.Data[2].Items, 1)
	assert.Equal(t, "Jacket", response.Data[2].Items[0].Name)
	assert.Greater(t, response.Data[0].Score, response.Data[1].Score)

	assert.Equal(t, models.SearchStats{Total: 3, Clothing: 2, Outfits: 1}, response.Stats)
	assert.Equal(t, "jacket", response.Query.Keyword)
	assert.Equal(t, search.KindAll, response.Query.Type)
	assert.Equal(t, search.SortRelevance, response.Query.SortBy)
	assert.Equal(t, int64(3), response.Pagination.Total)
	assert.GreaterOrEqual(t, response.SearchTime, int64(0))
}

func TestSearchFiltersAndPaging(t *testing.T) {
	s := setupTestServer(t)
	seedSearchCatalog(s)

	rec := s.serve(httptest.NewRequest(http.MethodGet, "/api/search?q=jacket&type=clothing&sortBy=name&sortOrder=asc&limit=1&page=2", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	response := decodeSearch(t, rec)
	require.Len(t, response.Data, 1)
	assert.Equal(t, "Jacket", response.Data[0].Name)
	assert.Equal(t, models.SearchStats{Total: 2, Clothing: 2}, response.Stats)
	assert.Equal(t, 2, response.Pagination.Page)

	rec = s.serve(httptest.NewRequest(http.MethodGet, "/api/search?q=jacket&tags=casual", nil))
	response = decodeSearch(t, rec)
	require.Len(t, response.Data, 1)
	assert.Equal(t, "Denim Jacket", response.Data[0].Name)
}

func TestSearchHugePage(t *testing.T) {
	s := setupTestServer(t)
	seedSearchCatalog(s)

	rec := s.serve(httptest.NewRequest(http.MethodGet, "/api/search?q=jacket&limit=100&page=100000000000000000", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	response := decodeSearch(t, rec)
	assert.Empty(t, response.Data)
	assert.Equal(t, 100000000000000000, response.Pagination.Page)
	assert.False(t, response.Pagination.HasNext)
}

func TestSearchValidation(t *testing.T) {
	s := setupTestServer(t)
	for _, target := range []string{
		"/api/search",
		"/api/search?q=%20%20",
		"/api/search?q=tee&type=shoes",
		"/api/search?q=tee&sortBy=price",
		"/api/search?q=tee&sortOrder=up",
	} {
		rec := s.serve(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestSearchDegradesOnStoreErrors(t *testing.T) {
	s := setupTestServer(t)
	s.catalog.Err = errors.New("connection refused")

	rec := s.serve(httptest.NewRequest(http.MethodGet, "/api/search?q=jacket", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	response := decodeSearch(t, rec)
	assert.Empty(t, response.Data)
	assert.Equal(t, 0, response.Stats.Total)
}

func TestSearchSuggestions(t *testing.T) {
	s := setupTestServer(t)
	seedSearchCatalog(s)

	rec := s.serve(httptest.NewRequest(http.MethodGet, "/api/search/suggestions?q=ja", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var suggestions []string
	decodeEnvelope(t, rec, &suggestions)
	assert.Equal(t, []string{"Jacket", "Jacket Weather", "Denim Jacket"}, suggestions)

	rec = s.serve(httptest.NewRequest(http.MethodGet, "/api/search/suggestions?q=j", nil))
	decodeEnvelope(t, rec, &suggestions)
	assert.Empty(t, suggestions)
}

func TestSearchPopular(t *testing.T) {
	s := setupTestServer(t)
	seedSearchCatalog(s)

	rec := s.serve(httptest.NewRequest(http.MethodGet, "/api/search/popular?limit=3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var terms []models.PopularTerm
	decodeEnvelope(t, rec, &terms)
	require.Len(t, terms, 3)
	assert.Equal(t, models.PopularTerm{Term: "outerwear", Type: "tag", Count: 2}, terms[0])
	assert.Equal(t, models.PopularTerm{Term: "casual", Type: "tag", Count: 1}, terms[1])
	assert.Equal(t, models.PopularTerm{Term: "Boots", Type: "item", Count: 1}, terms[2])
}

func TestSearchPopularPropagatesStoreErrors(t *testing.T) {
	s := setupTestServer(t)
	s.catalog.Err = errors.New("connection refused")

	rec := s.serve(httptest.NewRequest(http.MethodGet, "/api/search/popular", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
