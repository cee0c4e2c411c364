package controllers

import (
	"net/http"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/search"

	"github.com/labstack/echo/v4"
)

// SearchResponse is the success envelope plus the echoed query, per-kind
// counts and the ranking time in milliseconds.
type SearchResponse struct {
	Success    bool                  `json:"success"`
	Data       []models.SearchResult `json:"data"`
	Query      search.Query          `json:"query"`
	Stats      models.SearchStats    `json:"stats"`
	Pagination models.Pagination     `json:"pagination"`
	SearchTime int64                 `json:"searchTime"`
	Timestamp  string                `json:"timestamp"`
}

type SearchController struct {
	Ranker *search.Ranker
}

func (controller *SearchController) SearchRoutes(g *echo.Group, cached echo.MiddlewareFunc) {
	g.GET("", controller.Search, cached)
	g.GET("/suggestions", controller.Suggestions, cached)
	g.GET("/popular", controller.Popular, cached)
}

func (controller *SearchController) Search(c echo.Context) error {
	started := time.Now()
	page, err := controller.Ranker.Search(c.Request().Context(), search.Query{
		Keyword:   c.QueryParam("q"),
		Type:      search.Kind(c.QueryParam("type")),
		Category:  models.Category(c.QueryParam("category")),
		Season:    models.Season(c.QueryParam("season")),
		Tags:      tagsQuery(c),
		SortBy:    search.SortBy(c.QueryParam("sortBy")),
		SortOrder: c.QueryParam("sortOrder"),
		Page:      intQuery(c, "page", 1),
		Limit:     intQuery(c, "limit", search.DefaultLimit),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SearchResponse{
		Success:    true,
		Data:       page.Results,
		Query:      page.Query,
		Stats:      page.Stats,
		Pagination: page.Pagination,
		SearchTime: time.Since(started).Milliseconds(),
		Timestamp:  timestamp(),
	})
}

func (controller *SearchController) Suggestions(c echo.Context) error {
	suggestions, err := controller.Ranker.Suggestions(c.Request().Context(), c.QueryParam("q"), intQuery(c, "limit", 0))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, suggestions, "")
}

func (controller *SearchController) Popular(c echo.Context) error {
	terms, err := controller.Ranker.Popular(c.Request().Context(), intQuery(c, "limit", 0))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, terms, "")
}
