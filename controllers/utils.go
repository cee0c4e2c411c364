package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func StrPointer(b string) *string {
	return &b
}

// intQuery parses an integer query parameter, falling back to def when
// it is absent or malformed.
func intQuery(c echo.Context, name string, def int) int {
	value, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return value
}

// pageParams reads page (>= 1) and limit (1..100, default 20).
func pageParams(c echo.Context) (int, int) {
	page := intQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := intQuery(c, "limit", defaultPageLimit)
	switch {
	case limit < 1:
		limit = 1
	case limit > maxPageLimit:
		limit = maxPageLimit
	}
	return page, limit
}

// sortParams reads sortBy (default created_at) and sortOrder (default desc).
func sortParams(c echo.Context) (services.SortField, bool, error) {
	order := services.SortField(c.QueryParam("sortBy"))
	switch order {
	case "":
		order = services.SortCreatedAt
	case services.SortCreatedAt, services.SortUpdatedAt, services.SortName:
	default:
		return "", false, models.NewValidationError("sortBy", "sortBy must be one of created_at, updated_at, name")
	}
	switch strings.ToLower(c.QueryParam("sortOrder")) {
	case "", "desc":
		return order, false, nil
	case "asc":
		return order, true, nil
	}
	return "", false, models.NewValidationError("sortOrder", "sortOrder must be asc or desc")
}

// tagsQuery splits a comma separated tags parameter.
func tagsQuery(c echo.Context) []string {
	raw := c.QueryParam("tags")
	if raw == "" {
		return nil
	}
	return models.CleanTags(strings.Split(raw, ","))
}

func idParam(c echo.Context) (string, error) {
	id := c.Param("id")
	if !models.IsUUID(id) {
		return "", models.NewValidationError("id", "invalid id format")
	}
	return id, nil
}

// bindAndValidate binds the request body into req and validates it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return c.Validate(req)
}

func formatBytes(n int64) string {
	return fmt.Sprintf("%dK", (n+1023)/1024)
}
