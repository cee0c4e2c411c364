package controllers

import (
	"net/http"

	"wardrobeapi/models"
	"wardrobeapi/recommend"

	"github.com/labstack/echo/v4"
)

type RecommendIn struct {
	Type       models.RecommendationType `json:"type"`
	Season     models.Season             `json:"season" validate:"omitempty,season"`
	UserID     string                    `json:"userId" validate:"max=100"`
	ClothingID string                    `json:"clothingId"`
	Limit      int                       `json:"limit"`
}

type RecommendController struct {
	Engine *recommend.Engine
}

func (controller *RecommendController) RecommendRoutes(g *echo.Group, cached echo.MiddlewareFunc) {
	g.POST("", controller.Recommend, cached)
	g.GET("/stats", controller.Stats, cached)
}

func (controller *RecommendController) Recommend(c echo.Context) error {
	var req RecommendIn
	if c.Request().ContentLength != 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
	}
	recommendations, err := controller.Engine.Recommend(c.Request().Context(), recommend.Request{
		Type:       req.Type,
		Season:     req.Season,
		UserID:     req.UserID,
		ClothingID: req.ClothingID,
		Limit:      req.Limit,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, recommendations, "")
}

func (controller *RecommendController) Stats(c echo.Context) error {
	stats, err := controller.Engine.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, stats, "")
}
