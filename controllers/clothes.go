package controllers

import (
	"net/http"
	"strings"

	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type ClothingIn struct {
	Name     string          `json:"name" validate:"required,max=50"`
	Category models.Category `json:"category" validate:"required,category"`
	Image    *string         `json:"image" validate:"omitempty,max=2048"`
	// nil keeps the stored tags on update
	Tags []string `json:"tags" validate:"max=10,dive,max=20"`
}

func (in *ClothingIn) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	if in.Tags != nil {
		in.Tags = models.CleanTags(in.Tags)
	}
	if in.Image != nil {
		trimmed := strings.TrimSpace(*in.Image)
		in.Image = &trimmed
	}
}

type BatchClothingIn struct {
	Operation string          `json:"operation" validate:"required,oneof=delete update-tags move-category"`
	IDs       []string        `json:"ids" validate:"required,min=1,max=100"`
	Tags      []string        `json:"tags" validate:"max=10,dive,max=20"`
	Category  models.Category `json:"category"`
}

type BatchClothingOut struct {
	Operation string `json:"operation"`
	Requested int    `json:"requested"`
	Affected  int64  `json:"affected"`
}

type ProcessImageIn struct {
	Quality string `json:"quality" validate:"omitempty,oneof=high medium low"`
}

type ProcessImageOut struct {
	TaskID     string `json:"taskId"`
	ClothingID string `json:"clothingId"`
	Queue      string `json:"queue"`
}

type ClothesController struct {
	Catalog services.CatalogProvider
	Cache   cacheInvalidator
}

func (controller *ClothesController) ClothingRoutes(g *echo.Group, guard echo.MiddlewareFunc, cached echo.MiddlewareFunc) {
	g.GET("", controller.ListClothing, cached)
	g.POST("", controller.CreateClothing, guard)
	g.POST("/batch", controller.BatchClothing, guard)
	g.GET("/:id", controller.GetClothing, cached)
	g.PUT("/:id", controller.UpdateClothing, guard)
	g.DELETE("/:id", controller.DeleteClothing, guard)
	g.POST("/:id/process-image", controller.ProcessImage, guard)
}

// invalidateAfterWrite drops every family that can embed clothing.
func (controller *ClothesController) invalidateAfterWrite() {
	controller.Cache.invalidate(services.FamilyClothing, services.FamilyOutfits, services.FamilySearch, services.FamilyRecommend)
}

func (controller *ClothesController) ListClothing(c echo.Context) error {
	page, limit := pageParams(c)
	order, ascending, err := sortParams(c)
	if err != nil {
		return err
	}
	category := models.Category(c.QueryParam("category"))
	if category == "all" {
		category = ""
	}
	if category != "" && !category.Valid() {
		return models.NewValidationError("category", "unsupported category %q", category)
	}

	items, total, err := controller.Catalog.ListClothing(c.Request().Context(), services.ClothingQuery{
		Category:  category,
		Tags:      tagsQuery(c),
		Text:      strings.TrimSpace(c.QueryParam("q")),
		Order:     order,
		Ascending: ascending,
		Offset:    models.Offset(page, limit),
		Limit:     limit,
	})
	if err != nil {
		return err
	}
	return respondPage(c, items, models.NewPagination(page, limit, total))
}

func (controller *ClothesController) GetClothing(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	item, err := controller.Catalog.GetClothing(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, item, "")
}

func (controller *ClothesController) CreateClothing(c echo.Context) error {
	var req ClothingIn
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	req.normalize()
	if err := c.Validate(req); err != nil {
		return err
	}

	item := models.Clothing{
		Name:     req.Name,
		Category: req.Category,
		Tags:     models.CleanTags(req.Tags),
	}
	if req.Image != nil {
		item.Image = *req.Image
	}
	if err := controller.Catalog.CreateClothing(c.Request().Context(), &item); err != nil {
		return err
	}
	controller.invalidateAfterWrite()
	log.Info().Str("clothing_id", item.ID).Str("category", string(item.Category)).Msg("Clothing created")
	return respond(c, http.StatusCreated, item, "Clothing created")
}

func (controller *ClothesController) UpdateClothing(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req ClothingIn
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	req.normalize()
	if err := c.Validate(req); err != nil {
		return err
	}

	fields := map[string]any{
		"name":     req.Name,
		"category": req.Category,
	}
	if req.Image != nil {
		fields["image"] = *req.Image
	}
	if req.Tags != nil {
		fields["tags"] = models.CleanTags(req.Tags)
	}
	item, err := controller.Catalog.UpdateClothing(c.Request().Context(), id, fields)
	if err != nil {
		return err
	}
	controller.invalidateAfterWrite()
	return respond(c, http.StatusOK, item, "Clothing updated")
}

func (controller *ClothesController) DeleteClothing(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := controller.Catalog.DeleteClothing(c.Request().Context(), id); err != nil {
		return err
	}
	controller.invalidateAfterWrite()
	return respond(c, http.StatusOK, nil, "Clothing deleted")
}

func (controller *ClothesController) BatchClothing(c echo.Context) error {
	var req BatchClothingIn
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	for _, id := range req.IDs {
		if !models.IsUUID(id) {
			return models.NewValidationError("ids", "contains invalid id format: %q", id)
		}
	}

	batch := services.ClothingBatch{
		Operation: services.BatchOperation(req.Operation),
		IDs:       req.IDs,
	}
	switch batch.Operation {
	case services.BatchUpdateTags:
		if req.Tags == nil {
			return models.NewValidationError("tags", "tags must be an array")
		}
		batch.Tags = models.CleanTags(req.Tags)
	case services.BatchMoveCategory:
		if !req.Category.Valid() {
			return models.NewValidationError("category", "a valid category is required")
		}
		batch.Category = req.Category
	}

	affected, err := controller.Catalog.BatchClothing(c.Request().Context(), batch)
	if err != nil {
		return err
	}
	controller.invalidateAfterWrite()
	return respond(c, http.StatusOK, BatchClothingOut{
		Operation: req.Operation,
		Requested: len(req.IDs),
		Affected:  affected,
	}, "Batch "+req.Operation+" completed")
}

// ProcessImage queues background removal for the clothing image. The
// worker replaces the image URL once the cutout is stored.
func (controller *ClothesController) ProcessImage(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req ProcessImageIn
	if c.Request().ContentLength != 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
	}
	queue, ok := c.Get("__queue").(TaskEnqueuer)
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Image processing is not available, please try again a bit later")
	}

	item, err := controller.Catalog.GetClothing(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if item.Image == "" {
		return models.NewValidationError("image", "clothing has no image to process")
	}

	task, err := tasks.NewClothingImageTask(item.ID, services.ParseQuality(req.Quality))
	if err != nil {
		return err
	}
	info, err := queue.EnqueueContext(c.Request().Context(), task, tasks.EnqueueOptions()...)
	if err != nil {
		sentry.CaptureException(err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Sorry, could not queue image processing, please try again")
	}
	log.Info().Str("clothing_id", item.ID).Str("task_id", info.ID).Msg("[Queue] Process clothing image task submitted")
	return respond(c, http.StatusAccepted, ProcessImageOut{
		TaskID:     info.ID,
		ClothingID: item.ID,
		Queue:      tasks.QueueImages,
	}, "Image processing queued")
}
