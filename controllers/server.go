package controllers

import (
	"context"
	"net/http"

	"wardrobeapi/config"
	"wardrobeapi/models"
	"wardrobeapi/recommend"
	"wardrobeapi/search"
	"wardrobeapi/services"

	"github.com/go-playground/validator"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterValidation("category", models.ValidateCategory)
	v.RegisterValidation("season", models.ValidateSeason)
	return &CustomValidator{validator: v}
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueInspector is satisfied by *asynq.Inspector.
type QueueInspector interface {
	Queues() ([]string, error)
}

// Dependencies wires the server. Cache, Queue and Inspector are optional.
type Dependencies struct {
	Config    *config.Config
	Catalog   services.CatalogProvider
	Blob      services.BlobProvider
	Cache     services.ResponseCacheProvider
	Queue     TaskEnqueuer
	Inspector QueueInspector
}

func SetupServer(deps Dependencies) *echo.Echo {
	cfg := deps.Config
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = NewErrorHandler(cfg)

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if deps.Queue != nil {
				c.Set("__queue", deps.Queue)
			}
			return next(c)
		}
	})
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(RequestLogger())
	e.Use(APIHeaders)
	e.Use(middleware.BodyLimit(bodyLimit(cfg.MaxUploadBytes)))

	guard := WriteGuard(cfg.JWTSecret)
	cached := func(family string) echo.MiddlewareFunc {
		return CacheMiddleware(deps.Cache, family)
	}
	invalidator := cacheInvalidator{cache: deps.Cache}

	e.GET("/", ServiceInfo(cfg))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")

	clothesController := ClothesController{Catalog: deps.Catalog, Cache: invalidator}
	clothesController.ClothingRoutes(api.Group("/clothing"), guard, cached(services.FamilyClothing))

	outfitsController := OutfitsController{Catalog: deps.Catalog, Cache: invalidator}
	outfitsController.OutfitRoutes(api.Group("/outfits"), guard, cached(services.FamilyOutfits))

	recommendController := RecommendController{Engine: recommend.NewEngine(deps.Catalog)}
	recommendController.RecommendRoutes(api.Group("/recommend"), cached(services.FamilyRecommend))

	searchController := SearchController{Ranker: search.NewRanker(deps.Catalog, cfg.SearchCandidateLimit)}
	searchController.SearchRoutes(api.Group("/search"), cached(services.FamilySearch))

	uploadController := UploadController{Blob: deps.Blob, Bucket: cfg.StorageBucket, MaxBytes: cfg.MaxUploadBytes}
	uploadController.UploadRoutes(api.Group("/upload"), guard)

	healthController := HealthController{
		Config:    cfg,
		Catalog:   deps.Catalog,
		Blob:      deps.Blob,
		Inspector: deps.Inspector,
	}
	healthController.HealthRoutes(api.Group("/health"), cached(services.FamilyHealth))

	return e
}

// bodyLimit leaves headroom over the upload cap for multipart framing
// and batch uploads.
func bodyLimit(maxUploadBytes int64) string {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return formatBytes(maxUploadBytes*maxBatchFiles + 1<<20)
}
