package controllers

import (
	"context"
	"math"
	"net/http"
	"runtime"
	"time"

	"wardrobeapi/config"
	"wardrobeapi/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName = "wardrobe-api"

	statusOK       = "ok"
	statusDegraded = "degraded"

	dependencyConnected    = "connected"
	dependencyDisconnected = "disconnected"
	dependencyDisabled     = "disabled"
)

var startedAt = time.Now()

type DatabaseHealth struct {
	Status       string `json:"status"`
	Type         string `json:"type"`
	ResponseTime int64  `json:"responseTime"`
}

type MemoryHealth struct {
	Used       float64 `json:"used"`
	Total      float64 `json:"total"`
	Percentage int     `json:"percentage"`
}

type HealthOut struct {
	Status      string         `json:"status"`
	Timestamp   string         `json:"timestamp"`
	Service     string         `json:"service"`
	Version     string         `json:"version"`
	Database    DatabaseHealth `json:"database"`
	Memory      MemoryHealth   `json:"memory"`
	Uptime      float64        `json:"uptime"`
	Environment string         `json:"environment"`
}

type TableHealth struct {
	Count int64 `json:"count"`
}

type DetailedDatabaseHealth struct {
	Status       string                 `json:"status"`
	ResponseTime int64                  `json:"responseTime"`
	Tables       map[string]TableHealth `json:"tables"`
}

type DetailedMemoryHealth struct {
	HeapUsed  float64 `json:"heapUsed"`
	HeapTotal float64 `json:"heapTotal"`
	Sys       float64 `json:"sys"`
}

type SystemHealth struct {
	Uptime     float64 `json:"uptime"`
	Platform   string  `json:"platform"`
	GoVersion  string  `json:"goVersion"`
	Goroutines int     `json:"goroutines"`
}

type PerformanceHealth struct {
	ResponseTime int64                  `json:"responseTime"`
	Database     DetailedDatabaseHealth `json:"database"`
	Storage      string                 `json:"storage"`
	Queue        string                 `json:"queue"`
	Memory       DetailedMemoryHealth   `json:"memory"`
	System       SystemHealth           `json:"system"`
}

type DetailedHealthOut struct {
	Status      string            `json:"status"`
	Timestamp   string            `json:"timestamp"`
	Performance PerformanceHealth `json:"performance"`
}

type HealthController struct {
	Config    *config.Config
	Catalog   services.CatalogProvider
	Blob      services.BlobProvider
	Inspector QueueInspector
}

func (controller *HealthController) HealthRoutes(g *echo.Group, cached echo.MiddlewareFunc) {
	g.GET("", controller.Health, cached)
	g.GET("/detailed", controller.Detailed, cached)
}

func megabytes(b uint64) float64 {
	return math.Round(float64(b)/1024/1024*100) / 100
}

// pingStore reports the store status and the ping latency in milliseconds.
func (controller *HealthController) pingStore(ctx context.Context) (string, int64) {
	started := time.Now()
	err := controller.Catalog.Ping(ctx)
	elapsed := time.Since(started).Milliseconds()
	if err != nil {
		log.Warn().Err(err).Msg("Health check: catalog store unreachable")
		return dependencyDisconnected, elapsed
	}
	return dependencyConnected, elapsed
}

func overallStatus(database string) string {
	if database == dependencyConnected {
		return statusOK
	}
	return statusDegraded
}

func (controller *HealthController) Health(c echo.Context) error {
	dbStatus, dbTime := controller.pingStore(c.Request().Context())

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	percentage := 0
	if mem.HeapSys > 0 {
		percentage = int(math.Round(float64(mem.HeapAlloc) / float64(mem.HeapSys) * 100))
	}

	return respond(c, http.StatusOK, HealthOut{
		Status:    overallStatus(dbStatus),
		Timestamp: timestamp(),
		Service:   serviceName,
		Version:   apiVersion,
		Database: DatabaseHealth{
			Status:       dbStatus,
			Type:         "postgres",
			ResponseTime: dbTime,
		},
		Memory: MemoryHealth{
			Used:       megabytes(mem.HeapAlloc),
			Total:      megabytes(mem.HeapSys),
			Percentage: percentage,
		},
		Uptime:      time.Since(startedAt).Seconds(),
		Environment: string(controller.Config.Environment),
	}, "")
}

func (controller *HealthController) storageStatus(ctx context.Context) string {
	if controller.Blob == nil {
		return dependencyDisabled
	}
	if err := controller.Blob.Ping(ctx, controller.Config.StorageBucket); err != nil {
		log.Warn().Err(err).Msg("Health check: blob store unreachable")
		return dependencyDisconnected
	}
	return dependencyConnected
}

func (controller *HealthController) queueStatus() string {
	if controller.Inspector == nil {
		return dependencyDisabled
	}
	if _, err := controller.Inspector.Queues(); err != nil {
		log.Warn().Err(err).Msg("Health check: task broker unreachable")
		return dependencyDisconnected
	}
	return dependencyConnected
}

func (controller *HealthController) Detailed(c echo.Context) error {
	started := time.Now()
	ctx := c.Request().Context()

	dbStatus, dbTime := controller.pingStore(ctx)
	tables := map[string]TableHealth{}
	var storage, queue string

	var g errgroup.Group
	if dbStatus == dependencyConnected {
		g.Go(func() error {
			counts, err := controller.Catalog.Counts(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("Health check: table counts failed")
				return nil
			}
			tables["clothing"] = TableHealth{Count: counts.Clothing}
			tables["outfits"] = TableHealth{Count: counts.Outfits}
			return nil
		})
	}
	g.Go(func() error {
		storage = controller.storageStatus(ctx)
		return nil
	})
	g.Go(func() error {
		queue = controller.queueStatus()
		return nil
	})
	_ = g.Wait()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return respond(c, http.StatusOK, DetailedHealthOut{
		Status:    overallStatus(dbStatus),
		Timestamp: timestamp(),
		Performance: PerformanceHealth{
			ResponseTime: time.Since(started).Milliseconds(),
			Database: DetailedDatabaseHealth{
				Status:       dbStatus,
				ResponseTime: dbTime,
				Tables:       tables,
			},
			Storage: storage,
			Queue:   queue,
			Memory: DetailedMemoryHealth{
				HeapUsed:  megabytes(mem.HeapAlloc),
				HeapTotal: megabytes(mem.HeapSys),
				Sys:       megabytes(mem.Sys),
			},
			System: SystemHealth{
				Uptime:     time.Since(startedAt).Seconds(),
				Platform:   runtime.GOOS + "/" + runtime.GOARCH,
				GoVersion:  runtime.Version(),
				Goroutines: runtime.NumGoroutine(),
			},
		},
	}, "")
}

type ServiceInfoOut struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Release     string            `json:"release"`
	Environment string            `json:"environment"`
	Endpoints   map[string]string `json:"endpoints"`
	Timestamp   string            `json:"timestamp"`
}

func ServiceInfo(cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, ServiceInfoOut{
			Name:        serviceName,
			Version:     apiVersion,
			Release:     cfg.Release,
			Environment: string(cfg.Environment),
			Endpoints: map[string]string{
				"clothing":  "/api/clothing",
				"outfits":   "/api/outfits",
				"recommend": "/api/recommend",
				"upload":    "/api/upload",
				"search":    "/api/search",
				"health":    "/api/health",
				"metrics":   "/metrics",
			},
			Timestamp: timestamp(),
		})
	}
}
