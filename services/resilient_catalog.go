package services

import (
	"context"
	"errors"
	"time"

	"wardrobeapi/models"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

type BreakerSettings struct {
	Name         string
	Timeout      time.Duration // per call
	MaxRequests  uint32        // allowed through while half-open
	Interval     time.Duration // closed-state counter reset
	OpenTimeout  time.Duration // open -> half-open
	MinRequests  uint32
	FailureRatio float64
}

// ResilientCatalog decorates a CatalogProvider with a per-call timeout
// and a circuit breaker. Not-found and validation outcomes count as
// successes for the breaker.
type ResilientCatalog struct {
	next    CatalogProvider
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[any]
}

func NewResilientCatalog(next CatalogProvider, settings BreakerSettings) *ResilientCatalog {
	if settings.Name == "" {
		settings.Name = "catalog"
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 5 * time.Second
	}
	BreakerState.WithLabelValues(settings.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Catalog circuit breaker state change")
			BreakerState.WithLabelValues(name).Set(float64(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				models.IsNotFound(err) ||
				models.IsValidation(err) ||
				errors.Is(err, context.Canceled)
		},
	})
	return &ResilientCatalog{next: next, timeout: settings.Timeout, cb: cb}
}

func (r *ResilientCatalog) State() string {
	return r.cb.State().String()
}

func guard[T any](ctx context.Context, r *ResilientCatalog, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, &models.StoreError{Op: op, Code: models.CodeCircuitOpen, Err: err}
		}
		if errors.Is(err, context.DeadlineExceeded) && !models.IsStoreError(err) {
			return zero, &models.StoreError{Op: op, Code: models.CodeTimeout, Err: err}
		}
		return zero, err
	}
	typed, _ := result.(T)
	return typed, nil
}

type page[T any] struct {
	rows  []T
	total int64
}

func (r *ResilientCatalog) ListClothing(ctx context.Context, q ClothingQuery) ([]models.Clothing, int64, error) {
	p, err := guard(ctx, r, "list clothing", func(ctx context.Context) (page[models.Clothing], error) {
		rows, total, err := r.next.ListClothing(ctx, q)
		return page[models.Clothing]{rows: rows, total: total}, err
	})
	return p.rows, p.total, err
}

func (r *ResilientCatalog) GetClothing(ctx context.Context, id string) (*models.Clothing, error) {
	return guard(ctx, r, "get clothing", func(ctx context.Context) (*models.Clothing, error) {
		return r.next.GetClothing(ctx, id)
	})
}

func (r *ResilientCatalog) ClothingByIDs(ctx context.Context, ids []string) ([]models.Clothing, error) {
	return guard(ctx, r, "clothing by ids", func(ctx context.Context) ([]models.Clothing, error) {
		return r.next.ClothingByIDs(ctx, ids)
	})
}

func (r *ResilientCatalog) CreateClothing(ctx context.Context, item *models.Clothing) error {
	_, err := guard(ctx, r, "insert clothing", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.CreateClothing(ctx, item)
	})
	return err
}

func (r *ResilientCatalog) UpdateClothing(ctx context.Context, id string, fields map[string]any) (*models.Clothing, error) {
	return guard(ctx, r, "update clothing", func(ctx context.Context) (*models.Clothing, error) {
		return r.next.UpdateClothing(ctx, id, fields)
	})
}

func (r *ResilientCatalog) DeleteClothing(ctx context.Context, id string) error {
	_, err := guard(ctx, r, "delete clothing", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.DeleteClothing(ctx, id)
	})
	return err
}

func (r *ResilientCatalog) BatchClothing(ctx context.Context, batch ClothingBatch) (int64, error) {
	return guard(ctx, r, "batch clothing", func(ctx context.Context) (int64, error) {
		return r.next.BatchClothing(ctx, batch)
	})
}

func (r *ResilientCatalog) ListOutfits(ctx context.Context, q OutfitQuery) ([]models.Outfit, int64, error) {
	p, err := guard(ctx, r, "list outfits", func(ctx context.Context) (page[models.Outfit], error) {
		rows, total, err := r.next.ListOutfits(ctx, q)
		return page[models.Outfit]{rows: rows, total: total}, err
	})
	return p.rows, p.total, err
}

func (r *ResilientCatalog) GetOutfit(ctx context.Context, id string) (*models.Outfit, error) {
	return guard(ctx, r, "get outfit", func(ctx context.Context) (*models.Outfit, error) {
		return r.next.GetOutfit(ctx, id)
	})
}

func (r *ResilientCatalog) CreateOutfit(ctx context.Context, outfit *models.Outfit, itemIDs []string) error {
	_, err := guard(ctx, r, "insert outfit", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.CreateOutfit(ctx, outfit, itemIDs)
	})
	return err
}

func (r *ResilientCatalog) UpdateOutfit(ctx context.Context, id string, fields map[string]any, itemIDs []string) (*models.Outfit, error) {
	return guard(ctx, r, "update outfit", func(ctx context.Context) (*models.Outfit, error) {
		return r.next.UpdateOutfit(ctx, id, fields, itemIDs)
	})
}

func (r *ResilientCatalog) DeleteOutfit(ctx context.Context, id string) error {
	_, err := guard(ctx, r, "delete outfit", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.DeleteOutfit(ctx, id)
	})
	return err
}

func (r *ResilientCatalog) OutfitSeasonStats(ctx context.Context) ([]models.SeasonCount, error) {
	return guard(ctx, r, "outfit season stats", r.next.OutfitSeasonStats)
}

func (r *ResilientCatalog) OutfitTagStats(ctx context.Context, limit int) ([]models.TagCount, error) {
	return guard(ctx, r, "outfit tag stats", func(ctx context.Context) ([]models.TagCount, error) {
		return r.next.OutfitTagStats(ctx, limit)
	})
}

func (r *ResilientCatalog) ClothingTagStats(ctx context.Context, limit int) ([]models.TagCount, error) {
	return guard(ctx, r, "clothing tag stats", func(ctx context.Context) ([]models.TagCount, error) {
		return r.next.ClothingTagStats(ctx, limit)
	})
}

func (r *ResilientCatalog) Counts(ctx context.Context) (models.CatalogCounts, error) {
	return guard(ctx, r, "counts", r.next.Counts)
}

func (r *ResilientCatalog) Ping(ctx context.Context) error {
	_, err := guard(ctx, r, "ping", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.Ping(ctx)
	})
	return err
}

var _ CatalogProvider = (*ResilientCatalog)(nil)
