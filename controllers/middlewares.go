package controllers

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"wardrobeapi/services"

	"github.com/cespare/xxhash/v2"
	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

const apiVersion = "1.0.0"

func RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Status >= http.StatusInternalServerError {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("cache", c.Response().Header().Get("X-Cache")).
				Msg("request")
			return nil
		},
	})
}

// WriteGuard requires a bearer JWT signed with secret. An empty secret
// disables the guard.
func WriteGuard(secret string) echo.MiddlewareFunc {
	if secret == "" {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(jwt.RegisteredClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid token")
		},
	})
}

type bodyRecorder struct {
	http.ResponseWriter
	body *bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// cacheKey is method plus request URI. Bodies of POST requests are hashed
// into the key so different recommendation requests do not collide.
func cacheKey(c echo.Context) (string, error) {
	req := c.Request()
	key := req.Method + " " + req.URL.RequestURI()
	if req.Method != http.MethodPost || req.Body == nil {
		return key, nil
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return "", err
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	return key + "#" + strconv.FormatUint(xxhash.Sum64(body), 16), nil
}

// CacheMiddleware serves successful responses of a family from cache and
// marks every response with X-Cache HIT or MISS. A nil cache disables it.
func CacheMiddleware(cache services.ResponseCacheProvider, family string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if cache == nil {
			return next
		}
		return func(c echo.Context) error {
			key, err := cacheKey(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "unreadable request body")
			}
			// a write that lands while next runs must not be served later
			key = cache.Key(family, key)
			ctx := c.Request().Context()
			if cached, ok := cache.Get(ctx, family, key); ok {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.Blob(cached.Status, cached.ContentType, cached.Body)
			}

			c.Response().Header().Set("X-Cache", "MISS")
			recorder := &bodyRecorder{ResponseWriter: c.Response().Writer, body: &bytes.Buffer{}}
			c.Response().Writer = recorder
			if err := next(c); err != nil {
				return err
			}
			if c.Response().Status == http.StatusOK {
				cache.Set(ctx, family, key, &services.CachedResponse{
					Status:      http.StatusOK,
					ContentType: c.Response().Header().Get(echo.HeaderContentType),
					Body:        recorder.body.Bytes(),
				})
			}
			return nil
		}
	}
}

// cacheInvalidator drops cached families after writes.
type cacheInvalidator struct {
	cache services.ResponseCacheProvider
}

func (ci cacheInvalidator) invalidate(families ...string) {
	if ci.cache != nil {
		ci.cache.Invalidate(families...)
	}
}

func APIHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("X-API-Version", apiVersion)
		return next(c)
	}
}
