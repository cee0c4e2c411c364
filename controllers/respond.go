package controllers

import (
	"errors"
	"net/http"
	"time"

	"wardrobeapi/config"
	"wardrobeapi/models"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type SuccessResponse struct {
	Success    bool               `json:"success"`
	Data       interface{}        `json:"data"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
	Message    string             `json:"message,omitempty"`
	Timestamp  string             `json:"timestamp"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	Method    string `json:"method"`
	Details   string `json:"details,omitempty"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func respond(c echo.Context, status int, data interface{}, message string) error {
	return c.JSON(status, SuccessResponse{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: timestamp(),
	})
}

func respondPage(c echo.Context, data interface{}, pagination models.Pagination) error {
	return c.JSON(http.StatusOK, SuccessResponse{
		Success:    true,
		Data:       data,
		Pagination: &pagination,
		Timestamp:  timestamp(),
	})
}

var httpStatusCodes = map[int]string{
	http.StatusBadRequest:            "VALIDATION_ERROR",
	http.StatusUnauthorized:          "UNAUTHORIZED",
	http.StatusForbidden:             "FORBIDDEN",
	http.StatusNotFound:              "NOT_FOUND",
	http.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	http.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
	http.StatusUnsupportedMediaType:  "UNSUPPORTED_MEDIA_TYPE",
	http.StatusTooManyRequests:       "RATE_LIMITED",
	http.StatusServiceUnavailable:    "SERVICE_UNAVAILABLE",
}

// NewErrorHandler renders every error as the failure envelope. Server
// errors are reported to sentry and their message is hidden in production.
func NewErrorHandler(cfg *config.Config) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, code, message := classify(err)
		response := ErrorResponse{
			Success:   false,
			Error:     message,
			Code:      code,
			Timestamp: timestamp(),
			Path:      c.Request().URL.Path,
			Method:    c.Request().Method,
		}
		if !cfg.IsProduction() {
			response.Details = err.Error()
		}
		if status >= http.StatusInternalServerError {
			if cfg.IsProduction() {
				response.Error = http.StatusText(status)
			}
			reportError(c, err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, response)
		}
		if err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
	}
}

func classify(err error) (int, string, string) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if text, ok := httpErr.Message.(string); ok && text != "" {
			message = text
		}
		code, ok := httpStatusCodes[httpErr.Code]
		if !ok {
			code = "INTERNAL_ERROR"
		}
		return httpErr.Code, code, message
	}
	status := models.StatusCode(err)
	message := err.Error()
	var notFound *models.NotFoundError
	var validation *models.ValidationError
	switch {
	case errors.As(err, &notFound):
		message = notFound.Error()
	case errors.As(err, &validation):
		message = validation.Error()
	}
	return status, models.ErrorCode(err), message
}

func reportError(c echo.Context, err error) {
	capture := func(scope *sentry.Scope) {
		scope.SetTag("path", c.Path())
		scope.SetTag("method", c.Request().Method)
	}
	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			capture(scope)
			hub.CaptureException(err)
		})
	} else {
		sentry.WithScope(func(scope *sentry.Scope) {
			capture(scope)
			sentry.CaptureException(err)
		})
	}
	log.Error().Err(err).Str("path", c.Request().URL.Path).Str("method", c.Request().Method).Msg("Request failed")
}
