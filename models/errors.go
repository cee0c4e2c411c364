package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Store error codes that are not Postgres SQLSTATEs.
const (
	CodeCircuitOpen = "circuit_open"
	CodeTimeout     = "timeout"
	CodeUnknown     = "unknown"
)

var storeCodeStatus = map[string]int{
	"23505":         http.StatusBadRequest, // unique_violation
	"23503":         http.StatusBadRequest, // foreign_key_violation
	"23514":         http.StatusBadRequest, // check_violation
	"22P02":         http.StatusBadRequest, // invalid_text_representation
	"42501":         http.StatusForbidden,  // insufficient_privilege
	"PGRST116":      http.StatusNotFound,
	"PGRST301":      http.StatusBadRequest,
	"PGRST304":      http.StatusBadRequest,
	CodeCircuitOpen: http.StatusServiceUnavailable,
	CodeTimeout:     http.StatusGatewayTimeout,
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// StoreError is a failure of the catalog or blob store. Code is the
// Postgres SQLSTATE when one is available.
type StoreError struct {
	Op   string
	Code string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Code != "" && e.Code != CodeUnknown {
		return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) StatusCode() int {
	if status, ok := storeCodeStatus[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// RateOrQuotaError is reserved for upstream quota exhaustion.
type RateOrQuotaError struct {
	Message string
}

func (e *RateOrQuotaError) Error() string {
	return e.Message
}

func IsStoreError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}

func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}

// StatusCode maps an error of the taxonomy onto an HTTP status.
func StatusCode(err error) int {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		storeErr   *StoreError
		quota      *RateOrQuotaError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &storeErr):
		return storeErr.StatusCode()
	case errors.As(err, &quota):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// ErrorCode is the machine readable code carried in the failure envelope.
func ErrorCode(err error) string {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		storeErr   *StoreError
		quota      *RateOrQuotaError
	)
	switch {
	case errors.As(err, &validation):
		return "VALIDATION_ERROR"
	case errors.As(err, &notFound):
		return "NOT_FOUND"
	case errors.As(err, &storeErr):
		if storeErr.Code != "" {
			return storeErr.Code
		}
		return "STORE_ERROR"
	case errors.As(err, &quota):
		return "RATE_LIMITED"
	}
	return "INTERNAL_ERROR"
}
