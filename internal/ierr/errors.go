package ierr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalServer = errors.New("internal server error")

	ErrInvalidAPIKey  = errors.New("invalid or revoked api key")
	ErrPlanRequired   = errors.New("api access requires a pro plan")
	ErrInvalidSession = errors.New("invalid or expired session")
	ErrQuotaExceeded  = errors.New("daily limit reached")
	ErrUpstream       = errors.New("caption generation failed")
	ErrImageNotFound  = errors.New("image not found")
)

// QuotaError is returned when a session user has used up today's quota.
type QuotaError struct {
	Limit int
	Count int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s: %d of %d images used today", ErrQuotaExceeded, e.Count, e.Limit)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// UpstreamError wraps a failure reported by the captioning backend.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream status %d: %s", ErrUpstream, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", ErrUpstream, e.Message)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// HTTPStatus maps an error produced anywhere in the request pipeline to the
// status code the client sees. nil maps to 200.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidAPIKey), errors.Is(err, ErrInvalidSession):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPlanRequired):
		return http.StatusForbidden
	case errors.Is(err, ErrImageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrQuotaExceeded):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
