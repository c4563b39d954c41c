package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/goliatone/go-appinsights/components/dashboard"
)

// StatusFor maps service errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, dashboard.ErrNotFound), errors.Is(err, dashboard.ErrUnknownCollection):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrInvalidQuery), errors.Is(err, dashboard.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrFetchFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// ErrorBody is the JSON document returned for failed requests.
func ErrorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}
