// Package apperror holds the error taxonomy shared by the stores, the
// search service and the HTTP layer.
package apperror

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidInput marks a missing or malformed required parameter.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks an absent entity or an address with no geocode match.
	ErrNotFound = errors.New("not found")
	// ErrUpstream marks a geocoder or network failure. Callers may retry.
	ErrUpstream = errors.New("upstream error")
	// ErrStore marks a datastore failure.
	ErrStore = errors.New("store error")
)

// HTTPStatus maps an error to the status code surfaced to clients.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the client-facing text for err. Store and unknown
// failures never expose their details.
func PublicMessage(err error, notFound string) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return err.Error()
	case errors.Is(err, ErrNotFound):
		return notFound
	case errors.Is(err, ErrUpstream):
		return "Geocoding service unavailable, please try again"
	default:
		return "Internal server error"
	}
}
