// Package geocode resolves free-text addresses to coordinates through an
// external provider.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"resource-locator/internal/apperror"
	"resource-locator/internal/config"
)

// Result is the first candidate returned by a provider.
type Result struct {
	Latitude         float64         `json:"latitude"`
	Longitude        float64         `json:"longitude"`
	FormattedAddress string          `json:"formattedAddress"`
	Provider         string          `json:"provider"`
	Raw              json.RawMessage `json:"-"`
}

// Geocoder maps an address to coordinates.
//
// Errors wrap apperror.ErrInvalidInput for an empty address,
// apperror.ErrNotFound when the provider has no candidate and
// apperror.ErrUpstream for everything else.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// New returns the geocoder selected by cfg.Provider.
func New(cfg config.GeocoderConfig) (Geocoder, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	switch cfg.Provider {
	case "", "google":
		return NewGoogle(cfg.APIKey, cfg.BaseURL, client), nil
	case "nominatim":
		return NewNominatim(cfg.BaseURL, cfg.UserAgent, cfg.RateLimit, client), nil
	}
	return nil, fmt.Errorf("geocode: unknown provider %q", cfg.Provider)
}

func normalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("%w: address is required", apperror.ErrInvalidInput)
	}
	return address, nil
}

// fetch performs req and returns the body of a 2xx response.
func fetch(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		// The request URL may carry the provider API key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = fmt.Errorf("%s %s: %w", uerr.Op, req.URL.Host, uerr.Err)
		}
		return nil, fmt.Errorf("%w: %w", apperror.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", apperror.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %s", apperror.ErrUpstream, resp.Status)
	}
	return body, nil
}
