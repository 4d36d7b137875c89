package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"resource-locator/internal/apperror"
	"resource-locator/pkg/utils"

	"golang.org/x/time/rate"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org/search"

type nominatimResponse []struct {
	PlaceID     int64  `json:"place_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Nominatim queries an OpenStreetMap Nominatim instance. The public instance
// requires a User-Agent and at most one request per second.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewNominatim builds a client. rps <= 0 disables the outbound limiter.
func NewNominatim(baseURL, userAgent string, rps float64, client *http.Client) *Nominatim {
	if baseURL == "" {
		baseURL = nominatimBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	n := &Nominatim{baseURL: baseURL, userAgent: userAgent, client: client}
	if rps > 0 {
		n.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return n
}

func (n *Nominatim) Geocode(ctx context.Context, address string) (*Result, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", apperror.ErrUpstream, err)
		}
	}

	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("accept-language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrUpstream, err)
	}
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	body, err := fetch(n.client, req)
	if err != nil {
		return nil, err
	}

	var results nominatimResponse
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", apperror.ErrUpstream, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results for %q: %w", address, apperror.ErrNotFound)
	}

	first := results[0]
	lat, err := utils.ParseFloat(first.Lat)
	if err != nil {
		return nil, fmt.Errorf("%w: latitude %q: %w", apperror.ErrUpstream, first.Lat, err)
	}
	lng, err := utils.ParseFloat(first.Lon)
	if err != nil {
		return nil, fmt.Errorf("%w: longitude %q: %w", apperror.ErrUpstream, first.Lon, err)
	}

	return &Result{
		Latitude:         lat,
		Longitude:        lng,
		FormattedAddress: first.DisplayName,
		Provider:         "nominatim",
		Raw:              json.RawMessage(body),
	}, nil
}
