package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"resource-locator/internal/apperror"
)

const googleBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Google queries the Google Maps Geocoding API.
type Google struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewGoogle(apiKey, baseURL string, client *http.Client) *Google {
	if baseURL == "" {
		baseURL = googleBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Google{apiKey: apiKey, baseURL: baseURL, client: client}
}

func (g *Google) Geocode(ctx context.Context, address string) (*Result, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("address", address)
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrUpstream, err)
	}

	body, err := fetch(g.client, req)
	if err != nil {
		return nil, err
	}

	var data googleResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", apperror.ErrUpstream, err)
	}

	switch data.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, fmt.Errorf("no results for %q: %w", address, apperror.ErrNotFound)
	default:
		return nil, fmt.Errorf("%w: status %s %s", apperror.ErrUpstream, data.Status, data.ErrorMessage)
	}
	if len(data.Results) == 0 {
		return nil, fmt.Errorf("no results for %q: %w", address, apperror.ErrNotFound)
	}

	first := data.Results[0]
	return &Result{
		Latitude:         first.Geometry.Location.Lat,
		Longitude:        first.Geometry.Location.Lng,
		FormattedAddress: first.FormattedAddress,
		Provider:         "google",
		Raw:              json.RawMessage(body),
	}, nil
}
