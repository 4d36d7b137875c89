// Package search answers proximity queries: geocode when asked to, then rank
// stored resources by great-circle distance from the origin.
package search

import (
	"context"
	"fmt"
	"math"
	"strings"

	"resource-locator/internal/apperror"
	"resource-locator/internal/geocode"
	"resource-locator/internal/models"
	"resource-locator/pkg/geo"
)

// ResourceFinder is the slice of the resource store the service needs.
type ResourceFinder interface {
	Nearby(ctx context.Context, origin geo.Point, limit int) ([]models.NearbyResource, error)
	SearchWithin(ctx context.Context, origin geo.Point, radius float64, tags []string) ([]models.NearbyResource, error)
}

// Query is a radius search. Address wins over Latitude/Longitude when set.
type Query struct {
	Address   string
	Latitude  *float64
	Longitude *float64
	// Radius in meters.
	Radius float64
	Tags   []string
}

type Service struct {
	resources   ResourceFinder
	geocoder    geocode.Geocoder
	nearbyLimit int
}

func NewService(resources ResourceFinder, geocoder geocode.Geocoder, nearbyLimit int) *Service {
	return &Service{resources: resources, geocoder: geocoder, nearbyLimit: nearbyLimit}
}

// Search returns every located resource within q.Radius of the origin that
// carries at least one of q.Tags (any tag when q.Tags is empty), nearest
// first.
func (s *Service) Search(ctx context.Context, q Query) ([]models.NearbyResource, error) {
	if math.IsNaN(q.Radius) || math.IsInf(q.Radius, 0) || q.Radius <= 0 {
		return nil, fmt.Errorf("%w: radius must be a positive number of meters", apperror.ErrInvalidInput)
	}

	origin, err := s.origin(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.resources.SearchWithin(ctx, origin, q.Radius, NormalizeTags(q.Tags))
}

// Nearby returns the nearest located resources to origin, at most the
// configured limit, with no radius bound.
func (s *Service) Nearby(ctx context.Context, origin geo.Point) ([]models.NearbyResource, error) {
	if !origin.Valid() {
		return nil, fmt.Errorf("%w: latitude must be in [-90, 90] and longitude in [-180, 180]", apperror.ErrInvalidInput)
	}
	return s.resources.Nearby(ctx, origin, s.nearbyLimit)
}

// Geocode resolves an address with the configured provider.
func (s *Service) Geocode(ctx context.Context, address string) (*geocode.Result, error) {
	return s.geocoder.Geocode(ctx, address)
}

func (s *Service) origin(ctx context.Context, q Query) (geo.Point, error) {
	if strings.TrimSpace(q.Address) != "" {
		res, err := s.geocoder.Geocode(ctx, q.Address)
		if err != nil {
			return geo.Point{}, err
		}
		return geo.Point{Lat: res.Latitude, Lng: res.Longitude}, nil
	}

	if q.Latitude == nil || q.Longitude == nil {
		return geo.Point{}, fmt.Errorf("%w: an address or both lat and lon are required", apperror.ErrInvalidInput)
	}
	p := geo.Point{Lat: *q.Latitude, Lng: *q.Longitude}
	if !p.Valid() {
		return geo.Point{}, fmt.Errorf("%w: latitude must be in [-90, 90] and longitude in [-180, 180]", apperror.ErrInvalidInput)
	}
	return p, nil
}

// NormalizeTags trims tags, drops empties and duplicates, keeping first-seen
// order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTags parses the comma-separated tag list used by the HTTP API.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(raw, ","))
}
