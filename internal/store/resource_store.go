package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"resource-locator/internal/apperror"
	"resource-locator/internal/models"
	"resource-locator/pkg/geo"

	"gorm.io/gorm"
)

// distanceTolerance is the gap in meters under which two candidates count as
// equidistant and are ordered by id instead.
const distanceTolerance = 1e-9

// nearbyStartRadius is the first search radius, in meters, of the k-nearest
// mode.
const nearbyStartRadius = 2_000.0

// ResourceStore persists resources and answers the two proximity queries.
type ResourceStore struct {
	db *gorm.DB
}

func NewResourceStore(db *gorm.DB) *ResourceStore {
	return &ResourceStore{db: db}
}

// Create validates and inserts r, returning the assigned id.
func (s *ResourceStore) Create(ctx context.Context, r *models.Resource) (string, error) {
	if err := validateResource(r); err != nil {
		return "", err
	}
	r.ID = ""
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return "", storeErr("create resource", err)
	}
	return r.ID, nil
}

// GetByID returns the resource or apperror.ErrNotFound.
func (s *ResourceStore) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	var r models.Resource
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("resource %s: %w", id, apperror.ErrNotFound)
		}
		return nil, storeErr("get resource", err)
	}
	return &r, nil
}

// Update overwrites every mutable field of the resource with id. Fields the
// caller left empty are cleared. Nothing is written when id does not exist.
func (s *ResourceStore) Update(ctx context.Context, id string, r *models.Resource) (*models.Resource, error) {
	if err := validateResource(r); err != nil {
		return nil, err
	}
	r.Normalize()

	var updated models.Resource
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&updated).Error; err != nil {
			return err
		}
		err := tx.Model(&updated).
			Select("Name", "Description", "Latitude", "Longitude", "Diagnoses", "Address", "ContactInfo").
			Updates(models.Resource{
				Name:        r.Name,
				Description: r.Description,
				Latitude:    r.Latitude,
				Longitude:   r.Longitude,
				Diagnoses:   r.Diagnoses,
				Address:     r.Address,
				ContactInfo: r.ContactInfo,
			}).Error
		if err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&updated).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("resource %s: %w", id, apperror.ErrNotFound)
		}
		return nil, storeErr("update resource", err)
	}
	return &updated, nil
}

// Nearby is the bounded k-nearest mode: the limit closest located resources,
// with no radius and no tag filter. Used by GET /resources/nearby.
func (s *ResourceStore) Nearby(ctx context.Context, origin geo.Point, limit int) ([]models.NearbyResource, error) {
	if !origin.Valid() {
		return nil, fmt.Errorf("%w: coordinates out of range", apperror.ErrInvalidInput)
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", apperror.ErrInvalidInput)
	}

	ranked, err := s.rankNearest(ctx, origin, limit)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return []models.NearbyResource{}, nil
	}

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.id
	}
	var rows []models.Resource
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, storeErr("load nearby resources", err)
	}
	byID := make(map[string]models.Resource, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	out := make([]models.NearbyResource, 0, len(ranked))
	for _, r := range ranked {
		res, ok := byID[r.id]
		if !ok {
			continue
		}
		out = append(out, models.NearbyResource{Resource: res, Distance: r.distance})
	}
	return out, nil
}

// rankNearest finds the limit closest located resources by coordinates alone.
// The search box starts at nearbyStartRadius and doubles until the circle it
// encloses holds limit candidates or covers the whole globe. Any resource
// outside that circle is farther than every one inside it.
func (s *ResourceStore) rankNearest(ctx context.Context, origin geo.Point, limit int) ([]rankedID, error) {
	maxRadius := math.Pi * geo.EarthRadiusMeters
	var ranked []rankedID
	for radius := nearbyStartRadius; ; radius *= 2 {
		radius = math.Min(radius, maxRadius)
		box := geo.BoundingBox(origin, radius)

		var points []locatedRow
		err := s.db.WithContext(ctx).Model(&models.Resource{}).
			Select("id", "latitude", "longitude").
			Where("latitude IS NOT NULL AND longitude IS NOT NULL").
			Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
			Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng).
			Find(&points).Error
		if err != nil {
			return nil, storeErr("rank nearby resources", err)
		}

		whole := radius >= maxRadius
		ranked = ranked[:0]
		for _, p := range points {
			if d := geo.Distance(origin, p.point()); whole || d <= radius {
				ranked = append(ranked, rankedID{id: p.ID, distance: d})
			}
		}
		if whole || len(ranked) >= limit {
			break
		}
	}

	sortRanked(ranked)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// SearchWithin is the unbounded radius+tag mode: every located resource within
// radius meters of origin whose diagnoses share at least one of tags (any
// resource when tags is empty), nearest first. There is no cap.
func (s *ResourceStore) SearchWithin(ctx context.Context, origin geo.Point, radius float64, tags []string) ([]models.NearbyResource, error) {
	if !origin.Valid() {
		return nil, fmt.Errorf("%w: coordinates out of range", apperror.ErrInvalidInput)
	}
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: radius must be a positive number of meters", apperror.ErrInvalidInput)
	}

	box := geo.BoundingBox(origin, radius)
	var rows []models.Resource
	err := s.db.WithContext(ctx).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng).
		Find(&rows).Error
	if err != nil {
		return nil, storeErr("search resources", err)
	}

	wanted := tagSet(tags)
	out := make([]models.NearbyResource, 0, len(rows))
	for _, r := range rows {
		if !r.HasLocation() {
			continue
		}
		d := geo.Distance(origin, geo.Point{Lat: *r.Latitude, Lng: *r.Longitude})
		if d > radius {
			continue
		}
		if len(wanted) > 0 && !matchesAny(r.Diagnoses, wanted) {
			continue
		}
		out = append(out, models.NearbyResource{Resource: r, Distance: d})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return closer(out[i].Distance, out[i].ID, out[j].Distance, out[j].ID)
	})
	return out, nil
}

// ListMissingCoordinates returns up to limit resources lacking a latitude or
// longitude, oldest first.
func (s *ResourceStore) ListMissingCoordinates(ctx context.Context, limit int) ([]models.Resource, error) {
	var rows []models.Resource
	q := s.db.WithContext(ctx).
		Where("latitude IS NULL OR longitude IS NULL").
		Order("created_at ASC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, storeErr("list unlocated resources", err)
	}
	return rows, nil
}

// SetCoordinates stores the geocoded position of one resource.
func (s *ResourceStore) SetCoordinates(ctx context.Context, id string, p geo.Point) error {
	if !p.Valid() {
		return fmt.Errorf("%w: coordinates out of range", apperror.ErrInvalidInput)
	}
	res := s.db.WithContext(ctx).Model(&models.Resource{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"latitude": p.Lat, "longitude": p.Lng})
	if res.Error != nil {
		return storeErr("set coordinates", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("resource %s: %w", id, apperror.ErrNotFound)
	}
	return nil
}

// Count returns the number of resources, and how many lack coordinates.
func (s *ResourceStore) Count(ctx context.Context) (total, unlocated int64, err error) {
	db := s.db.WithContext(ctx)
	if err = db.Model(&models.Resource{}).Count(&total).Error; err != nil {
		return 0, 0, storeErr("count resources", err)
	}
	if err = db.Model(&models.Resource{}).Where("latitude IS NULL OR longitude IS NULL").Count(&unlocated).Error; err != nil {
		return 0, 0, storeErr("count unlocated resources", err)
	}
	return total, unlocated, nil
}

type locatedRow struct {
	ID        string
	Latitude  float64
	Longitude float64
}

func (r locatedRow) point() geo.Point {
	return geo.Point{Lat: r.Latitude, Lng: r.Longitude}
}

type rankedID struct {
	id       string
	distance float64
}

func sortRanked(r []rankedID) {
	sort.SliceStable(r, func(i, j int) bool {
		return closer(r[i].distance, r[i].id, r[j].distance, r[j].id)
	})
}

func closer(d1 float64, id1 string, d2 float64, id2 string) bool {
	if math.Abs(d1-d2) > distanceTolerance {
		return d1 < d2
	}
	return id1 < id2
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

func matchesAny(diagnoses []string, wanted map[string]struct{}) bool {
	for _, d := range diagnoses {
		if _, ok := wanted[d]; ok {
			return true
		}
	}
	return false
}

func validateResource(r *models.Resource) error {
	if r == nil {
		return fmt.Errorf("%w: resource is required", apperror.ErrInvalidInput)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", apperror.ErrInvalidInput)
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("%w: description is required", apperror.ErrInvalidInput)
	}
	if r.Latitude != nil && (math.IsNaN(*r.Latitude) || *r.Latitude < -90 || *r.Latitude > 90) {
		return fmt.Errorf("%w: latitude must be between -90 and 90", apperror.ErrInvalidInput)
	}
	if r.Longitude != nil && (math.IsNaN(*r.Longitude) || *r.Longitude < -180 || *r.Longitude > 180) {
		return fmt.Errorf("%w: longitude must be between -180 and 180", apperror.ErrInvalidInput)
	}
	return nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", apperror.ErrStore, op, err)
}
