// Package geo provides great-circle helpers for proximity queries.
package geo

import "math"

// EarthRadiusMeters is the IUGG mean Earth radius.
const EarthRadiusMeters = 6371008.8

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether p lies within the WGS84 degree ranges.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Distance returns the haversine great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Box is a latitude/longitude rectangle used to prefilter candidates in SQL.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Contains reports whether p falls inside the box (edges included).
func (b Box) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// boxPadding widens the box slightly so rounding never drops a point that
// sits exactly on the radius.
const boxPadding = 1.0001

// BoundingBox returns a box containing every point within radius meters of
// origin. When the circle reaches a pole or crosses the antimeridian the box
// spans the full longitude range.
func BoundingBox(origin Point, radius float64) Box {
	world := Box{MinLat: -90, MaxLat: 90, MinLng: -180, MaxLng: 180}
	if radius <= 0 {
		return Box{MinLat: origin.Lat, MaxLat: origin.Lat, MinLng: origin.Lng, MaxLng: origin.Lng}
	}

	angular := radius * boxPadding / EarthRadiusMeters
	if angular >= math.Pi {
		return world
	}

	dLat := degrees(angular)
	box := Box{
		MinLat: origin.Lat - dLat,
		MaxLat: origin.Lat + dLat,
		MinLng: -180,
		MaxLng: 180,
	}
	if box.MinLat <= -90 || box.MaxLat >= 90 {
		box.MinLat = math.Max(box.MinLat, -90)
		box.MaxLat = math.Min(box.MaxLat, 90)
		return box
	}

	ratio := math.Sin(angular) / math.Cos(radians(origin.Lat))
	if ratio >= 1 {
		return box
	}
	dLng := degrees(math.Asin(ratio))
	if origin.Lng-dLng < -180 || origin.Lng+dLng > 180 {
		return box
	}
	box.MinLng = origin.Lng - dLng
	box.MaxLng = origin.Lng + dLng
	return box
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
