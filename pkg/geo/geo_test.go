package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	nyc := Point{Lat: 40.7128, Lng: -74.0060}
	la := Point{Lat: 34.0522, Lng: -118.2437}

	assert.InDelta(t, 0, Distance(nyc, nyc), 1e-6)
	// NYC <-> LA is roughly 3936 km on the sphere.
	assert.InDelta(t, 3_936_000, Distance(nyc, la), 10_000)
	assert.InDelta(t, Distance(nyc, la), Distance(la, nyc), 1e-6)

	// One degree of latitude is ~111.2 km.
	assert.InDelta(t, 111_195, Distance(Point{0, 0}, Point{1, 0}), 100)
}

func TestDistanceAntipodal(t *testing.T) {
	d := Distance(Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 180})
	assert.InDelta(t, math.Pi*EarthRadiusMeters, d, 1)
}

func TestPointValid(t *testing.T) {
	assert.True(t, Point{Lat: 90, Lng: -180}.Valid())
	assert.False(t, Point{Lat: 90.1, Lng: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lng: 181}.Valid())
	assert.False(t, Point{Lat: math.NaN(), Lng: 0}.Valid())
}

func TestBoundingBoxContainsCircle(t *testing.T) {
	cases := []struct {
		name   string
		origin Point
		radius float64
	}{
		{"new york 5km", Point{40.7128, -74.0060}, 5_000},
		{"equator 100km", Point{0, 0}, 100_000},
		{"antimeridian", Point{10, 179.9}, 50_000},
		{"near pole", Point{89.9, 20}, 50_000},
		{"southern", Point{-33.8688, 151.2093}, 25_000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			box := BoundingBox(tc.origin, tc.radius)
			// Walk the circle and check every point on it lies inside the box.
			for bearing := 0.0; bearing < 360; bearing += 5 {
				p := destination(tc.origin, bearing, tc.radius)
				assert.Truef(t, box.Contains(p), "bearing %.0f point %+v outside %+v", bearing, p, box)
			}
		})
	}
}

func TestBoundingBoxWidensAcrossAntimeridian(t *testing.T) {
	box := BoundingBox(Point{Lat: 0, Lng: 179.99}, 10_000)
	assert.Equal(t, -180.0, box.MinLng)
	assert.Equal(t, 180.0, box.MaxLng)
}

func TestBoundingBoxWholeWorld(t *testing.T) {
	box := BoundingBox(Point{Lat: 0, Lng: 0}, 30_000_000)
	assert.Equal(t, Box{MinLat: -90, MaxLat: 90, MinLng: -180, MaxLng: 180}, box)
}

// destination moves radius meters from origin along bearing (degrees).
func destination(origin Point, bearing, radius float64) Point {
	ang := radius / EarthRadiusMeters
	brg := radians(bearing)
	lat1 := radians(origin.Lat)
	lng1 := radians(origin.Lng)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(ang) + math.Cos(lat1)*math.Sin(ang)*math.Cos(brg))
	lng2 := lng1 + math.Atan2(math.Sin(brg)*math.Sin(ang)*math.Cos(lat1), math.Cos(ang)-math.Sin(lat1)*math.Sin(lat2))

	lng := math.Mod(degrees(lng2)+540, 360) - 180
	return Point{Lat: degrees(lat2), Lng: lng}
}
