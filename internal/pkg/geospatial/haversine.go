package geospatial

import (
	"math"

	"github.com/samirrijal/geopick/internal/core/domain"
)

const earthRadiusMeters = 6371000.0

// Distance calculates the great-circle distance in meters between two points
// using the haversine formula. Symmetric, zero for coincident points.
// NaN or infinite inputs propagate into the result.
func Distance(a, b domain.Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// BoundsOf returns the bounding box containing all given points.
// ok is false for an empty input.
func BoundsOf(points []domain.Coordinate) (b domain.Bounds, ok bool) {
	if len(points) == 0 {
		return domain.Bounds{}, false
	}
	b = domain.Bounds{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLng: points[0].Lng, MaxLng: points[0].Lng,
	}
	for _, p := range points[1:] {
		b.Extend(p)
	}
	return b, true
}

// Round8 rounds a coordinate component to 8 decimal places, the precision
// used for click-derived selector points.
func Round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}

// Valid reports whether both components of the coordinate are finite.
func Valid(c domain.Coordinate) bool {
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) &&
		!math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
