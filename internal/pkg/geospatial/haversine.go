package geospatial

import (
	"math"

	"github.com/samirrijal/roomradar/internal/core/domain"
)

const earthRadiusMeters = 6371000.0

// Haversine calculates the great-circle distance in meters between two
// points, rounded to the nearest meter.
func Haversine(a, b domain.Coordinate) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return math.Round(earthRadiusMeters * c)
}

// ViewportRadius is the distance from the viewport center to its north-east
// corner, i.e. the radius of a circle that just covers the visible area.
// It returns 0 when the bounds are not known yet.
func ViewportRadius(center domain.Coordinate, northEast *domain.Coordinate) float64 {
	if northEast == nil {
		return 0
	}
	return Haversine(center, *northEast)
}

// ClampRadius limits a raw radius to [MinRadiusMeters, MaxRadiusMeters].
// NaN clamps to the minimum so the result is always finite.
func ClampRadius(raw float64) float64 {
	if math.IsNaN(raw) {
		return domain.MinRadiusMeters
	}
	return math.Max(domain.MinRadiusMeters, math.Min(raw, domain.MaxRadiusMeters))
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(center domain.Coordinate, radiusMeters float64) domain.Bounds {
	latDelta := radiusMeters / 111320.0
	lonDelta := radiusMeters / (111320.0 * math.Cos(toRad(center.Lat)))

	return domain.Bounds{
		North: center.Lat + latDelta,
		South: center.Lat - latDelta,
		East:  center.Lon + lonDelta,
		West:  center.Lon - lonDelta,
	}
}

// Destination returns the point reached by travelling distanceMeters from
// origin on the given initial bearing (degrees clockwise from north).
func Destination(origin domain.Coordinate, bearingDeg, distanceMeters float64) domain.Coordinate {
	delta := distanceMeters / earthRadiusMeters
	theta := toRad(bearingDeg)
	lat1 := toRad(origin.Lat)
	lon1 := toRad(origin.Lon)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) +
		math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	return domain.Coordinate{Lon: toDeg(lon2), Lat: toDeg(lat2)}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
