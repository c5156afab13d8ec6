package viewport

import (
	"math"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/pkg/geospatial"
)

// Reconcile returns the radius a query anchored at origin must have to still
// cover the viewport vp: the distance from origin to the viewport center plus
// the viewport's own radius, clamped. A nil origin degrades to the viewport
// radius alone.
func Reconcile(origin *domain.Coordinate, vp domain.ViewportState) float64 {
	viewportRad := geospatial.ViewportRadius(vp.Center, vp.NorthEast)

	var fromOrigin float64
	if origin != nil {
		fromOrigin = geospatial.Haversine(*origin, vp.Center)
	}

	return geospatial.ClampRadius(fromOrigin + viewportRad)
}

// Candidate builds the query for vp reconciled against origin.
func Candidate(origin *domain.Coordinate, vp domain.ViewportState) domain.RadiusQuery {
	return domain.RadiusQuery{
		Center:       vp.Center,
		Zoom:         vp.Zoom,
		RadiusMeters: Reconcile(origin, vp),
	}
}

// InitialQuery is the query emitted on map-ready. It ignores any search
// origin and uses the viewport radius only.
func InitialQuery(vp domain.ViewportState) domain.RadiusQuery {
	return Candidate(nil, vp)
}

// Significant reports whether candidate differs from the previously emitted
// radius by at least ratio of previous. Without a previous emission every
// candidate is significant.
func Significant(previous *domain.RadiusQuery, candidate, ratio float64) bool {
	if previous == nil {
		return true
	}
	return math.Abs(candidate-previous.RadiusMeters) >= previous.RadiusMeters*ratio
}
