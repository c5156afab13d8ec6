package domain

import (
	"encoding/json"
	"fmt"
)

// Coordinate is a WGS 84 position in degrees. On the wire it is a GeoJSON
// style [longitude, latitude] pair.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Coord is shorthand for Coordinate{Lon: lon, Lat: lat}.
func Coord(lon, lat float64) Coordinate {
	return Coordinate{Lon: lon, Lat: lat}
}

// Ptr returns a pointer to a copy of c.
func (c Coordinate) Ptr() *Coordinate {
	return &c
}

// Valid reports whether c lies inside the WGS 84 degree ranges.
func (c Coordinate) Valid() bool {
	return c.Lon >= -180 && c.Lon <= 180 && c.Lat >= -90 && c.Lat <= 90
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lon, c.Lat)
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lon, c.Lat})
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("coordinate: expected [lon, lat], got %d values", len(pair))
		}
		c.Lon, c.Lat = pair[0], pair[1]
		return nil
	}

	// Also accept {"lon":..,"lat":..} objects.
	var obj struct {
		Lon *float64 `json:"lon"`
		Lng *float64 `json:"lng"`
		Lat *float64 `json:"lat"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("coordinate: %w", err)
	}
	if obj.Lat == nil || (obj.Lon == nil && obj.Lng == nil) {
		return fmt.Errorf("coordinate: lat and lon are required")
	}
	c.Lat = *obj.Lat
	if obj.Lon != nil {
		c.Lon = *obj.Lon
	} else {
		c.Lon = *obj.Lng
	}
	return nil
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// ViewportState is the visible map region reported by the map display on
// every movement. NorthEast is nil while the map has no bounds yet.
type ViewportState struct {
	Center    Coordinate  `json:"center"`
	Zoom      float64     `json:"zoom"`
	NorthEast *Coordinate `json:"ne,omitempty"`
}

// RadiusQuery is the unit the viewport controller emits to its host.
// RadiusMeters is always within [MinRadiusMeters, MaxRadiusMeters].
type RadiusQuery struct {
	Center       Coordinate `json:"center"`
	Zoom         float64    `json:"zoom"`
	RadiusMeters float64    `json:"radius"`
}

// Search radius limits accepted by the rooms API, in meters.
const (
	MinRadiusMeters = 5000.0
	MaxRadiusMeters = 50000.0

	// DefaultRadiusMeters is used before the map has reported any radius.
	DefaultRadiusMeters = MinRadiusMeters
)
