package domain

import (
	"fmt"
	"math"
)

// TravelMode is a Mapbox directions profile.
type TravelMode string

const (
	TravelDriving TravelMode = "driving"
	TravelWalking TravelMode = "walking"
	TravelCycling TravelMode = "cycling"
)

// ParseTravelMode returns the mode for s, defaulting to driving.
func ParseTravelMode(s string) (TravelMode, error) {
	switch TravelMode(s) {
	case "":
		return TravelDriving, nil
	case TravelDriving, TravelWalking, TravelCycling:
		return TravelMode(s), nil
	}
	return "", fmt.Errorf("%w: unknown travel mode %q", ErrInvalidInput, s)
}

// Label is the Vietnamese display name of the mode.
func (m TravelMode) Label() string {
	switch m {
	case TravelWalking:
		return "Đi bộ"
	case TravelCycling:
		return "Đạp xe"
	default:
		return "Lái xe"
	}
}

// LineString is a GeoJSON LineString.
type LineString struct {
	Type        string       `json:"type"`
	Coordinates []Coordinate `json:"coordinates"`
}

type Maneuver struct {
	Instruction string `json:"instruction"`
	Type        string `json:"type"`
}

type RouteStep struct {
	Maneuver Maneuver `json:"maneuver"`
	Distance float64  `json:"distance"`
	Duration float64  `json:"duration"`
}

type RouteLeg struct {
	Summary  string      `json:"summary"`
	Distance float64     `json:"distance"`
	Duration float64     `json:"duration"`
	Steps    []RouteStep `json:"steps"`
}

// DirectionsRoute is one route alternative. Distance is in meters and
// Duration in seconds.
type DirectionsRoute struct {
	Distance float64    `json:"distance"`
	Duration float64    `json:"duration"`
	Geometry LineString `json:"geometry"`
	Legs     []RouteLeg `json:"legs"`
}

type Waypoint struct {
	Name     string     `json:"name"`
	Location Coordinate `json:"location"`
}

// Directions is a directions answer between two points.
type Directions struct {
	Mode      TravelMode        `json:"mode"`
	Routes    []DirectionsRoute `json:"routes"`
	Waypoints []Waypoint        `json:"waypoints"`
}

// FormatDistance renders meters as "850 m" or "1.2 km".
func FormatDistance(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.1f km", meters/1000)
	}
	return fmt.Sprintf("%d m", int(math.Round(meters)))
}

// FormatDuration renders seconds as "12 phút" or "1 giờ 5 phút".
func FormatDuration(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%d giờ %d phút", hours, minutes)
	}
	return fmt.Sprintf("%d phút", minutes)
}
