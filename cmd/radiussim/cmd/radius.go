package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/core/viewport"
)

var (
	radiusCmd = &cobra.Command{
		Use:   "radius",
		Short: "Compute the reconciled search radius for one viewport",
		Example: `  radiussim radius --lat 10.77 --lng 106.70 --ne-lat 10.87 --ne-lng 106.80
  radiussim radius --lat 10.77 --lng 106.70 --origin-lat 10.90 --origin-lng 106.70`,
		Args: cobra.NoArgs,
		RunE: runRadius,
	}

	radiusLat, radiusLng     float64
	radiusZoom               float64
	radiusNELat, radiusNELng float64
	originLat, originLng     float64
)

func init() {
	f := radiusCmd.Flags()
	f.Float64Var(&radiusLat, "lat", 0, "viewport center latitude")
	f.Float64Var(&radiusLng, "lng", 0, "viewport center longitude")
	f.Float64Var(&radiusZoom, "zoom", 0, "viewport zoom level")
	f.Float64Var(&radiusNELat, "ne-lat", 0, "north-east corner latitude")
	f.Float64Var(&radiusNELng, "ne-lng", 0, "north-east corner longitude")
	f.Float64Var(&originLat, "origin-lat", 0, "search origin latitude")
	f.Float64Var(&originLng, "origin-lng", 0, "search origin longitude")
	_ = radiusCmd.MarkFlagRequired("lat")
	_ = radiusCmd.MarkFlagRequired("lng")
	radiusCmd.MarkFlagsRequiredTogether("ne-lat", "ne-lng")
	radiusCmd.MarkFlagsRequiredTogether("origin-lat", "origin-lng")
}

func runRadius(cmd *cobra.Command, _ []string) error {
	vp := domain.ViewportState{Center: domain.Coord(radiusLng, radiusLat), Zoom: radiusZoom}
	if !vp.Center.Valid() {
		return fmt.Errorf("center %s out of range", vp.Center)
	}
	if cmd.Flags().Changed("ne-lat") {
		vp.NorthEast = domain.Coord(radiusNELng, radiusNELat).Ptr()
		if !vp.NorthEast.Valid() {
			return fmt.Errorf("ne %s out of range", vp.NorthEast)
		}
	}

	var origin *domain.Coordinate
	if cmd.Flags().Changed("origin-lat") {
		origin = domain.Coord(originLng, originLat).Ptr()
		if !origin.Valid() {
			return fmt.Errorf("origin %s out of range", origin)
		}
	}

	newLogger().Debug("reconciling", "center", vp.Center.String(), "has_ne", vp.NorthEast != nil, "has_origin", origin != nil)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(viewport.Candidate(origin, vp))
}
