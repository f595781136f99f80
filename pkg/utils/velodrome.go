package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/velotrace/velotrace/pkg/config"
	"github.com/velotrace/velotrace/pkg/geo"
	"github.com/velotrace/velotrace/pkg/track"
)

// ParsePair splits a "a,b" flag value into its two float components.
func ParsePair(s string) (a, b float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected two comma separated values, got %q", s)
	}
	if a, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
		return 0, 0, fmt.Errorf("invalid value %q: %w", parts[0], err)
	}
	if b, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
		return 0, 0, fmt.Errorf("invalid value %q: %w", parts[1], err)
	}
	return a, b, nil
}

// VelodromeFromConfig builds the track geometry from the resolved CLI
// configuration.
func VelodromeFromConfig() (*track.Velodrome, error) {
	opts := []track.Option{
		track.WithRotation(config.Rotation),
		track.WithLength(config.TrackLength),
		track.WithPrecision(config.Precision),
		track.WithStartFinish(config.StartFinish),
		track.WithElevation(config.Elevation),
		track.WithProjection(geo.NewProjection(geo.WithZone(config.UTMZone))),
	}
	if config.CenterUTM != "" {
		x, y, err := ParsePair(config.CenterUTM)
		if err != nil {
			return nil, fmt.Errorf("invalid center-utm: %w", err)
		}
		opts = append(opts, track.WithCenterUTM(x, y))
	}
	if config.CenterWGS84 != "" {
		lat, lon, err := ParsePair(config.CenterWGS84)
		if err != nil {
			return nil, fmt.Errorf("invalid center-wgs84: %w", err)
		}
		opts = append(opts, track.WithCenterWGS84(lat, lon))
	}
	return track.NewVelodrome(config.TrackName, opts...)
}
