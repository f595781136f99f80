package model

import (
	"time"

	"github.com/velotrace/velotrace/pkg/geo"
)

// TrajectorySample is one synthesized one-second tick of the rider's
// interpolated trajectory.
type TrajectorySample struct {
	Counter  int       `json:"counter"`  // seconds since the first real sample, 0-based
	Time     time.Time `json:"time"`     // interpolated wall clock time, timezone aware
	Session  int       `json:"session"`  // session of the originating lap
	Lap      int       `json:"lap"`      // lap number of the originating lap
	Speed    float64   `json:"speed"`    // average speed of the originating lap, 0 for pause samples
	Distance float64   `json:"distance"` // cumulative interpolated distance in meters
	TrackPos float64   `json:"trackPos"` // distance covered on the track in [0, length)
}

// GeoSample is the final output unit: a trajectory sample joined with its
// geographic position. Position is nil when the arc length lookup found no
// matching grid entry.
type GeoSample struct {
	Counter   int         `json:"counter"`
	Time      time.Time   `json:"time"`
	Position  *geo.LatLon `json:"position,omitempty"`
	Elevation float64     `json:"elevation"`
}
