package model

import "time"

// LapRecord is one completed lap as reported by the timing system.
// Records are immutable once parsed.
type LapRecord struct {
	Timestamp time.Time `json:"timestamp"` // start of the lap, naive local time
	Session   int       `json:"session"`   // contiguous block of consecutive lap numbers, ids start at 1
	Lap       int       `json:"lap"`       // lap number as reported, not necessarily contiguous
	Laptime   float64   `json:"laptime"`   // lap duration in seconds
	Speed     float64   `json:"speed"`     // lap average speed in m/s
	Distance  float64   `json:"distance"`  // running sum of laptime*speed over all retained laps, whole meters
}

// EndTime is the wall clock time at which the lap was completed.
func (r LapRecord) EndTime() time.Time {
	return r.Timestamp.Add(time.Duration(r.Laptime * float64(time.Second)))
}
