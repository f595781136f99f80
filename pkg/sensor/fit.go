// Package sensor reads heart rate and cadence samples from a FIT activity
// file recorded alongside the timed session (for example by a watch without
// usable GPS inside the velodrome).
package sensor

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tormoder/fit"
)

// value FIT uses for unset uint8 fields
const invalidByte = 0xFF

// Reading is one per-second sensor observation. A value of -1 means the
// field was not recorded.
type Reading struct {
	HeartRate int
	Cadence   int
}

// Series holds sensor readings keyed by wall clock time, joined against
// trajectory samples by their interpolated timestamp.
type Series struct {
	byUnix map[int64]Reading
}

// Decode extracts the record messages of a FIT activity into a series.
func Decode(r io.Reader) (*Series, error) {
	f, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding fit file: %w", err)
	}
	activity, err := f.Activity()
	if err != nil {
		return nil, fmt.Errorf("fit file contains no activity: %w", err)
	}

	ret := &Series{byUnix: make(map[int64]Reading, len(activity.Records))}
	for _, rec := range activity.Records {
		if rec.Timestamp.IsZero() {
			continue
		}
		reading := Reading{HeartRate: -1, Cadence: -1}
		if rec.HeartRate != invalidByte {
			reading.HeartRate = int(rec.HeartRate)
		}
		if rec.Cadence != invalidByte {
			reading.Cadence = int(rec.Cadence)
		}
		ret.byUnix[rec.Timestamp.Unix()] = reading
	}
	return ret, nil
}

// ReadFile reads a FIT activity from the given path.
func ReadFile(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// NewSeries builds a series from explicit readings, used by tests and
// callers without FIT data.
func NewSeries(readings map[time.Time]Reading) *Series {
	ret := &Series{byUnix: make(map[int64]Reading, len(readings))}
	for t, r := range readings {
		ret.byUnix[t.Unix()] = r
	}
	return ret
}

// At returns the reading recorded at the given instant. The join is on the
// absolute second, so differing timezone representations of the same
// instant match.
func (s *Series) At(t time.Time) (Reading, bool) {
	r, ok := s.byUnix[t.Unix()]
	return r, ok
}

func (s *Series) Len() int { return len(s.byUnix) }
