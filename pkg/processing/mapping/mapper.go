// Package mapping joins interpolated trajectory samples with the geodetic
// arc length table to produce geographic positions.
package mapping

import (
	"github.com/samber/lo"

	"github.com/velotrace/velotrace/pkg/geo"
	"github.com/velotrace/velotrace/pkg/model"
	"github.com/velotrace/velotrace/pkg/track"
)

// Mapper performs the equality join between distance on track and the arc
// length grid. Both sides are rounded to the shared grid precision by
// construction, so a miss indicates inconsistent precision configuration
// between geometry builder and interpolator.
type Mapper struct {
	table     *track.Table
	elevation float64
}

type Option func(m *Mapper)

// WithElevation sets the uniform elevation applied to every output sample.
func WithElevation(meters float64) Option {
	return func(m *Mapper) { m.elevation = meters }
}

// NewMapper creates a mapper over a geodetic arc length table. The table
// may come straight from the geometry builder or from a reloaded CSV cache.
func NewMapper(table *track.Table, opts ...Option) *Mapper {
	ret := &Mapper{table: table}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// MapToTrack resolves each sample's distance on track to a geographic
// coordinate. Sample order is preserved. A sample whose grid key has no
// match yields a nil position rather than aborting the batch; callers
// should treat such rows as a configuration error.
func (m *Mapper) MapToTrack(samples []model.TrajectorySample) []model.GeoSample {
	ret := make([]model.GeoSample, len(samples))
	for i, s := range samples {
		var pos *geo.LatLon
		if coord, ok := m.table.Lookup(s.TrackPos); ok {
			c := coord
			pos = &c
		}
		ret[i] = model.GeoSample{
			Counter:   s.Counter,
			Time:      s.Time,
			Position:  pos,
			Elevation: m.elevation,
		}
	}
	return ret
}

// CountMisses returns the number of samples without a position.
func CountMisses(samples []model.GeoSample) int {
	return lo.CountBy(samples, func(s model.GeoSample) bool {
		return s.Position == nil
	})
}
