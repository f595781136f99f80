// Package trajectory expands discrete per-lap timing records into a
// continuous second-by-second position estimate along the track.
package trajectory

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/velotrace/velotrace/pkg/model"
	"github.com/velotrace/velotrace/pkg/track"
)

// DefaultTailThreshold is the fraction of the track length above which a
// sample counts as "close to the start/finish line" for the trailing tail
// correction (230 m on a 250 m track).
const DefaultTailThreshold = 0.92

// InvalidLapDataError reports a parsed but physically nonsensical lap.
type InvalidLapDataError struct {
	Session int
	Lap     int
	Reason  string
}

func (e *InvalidLapDataError) Error() string {
	return fmt.Sprintf("invalid lap data in session %d lap %d: %s", e.Session, e.Lap, e.Reason)
}

// Interpolator expands lap records into uniform per-second trajectory
// samples, including synthetic stationary samples for the pauses between
// sessions.
type Interpolator struct {
	trackLength   float64
	location      *time.Location
	tailThreshold float64
}

type Option func(i *Interpolator)

func WithTrackLength(meters float64) Option {
	return func(i *Interpolator) { i.trackLength = meters }
}

// WithLocation sets the timezone applied to the interpolated wall clock
// times. Lap timestamps are naive local times; the location attaches the
// zone without shifting the clock.
func WithLocation(loc *time.Location) Option {
	return func(i *Interpolator) { i.location = loc }
}

// WithTailThreshold overrides the tail correction fraction.
func WithTailThreshold(fraction float64) Option {
	return func(i *Interpolator) { i.tailThreshold = fraction }
}

func NewInterpolator(opts ...Option) *Interpolator {
	ret := &Interpolator{
		trackLength:   track.SupportedLength,
		location:      time.UTC,
		tailThreshold: DefaultTailThreshold,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// tick is one second of the expanded trajectory before global ordering.
type tick struct {
	timestamp time.Time // start of the originating lap
	session   int
	lapNum    int
	speed     float64
	idx       int // intra lap sample index, 0..round(laptime)-1
}

// Interpolate expands the given laps (all retained sessions together, in
// file order) into trajectory samples. An empty input yields an empty
// result.
func (ip *Interpolator) Interpolate(laps []model.LapRecord) ([]model.TrajectorySample, error) {
	if err := validate(laps); err != nil {
		return nil, err
	}
	if len(laps) == 0 {
		return []model.TrajectorySample{}, nil
	}

	ticks := expand(laps)
	if len(ticks) == 0 {
		// every laptime rounded to zero seconds
		return []model.TrajectorySample{}, nil
	}
	ticks = append(ticks, ip.pauseTicks(laps, ticks)...)

	// restore strict chronological order; the stable sort keeps the
	// synthetic pause samples after the real samples of their lap
	sort.SliceStable(ticks, func(a, b int) bool {
		if ticks[a].session != ticks[b].session {
			return ticks[a].session < ticks[b].session
		}
		if ticks[a].lapNum != ticks[b].lapNum {
			return ticks[a].lapNum < ticks[b].lapNum
		}
		if !ticks[a].timestamp.Equal(ticks[b].timestamp) {
			return ticks[a].timestamp.Before(ticks[b].timestamp)
		}
		return ticks[a].idx < ticks[b].idx
	})

	first := ticks[0].timestamp
	samples := make([]model.TrajectorySample, len(ticks))
	cumDistance := 0.0
	for i, tk := range ticks {
		// the counter delta is one second per step, zero for the first sample
		if i > 0 {
			cumDistance += tk.speed
		}
		trackPos := model.RoundDistance(math.Mod(cumDistance, ip.trackLength))
		if trackPos >= ip.trackLength {
			// positions just short of the line round up to the track
			// length itself, which has no grid entry; wrap to the line
			trackPos -= ip.trackLength
		}
		if tk.speed == 0 {
			// stationary sample: the rider is off the track geometry
			trackPos = 0
		}
		samples[i] = model.TrajectorySample{
			Counter:  i,
			Time:     ip.localize(first.Add(time.Duration(i) * time.Second)),
			Session:  tk.session,
			Lap:      tk.lapNum,
			Speed:    tk.speed,
			Distance: cumDistance,
			TrackPos: trackPos,
		}
	}

	ip.correctTail(samples)
	return samples, nil
}

func validate(laps []model.LapRecord) error {
	for _, lap := range laps {
		switch {
		case math.IsNaN(lap.Laptime) || math.IsInf(lap.Laptime, 0):
			return &InvalidLapDataError{Session: lap.Session, Lap: lap.Lap, Reason: "non-finite laptime"}
		case math.IsNaN(lap.Speed) || math.IsInf(lap.Speed, 0):
			return &InvalidLapDataError{Session: lap.Session, Lap: lap.Lap, Reason: "non-finite speed"}
		case lap.Laptime < 0:
			return &InvalidLapDataError{Session: lap.Session, Lap: lap.Lap, Reason: "negative laptime"}
		case lap.Speed < 0:
			return &InvalidLapDataError{Session: lap.Session, Lap: lap.Lap, Reason: "negative speed"}
		}
	}
	return nil
}

// expand creates round(laptime) ticks per lap, each inheriting the lap's
// average speed and identity.
func expand(laps []model.LapRecord) []tick {
	ret := make([]tick, 0, len(laps))
	for _, lap := range laps {
		n := int(math.RoundToEven(lap.Laptime))
		for j := 0; j < n; j++ {
			ret = append(ret, tick{
				timestamp: lap.Timestamp,
				session:   lap.Session,
				lapNum:    lap.Lap,
				speed:     lap.Speed,
				idx:       j,
			})
		}
	}
	return ret
}

// pauseTicks synthesizes stationary samples covering the wall clock gap
// between the end of one session and the start of the next, so that
// downstream GPS tools infer an auto pause from zero displacement instead
// of a discontinuous time jump.
func (ip *Interpolator) pauseTicks(laps []model.LapRecord, ticks []tick) []tick {
	sessions := lo.Uniq(lo.Map(laps, func(lap model.LapRecord, _ int) int {
		return lap.Session
	}))
	if len(sessions) < 2 {
		return nil
	}

	firstStart := make(map[int]time.Time, len(sessions))
	lastEnd := make(map[int]time.Time, len(sessions))
	for _, lap := range laps {
		if cur, ok := firstStart[lap.Session]; !ok || lap.Timestamp.Before(cur) {
			firstStart[lap.Session] = lap.Timestamp
		}
		if cur, ok := lastEnd[lap.Session]; !ok || lap.EndTime().After(cur) {
			lastEnd[lap.Session] = lap.EndTime()
		}
	}

	ret := make([]tick, 0)
	for i := 0; i < len(sessions)-1; i++ {
		cur, next := sessions[i], sessions[i+1]
		gap := int(math.Floor(firstStart[next].Sub(lastEnd[cur]).Seconds()))
		if gap <= 0 {
			continue
		}
		last, ok := lastTickOfSession(ticks, cur)
		if !ok {
			continue
		}
		for j := 0; j < gap; j++ {
			ret = append(ret, tick{
				timestamp: last.timestamp,
				session:   last.session,
				lapNum:    last.lapNum,
				speed:     0,
				idx:       last.idx,
			})
		}
	}
	return ret
}

func lastTickOfSession(ticks []tick, session int) (tick, bool) {
	for i := len(ticks) - 1; i >= 0; i-- {
		if ticks[i].session == session {
			return ticks[i], true
		}
	}
	return tick{}, false
}

// correctTail forces the distance on track to zero for every sample after
// the last one above the high watermark. Floating point drift after the
// final real lap can otherwise wrap the cumulative distance past the
// start/finish line, falsely implying another lap begun.
func (ip *Interpolator) correctTail(samples []model.TrajectorySample) {
	threshold := ip.tailThreshold * ip.trackLength
	last := -1
	for i := len(samples) - 1; i >= 0; i-- {
		if samples[i].TrackPos > threshold {
			last = i
			break
		}
	}
	if last < 0 {
		return
	}
	for i := last + 1; i < len(samples); i++ {
		samples[i].TrackPos = 0
	}
}

// localize re-interprets a naive wall clock time in the configured
// timezone without shifting the clock fields.
func (ip *Interpolator) localize(naive time.Time) time.Time {
	return time.Date(
		naive.Year(), naive.Month(), naive.Day(),
		naive.Hour(), naive.Minute(), naive.Second(), naive.Nanosecond(),
		ip.location)
}
