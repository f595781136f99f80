package trajectory

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velotrace/velotrace/pkg/model"
)

func lap(ts time.Time, session, lapNum int, laptime, speed float64) model.LapRecord {
	return model.LapRecord{
		Timestamp: ts,
		Session:   session,
		Lap:       lapNum,
		Laptime:   laptime,
		Speed:     speed,
	}
}

var sessionStart = time.Date(2023, 5, 14, 10, 0, 0, 0, time.UTC)

func TestInterpolate_SingleLap(t *testing.T) {
	// a full tail threshold disables the trailing correction so the raw
	// modulo arithmetic is visible
	ip := NewInterpolator(WithTailThreshold(1.0))

	samples, err := ip.Interpolate([]model.LapRecord{
		lap(sessionStart, 1, 1, 60.0, 10.0),
	})
	require.NoError(t, err)
	require.Len(t, samples, 60)

	for i, s := range samples {
		assert.Equal(t, i, s.Counter)
		assert.Equal(t, 1, s.Session)
		assert.Equal(t, 1, s.Lap)
		assert.InDelta(t, 10.0, s.Speed, 1e-9)
		assert.Equal(t, sessionStart.Add(time.Duration(i)*time.Second), s.Time)
		assert.GreaterOrEqual(t, s.TrackPos, 0.0)
		assert.Less(t, s.TrackPos, 250.0)
	}
	assert.InDelta(t, 0.0, samples[0].Distance, 1e-9)
	assert.InDelta(t, 590.0, samples[59].Distance, 1e-9)
	assert.InDelta(t, 90.0, samples[59].TrackPos, 1e-9)
	// one full revolution after 25 steps
	assert.InDelta(t, 0.0, samples[25].TrackPos, 1e-9)
}

func TestInterpolate_SingleSessionHasNoSyntheticSamples(t *testing.T) {
	ip := NewInterpolator()
	samples, err := ip.Interpolate([]model.LapRecord{
		lap(sessionStart, 1, 1, 20.0, 10.0),
		lap(sessionStart.Add(20*time.Second), 1, 2, 20.0, 11.0),
	})
	require.NoError(t, err)
	require.Len(t, samples, 40)
	for i, s := range samples {
		assert.Equal(t, i, s.Counter)
		assert.NotZero(t, s.Speed)
	}
}

func TestInterpolate_PauseSynthesis(t *testing.T) {
	// session 1 ends at 10:00:30, session 2 starts at 10:00:40
	ip := NewInterpolator(WithTailThreshold(1.0))
	samples, err := ip.Interpolate([]model.LapRecord{
		lap(sessionStart, 1, 1, 30.0, 10.0),
		lap(sessionStart.Add(40*time.Second), 2, 1, 30.0, 10.0),
	})
	require.NoError(t, err)
	require.Len(t, samples, 70)

	var pause []model.TrajectorySample
	for _, s := range samples {
		if s.Speed == 0 {
			pause = append(pause, s)
		}
	}
	require.Len(t, pause, 10)
	for i, s := range pause {
		assert.Equal(t, 30+i, s.Counter, "pause sits between the sessions")
		assert.Equal(t, 1, s.Session, "pause inherits the ending session")
		assert.InDelta(t, 0.0, s.TrackPos, 1e-9)
	}

	// distance freezes through the pause and resumes after it
	assert.InDelta(t, 290.0, samples[29].Distance, 1e-9)
	assert.InDelta(t, 290.0, samples[39].Distance, 1e-9)
	assert.InDelta(t, 300.0, samples[40].Distance, 1e-9)
	assert.InDelta(t, 590.0, samples[69].Distance, 1e-9)

	// time counter stays one second per step across the pause
	assert.Equal(t, sessionStart.Add(69*time.Second), samples[69].Time)
}

func TestInterpolate_FiveSecondGap(t *testing.T) {
	ip := NewInterpolator()
	samples, err := ip.Interpolate([]model.LapRecord{
		lap(sessionStart, 1, 1, 20.0, 10.0),
		lap(sessionStart.Add(25*time.Second), 2, 1, 20.0, 10.0),
	})
	require.NoError(t, err)
	require.Len(t, samples, 45)

	stationary := 0
	for _, s := range samples {
		if s.Speed == 0 {
			stationary++
			assert.InDelta(t, 0.0, s.TrackPos, 1e-9)
		}
	}
	assert.Equal(t, 5, stationary)
}

func TestInterpolate_GapRoundsDown(t *testing.T) {
	ip := NewInterpolator()
	// 4.9 seconds between end of session 1 and start of session 2
	samples, err := ip.Interpolate([]model.LapRecord{
		lap(sessionStart, 1, 1, 20.0, 10.0),
		lap(sessionStart.Add(24*time.Second+900*time.Millisecond), 2, 1, 20.0, 10.0),
	})
	require.NoError(t, err)
	assert.Len(t, samples, 44)
}

func TestInterpolate_LaptimeRounding(t *testing.T) {
	ip := NewInterpolator()
	tests := []struct {
		laptime float64
		want    int
	}{
		{laptime: 21.5, want: 22},
		{laptime: 22.5, want: 22},
		{laptime: 20.4, want: 20},
		{laptime: 20.6, want: 21},
	}
	for _, tt := range tests {
		samples, err := ip.Interpolate([]model.LapRecord{
			lap(sessionStart, 1, 1, tt.laptime, 10.0),
		})
		require.NoError(t, err)
		assert.Len(t, samples, tt.want, "laptime %g", tt.laptime)
	}
}

func TestInterpolate_TailCorrection(t *testing.T) {
	ip := NewInterpolator()
	samples, err := ip.Interpolate([]model.LapRecord{
		lap(sessionStart, 1, 1, 25.0, 10.0),
		lap(sessionStart.Add(25*time.Second), 1, 2, 3.0, 5.0),
	})
	require.NoError(t, err)
	require.Len(t, samples, 28)

	// the last sample above the 230 m watermark keeps its position
	assert.InDelta(t, 245.0, samples[25].TrackPos, 1e-9)
	// everything after it is treated as off the track
	assert.InDelta(t, 0.0, samples[26].TrackPos, 1e-9)
	assert.InDelta(t, 0.0, samples[27].TrackPos, 1e-9)
	// cumulative distance is untouched
	assert.InDelta(t, 255.0, samples[27].Distance, 1e-9)
}

func TestInterpolate_Localize(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ip := NewInterpolator(WithLocation(loc))
	samples, err := ip.Interpolate([]model.LapRecord{
		lap(sessionStart, 1, 1, 10.0, 10.0),
	})
	require.NoError(t, err)
	require.NotEmpty(t, samples)

	// the clock fields stay untouched, only the zone is attached
	got := samples[0].Time
	assert.Equal(t, 10, got.Hour())
	assert.Equal(t, loc, got.Location())
	_, offset := got.Zone()
	assert.Equal(t, 3600, offset)
}

func TestInterpolate_TrackPosStaysBelowLength(t *testing.T) {
	// 10 steps at this speed accumulate 249.96 m, which rounds to 250.0
	// on the grid and must wrap back to the start/finish line
	ip := NewInterpolator(WithTailThreshold(1.0))
	samples, err := ip.Interpolate([]model.LapRecord{
		lap(sessionStart, 1, 1, 12.0, 24.996),
	})
	require.NoError(t, err)
	require.Len(t, samples, 12)

	for _, s := range samples {
		assert.GreaterOrEqual(t, s.TrackPos, 0.0)
		assert.Less(t, s.TrackPos, 250.0, "counter %d", s.Counter)
	}
	assert.InDelta(t, 0.0, samples[10].TrackPos, 1e-9)
	assert.InDelta(t, 249.96, samples[10].Distance, 1e-9)
}

func TestInterpolate_SubSecondLapsOnly(t *testing.T) {
	ip := NewInterpolator()
	samples, err := ip.Interpolate([]model.LapRecord{
		lap(sessionStart, 1, 1, 0.4, 10.0),
	})
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestInterpolate_Empty(t *testing.T) {
	ip := NewInterpolator()
	samples, err := ip.Interpolate(nil)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestInterpolate_InvalidLapData(t *testing.T) {
	ip := NewInterpolator()
	tests := []struct {
		name string
		rec  model.LapRecord
	}{
		{name: "nan speed", rec: lap(sessionStart, 2, 7, 20.0, math.NaN())},
		{name: "inf laptime", rec: lap(sessionStart, 2, 7, math.Inf(1), 10.0)},
		{name: "negative laptime", rec: lap(sessionStart, 2, 7, -1.0, 10.0)},
		{name: "negative speed", rec: lap(sessionStart, 2, 7, 20.0, -10.0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ip.Interpolate([]model.LapRecord{tt.rec})
			require.Error(t, err)
			var lapErr *InvalidLapDataError
			require.True(t, errors.As(err, &lapErr))
			assert.Equal(t, 2, lapErr.Session)
			assert.Equal(t, 7, lapErr.Lap)
		})
	}
}
