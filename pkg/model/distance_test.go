package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundDistance(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "already on grid", in: 90.0, want: 90.0},
		{name: "rounds down", in: 12.34, want: 12.3},
		{name: "rounds up", in: 12.36, want: 12.4},
		{name: "tie goes to even below", in: 0.25, want: 0.2},
		{name: "tie goes to even above", in: 0.35, want: 0.4},
		{name: "float noise collapses", in: 0.30000000000000004, want: 0.3},
		{name: "negative tie", in: -0.25, want: -0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RoundDistance(tt.in), 1e-12)
		})
	}
}

func TestDistanceKey(t *testing.T) {
	assert.Equal(t, int64(0), DistanceKey(0))
	assert.Equal(t, int64(900), DistanceKey(90.0))
	assert.Equal(t, int64(2499), DistanceKey(249.9))
	assert.Equal(t, int64(3), DistanceKey(0.30000000000000004))
	// values equal after rounding share a key
	assert.Equal(t, DistanceKey(12.349999), DistanceKey(12.3))
}
