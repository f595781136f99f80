package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velotrace/velotrace/pkg/config"
	"github.com/velotrace/velotrace/pkg/geo"
	"github.com/velotrace/velotrace/pkg/model"
	"github.com/velotrace/velotrace/pkg/track"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		in      string
		a, b    float64
		wantErr bool
	}{
		{in: "548540.34,5655259.58", a: 548540.34, b: 5655259.58},
		{in: " 51.05 , 3.69 ", a: 51.05, b: 3.69},
		{in: "1;2", wantErr: true},
		{in: "1,2,3", wantErr: true},
		{in: "one,2", wantErr: true},
		{in: "1,two", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, b, err := ParsePair(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.a, a, 1e-9)
			assert.InDelta(t, tt.b, b, 1e-9)
		})
	}
}

func configDefaults() {
	config.TrackName = "Eddy Merckx"
	config.CenterUTM = ""
	config.CenterWGS84 = ""
	config.UTMZone = geo.DefaultZone
	config.Rotation = 0
	config.TrackLength = track.SupportedLength
	config.Precision = model.GridPrecision
	config.StartFinish = 0
	config.Elevation = 0
}

func TestVelodromeFromConfig(t *testing.T) {
	configDefaults()
	config.CenterUTM = "548540.34,5655259.58"
	config.Rotation = 33
	config.Elevation = 9.5

	v, err := VelodromeFromConfig()
	require.NoError(t, err)
	assert.Equal(t, "Eddy Merckx", v.Name())
	assert.InDelta(t, 33.0, v.Rotation(), 1e-9)
	assert.InDelta(t, 9.5, v.Elevation(), 1e-9)
	assert.Len(t, v.PolylineWGS84(), 2500)
}

func TestVelodromeFromConfig_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func()
	}{
		{name: "no center", setup: func() {}},
		{name: "bad center pair", setup: func() { config.CenterUTM = "oops" }},
		{name: "bad geodetic pair", setup: func() { config.CenterWGS84 = "51.05" }},
		{name: "both centers", setup: func() {
			config.CenterUTM = "548540.34,5655259.58"
			config.CenterWGS84 = "51.05,3.69"
		}},
		{name: "unsupported length", setup: func() {
			config.CenterUTM = "548540.34,5655259.58"
			config.TrackLength = 400
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configDefaults()
			tt.setup()
			_, err := VelodromeFromConfig()
			assert.Error(t, err)
		})
	}
}
