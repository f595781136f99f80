package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readability
var (
	LogLevel   string // sets the log level (zap log level values)
	LogFormat  string // text vs json
	LogFilters string // zapfilter rules to tune per-logger levels

	Timezone string // IANA timezone applied to interpolated timestamps

	TrackName     string  // display name of the velodrome, not used in computation
	CenterUTM     string  // planar center as "easting,northing" (exactly one center allowed)
	CenterWGS84   string  // geodetic center as "lat,lon" (exactly one center allowed)
	UTMZone       int     // UTM zone of the projection (31 covers Belgium)
	Rotation      float64 // rotation of the track around its center in degrees (ccw positive)
	TrackLength   float64 // nominal track length in meters (only 250 supported)
	Precision     float64 // arc length meters per polyline sample
	StartFinish   float64 // start/finish offset in meters along the loop
	Elevation     float64 // uniform elevation applied to every output sample
	TailThreshold float64 // fraction of track length used for trailing tail correction

	Sessions     []int  // restrict conversion to these session ids (empty: all)
	FitFile      string // optional FIT file with heart rate/cadence data
	ArcLengthCSV string // path of a saved arc length table (build cache)
	Output       string // output file path
)
