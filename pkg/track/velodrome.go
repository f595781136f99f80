// Package track synthesizes the physical shape of a standardized oval
// velodrome as a dense, arc-length-indexed polyline in the planar UTM frame
// and the geodetic WGS84 frame.
package track

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/velotrace/velotrace/pkg/geo"
	"github.com/velotrace/velotrace/pkg/model"
)

// SupportedLength is the only nominal track length with known physical
// dimensions.
const SupportedLength = 250.0

// physical constants for a 250 m velodrome
const (
	cornerRadius250   = 27.7
	straightLength250 = 38.0
)

// UnsupportedTrackLengthError is returned when the configuration requests a
// track length without known geometry.
type UnsupportedTrackLengthError struct {
	Length float64
}

func (e *UnsupportedTrackLengthError) Error() string {
	return fmt.Sprintf("velodromes of length %g meter are not supported", e.Length)
}

// Velodrome is the immutable track geometry, built once per configuration.
type Velodrome struct {
	name        string
	centerUTM   geo.Point
	centerWGS84 geo.LatLon
	rotation    float64 // degrees, counter-clockwise positive
	length      float64
	elevation   float64
	precision   float64
	startFinish float64
	projection  *geo.Projection

	hasCenterUTM   bool
	hasCenterWGS84 bool

	cornerRadius    float64
	straightLength  float64
	cornerSamples   int
	straightSamples int

	polylineUTM   []geo.Point
	polylineWGS84 []geo.LatLon
	arcUTM        *PlanarTable
	arcWGS84      *Table
}

type Option func(v *Velodrome)

// WithCenterUTM sets the planar center. Mutually exclusive with
// WithCenterWGS84.
func WithCenterUTM(easting, northing float64) Option {
	return func(v *Velodrome) {
		v.centerUTM = geo.Point{X: easting, Y: northing}
		v.hasCenterUTM = true
	}
}

// WithCenterWGS84 sets the geodetic center. Mutually exclusive with
// WithCenterUTM.
func WithCenterWGS84(lat, lon float64) Option {
	return func(v *Velodrome) {
		v.centerWGS84 = geo.LatLon{Lat: lat, Lon: lon}
		v.hasCenterWGS84 = true
	}
}

func WithRotation(degrees float64) Option {
	return func(v *Velodrome) { v.rotation = degrees }
}

func WithLength(meters float64) Option {
	return func(v *Velodrome) { v.length = meters }
}

func WithElevation(meters float64) Option {
	return func(v *Velodrome) { v.elevation = meters }
}

func WithPrecision(metersPerSample float64) Option {
	return func(v *Velodrome) { v.precision = metersPerSample }
}

// WithStartFinish places the start/finish line at the given arc length along
// the loop, measured from the construction origin.
func WithStartFinish(meters float64) Option {
	return func(v *Velodrome) { v.startFinish = meters }
}

func WithProjection(p *geo.Projection) Option {
	return func(v *Velodrome) { v.projection = p }
}

// NewVelodrome builds the closed loop polyline and its arc length tables.
func NewVelodrome(name string, opts ...Option) (*Velodrome, error) {
	v := &Velodrome{
		name:      name,
		length:    SupportedLength,
		precision: model.GridPrecision,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.projection == nil {
		v.projection = geo.NewProjection()
	}
	if v.hasCenterUTM == v.hasCenterWGS84 {
		return nil, fmt.Errorf("exactly one of planar or geodetic center must be configured")
	}

	var err error
	if v.hasCenterUTM {
		if v.centerWGS84, err = v.projection.PointToWGS84(v.centerUTM); err != nil {
			return nil, err
		}
	} else {
		if v.centerUTM, err = v.projection.PointToUTM(v.centerWGS84); err != nil {
			return nil, err
		}
	}

	if err = v.determineDimensions(); err != nil {
		return nil, err
	}
	v.polylineUTM = v.build()
	if v.polylineWGS84, err = v.projection.ToWGS84(v.polylineUTM); err != nil {
		return nil, err
	}
	v.arcUTM, v.arcWGS84 = v.buildArcLengthTables()
	return v, nil
}

func (v *Velodrome) determineDimensions() error {
	if v.length != SupportedLength {
		return &UnsupportedTrackLengthError{Length: v.length}
	}
	if v.precision <= 0 || math.IsNaN(v.precision) {
		return fmt.Errorf("precision must be positive, got %g", v.precision)
	}
	v.cornerRadius = cornerRadius250
	v.straightLength = straightLength250

	// sample counts so each polyline point covers one precision unit
	v.cornerSamples = int(math.Pi * v.cornerRadius / v.precision)
	v.straightSamples = int(v.straightLength / v.precision)
	if v.cornerSamples < 2 || v.straightSamples < 1 {
		return fmt.Errorf("precision %g is too coarse for the track dimensions", v.precision)
	}
	return nil
}

// build constructs the loop from four segments: top straight (right to
// left), left corner, bottom straight (left to right), right corner. The
// concatenation order defines the arc length direction; the start/finish
// shift then re-indexes the loop so index 0 sits on the start/finish line.
func (v *Velodrome) build() []geo.Point {
	cx, cy := v.centerUTM.X, v.centerUTM.Y
	half := v.straightLength / 2

	top := v.buildStraight(geo.Point{X: cx + half, Y: cy + v.cornerRadius}, true)
	left := v.buildCorner(geo.Point{X: cx - half, Y: cy}, true)
	bottom := v.buildStraight(geo.Point{X: cx - half, Y: cy - v.cornerRadius}, false)
	right := v.buildCorner(geo.Point{X: cx + half, Y: cy}, false)

	loop := make([]geo.Point, 0, len(top)+len(left)+len(bottom)+len(right))
	loop = append(loop, top...)
	loop = append(loop, left...)
	loop = append(loop, bottom...)
	loop = append(loop, right...)

	if v.rotation != 0 {
		loop = rotatePoints(loop, v.centerUTM, v.rotation)
	}

	// cyclic shift so the start/finish line becomes index 0
	shift := int(math.Round(v.startFinish/v.precision)) % len(loop)
	if shift < 0 {
		shift += len(loop)
	}
	if shift != 0 {
		shifted := make([]geo.Point, 0, len(loop))
		shifted = append(shifted, loop[shift:]...)
		shifted = append(shifted, loop[:shift]...)
		loop = shifted
	}
	return loop
}

// buildStraight samples a straight starting one step after start, so the
// shared endpoint with the preceding corner is not emitted twice.
func (v *Velodrome) buildStraight(start geo.Point, leftward bool) []geo.Point {
	length := v.straightLength
	if leftward {
		length = -length
	}
	ret := make([]geo.Point, v.straightSamples)
	for i := 1; i <= v.straightSamples; i++ {
		ret[i-1] = geo.Point{
			X: start.X + length*(float64(i)/float64(v.straightSamples)),
			Y: start.Y,
		}
	}
	return ret
}

// buildCorner samples a half circle from pi/2 to 3pi/2 around center. A
// negative radius mirrors the arc for the right corner.
func (v *Velodrome) buildCorner(center geo.Point, leftward bool) []geo.Point {
	radius := v.cornerRadius
	if !leftward {
		radius = -radius
	}
	start := math.Pi / 2
	step := math.Pi / float64(v.cornerSamples-1)
	ret := make([]geo.Point, v.cornerSamples)
	for i := 0; i < v.cornerSamples; i++ {
		angle := start + float64(i)*step
		ret[i] = geo.Point{
			X: center.X + radius*math.Cos(angle),
			Y: center.Y + radius*math.Sin(angle),
		}
	}
	return ret
}

// rotatePoints applies a standard 2D rotation of all points around center.
func rotatePoints(points []geo.Point, center geo.Point, degrees float64) []geo.Point {
	angle := degrees * math.Pi / 180
	sin, cos := math.Sincos(angle)
	rot := mat.NewDense(2, 2, []float64{cos, -sin, sin, cos})

	shifted := mat.NewDense(2, len(points), nil)
	for i, p := range points {
		shifted.Set(0, i, p.X-center.X)
		shifted.Set(1, i, p.Y-center.Y)
	}
	var rotated mat.Dense
	rotated.Mul(rot, shifted)

	ret := make([]geo.Point, len(points))
	for i := range points {
		ret[i] = geo.Point{
			X: rotated.At(0, i) + center.X,
			Y: rotated.At(1, i) + center.Y,
		}
	}
	return ret
}

func (v *Velodrome) buildArcLengthTables() (*PlanarTable, *Table) {
	planar := &PlanarTable{
		Rows:  make([]PlanarRow, len(v.polylineUTM)),
		index: make(map[int64]int, len(v.polylineUTM)),
	}
	geodetic := &Table{
		Rows:  make([]Row, len(v.polylineWGS84)),
		index: make(map[int64]int, len(v.polylineWGS84)),
	}
	for i := range v.polylineUTM {
		arc := model.RoundDistance(float64(i) * v.precision)
		planar.Rows[i] = PlanarRow{ArcLength: arc, Coord: v.polylineUTM[i]}
		geodetic.Rows[i] = Row{ArcLength: arc, Coord: v.polylineWGS84[i]}
		key := model.DistanceKey(arc)
		if _, ok := planar.index[key]; !ok {
			planar.index[key] = i
			geodetic.index[key] = i
		}
	}
	return planar, geodetic
}

func (v *Velodrome) Name() string         { return v.name }
func (v *Velodrome) Length() float64      { return v.length }
func (v *Velodrome) Precision() float64   { return v.precision }
func (v *Velodrome) Elevation() float64   { return v.elevation }
func (v *Velodrome) Rotation() float64    { return v.rotation }
func (v *Velodrome) StartFinish() float64 { return v.startFinish }

func (v *Velodrome) CenterUTM() geo.Point    { return v.centerUTM }
func (v *Velodrome) CenterWGS84() geo.LatLon { return v.centerWGS84 }

// PolylineUTM returns the ordered cyclic loop in the planar frame, index 0
// on the start/finish line.
func (v *Velodrome) PolylineUTM() []geo.Point { return v.polylineUTM }

// PolylineWGS84 returns the ordered cyclic loop in the geodetic frame.
func (v *Velodrome) PolylineWGS84() []geo.LatLon { return v.polylineWGS84 }

// ArcLengthUTM returns the planar arc length table.
func (v *Velodrome) ArcLengthUTM() *PlanarTable { return v.arcUTM }

// ArcLengthWGS84 returns the geodetic arc length table consumed by the
// geometry mapper.
func (v *Velodrome) ArcLengthWGS84() *Table { return v.arcWGS84 }
