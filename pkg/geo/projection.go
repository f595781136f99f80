// Package geo converts between the planar UTM frame used for track
// construction and the geodetic WGS84 frame used by GPS tooling.
package geo

import (
	"fmt"

	"github.com/im7mortal/UTM"
)

// Point is a planar UTM coordinate in meters.
type Point struct {
	X float64 // easting
	Y float64 // northing
}

// LatLon is a geodetic WGS84 coordinate in degrees.
type LatLon struct {
	Lat float64
	Lon float64
}

// ProjectionError reports a coordinate that could not be transformed.
type ProjectionError struct {
	Index int
	Cause error
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("projection failed for point %d: %v", e.Index, e.Cause)
}

func (e *ProjectionError) Unwrap() error { return e.Cause }

// DefaultZone covers Belgium, where the supported velodromes are located.
const DefaultZone = 31

// Projection is a fixed UTM zone projection on the WGS84 ellipsoid.
// The zero value is not usable; create instances via NewProjection.
type Projection struct {
	zone     int
	northern bool
}

type ProjectionOption func(p *Projection)

func WithZone(zone int) ProjectionOption {
	return func(p *Projection) { p.zone = zone }
}

func WithSouthernHemisphere() ProjectionOption {
	return func(p *Projection) { p.northern = false }
}

func NewProjection(opts ...ProjectionOption) *Projection {
	ret := &Projection{zone: DefaultZone, northern: true}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (p *Projection) Zone() int { return p.zone }

// ToWGS84 projects planar points into geodetic coordinates.
// Cardinality and order of the input are preserved.
func (p *Projection) ToWGS84(points []Point) ([]LatLon, error) {
	ret := make([]LatLon, len(points))
	for i, pt := range points {
		lat, lon, err := UTM.ToLatLon(pt.X, pt.Y, p.zone, "", p.northern)
		if err != nil {
			return nil, &ProjectionError{Index: i, Cause: err}
		}
		ret[i] = LatLon{Lat: lat, Lon: lon}
	}
	return ret, nil
}

// ToUTM projects geodetic points into the planar frame.
// Cardinality and order of the input are preserved.
func (p *Projection) ToUTM(points []LatLon) ([]Point, error) {
	ret := make([]Point, len(points))
	for i, pt := range points {
		easting, northing, zone, _, err := UTM.FromLatLon(pt.Lat, pt.Lon, p.northern)
		if err != nil {
			return nil, &ProjectionError{Index: i, Cause: err}
		}
		if zone != p.zone {
			return nil, &ProjectionError{
				Index: i,
				Cause: fmt.Errorf("point lies in UTM zone %d, projection uses zone %d", zone, p.zone),
			}
		}
		ret[i] = Point{X: easting, Y: northing}
	}
	return ret, nil
}

// PointToWGS84 is a single point convenience variant of ToWGS84.
func (p *Projection) PointToWGS84(pt Point) (LatLon, error) {
	res, err := p.ToWGS84([]Point{pt})
	if err != nil {
		return LatLon{}, err
	}
	return res[0], nil
}

// PointToUTM is a single point convenience variant of ToUTM.
func (p *Projection) PointToUTM(pt LatLon) (Point, error) {
	res, err := p.ToUTM([]LatLon{pt})
	if err != nil {
		return Point{}, err
	}
	return res[0], nil
}
