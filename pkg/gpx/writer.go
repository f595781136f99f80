// Package gpx serializes geo position samples into a GPX 1.1 track,
// optionally enriched with heart rate and cadence trackpoint extensions.
package gpx

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/velotrace/velotrace/pkg/model"
	"github.com/velotrace/velotrace/pkg/sensor"
)

const (
	gpxNamespace    = "http://www.topografix.com/GPX/1/1"
	gpxtpxNamespace = "http://www.garmin.com/xmlschemas/TrackPointExtension/v1"
	defaultCreator  = "velotrace"
)

type gpxDoc struct {
	XMLName     xml.Name  `xml:"gpx"`
	Version     string    `xml:"version,attr"`
	Creator     string    `xml:"creator,attr"`
	Xmlns       string    `xml:"xmlns,attr"`
	XmlnsGpxtpx string    `xml:"xmlns:gpxtpx,attr,omitempty"`
	Metadata    *metadata `xml:"metadata,omitempty"`
	Track       trk       `xml:"trk"`
}

type metadata struct {
	Time string `xml:"time,omitempty"`
}

type trk struct {
	Name    string `xml:"name,omitempty"`
	Segment trkseg `xml:"trkseg"`
}

type trkseg struct {
	Points []trkpt `xml:"trkpt"`
}

type trkpt struct {
	Lat        float64     `xml:"lat,attr"`
	Lon        float64     `xml:"lon,attr"`
	Elevation  float64     `xml:"ele"`
	Time       string      `xml:"time"`
	Extensions *extensions `xml:"extensions,omitempty"`
}

type extensions struct {
	TPX *trackPointExtension `xml:"gpxtpx:TrackPointExtension,omitempty"`
}

type trackPointExtension struct {
	HR      *int `xml:"gpxtpx:hr,omitempty"`
	Cadence *int `xml:"gpxtpx:cad,omitempty"`
}

// Writer serializes position samples as a single GPX track with one
// segment, one trackpoint per sample.
type Writer struct {
	creator   string
	trackName string
	sensors   *sensor.Series
}

type Option func(w *Writer)

func WithTrackName(name string) Option {
	return func(w *Writer) { w.trackName = name }
}

func WithCreator(creator string) Option {
	return func(w *Writer) { w.creator = creator }
}

// WithSensorSeries attaches a heart rate/cadence series joined by wall
// clock time. Samples without a matching reading carry no extension.
func WithSensorSeries(s *sensor.Series) Option {
	return func(w *Writer) { w.sensors = s }
}

func NewWriter(opts ...Option) *Writer {
	ret := &Writer{creator: defaultCreator}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Write serializes the samples. A sample without a position is refused:
// incomplete output would silently hide a precision mismatch between the
// geometry builder and the interpolator.
func (w *Writer) Write(out io.Writer, samples []model.GeoSample) error {
	points := make([]trkpt, len(samples))
	for i, s := range samples {
		if s.Position == nil {
			return fmt.Errorf("sample %d has no position, refusing to write partial track", s.Counter)
		}
		pt := trkpt{
			Lat:       s.Position.Lat,
			Lon:       s.Position.Lon,
			Elevation: s.Elevation,
			Time:      s.Time.Format(time.RFC3339),
		}
		if w.sensors != nil {
			if reading, ok := w.sensors.At(s.Time); ok {
				pt.Extensions = extensionsFor(reading)
			}
		}
		points[i] = pt
	}

	doc := gpxDoc{
		Version: "1.1",
		Creator: w.creator,
		Xmlns:   gpxNamespace,
		Track: trk{
			Name:    w.trackName,
			Segment: trkseg{Points: points},
		},
	}
	if w.sensors != nil {
		doc.XmlnsGpxtpx = gpxtpxNamespace
	}
	if len(samples) > 0 {
		doc.Metadata = &metadata{Time: samples[0].Time.Format(time.RFC3339)}
	}

	if _, err := io.WriteString(out, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(out)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding gpx: %w", err)
	}
	_, err := io.WriteString(out, "\n")
	return err
}

// WriteFile writes the samples to the given path.
func (w *Writer) WriteFile(path string, samples []model.GeoSample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return w.Write(f, samples)
}

func extensionsFor(reading sensor.Reading) *extensions {
	if reading.HeartRate < 0 && reading.Cadence < 0 {
		return nil
	}
	tpx := &trackPointExtension{}
	if reading.HeartRate >= 0 {
		hr := reading.HeartRate
		tpx.HR = &hr
	}
	if reading.Cadence >= 0 {
		cad := reading.Cadence
		tpx.Cadence = &cad
	}
	return &extensions{TPX: tpx}
}
