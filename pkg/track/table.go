package track

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/velotrace/velotrace/pkg/geo"
	"github.com/velotrace/velotrace/pkg/model"
)

// Row pairs an arc length position with its geodetic coordinate.
type Row struct {
	ArcLength float64
	Coord     geo.LatLon
}

// Table is the geodetic arc length table: an ordered mapping from arc length
// (one row per precision unit, starting at the start/finish line) to WGS84
// coordinates. It is the lookup structure of the geometry mapper and may be
// persisted to CSV and reloaded to skip rebuilding the geometry.
type Table struct {
	Rows  []Row
	index map[int64]int
}

// Lookup returns the coordinate stored for the given distance on track.
func (t *Table) Lookup(distance float64) (geo.LatLon, bool) {
	i, ok := t.index[model.DistanceKey(distance)]
	if !ok {
		return geo.LatLon{}, false
	}
	return t.Rows[i].Coord, true
}

func (t *Table) Len() int { return len(t.Rows) }

// PlanarRow pairs an arc length position with its planar coordinate.
type PlanarRow struct {
	ArcLength float64
	Coord     geo.Point
}

// PlanarTable is the planar twin of Table: identical arc length column,
// planar coordinates.
type PlanarTable struct {
	Rows  []PlanarRow
	index map[int64]int
}

func (t *PlanarTable) Lookup(distance float64) (geo.Point, bool) {
	i, ok := t.index[model.DistanceKey(distance)]
	if !ok {
		return geo.Point{}, false
	}
	return t.Rows[i].Coord, true
}

func (t *PlanarTable) Len() int { return len(t.Rows) }

// Save writes the table as CSV (arc_length,latitude,longitude).
func (t *Table) Save(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"arc_length", "latitude", "longitude"}); err != nil {
		return err
	}
	for _, row := range t.Rows {
		rec := []string{
			strconv.FormatFloat(row.ArcLength, 'f', 1, 64),
			strconv.FormatFloat(row.Coord.Lat, 'f', -1, 64),
			strconv.FormatFloat(row.Coord.Lon, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveFile writes the table to the given path.
func (t *Table) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return t.Save(f)
}

// LoadTable reads a table previously written with Save. The mapper contract
// is identical whether the table was just built or reloaded.
func LoadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading arc length table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("arc length table is empty")
	}
	ret := &Table{
		Rows:  make([]Row, 0, len(records)-1),
		index: make(map[int64]int, len(records)-1),
	}
	for i, rec := range records[1:] {
		if len(rec) != 3 {
			return nil, fmt.Errorf("arc length table row %d: expected 3 columns, got %d", i+1, len(rec))
		}
		arc, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("arc length table row %d: %w", i+1, err)
		}
		lat, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("arc length table row %d: %w", i+1, err)
		}
		lon, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("arc length table row %d: %w", i+1, err)
		}
		idx := len(ret.Rows)
		ret.Rows = append(ret.Rows, Row{ArcLength: arc, Coord: geo.LatLon{Lat: lat, Lon: lon}})
		key := model.DistanceKey(arc)
		if _, ok := ret.index[key]; !ok {
			ret.index[key] = idx
		}
	}
	return ret, nil
}

// LoadTableFile reads a saved table from the given path.
func LoadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadTable(f)
}
