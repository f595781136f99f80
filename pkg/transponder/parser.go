package transponder

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/velotrace/velotrace/pkg/model"
)

// column headers of the transponder export
const (
	colDate      = "Date"
	colStartTime = "Start time"
	colTotalTime = "Total time"
	colLaptime   = "Laptime"
	colSpeed     = "Speed"
	colLap       = "Lap"
)

const timestampLayout = "02-01-2006 15:04:05"

// kmhToMs converts the reported km/h speed values to m/s.
const kmhToMs = 3.6

// MalformedRecordError identifies the row and column that could not be
// parsed. Row counts are 1-based over the non-empty rows of the export,
// row 0 being the header.
type MalformedRecordError struct {
	Row    int
	Column string
	Cause  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record in row %d, column %q: %v", e.Row, e.Column, e.Cause)
}

func (e *MalformedRecordError) Unwrap() error { return e.Cause }

// Parse converts raw export rows (header included) into lap records in file
// order. Sessions are derived while scanning: a new session starts whenever
// the reported lap number is not the previous lap number plus one. Session
// ids are contiguous and start at 1.
//
// The cumulative distance is a running sum of laptime*speed over all parsed
// laps and is not reset at session boundaries.
func Parse(rows [][]string) ([]model.LapRecord, error) {
	if len(rows) == 0 {
		return []model.LapRecord{}, nil
	}
	cols, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	ret := make([]model.LapRecord, 0, len(rows)-1)
	session := 0
	prevLap := 0
	cumDistance := 0.0
	for i, row := range rows[1:] {
		rowNum := i + 1
		rec, err := parseRow(row, cols, rowNum)
		if err != nil {
			return nil, err
		}
		if session == 0 || rec.Lap != prevLap+1 {
			session++
		}
		rec.Session = session
		prevLap = rec.Lap

		cumDistance += rec.Laptime * rec.Speed
		rec.Distance = math.RoundToEven(cumDistance)
		ret = append(ret, rec)
	}
	return ret, nil
}

// FilterSessions retains only laps belonging to the given session ids. An
// empty filter keeps everything. Filtering happens before interpolation so
// no pause samples are synthesized for removed sessions.
func FilterSessions(laps []model.LapRecord, sessions []int) []model.LapRecord {
	if len(sessions) == 0 {
		return laps
	}
	return lo.Filter(laps, func(lap model.LapRecord, _ int) bool {
		return lo.Contains(sessions, lap.Session)
	})
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colDate, colStartTime, colLaptime, colSpeed, colLap} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("transponder export is missing column %q", required)
		}
	}
	return cols, nil
}

//nolint:cyclop // sequential field conversions
func parseRow(row []string, cols map[string]int, rowNum int) (model.LapRecord, error) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	ts, err := time.Parse(timestampLayout, field(colDate)+" "+field(colStartTime))
	if err != nil {
		return model.LapRecord{}, &MalformedRecordError{Row: rowNum, Column: colDate, Cause: err}
	}
	laptime, err := ParseDuration(field(colLaptime))
	if err != nil {
		return model.LapRecord{}, &MalformedRecordError{Row: rowNum, Column: colLaptime, Cause: err}
	}
	// total time is validated but only the laptime feeds the trajectory
	if total := field(colTotalTime); total != "" {
		if _, err = ParseDuration(total); err != nil {
			return model.LapRecord{}, &MalformedRecordError{Row: rowNum, Column: colTotalTime, Cause: err}
		}
	}
	lap, err := strconv.Atoi(field(colLap))
	if err != nil {
		return model.LapRecord{}, &MalformedRecordError{Row: rowNum, Column: colLap, Cause: err}
	}
	speed, err := parseSpeed(field(colSpeed))
	if err != nil {
		return model.LapRecord{}, &MalformedRecordError{Row: rowNum, Column: colSpeed, Cause: err}
	}

	return model.LapRecord{
		Timestamp: ts,
		Lap:       lap,
		Laptime:   laptime,
		Speed:     speed,
	}, nil
}

// ParseDuration converts a duration string of the export ("H:MM:SS.fff",
// "MM:SS.fff" or plain seconds) into seconds.
func ParseDuration(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	total := 0.0
	for _, part := range parts {
		val, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		total = total*60 + val
	}
	return total, nil
}

// parseSpeed strips the km/h unit suffix and converts to m/s.
func parseSpeed(s string) (float64, error) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "km/h"))
	val, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid speed %q: %w", s, err)
	}
	return val / kmhToMs, nil
}
