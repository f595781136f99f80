// Package transponder parses per-lap timing exports of the track side
// transponder system into typed lap records with derived session grouping
// and speed/distance fields.
package transponder

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Read decodes a raw transponder export. The files are written as
// UTF-16-LE CSV; rows that are entirely empty are dropped.
func Read(r io.Reader) ([][]string, error) {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.FieldsPerRecord = -1

	ret := make([][]string, 0)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading transponder export: %w", err)
		}
		if isBlank(rec) {
			continue
		}
		ret = append(ret, rec)
	}
	return ret, nil
}

// ReadFile reads a transponder export from the given path.
func ReadFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func isBlank(rec []string) bool {
	for _, field := range rec {
		if field != "" {
			return false
		}
	}
	return true
}
