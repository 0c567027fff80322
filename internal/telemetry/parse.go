package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Parse reads an extractor CSV with a comma-packed value column and a cts column and
// splits the packed values into named columns according to the stream layout.
// A row whose packed value has the wrong field count aborts the load.
func Parse(r io.Reader, t StreamType) (*Stream, error) {
	layout, err := LayoutFor(t)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return NewStream(t), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", t, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	valueIdx, ok := columns[ColValue]
	if !ok {
		return nil, fmt.Errorf("%s: no %q column in header", t, ColValue)
	}
	ctsIdx, ok := columns[ColCTS]
	if !ok {
		return nil, fmt.Errorf("%s: no %q column in header", t, ColCTS)
	}
	dateIdx, hasDate := columns[ColDate]

	s := NewStream(t)
	var names []string
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s row %d: %w", t, row, err)
		}
		if len(rec) <= max(valueIdx, ctsIdx) {
			return nil, &MalformedRowError{Stream: t, Row: row, Got: 0, Want: layout.want(),
				Err: fmt.Errorf("row has %d columns", len(rec))}
		}

		packed := splitPacked(rec[valueIdx])
		if names == nil {
			if names, ok = layout.fieldsFor(len(packed)); !ok {
				return nil, &MalformedRowError{Stream: t, Row: row, Got: len(packed), Want: layout.want()}
			}
		} else if len(packed) != len(names) {
			return nil, &MalformedRowError{Stream: t, Row: row, Got: len(packed), Want: strconv.Itoa(len(names))}
		}

		fields := make([]float64, len(packed))
		for k, p := range packed {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, &MalformedRowError{Stream: t, Row: row, Got: len(packed), Want: layout.want(), Err: err}
			}
			if layout.Negate[names[k]] {
				v = -v
			}
			fields[k] = v
		}

		cts, err := strconv.ParseFloat(strings.TrimSpace(rec[ctsIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %s row %d cts: %w", t, row, err)
		}

		var date string
		if hasDate && dateIdx < len(rec) {
			date = strings.TrimSpace(rec[dateIdx])
		}
		s.appendRow(cts, date, hasDate, names, fields)
	}

	if !sort.IsSorted(byCTS{s}) {
		sort.Stable(byCTS{s})
	}
	return s, nil
}

func splitPacked(value string) []string {
	value = strings.Trim(strings.TrimSpace(value), "[]")
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Load parses the stream file in dir. A file that does not exist is a MissingStreamError.
func Load(dir string, t StreamType) (*Stream, error) {
	path := filepath.Join(dir, t.FileName())
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &MissingStreamError{Stream: t, Path: path, Err: err}
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	s, err := Parse(f, t)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// Exists reports whether the extractor wrote a non-empty file for the stream.
func Exists(dir string, t StreamType) (bool, int64) {
	stat, err := os.Stat(filepath.Join(dir, t.FileName()))
	if err != nil || stat.IsDir() {
		return false, 0
	}
	return stat.Size() > 0, stat.Size()
}
