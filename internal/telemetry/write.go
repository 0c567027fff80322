package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// WriteCSV writes the stream as a flat table: cts, date when present, then every column.
func WriteCSV(w io.Writer, s *Stream) error {
	cw := csv.NewWriter(w)

	header := []string{ColCTS}
	if s.Dates != nil {
		header = append(header, ColDate)
	}
	header = append(header, s.names...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, len(header))
	for i := range s.CTS {
		record = record[:0]
		record = append(record, strconv.FormatFloat(s.CTS[i], 'f', -1, 64))
		if s.Dates != nil {
			record = append(record, s.Dates[i])
		}
		for _, name := range s.names {
			record = append(record, strconv.FormatFloat(s.columns[name][i], 'f', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteClean stores the conditioned stream under <telemDir>/clean/<STREAM>.csv and
// returns the written path.
func WriteClean(telemDir string, s *Stream) (path string, err error) {
	dir := filepath.Join(telemDir, cleanSubdir)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	path = filepath.Join(dir, s.Type.FileName())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	if err = WriteCSV(f, s); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
