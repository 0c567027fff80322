// Package flightlog writes the per-frame position and orientation CSV that
// RealityCapture imports as a flight log.
package flightlog

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
)

// Header is the fixed column layout of the flight log.
var Header = []string{"Image", "Latitude", "Longitude", "Altitude", "Yaw", "Pitch", "Roll"}

// Row is one frame of the flight log. Latitude and longitude are signed degrees,
// orientation is in degrees.
type Row struct {
	Image     string
	Latitude  float64
	Longitude float64
	Altitude  float64
	Yaw       float64
	Pitch     float64
	Roll      float64
}

func (r Row) CSVRow() []string {
	return []string{
		r.Image,
		formatFloat(r.Latitude),
		formatFloat(r.Longitude),
		formatFloat(r.Altitude),
		formatFloat(r.Yaw),
		formatFloat(r.Pitch),
		formatFloat(r.Roll),
	}
}

// SignedLongitude forces a western longitude negative. A value that is already
// negative is returned unchanged so the sign is never flipped twice.
func SignedLongitude(lon float64, westHem bool) float64 {
	if westHem && lon > 0 {
		return -lon
	}
	return lon
}

// SignedLatitude forces a southern latitude negative, with the same guard.
func SignedLatitude(lat float64, northHem bool) float64 {
	if !northHem && lat > 0 {
		return -lat
	}
	return lat
}

// Writer is a buffered CSV flight-log writer, safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	closer io.Closer
	buf    *bufio.Writer
	csv    *csv.Writer
	rows   int
}

// Create opens path and writes the header row.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating flight log %s: %w", path, err)
	}

	w, err := NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// NewWriter writes the header row to out.
func NewWriter(out io.Writer) (*Writer, error) {
	bw := bufio.NewWriter(out)
	cw := csv.NewWriter(bw)
	if err := cw.Write(Header); err != nil {
		return nil, fmt.Errorf("writing flight log header: %w", err)
	}
	return &Writer{buf: bw, csv: cw}, nil
}

func (w *Writer) Write(row Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.csv.Write(row.CSVRow()); err != nil {
		return fmt.Errorf("writing flight log row %s: %w", row.Image, err)
	}
	w.rows++
	return nil
}

// Rows returns the number of data rows written so far.
func (w *Writer) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return err
	}
	return w.buf.Flush()
}

// Close flushes remaining rows and closes the underlying file, if any.
func (w *Writer) Close() error {
	err := w.Flush()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closer != nil {
		if cErr := w.closer.Close(); cErr != nil && err == nil {
			err = cErr
		}
		w.closer = nil
	}
	return err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
