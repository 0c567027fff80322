package app

import (
	"math"
	"slices"

	"github.com/golang/geo/s2"
	"gonum.org/v1/gonum/stat"

	"github.com/theohartsook/go-forth-and-measure/internal/storage"
)

const (
	earthRadius = 6371008.8 // meters, mean

	// Below this many elevations the bounds are the plain minimum and maximum.
	minimumSampleCount = 20
)

// TrackPoint is one placed frame.
type TrackPoint struct {
	Name      string
	LatLng    s2.LatLng
	Elevation *float64
	Status    string
}

// ElevationBounds is the elevation range mapped onto the color theme.
type ElevationBounds struct {
	Min float64 // 5th percentile
	Max float64 // 95th percentile
}

// TrackData accumulates the frames of one run for rendering.
type TrackData struct {
	Run    *storage.Run
	Points []TrackPoint

	Frames   int
	Unplaced int // frames never matched to a GPS fix
	Failed   int
	Length   float64 // meters along the placed frames, in frame order

	MinLat, MaxLat float64
	MinLon, MaxLon float64

	elevations []float64
}

func NewTrackData(run *storage.Run) *TrackData {
	return &TrackData{
		Run:    run,
		MinLat: math.Inf(1),
		MaxLat: math.Inf(-1),
		MinLon: math.Inf(1),
		MaxLon: math.Inf(-1),
	}
}

// Update adds a frame. Frames must arrive in ledger order for Length to follow the track.
func (t *TrackData) Update(f *storage.Frame) {
	t.Frames++
	if f.Status == "failed" {
		t.Failed++
	}
	if !f.HasPosition() {
		t.Unplaced++
		return
	}

	lat, lon := *f.Latitude, *f.Longitude
	p := TrackPoint{
		Name:      f.Name,
		LatLng:    s2.LatLngFromDegrees(lat, lon),
		Elevation: f.Altitude,
		Status:    f.Status,
	}

	if n := len(t.Points); n > 0 {
		t.Length += t.Points[n-1].LatLng.Distance(p.LatLng).Radians() * earthRadius
	}
	t.Points = append(t.Points, p)

	t.MinLat = math.Min(t.MinLat, lat)
	t.MaxLat = math.Max(t.MaxLat, lat)
	t.MinLon = math.Min(t.MinLon, lon)
	t.MaxLon = math.Max(t.MaxLon, lon)

	if f.Altitude != nil {
		t.elevations = append(t.elevations, *f.Altitude)
	}
}

// Placed reports whether any frame has a position.
func (t *TrackData) Placed() bool {
	return len(t.Points) > 0
}

// Elevation returns the bounds for coloring. ok is false when no placed frame has an elevation.
func (t *TrackData) Elevation() (bounds ElevationBounds, ok bool) {
	if len(t.elevations) == 0 {
		return ElevationBounds{}, false
	}

	sorted := slices.Clone(t.elevations)
	slices.Sort(sorted)

	if len(sorted) < minimumSampleCount {
		return ElevationBounds{Min: sorted[0], Max: sorted[len(sorted)-1]}, true
	}

	return ElevationBounds{
		Min: stat.Quantile(0.05, stat.Empirical, sorted, nil),
		Max: stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}, true
}
