package tagging

import (
	"github.com/golang/geo/r3"
)

const (
	StateStart State = iota
	StateGPSMatched
	StateOrientationMatched
	StateEmitted
)

const (
	StatusTagged  Status = "tagged"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// State is the furthest step a frame reached: Start, GPSMatched, OrientationMatched, Emitted.
type State int

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateGPSMatched:
		return "gps-matched"
	case StateOrientationMatched:
		return "orientation-matched"
	case StateEmitted:
		return "emitted"
	}
	return "unknown"
}

// Status summarises a frame outcome: fully tagged, tagged with something omitted, or not tagged.
type Status string

// FrameResult is the audit record of one frame.
type FrameResult struct {
	Frame string
	Path  string
	CTS   float64
	State State

	GPSCTS    *float64
	Latitude  *float64 // signed degrees as matched
	Longitude *float64 // signed degrees as matched
	Altitude  *float64 // meters

	OrientationStream string
	OrientationCTS    *float64
	Pitch             *float64 // degrees
	Roll              *float64 // degrees
	Yaw               *float64 // degrees
	Gravity           *r3.Vector

	CaptureTime string
	Output      string // sidecar path, flight log or "metadata"
	Tags        []Tag

	Warnings []string
	Err      error
}

func (r *FrameResult) Status() Status {
	switch {
	case r.Err != nil:
		return StatusFailed
	case len(r.Warnings) > 0:
		return StatusPartial
	}
	return StatusTagged
}

func (r *FrameResult) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Report collects the results of a batch in frame order.
type Report struct {
	Results []FrameResult
	Tagged  int
	Partial int
	Failed  int
}

func (r *Report) add(res FrameResult) {
	r.Results = append(r.Results, res)
	switch res.Status() {
	case StatusTagged:
		r.Tagged++
	case StatusPartial:
		r.Partial++
	case StatusFailed:
		r.Failed++
	}
}

// Failures returns the results of frames that were not tagged.
func (r *Report) Failures() []FrameResult {
	var out []FrameResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}
