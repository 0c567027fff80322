package storage

import "time"

// Run is one pipeline invocation over a video.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Video      string
	ProjectDir string
	TargetTool string
	Config     *string // JSON
	Tagged     int
	Partial    int
	Failed     int
}

// Summary is the outcome counts written when a run finishes.
type Summary struct {
	Tagged  int
	Partial int
	Failed  int
}

// Frame is the recorded outcome of one frame. Pointer fields are nil when the
// frame never reached the step that sets them.
type Frame struct {
	ID     int64
	RunID  string
	Name   string
	CTS    float64 // milliseconds
	State  string
	Status string

	GPSCTS    *float64
	Latitude  *float64
	Longitude *float64
	Altitude  *float64

	OrientationStream string
	OrientationCTS    *float64
	Roll              *float64
	Pitch             *float64
	Yaw               *float64
	GravityX          *float64
	GravityY          *float64
	GravityZ          *float64

	CaptureTime string
	Output      string
	Warnings    string
	Error       string
}

// HasPosition reports whether the frame was matched to a GPS fix.
func (f *Frame) HasPosition() bool {
	return f.Latitude != nil && f.Longitude != nil
}
