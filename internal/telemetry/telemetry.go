package telemetry

import (
	"fmt"
	"slices"
	"strings"
)

const (
	StreamGPS  StreamType = "GPS"
	StreamACCL StreamType = "ACCL"
	StreamGYRO StreamType = "GYRO"
	StreamGRAV StreamType = "GRAV"
	StreamCORI StreamType = "CORI"
	StreamIORI StreamType = "IORI"
)

// Column names shared by parsers, conditioners and tag synthesis.
const (
	ColLat      = "lat"      // GPS latitude in degrees
	ColLon      = "lon"      // GPS longitude in degrees
	ColElev     = "elev"     // GPS elevation in meters
	ColSpeed2D  = "speed_2d" // GPS ground speed in m/s
	ColSpeed3D  = "speed_3d" // GPS 3D speed in m/s
	ColRX       = "rX"       // gyro rotation about X in rad/s
	ColRY       = "rY"       // gyro rotation about Y in rad/s
	ColRZ       = "rZ"       // gyro rotation about Z in rad/s
	ColAX       = "AX"       // acceleration along X in m/s²
	ColAY       = "AY"       // acceleration along Y in m/s²
	ColAZ       = "AZ"       // acceleration along Z in m/s²
	ColX        = "x"        // gravity or quaternion X component
	ColY        = "y"        // gravity or quaternion Y component
	ColZ        = "z"        // gravity or quaternion Z component
	ColW        = "w"        // quaternion scalar component
	ColRoll     = "roll"     // derived roll in radians
	ColPitch    = "pitch"    // derived pitch in radians
	ColYaw      = "yaw"      // derived yaw in radians
	ColCTS      = "cts"
	ColDate     = "date"
	ColValue    = "value"
	cleanSubdir = "clean"
)

// AllStreams lists every stream the extractor can produce, in the extractor's argument order.
var AllStreams = []StreamType{StreamGPS, StreamACCL, StreamGYRO, StreamGRAV, StreamCORI, StreamIORI}

// StreamType names one sensor track of the camera's metadata.
type StreamType string

func (s StreamType) String() string {
	return string(s)
}

// FileName is the CSV file name the extractor writes the stream to.
func (s StreamType) FileName() string {
	return string(s) + ".csv"
}

// IsQuaternion reports whether the stream carries orientation quaternions.
func (s StreamType) IsQuaternion() bool {
	return s == StreamCORI || s == StreamIORI
}

func ParseStreamType(s string) (StreamType, error) {
	st := StreamType(strings.ToUpper(strings.TrimSpace(s)))
	if !slices.Contains(AllStreams, st) {
		return "", fmt.Errorf("unknown telemetry stream: %q", s)
	}
	return st, nil
}

// Sample is one reading of a stream at a point in time.
type Sample struct {
	CTS    float64            // capture timestamp in milliseconds from video start
	Date   string             // raw date string, GPS only
	Values map[string]float64 // column name to value
}

// Stream is a column-oriented table of samples for one sensor, sorted ascending by CTS.
type Stream struct {
	Type  StreamType
	CTS   []float64
	Dates []string // nil when the export has no date column

	names   []string
	columns map[string][]float64
}

func NewStream(t StreamType) *Stream {
	return &Stream{Type: t, columns: make(map[string][]float64)}
}

func (s *Stream) Len() int {
	return len(s.CTS)
}

// Columns returns column names in insertion order.
func (s *Stream) Columns() []string {
	return slices.Clone(s.names)
}

func (s *Stream) HasColumn(name string) bool {
	_, ok := s.columns[name]
	return ok
}

// Column returns the named column. The returned slice is shared with the stream.
func (s *Stream) Column(name string) ([]float64, bool) {
	col, ok := s.columns[name]
	return col, ok
}

// SetColumn adds or replaces a column. The value count must match the stream length.
func (s *Stream) SetColumn(name string, values []float64) error {
	if len(values) != len(s.CTS) {
		return fmt.Errorf("column %s: %d values for %d samples", name, len(values), len(s.CTS))
	}
	if _, ok := s.columns[name]; !ok {
		s.names = append(s.names, name)
	}
	s.columns[name] = values
	return nil
}

// Value returns the named column value of sample i.
func (s *Stream) Value(name string, i int) (float64, bool) {
	col, ok := s.columns[name]
	if !ok || i < 0 || i >= len(col) {
		return 0, false
	}
	return col[i], true
}

// Date returns the date string of sample i, or "" when the stream has no dates.
func (s *Stream) Date(i int) string {
	if i < 0 || i >= len(s.Dates) {
		return ""
	}
	return s.Dates[i]
}

// At returns sample i with a copy of every column value.
func (s *Stream) At(i int) Sample {
	values := make(map[string]float64, len(s.names))
	for _, name := range s.names {
		values[name] = s.columns[name][i]
	}
	return Sample{CTS: s.CTS[i], Date: s.Date(i), Values: values}
}

// IndexOf returns the position of the first sample with exactly the given CTS.
func (s *Stream) IndexOf(cts float64) int {
	i, found := slices.BinarySearch(s.CTS, cts)
	if !found {
		return -1
	}
	return i
}

func (s *Stream) appendRow(cts float64, date string, hasDate bool, names []string, fields []float64) {
	if len(s.CTS) == 0 {
		for _, name := range names {
			s.names = append(s.names, name)
			s.columns[name] = nil
		}
	}
	s.CTS = append(s.CTS, cts)
	if hasDate {
		s.Dates = append(s.Dates, date)
	}
	for k, name := range names {
		s.columns[name] = append(s.columns[name], fields[k])
	}
}

// byCTS sorts every column of the table together by CTS.
type byCTS struct{ *Stream }

func (b byCTS) Len() int           { return len(b.CTS) }
func (b byCTS) Less(i, j int) bool { return b.CTS[i] < b.CTS[j] }
func (b byCTS) Swap(i, j int) {
	b.CTS[i], b.CTS[j] = b.CTS[j], b.CTS[i]
	if b.Dates != nil {
		b.Dates[i], b.Dates[j] = b.Dates[j], b.Dates[i]
	}
	for _, col := range b.columns {
		col[i], col[j] = col[j], col[i]
	}
}
