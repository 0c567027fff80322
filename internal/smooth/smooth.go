// Package smooth conditions telemetry columns: noise smoothing and elevation rescaling.
// Every operation keeps the number of samples and their timestamps unchanged.
package smooth

import (
	"errors"
	"fmt"
	"math"

	"github.com/theohartsook/go-forth-and-measure/internal/telemetry"
)

const (
	MethodNone          Method = ""
	MethodMovingAverage Method = "moving_average"
	MethodSavitzkyGolay Method = "savgol"
)

var validMethods = map[Method]struct{}{
	MethodNone:          {},
	MethodMovingAverage: {},
	MethodSavitzkyGolay: {},
}

// ErrDegenerateRange is returned when a rescale is asked of a column whose values are all equal.
var ErrDegenerateRange = errors.New("degenerate value range")

type Method string

func (m Method) String() string {
	return string(m)
}

func (m Method) Validate() error {
	if _, ok := validMethods[m]; !ok {
		return fmt.Errorf("smooth.Method: unknown method: %s", string(m))
	}
	return nil
}

// Smoother smooths a single column. Implementations return a new slice of the same length.
type Smoother interface {
	Smooth(values []float64) []float64
}

// Config selects and parameterises a smoothing policy.
type Config struct {
	Method        Method  `yaml:"method" json:"method"`
	WindowSeconds float64 `yaml:"windowSeconds" json:"windowSeconds"` // moving average window
	SampleRateHz  float64 `yaml:"sampleRateHz" json:"sampleRateHz"`   // 0 derives the rate from the stream
	WindowLength  int     `yaml:"windowLength" json:"windowLength"`   // savgol window in samples, odd
	PolyOrder     int     `yaml:"polyOrder" json:"polyOrder"`         // savgol polynomial order
}

func (c *Config) Validate() error {
	if err := c.Method.Validate(); err != nil {
		return fmt.Errorf("smooth.Config: %w", err)
	}

	switch c.Method {
	case MethodMovingAverage:
		if c.WindowSeconds <= 0 {
			return fmt.Errorf("smooth.Config: window seconds must be positive: %g", c.WindowSeconds)
		}
		if c.SampleRateHz < 0 {
			return fmt.Errorf("smooth.Config: sample rate must not be negative: %g", c.SampleRateHz)
		}

	case MethodSavitzkyGolay:
		if c.WindowLength < 3 || c.WindowLength%2 == 0 {
			return fmt.Errorf("smooth.Config: window length must be odd and at least 3: %d", c.WindowLength)
		}
		if c.PolyOrder < 0 || c.PolyOrder >= c.WindowLength {
			return fmt.Errorf("smooth.Config: polynomial order must be in [0, %d): %d", c.WindowLength, c.PolyOrder)
		}
	}

	return nil
}

// SmootherFor builds the configured smoother for a stream. A nil Smoother means no smoothing.
func (c *Config) SmootherFor(s *telemetry.Stream) (Smoother, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	switch c.Method {
	case MethodMovingAverage:
		rate := c.SampleRateHz
		if rate == 0 {
			rate = SampleRate(s.CTS)
		}
		return MovingAverage{Window: WindowSamples(c.WindowSeconds, rate)}, nil

	case MethodSavitzkyGolay:
		return NewSavitzkyGolay(c.WindowLength, c.PolyOrder)
	}

	return nil, nil
}

// SampleRate estimates the sampling frequency in Hz from millisecond timestamps.
func SampleRate(cts []float64) float64 {
	if len(cts) < 2 {
		return 0
	}
	span := cts[len(cts)-1] - cts[0]
	if span <= 0 {
		return 0
	}
	return float64(len(cts)-1) / (span / 1000)
}

// WindowSamples converts a window duration into a sample count, never less than one.
func WindowSamples(seconds, rateHz float64) int {
	n := int(math.Round(seconds * rateHz))
	if n < 1 {
		return 1
	}
	return n
}

// Columns applies the smoother to each named column of the stream in place.
// Columns the stream does not carry are skipped.
func Columns(s *telemetry.Stream, sm Smoother, names ...string) error {
	if sm == nil {
		return nil
	}
	if len(names) == 0 {
		names = s.Columns()
	}

	for _, name := range names {
		col, ok := s.Column(name)
		if !ok {
			continue
		}
		if err := s.SetColumn(name, sm.Smooth(col)); err != nil {
			return fmt.Errorf("smoothing %s.%s: %w", s.Type, name, err)
		}
	}
	return nil
}
