package smooth

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/theohartsook/go-forth-and-measure/internal/telemetry"
)

// Rescale maps values linearly from their observed [min, max] onto [lo, hi]. When all
// values are equal the constant is kept and ErrDegenerateRange is returned with it.
func Rescale(values []float64, lo, hi float64) ([]float64, error) {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out, nil
	}

	vmin, vmax := floats.Min(values), floats.Max(values)
	if vmin == vmax {
		for i := range out {
			out[i] = vmin
		}
		return out, ErrDegenerateRange
	}

	scale := (hi - lo) / (vmax - vmin)
	for i, v := range values {
		switch v {
		case vmin:
			out[i] = lo
		case vmax:
			out[i] = hi
		default:
			out[i] = lo + (v-vmin)*scale
		}
	}
	return out, nil
}

// RescaleElevation rescales the stream's elevation column in place. Unset bounds
// default to one meter below and above the mean elevation.
func RescaleElevation(s *telemetry.Stream, minZ, maxZ *float64) error {
	elev, ok := s.Column(telemetry.ColElev)
	if !ok {
		return fmt.Errorf("stream %s has no %s column", s.Type, telemetry.ColElev)
	}
	if len(elev) == 0 {
		return nil
	}

	mean := stat.Mean(elev, nil)
	lo, hi := mean-1, mean+1
	if minZ != nil {
		lo = *minZ
	}
	if maxZ != nil {
		hi = *maxZ
	}

	out, rescaleErr := Rescale(elev, lo, hi)
	if err := s.SetColumn(telemetry.ColElev, out); err != nil {
		return err
	}
	if rescaleErr != nil {
		return fmt.Errorf("rescaling %s.%s to [%g, %g]: %w", s.Type, telemetry.ColElev, lo, hi, rescaleErr)
	}
	return nil
}
