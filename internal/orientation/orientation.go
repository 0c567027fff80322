// Package orientation converts camera orientation telemetry into the angles
// photogrammetry tools expect.
//
// Quaternions use gonum's quat.Number with Real as w and Imag, Jmag, Kmag as x, y, z.
// Euler angles follow the aerospace ZYX convention and are in radians unless a
// function says otherwise.
package orientation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"

	"github.com/theohartsook/go-forth-and-measure/internal/telemetry"
)

// gimbalEpsilon absorbs rounding in the pitch sine so a quaternion at exactly ±90°
// pitch lands on ±π/2 after renormalisation.
const gimbalEpsilon = 1e-12

// Euler is a roll, pitch, yaw triple.
type Euler struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

// Degrees returns the triple converted from radians to degrees.
func (e Euler) Degrees() Euler {
	return Euler{Roll: deg(e.Roll), Pitch: deg(e.Pitch), Yaw: deg(e.Yaw)}
}

func (e Euler) String() string {
	return fmt.Sprintf("roll=%.6f pitch=%.6f yaw=%.6f", e.Roll, e.Pitch, e.Yaw)
}

// Normalize scales q to unit length. A zero quaternion is returned unchanged.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 || n == 1 {
		return q
	}
	return quat.Scale(1/n, q)
}

// ToEuler converts q to roll, pitch and yaw. The quaternion is renormalised first.
// Pitch saturates at ±π/2 when the sine leaves [-1, 1]. With humanPerspective the
// pitch is offset by +π/2 to turn the sensor-relative angle into a forward-facing one.
func ToEuler(q quat.Number, humanPerspective bool) Euler {
	q = Normalize(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	var pitch float64
	sinp := 2 * (w*y - z*x)
	if math.Abs(sinp) >= 1-gimbalEpsilon {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}
	if humanPerspective {
		pitch += math.Pi / 2
	}

	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return Euler{Roll: roll, Pitch: pitch, Yaw: yaw}
}

// FromEuler builds the unit quaternion for a ZYX roll, pitch, yaw triple.
func FromEuler(e Euler) quat.Number {
	cr, sr := math.Cos(e.Roll/2), math.Sin(e.Roll/2)
	cp, sp := math.Cos(e.Pitch/2), math.Sin(e.Pitch/2)
	cy, sy := math.Cos(e.Yaw/2), math.Sin(e.Yaw/2)

	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// RemapGyroPix4D maps gyro axes onto Pix4D's camera angles, in degrees:
// pitch from rX plus 90, roll from rY and yaw from rZ.
func RemapGyroPix4D(rX, rY, rZ float64) Euler {
	return Euler{
		Roll:  deg(rY),
		Pitch: deg(rX) + 90,
		Yaw:   deg(rZ),
	}
}

// ConvertStream adds roll, pitch and yaw columns to a quaternion stream. The
// quaternion columns are left untouched.
func ConvertStream(s *telemetry.Stream, humanPerspective bool) error {
	if !s.Type.IsQuaternion() {
		return fmt.Errorf("stream %s does not carry quaternions", s.Type)
	}

	var cols [4][]float64
	for k, name := range []string{telemetry.ColW, telemetry.ColX, telemetry.ColY, telemetry.ColZ} {
		col, ok := s.Column(name)
		if !ok {
			return fmt.Errorf("stream %s has no %s column", s.Type, name)
		}
		cols[k] = col
	}

	n := s.Len()
	roll, pitch, yaw := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		e := ToEuler(quat.Number{Real: cols[0][i], Imag: cols[1][i], Jmag: cols[2][i], Kmag: cols[3][i]}, humanPerspective)
		roll[i], pitch[i], yaw[i] = e.Roll, e.Pitch, e.Yaw
	}

	if err := s.SetColumn(telemetry.ColRoll, roll); err != nil {
		return err
	}
	if err := s.SetColumn(telemetry.ColPitch, pitch); err != nil {
		return err
	}
	return s.SetColumn(telemetry.ColYaw, yaw)
}

func deg(rad float64) float64 {
	return rad * 180 / math.Pi
}
