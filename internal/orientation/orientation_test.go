package orientation

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"

	"github.com/theohartsook/go-forth-and-measure/internal/telemetry"
)

func TestEulerRoundTrip(t *testing.T) {
	tests := []Euler{
		{0, 0, 0},
		{0.1, 0.2, 0.3},
		{-1.2, 0.7, 2.9},
		{3.0, -1.4, -3.0},
		{0.5, 1.5, -0.25},
	}

	for _, want := range tests {
		t.Run(want.String(), func(t *testing.T) {
			got := ToEuler(FromEuler(want), false)
			assert.InDelta(t, want.Roll, got.Roll, 1e-6)
			assert.InDelta(t, want.Pitch, got.Pitch, 1e-6)
			assert.InDelta(t, want.Yaw, got.Yaw, 1e-6)
		})
	}
}

func TestToEulerGimbalLock(t *testing.T) {
	h := math.Sqrt2 / 2

	up := ToEuler(quat.Number{Real: h, Jmag: h}, false)
	assert.Equal(t, math.Pi/2, up.Pitch)

	down := ToEuler(quat.Number{Real: h, Jmag: -h}, false)
	assert.Equal(t, -math.Pi/2, down.Pitch)

	human := ToEuler(quat.Number{Real: h, Jmag: h}, true)
	assert.Equal(t, math.Pi, human.Pitch)

	// an over-length quaternion pushes the raw sine past 1 before renormalisation
	assert.Equal(t, math.Pi/2, ToEuler(quat.Number{Real: 2, Jmag: 2}, false).Pitch)
	assert.Equal(t, math.Pi/2, ToEuler(FromEuler(Euler{Pitch: math.Pi / 2}), false).Pitch)
}

func TestToEulerHumanPerspectiveOffset(t *testing.T) {
	q := FromEuler(Euler{Roll: 0.1, Pitch: -0.3, Yaw: 0.2})
	sensor := ToEuler(q, false)
	human := ToEuler(q, true)

	assert.InDelta(t, sensor.Pitch+math.Pi/2, human.Pitch, 1e-12)
	assert.Equal(t, sensor.Roll, human.Roll)
	assert.Equal(t, sensor.Yaw, human.Yaw)
}

func TestToEulerRenormalises(t *testing.T) {
	q := FromEuler(Euler{Roll: 0.4, Pitch: 0.1, Yaw: -0.6})
	scaled := quat.Scale(3.5, q)

	a, b := ToEuler(q, false), ToEuler(scaled, false)
	assert.InDelta(t, a.Roll, b.Roll, 1e-12)
	assert.InDelta(t, a.Pitch, b.Pitch, 1e-12)
	assert.InDelta(t, a.Yaw, b.Yaw, 1e-12)
	assert.InDelta(t, 1, quat.Abs(Normalize(scaled)), 1e-12)
}

func TestRemapGyroPix4D(t *testing.T) {
	got := RemapGyroPix4D(math.Pi/2, math.Pi, -math.Pi/4)
	assert.InDelta(t, 180, got.Pitch, 1e-12)
	assert.InDelta(t, 180, got.Roll, 1e-12)
	assert.InDelta(t, -45, got.Yaw, 1e-12)
}

func TestDegrees(t *testing.T) {
	got := Euler{Roll: math.Pi, Pitch: math.Pi / 2, Yaw: -math.Pi}.Degrees()
	assert.InDelta(t, 180, got.Roll, 1e-12)
	assert.InDelta(t, 90, got.Pitch, 1e-12)
	assert.InDelta(t, -180, got.Yaw, 1e-12)
}

func TestConvertStream(t *testing.T) {
	// packed order is w, x, z, y
	in := "value,cts\n\"1,0,0,0\",0\n\"0.7071067811865476,0,0,0.7071067811865476\",10\n"
	s, err := telemetry.Parse(strings.NewReader(in), telemetry.StreamIORI)
	require.NoError(t, err)

	require.NoError(t, ConvertStream(s, true))
	assert.Equal(t, []string{"w", "x", "z", "y", "roll", "pitch", "yaw"}, s.Columns())

	pitch, _ := s.Column(telemetry.ColPitch)
	assert.InDelta(t, math.Pi/2, pitch[0], 1e-12)
	assert.Equal(t, math.Pi, pitch[1])

	y, _ := s.Column(telemetry.ColY)
	assert.Equal(t, []float64{0, 0.7071067811865476}, y)
}

func TestConvertStreamRejectsNonQuaternion(t *testing.T) {
	s := telemetry.NewStream(telemetry.StreamGYRO)
	assert.Error(t, ConvertStream(s, true))
}
