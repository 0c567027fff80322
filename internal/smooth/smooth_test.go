package smooth

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theohartsook/go-forth-and-measure/internal/telemetry"
)

func TestMovingAverage(t *testing.T) {
	tests := []struct {
		name   string
		window int
		in     []float64
		want   []float64
	}{
		{"spike", 3, []float64{0, 0, 3, 0, 0}, []float64{0, 1, 1, 1, 0}},
		{"linear interior preserved", 5, []float64{1, 2, 3, 4, 5, 6}, []float64{2, 2.5, 3, 4, 4.5, 5}},
		{"window of one", 1, []float64{4, 8, 1}, []float64{4, 8, 1}},
		{"window larger than series", 99, []float64{2, 4, 6}, []float64{4, 4, 4}},
		{"even window of two", 2, []float64{0, 0, 0, 6, 0, 0, 0}, []float64{0, 0, 3, 3, 0, 0, 0}},
		{"even window of four", 4, []float64{0, 0, 0, 6, 0, 0, 0}, []float64{0, 1.5, 1.5, 1.5, 1.5, 0, 0}},
		{"edges smoothed", 5, []float64{10, 0, 0, 0, 0, 0, 10}, []float64{10.0 / 3, 2.5, 2, 0, 2, 2.5, 10.0 / 3}},
		{"empty", 3, nil, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MovingAverage{Window: tt.window}.Smooth(tt.in)
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestSavitzkyGolayPreservesPolynomials(t *testing.T) {
	sg, err := NewSavitzkyGolay(7, 2)
	require.NoError(t, err)

	in := make([]float64, 20)
	for i := range in {
		x := float64(i)
		in[i] = 0.5*x*x - 3*x + 2
	}

	got := sg.Smooth(in)
	require.Len(t, got, len(in))
	assert.InDeltaSlice(t, in, got, 1e-8)
}

func TestSavitzkyGolayReducesNoise(t *testing.T) {
	sg, err := NewSavitzkyGolay(11, 3)
	require.NoError(t, err)

	in := make([]float64, 200)
	for i := range in {
		noise := 0.5
		if i%2 == 0 {
			noise = -0.5
		}
		in[i] = math.Sin(float64(i)/30) + noise
	}

	got := sg.Smooth(in)
	require.Len(t, got, len(in))

	var rawErr, smoothErr float64
	for i := range in {
		truth := math.Sin(float64(i) / 30)
		rawErr += math.Abs(in[i] - truth)
		smoothErr += math.Abs(got[i] - truth)
	}
	assert.Less(t, smoothErr, rawErr/2)
}

func TestSavitzkyGolayShortSeries(t *testing.T) {
	sg, err := NewSavitzkyGolay(11, 3)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2}, sg.Smooth([]float64{1, 2}))
	assert.InDeltaSlice(t, []float64{1, 2, 3, 4, 5}, sg.Smooth([]float64{1, 2, 3, 4, 5}), 1e-9)
	assert.Empty(t, sg.Smooth(nil))
}

func TestNewSavitzkyGolayValidation(t *testing.T) {
	_, err := NewSavitzkyGolay(4, 2)
	assert.Error(t, err)
	_, err = NewSavitzkyGolay(5, 5)
	assert.Error(t, err)
	_, err = NewSavitzkyGolay(1, 0)
	assert.Error(t, err)
}

func TestRescale(t *testing.T) {
	got, err := Rescale([]float64{100, 150, 200}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 10.0, got[2])
	assert.InDelta(t, 5.0, got[1], 1e-12)

	got, err = Rescale([]float64{7, 7, 7}, 0, 10)
	assert.True(t, errors.Is(err, ErrDegenerateRange))
	assert.Equal(t, []float64{7, 7, 7}, got)
}

func loadGPS(t *testing.T) *telemetry.Stream {
	t.Helper()
	in := "value,cts\n\"10,-100,50\",0\n\"10.5,-100.5,60\",100\n\"11,-101,55\",200\n\"11.5,-101.5,52\",300\n\"12,-102,58\",400\n"
	s, err := telemetry.Parse(strings.NewReader(in), telemetry.StreamGPS)
	require.NoError(t, err)
	return s
}

func TestRescaleElevation(t *testing.T) {
	s := loadGPS(t)
	lo, hi := 0.0, 100.0
	require.NoError(t, RescaleElevation(s, &lo, &hi))

	elev, _ := s.Column(telemetry.ColElev)
	assert.Equal(t, 0.0, minOf(elev))
	assert.Equal(t, 100.0, maxOf(elev))
	assert.Equal(t, []float64{0, 100, 200, 300, 400}, s.CTS)
}

func TestRescaleElevationDefaults(t *testing.T) {
	s := loadGPS(t)
	require.NoError(t, RescaleElevation(s, nil, nil))

	elev, _ := s.Column(telemetry.ColElev)
	assert.InDelta(t, 54, minOf(elev), 1e-12)
	assert.InDelta(t, 56, maxOf(elev), 1e-12)
}

func TestColumnsKeepsAlignment(t *testing.T) {
	s := loadGPS(t)
	before := append([]float64(nil), s.CTS...)

	cfg := Config{Method: MethodMovingAverage, WindowSeconds: 0.3}
	sm, err := cfg.SmootherFor(s)
	require.NoError(t, err)
	assert.Equal(t, MovingAverage{Window: 3}, sm)

	require.NoError(t, Columns(s, sm, telemetry.ColLat, telemetry.ColLon, "missing"))
	assert.Equal(t, before, s.CTS)

	lat, _ := s.Column(telemetry.ColLat)
	assert.Len(t, lat, s.Len())
	assert.InDeltaSlice(t, []float64{10.25, 10.5, 11, 11.5, 11.75}, lat, 1e-12)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"none", Config{}, false},
		{"moving average", Config{Method: MethodMovingAverage, WindowSeconds: 1}, false},
		{"moving average zero window", Config{Method: MethodMovingAverage}, true},
		{"savgol", Config{Method: MethodSavitzkyGolay, WindowLength: 11, PolyOrder: 3}, false},
		{"savgol even window", Config{Method: MethodSavitzkyGolay, WindowLength: 10, PolyOrder: 3}, true},
		{"unknown", Config{Method: "kalman"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSampleRate(t *testing.T) {
	assert.InDelta(t, 10.0, SampleRate([]float64{0, 100, 200, 300}), 1e-9)
	assert.Equal(t, 0.0, SampleRate([]float64{5}))
	assert.Equal(t, 5, WindowSamples(0.5, 10))
	assert.Equal(t, 1, WindowSamples(0.01, 10))
}

func minOf(v []float64) float64 {
	m := v[0]
	for _, x := range v {
		m = min(m, x)
	}
	return m
}

func maxOf(v []float64) float64 {
	m := v[0]
	for _, x := range v {
		m = max(m, x)
	}
	return m
}
