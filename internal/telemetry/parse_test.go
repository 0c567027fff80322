package telemetry

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gpsCSV = `value,cts,date
"10,-100,50,1.5,1.6",0,Sat Oct 16 2021 18:32:10 GMT-0700 (Pacific Daylight Time)
"10.001,-100.001,51,1.5,1.6",1000,Sat Oct 16 2021 18:32:11 GMT-0700 (Pacific Daylight Time)
"10.002,-100.002,52,1.5,1.6",2000,Sat Oct 16 2021 18:32:12 GMT-0700 (Pacific Daylight Time)
`

func TestParseGPS(t *testing.T) {
	s, err := Parse(strings.NewReader(gpsCSV), StreamGPS)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []float64{0, 1000, 2000}, s.CTS)
	assert.Equal(t, []string{ColLat, ColLon, ColElev, ColSpeed2D, ColSpeed3D}, s.Columns())

	lat, ok := s.Column(ColLat)
	require.True(t, ok)
	assert.Equal(t, []float64{10, 10.001, 10.002}, lat)

	elev, _ := s.Column(ColElev)
	assert.Equal(t, []float64{50, 51, 52}, elev)
	assert.True(t, strings.HasPrefix(s.Date(1), "Sat Oct 16 2021 18:32:11"))
}

func TestParseGPSWithoutSpeeds(t *testing.T) {
	in := "cts,value\n0,\"1,2,3\"\n10,\"4,5,6\"\n"
	s, err := Parse(strings.NewReader(in), StreamGPS)
	require.NoError(t, err)

	assert.Equal(t, []string{ColLat, ColLon, ColElev}, s.Columns())
	assert.Nil(t, s.Dates)
	assert.Equal(t, "", s.Date(0))
}

func TestParseFieldOrders(t *testing.T) {
	tests := []struct {
		name   string
		stream StreamType
		value  string
		want   map[string]float64
	}{
		{"gyro permuted", StreamGYRO, "1,2,3", map[string]float64{ColRY: 1, ColRX: 2, ColRZ: 3}},
		{"gravity x inverted", StreamGRAV, "0.1,0.2,0.97", map[string]float64{ColY: 0.1, ColX: -0.2, ColZ: 0.97}},
		{"quaternion z y swapped", StreamIORI, "1,2,3,4", map[string]float64{ColW: 1, ColX: 2, ColZ: 3, ColY: 4}},
		{"cori", StreamCORI, "1,0,0,0", map[string]float64{ColW: 1, ColX: 0, ColZ: 0, ColY: 0}},
		{"accelerometer", StreamACCL, "9.8,0.1,0.2", map[string]float64{ColAY: 9.8, ColAX: 0.1, ColAZ: 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := "value,cts\n\"" + tt.value + "\",5\n"
			s, err := Parse(strings.NewReader(in), tt.stream)
			require.NoError(t, err)
			require.Equal(t, 1, s.Len())

			got := s.At(0)
			assert.Equal(t, 5.0, got.CTS)
			if diff := cmp.Diff(tt.want, got.Values); diff != "" {
				t.Errorf("values mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMalformedRow(t *testing.T) {
	tests := []struct {
		name   string
		stream StreamType
		in     string
		row    int
	}{
		{"too few fields", StreamGYRO, "value,cts\n\"1,2,3\",0\n\"1,2\",1\n", 2},
		{"gps four fields", StreamGPS, "value,cts\n\"1,2,3,4\",0\n", 1},
		{"gps switches width", StreamGPS, "value,cts\n\"1,2,3\",0\n\"1,2,3,4,5\",1\n", 2},
		{"not a number", StreamACCL, "value,cts\n\"1,x,3\",0\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in), tt.stream)
			require.Error(t, err)

			var mre *MalformedRowError
			require.True(t, errors.As(err, &mre), "want MalformedRowError, got %v", err)
			assert.Equal(t, tt.row, mre.Row)
			assert.Equal(t, tt.stream, mre.Stream)
		})
	}
}

func TestParseMissingColumns(t *testing.T) {
	_, err := Parse(strings.NewReader("cts,foo\n0,1\n"), StreamGYRO)
	assert.ErrorContains(t, err, `no "value" column`)

	_, err = Parse(strings.NewReader("value,foo\n\"1,2,3\",1\n"), StreamGYRO)
	assert.ErrorContains(t, err, `no "cts" column`)
}

func TestParseEmpty(t *testing.T) {
	s, err := Parse(strings.NewReader(""), StreamGYRO)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	s, err = Parse(strings.NewReader("value,cts\n"), StreamGYRO)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestParseSortsByCTS(t *testing.T) {
	in := "value,cts\n\"3,3,3\",30\n\"1,1,1\",10\n\"2,2,2\",20\n"
	s, err := Parse(strings.NewReader(in), StreamACCL)
	require.NoError(t, err)

	assert.Equal(t, []float64{10, 20, 30}, s.CTS)
	ax, _ := s.Column(ColAX)
	assert.Equal(t, []float64{1, 2, 3}, ax)
	assert.Equal(t, 1, s.IndexOf(20))
	assert.Equal(t, -1, s.IndexOf(25))
}

func TestLoadMissingStream(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir, StreamGRAV)

	var mse *MissingStreamError
	require.True(t, errors.As(err, &mse))
	assert.Equal(t, StreamGRAV, mse.Stream)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWriteCleanRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "GPS.csv"), []byte(gpsCSV), 0o644))

	ok, size := Exists(dir, StreamGPS)
	require.True(t, ok)
	assert.Positive(t, size)

	s, err := Load(dir, StreamGPS)
	require.NoError(t, err)

	path, err := WriteClean(dir, s)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "clean", "GPS.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "cts,date,lat,lon,elev,speed_2d,speed_3d", lines[0])
	assert.True(t, strings.HasSuffix(lines[2], ",10.001,-100.001,51,1.5,1.6"))
}

func TestSetColumnLength(t *testing.T) {
	s, err := Parse(strings.NewReader("value,cts\n\"1,2,3\",0\n\"1,2,3\",1\n"), StreamGYRO)
	require.NoError(t, err)

	assert.Error(t, s.SetColumn("roll", []float64{1}))
	require.NoError(t, s.SetColumn("roll", []float64{1, 2}))
	assert.Contains(t, s.Columns(), "roll")

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s))
	assert.Contains(t, buf.String(), "cts,rY,rX,rZ,roll")
}

func TestParseStreamType(t *testing.T) {
	st, err := ParseStreamType(" iori ")
	require.NoError(t, err)
	assert.Equal(t, StreamIORI, st)
	assert.True(t, st.IsQuaternion())
	assert.Equal(t, "IORI.csv", st.FileName())

	_, err = ParseStreamType("MAGN")
	assert.Error(t, err)
}
