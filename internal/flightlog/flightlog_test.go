package flightlog

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	require.NoError(t, w.Write(Row{Image: "frame_0001.jpg", Latitude: 10.001, Longitude: -100.001, Altitude: 51, Yaw: 1.5, Pitch: 90, Roll: -2}))
	require.NoError(t, w.Write(Row{Image: "frame_0031.jpg", Latitude: 10.002, Longitude: -100.002, Altitude: 52}))
	require.NoError(t, w.Flush())

	assert.Equal(t, 2, w.Rows())
	assert.Equal(t,
		"Image,Latitude,Longitude,Altitude,Yaw,Pitch,Roll\n"+
			"frame_0001.jpg,10.001,-100.001,51,1.5,90,-2\n"+
			"frame_0031.jpg,10.002,-100.002,52,0,0,0\n",
		buf.String())
}

func TestSignedLongitude(t *testing.T) {
	tests := []struct {
		name string
		lon  float64
		west bool
		want float64
	}{
		{"west positive flipped", 100, true, -100},
		{"west already negative kept", -100, true, -100},
		{"east positive kept", 100, false, 100},
		{"east negative kept", -100, false, -100},
		{"zero", 0, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SignedLongitude(tt.lon, tt.west))
		})
	}

	assert.Equal(t, -10.0, SignedLatitude(10, false))
	assert.Equal(t, -10.0, SignedLatitude(-10, false))
	assert.Equal(t, 10.0, SignedLatitude(10, true))
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flightlog.csv")
	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(Row{Image: "a.jpg"}))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Image,Latitude,Longitude,Altitude,Yaw,Pitch,Roll\na.jpg,0,0,0,0,0,0\n", string(data))
}
