package tagging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theohartsook/go-forth-and-measure/internal/telemetry"
)

func pix4dOptions() Options {
	return Options{
		NthFrame:           30,
		FPS:                30,
		FirstFrameNumber:   1,
		Numbering:          NumberingSource,
		GPSEnabled:         true,
		OrientationEnabled: true,
		HumanPerspective:   true,
		TargetTool:         ToolPix4D,
		NorthHem:           true,
		WestHem:            true,
		ConfigFile:         "pix4d.config",
	}
}

func TestOptionsValidate(t *testing.T) {
	minZ, maxZ := 10.0, 5.0

	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr bool
	}{
		{name: "valid", mutate: func(o *Options) {}},
		{name: "nth frame", mutate: func(o *Options) { o.NthFrame = 0 }, wantErr: true},
		{name: "fps", mutate: func(o *Options) { o.FPS = 0 }, wantErr: true},
		{name: "numbering", mutate: func(o *Options) { o.Numbering = "random" }, wantErr: true},
		{name: "target tool", mutate: func(o *Options) { o.TargetTool = "metashape" }, wantErr: true},
		{name: "orientation source", mutate: func(o *Options) { o.OrientationSource = "accl" }, wantErr: true},
		{name: "config file required", mutate: func(o *Options) { o.ConfigFile = "" }, wantErr: true},
		{
			name: "config file not required without orientation",
			mutate: func(o *Options) {
				o.ConfigFile = ""
				o.OrientationEnabled = false
			},
		},
		{
			name: "realitycapture needs output",
			mutate: func(o *Options) {
				o.TargetTool = ToolRealityCapture
				o.ConfigFile = ""
			},
			wantErr: true,
		},
		{
			name: "realitycapture sidecar",
			mutate: func(o *Options) {
				o.TargetTool = ToolRealityCapture
				o.RCOutput = OutputSidecar
				o.ConfigFile = ""
			},
		},
		{
			name: "flight log from gyro",
			mutate: func(o *Options) {
				o.TargetTool = ToolRealityCapture
				o.RCOutput = OutputFlightLog
				o.OrientationSource = SourceGyro
			},
			wantErr: true,
		},
		{
			name: "flight log without gps",
			mutate: func(o *Options) {
				o.TargetTool = ToolRealityCapture
				o.RCOutput = OutputFlightLog
				o.OrientationSource = SourceIORI
				o.GPSEnabled = false
			},
			wantErr: true,
		},
		{
			name: "nothing to tag",
			mutate: func(o *Options) {
				o.GPSEnabled = false
				o.OrientationEnabled = false
			},
			wantErr: true,
		},
		{
			name: "capture time without gps",
			mutate: func(o *Options) {
				o.GPSEnabled = false
				o.CaptureTime = true
			},
			wantErr: true,
		},
		{
			name: "inverted z range",
			mutate: func(o *Options) {
				o.MinZ, o.MaxZ = &minZ, &maxZ
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := pix4dOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOrientationStream(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want telemetry.StreamType
	}{
		{name: "pix4d default", opts: Options{TargetTool: ToolPix4D}, want: telemetry.StreamGYRO},
		{name: "pix4d iori", opts: Options{TargetTool: ToolPix4D, OrientationSource: SourceIORI}, want: telemetry.StreamIORI},
		{name: "pix4d cori", opts: Options{TargetTool: ToolPix4D, OrientationSource: SourceCORI}, want: telemetry.StreamCORI},
		{name: "sidecar", opts: Options{TargetTool: ToolRealityCapture, RCOutput: OutputSidecar, OrientationSource: SourceCORI}, want: telemetry.StreamGRAV},
		{name: "flight log default", opts: Options{TargetTool: ToolRealityCapture, RCOutput: OutputFlightLog}, want: telemetry.StreamIORI},
		{name: "flight log cori", opts: Options{TargetTool: ToolRealityCapture, RCOutput: OutputFlightLog, OrientationSource: SourceCORI}, want: telemetry.StreamCORI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.OrientationStream())
		})
	}
}

func TestRequiredStreams(t *testing.T) {
	opts := pix4dOptions()
	assert.Equal(t, []telemetry.StreamType{telemetry.StreamGPS, telemetry.StreamGYRO}, opts.RequiredStreams())

	opts.OrientationEnabled = false
	assert.Equal(t, []telemetry.StreamType{telemetry.StreamGPS}, opts.RequiredStreams())
}

func TestTagSetReplaces(t *testing.T) {
	var tags TagSet
	tags.Set(TagPitch, "1")
	tags.Set(TagRoll, "2")
	tags.Set(TagPitch, "3")

	want := []Tag{{Name: TagPitch, Value: "3"}, {Name: TagRoll, Value: "2"}}
	if diff := cmp.Diff(want, tags.Tags()); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestSetPositionHemispheres(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		alt      float64
		north    bool
		west     bool
		want     []Tag
	}{
		{
			name: "west magnitude",
			lat:  10, lon: 100, alt: 50,
			north: true, west: true,
			want: []Tag{
				{TagGPSLatitude, "10"}, {TagGPSLatitudeRef, RefNorth},
				{TagGPSLongitude, "100"}, {TagGPSLongitudeRef, RefWest},
				{TagGPSAltitude, "50"}, {TagGPSAltitudeRef, AltitudeAbove},
			},
		},
		{
			name: "signed input is not negated twice",
			lat:  -33.5, lon: -70.25, alt: -3,
			north: false, west: true,
			want: []Tag{
				{TagGPSLatitude, "33.5"}, {TagGPSLatitudeRef, RefSouth},
				{TagGPSLongitude, "70.25"}, {TagGPSLongitudeRef, RefWest},
				{TagGPSAltitude, "3"}, {TagGPSAltitudeRef, AltitudeBelow},
			},
		},
		{
			name: "east",
			lat:  48.1, lon: 11.5, alt: 520,
			north: true, west: false,
			want: []Tag{
				{TagGPSLatitude, "48.1"}, {TagGPSLatitudeRef, RefNorth},
				{TagGPSLongitude, "11.5"}, {TagGPSLongitudeRef, RefEast},
				{TagGPSAltitude, "520"}, {TagGPSAltitudeRef, AltitudeAbove},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tags TagSet
			tags.SetPosition(tt.lat, tt.lon, tt.alt, tt.north, tt.west)
			if diff := cmp.Diff(tt.want, tags.Tags()); diff != "" {
				t.Errorf("tags mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFrameCTS(t *testing.T) {
	source := Options{NthFrame: 30, FPS: 30, FirstFrameNumber: 1, Numbering: NumberingSource}
	sequential := Options{NthFrame: 30, FPS: 30, FirstFrameNumber: 1, Numbering: NumberingSequential}

	tests := []struct {
		name         string
		frame        string
		opts         Options
		want         float64
		wantLabelled bool
		wantErr      bool
	}{
		{name: "first frame", frame: "frame_000001.jpg", opts: source, want: 0},
		{name: "source numbering", frame: "frame_000031.jpg", opts: source, want: 1000},
		{name: "sequential numbering", frame: "frame_000002.jpg", opts: sequential, want: 1000},
		{name: "cts label", frame: "GX010001_frame_12_cts_1033.5.JPG", opts: source, want: 1033.5, wantLabelled: true},
		{name: "before first frame", frame: "frame_000000.jpg", opts: source, wantErr: true},
		{name: "no number", frame: "cover.jpg", opts: source, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cts, labelled, err := FrameCTS(tt.frame, tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, cts, 1e-9)
			assert.Equal(t, tt.wantLabelled, labelled)
		})
	}
}

func TestListFrames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame_000002.jpg", "frame_000001.JPG", "frame_000003.png", "notes.txt", "frame_000001.xmp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755))

	frames, err := ListFrames(dir, nil)
	require.NoError(t, err)

	var names []string
	for _, f := range frames {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"frame_000001.JPG", "frame_000002.jpg"}, names)

	frames, err = ListFrames(dir, []string{".png"})
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, filepath.Join(dir, "frame_000003.png"), frames[0].Path)
}

func TestCaptureTime(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		want    string
		wantErr bool
	}{
		{name: "javascript date", date: "Sat Oct 16 2021 18:32:10 GMT-0700 (Pacific Daylight Time)", want: "2021:10:16 18:32:10"},
		{name: "rfc3339", date: "2021-10-16T18:32:10.250Z", want: "2021:10:16 18:32:10"},
		{name: "empty", date: "", wantErr: true},
		{name: "garbage", date: "yesterday afternoon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CaptureTime(tt.date)
			if tt.wantErr {
				var tsErr *TimestampParseError
				assert.True(t, errors.As(err, &tsErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
