package tagging

import (
	"fmt"

	"github.com/theohartsook/go-forth-and-measure/internal/telemetry"
)

const (
	ToolPix4D          TargetTool = "pix4d"
	ToolRealityCapture TargetTool = "realitycapture"

	OutputSidecar   RCOutput = "sidecar"
	OutputFlightLog RCOutput = "flightlog"

	SourceDefault OrientationSource = ""
	SourceGyro    OrientationSource = "gyro"
	SourceIORI    OrientationSource = "iori"
	SourceCORI    OrientationSource = "cori"

	// NumberingSource means frame numbers are source-video frame numbers.
	NumberingSource Numbering = "source"
	// NumberingSequential means frame numbers count extracted frames, one per nth source frame.
	NumberingSequential Numbering = "sequential"
)

var (
	validTools        = map[TargetTool]struct{}{ToolPix4D: {}, ToolRealityCapture: {}}
	validOutputs      = map[RCOutput]struct{}{OutputSidecar: {}, OutputFlightLog: {}}
	validSources      = map[OrientationSource]struct{}{SourceDefault: {}, SourceGyro: {}, SourceIORI: {}, SourceCORI: {}}
	validNumberings   = map[Numbering]struct{}{NumberingSource: {}, NumberingSequential: {}}
	defaultExtensions = []string{".jpg", ".jpeg"}
)

// TargetTool is the downstream photogrammetry tool the tags are produced for.
type TargetTool string

// RCOutput selects how RealityCapture receives the tags.
type RCOutput string

// OrientationSource selects the telemetry stream orientation tags come from.
type OrientationSource string

// Numbering tells how a frame's file number relates to the source video frame.
type Numbering string

// Options is the pipeline configuration handed to the tagging core. It is passed
// and stored by value and never modified after construction.
type Options struct {
	NthFrame         int     // sampling stride in source frames
	FPS              float64 // source video frames per second
	FirstFrameNumber int     // number of the first extracted frame file
	Numbering        Numbering

	RescaleZ bool
	MinZ     *float64 // nil defaults to mean elevation - 1
	MaxZ     *float64 // nil defaults to mean elevation + 1

	GPSEnabled         bool
	OrientationEnabled bool
	OrientationSource  OrientationSource
	HumanPerspective   bool // +90° pitch on quaternion-derived angles
	CaptureTime        bool // DateTimeOriginal from the GPS date column

	TargetTool TargetTool
	RCOutput   RCOutput

	NorthHem bool
	WestHem  bool

	ConfigFile string // exiftool tag-schema config, required for embedded orientation tags
}

func (o Options) Validate() error {
	if o.NthFrame < 1 {
		return fmt.Errorf("tagging.Options: nth frame must be at least 1: %d", o.NthFrame)
	}
	if o.FPS <= 0 {
		return fmt.Errorf("tagging.Options: fps must be positive: %g", o.FPS)
	}
	if o.FirstFrameNumber < 0 {
		return fmt.Errorf("tagging.Options: first frame number must not be negative: %d", o.FirstFrameNumber)
	}
	if _, ok := validNumberings[o.Numbering]; !ok {
		return fmt.Errorf("tagging.Options: invalid frame numbering: %s", o.Numbering)
	}
	if _, ok := validTools[o.TargetTool]; !ok {
		return fmt.Errorf("tagging.Options: invalid target tool: %s", o.TargetTool)
	}
	if o.TargetTool == ToolRealityCapture {
		if _, ok := validOutputs[o.RCOutput]; !ok {
			return fmt.Errorf("tagging.Options: invalid RealityCapture output: %s", o.RCOutput)
		}
	}
	if _, ok := validSources[o.OrientationSource]; !ok {
		return fmt.Errorf("tagging.Options: invalid orientation source: %s", o.OrientationSource)
	}
	if o.TargetTool == ToolRealityCapture && o.RCOutput == OutputFlightLog && o.OrientationSource == SourceGyro {
		return fmt.Errorf("tagging.Options: flight log orientation needs a quaternion source, not %s", SourceGyro)
	}
	if o.UsesFlightLog() && !o.GPSEnabled {
		return fmt.Errorf("tagging.Options: flight log rows need GPS positions, enable GPS tagging")
	}
	if !o.GPSEnabled && !o.OrientationEnabled && !o.CaptureTime {
		return fmt.Errorf("tagging.Options: nothing to tag, GPS, orientation and capture time are all disabled")
	}
	if o.CaptureTime && !o.GPSEnabled {
		return fmt.Errorf("tagging.Options: capture time is read from the GPS stream, enable GPS tagging")
	}
	if o.MinZ != nil && o.MaxZ != nil && *o.MinZ > *o.MaxZ {
		return fmt.Errorf("tagging.Options: min z %g is above max z %g", *o.MinZ, *o.MaxZ)
	}
	if o.EmbedsOrientation() && o.ConfigFile == "" {
		return fmt.Errorf("tagging.Options: config file is required to embed orientation tags")
	}
	return nil
}

// EmbedsOrientation reports whether orientation tags are written into the frame itself.
func (o Options) EmbedsOrientation() bool {
	return o.OrientationEnabled && o.TargetTool == ToolPix4D
}

// UsesMetadataWriter reports whether frames are modified in place.
func (o Options) UsesMetadataWriter() bool {
	return o.TargetTool == ToolPix4D
}

func (o Options) UsesSidecar() bool {
	return o.TargetTool == ToolRealityCapture && o.RCOutput == OutputSidecar
}

func (o Options) UsesFlightLog() bool {
	return o.TargetTool == ToolRealityCapture && o.RCOutput == OutputFlightLog
}

// OrientationStream is the telemetry stream orientation tags are matched against.
// Sidecars always carry the gravity vector.
func (o Options) OrientationStream() telemetry.StreamType {
	switch {
	case o.UsesSidecar():
		return telemetry.StreamGRAV
	case o.OrientationSource == SourceIORI:
		return telemetry.StreamIORI
	case o.OrientationSource == SourceCORI:
		return telemetry.StreamCORI
	case o.UsesFlightLog():
		return telemetry.StreamIORI
	default:
		return telemetry.StreamGYRO
	}
}

// RequiredStreams lists the streams the options will match against.
func (o Options) RequiredStreams() []telemetry.StreamType {
	var streams []telemetry.StreamType
	if o.GPSEnabled {
		streams = append(streams, telemetry.StreamGPS)
	}
	if o.OrientationEnabled {
		streams = append(streams, o.OrientationStream())
	}
	return streams
}
