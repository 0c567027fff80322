package tagging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/golang/geo/r3"

	"github.com/theohartsook/go-forth-and-measure/internal/flightlog"
	"github.com/theohartsook/go-forth-and-measure/internal/match"
	"github.com/theohartsook/go-forth-and-measure/internal/orientation"
	"github.com/theohartsook/go-forth-and-measure/internal/sidecar"
	"github.com/theohartsook/go-forth-and-measure/internal/telemetry"
)

const (
	stepMetadata  = "writing metadata"
	stepSidecar   = "writing sidecar"
	stepFlightLog = "writing flight log row"

	outputMetadata  = "metadata"
	outputFlightLog = "flightlog"
)

// MetadataWriter writes tags into the embedded metadata of a frame, in place.
type MetadataWriter interface {
	ApplyTags(ctx context.Context, path string, tags TagSet) error
}

// SidecarWriter stores a sidecar record next to a frame and returns its path.
type SidecarWriter interface {
	Write(framePath string, rec sidecar.Record) (string, error)
}

// FlightLogWriter appends one row per frame to a flight log.
type FlightLogWriter interface {
	Write(row flightlog.Row) error
}

// Recorder receives every frame result once the frame is done, tagged or not.
type Recorder interface {
	RecordFrame(ctx context.Context, res FrameResult) error
}

func WithMetadataWriter(w MetadataWriter) func(s *Synthesizer) {
	return func(s *Synthesizer) {
		s.metadata = w
	}
}

func WithSidecarWriter(w SidecarWriter) func(s *Synthesizer) {
	return func(s *Synthesizer) {
		s.sidecars = w
	}
}

func WithFlightLog(w FlightLogWriter) func(s *Synthesizer) {
	return func(s *Synthesizer) {
		s.flightLog = w
	}
}

func WithRecorder(r Recorder) func(s *Synthesizer) {
	return func(s *Synthesizer) {
		s.recorder = r
	}
}

func WithLogger(logger *slog.Logger) func(s *Synthesizer) {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// WithExtensions overrides the image extensions considered frames.
func WithExtensions(exts ...string) func(s *Synthesizer) {
	return func(s *Synthesizer) {
		s.extensions = exts
	}
}

// Synthesizer turns matched telemetry into tags, sidecars or flight-log rows, one
// frame at a time. Streams are read only once construction is done.
type Synthesizer struct {
	opts Options

	gps           *telemetry.Stream
	orient        *telemetry.Stream
	orientType    telemetry.StreamType
	orientMissing string

	metadata  MetadataWriter
	sidecars  SidecarWriter
	flightLog FlightLogWriter
	recorder  Recorder

	extensions []string
	logger     *slog.Logger
}

// NewSynthesizer validates opts against the loaded streams and the configured
// collaborators. A missing GPS stream is fatal when GPS tagging is enabled; a missing
// orientation stream is logged and every frame is then tagged without orientation.
// Quaternion streams without Euler columns are converted in place.
func NewSynthesizer(opts Options, streams map[telemetry.StreamType]*telemetry.Stream, options ...func(s *Synthesizer)) (*Synthesizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	s := &Synthesizer{
		opts:       opts,
		extensions: defaultExtensions,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(s)
	}

	switch {
	case opts.UsesMetadataWriter() && s.metadata == nil:
		return nil, errors.New("tagging: metadata writer is required for " + string(opts.TargetTool))
	case opts.UsesSidecar() && s.sidecars == nil:
		return nil, errors.New("tagging: sidecar writer is required for sidecar output")
	case opts.UsesFlightLog() && s.flightLog == nil:
		return nil, errors.New("tagging: flight log writer is required for flight log output")
	}

	if opts.GPSEnabled {
		gps, ok := streams[telemetry.StreamGPS]
		if !ok || gps == nil {
			return nil, &telemetry.MissingStreamError{Stream: telemetry.StreamGPS}
		}
		for _, col := range []string{telemetry.ColLat, telemetry.ColLon, telemetry.ColElev} {
			if gps.Len() > 0 && !gps.HasColumn(col) {
				return nil, fmt.Errorf("tagging: GPS stream has no %s column", col)
			}
		}
		s.gps = gps
	}

	if opts.OrientationEnabled {
		s.orientType = opts.OrientationStream()
		stream, ok := streams[s.orientType]
		if !ok || stream == nil {
			s.orientMissing = fmt.Sprintf("orientation stream %s missing", s.orientType)
			s.logger.Warn("Frames will be tagged without orientation", slog.String("stream", s.orientType.String()))
		} else {
			if s.orientType.IsQuaternion() && stream.Len() > 0 && !stream.HasColumn(telemetry.ColRoll) {
				if err := orientation.ConvertStream(stream, opts.HumanPerspective); err != nil {
					return nil, fmt.Errorf("converting %s to euler angles: %w", s.orientType, err)
				}
			}
			s.orient = stream
		}
	}

	return s, nil
}

// TagDir tags every frame of dir in name order. Per-frame failures are collected in
// the report and never stop the batch; the returned error is reserved for conditions
// that affect every frame: an unreadable or empty directory, or cancellation.
func (s *Synthesizer) TagDir(ctx context.Context, dir string) (*Report, error) {
	frames, err := ListFrames(dir, s.extensions)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFrames, dir)
	}

	s.logger.Info("Tagging frames", slog.String("dir", dir), slog.Int("frames", len(frames)))

	report := &Report{}
	for _, frame := range frames {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := s.TagFrame(ctx, frame)
		report.add(res)

		switch res.Status() {
		case StatusFailed:
			s.logger.Warn("Frame not tagged",
				slog.String("frame", res.Frame),
				slog.String("state", res.State.String()),
				slog.String("error", res.Err.Error()))
		case StatusPartial:
			for _, w := range res.Warnings {
				s.logger.Warn("Frame partially tagged", slog.String("frame", res.Frame), slog.String("reason", w))
			}
		default:
			s.logger.Debug("Frame tagged", slog.String("frame", res.Frame), slog.Float64("cts", res.CTS))
		}

		if s.recorder != nil {
			if err := s.recorder.RecordFrame(ctx, res); err != nil {
				s.logger.Warn("Unable to record frame result", slog.String("frame", res.Frame), slog.String("error", err.Error()))
			}
		}
	}

	return report, nil
}

// TagFrame runs one frame through Start, GPSMatched, OrientationMatched and Emitted.
// The result holds the furthest state reached and the error that stopped it, if any.
func (s *Synthesizer) TagFrame(ctx context.Context, frame Frame) FrameResult {
	res := FrameResult{Frame: frame.Name, Path: frame.Path, State: StateStart}

	cts, _, err := FrameCTS(frame.Name, s.opts)
	if err != nil {
		res.Err = err
		return res
	}
	res.CTS = cts

	if s.opts.GPSEnabled {
		if err := s.matchGPS(&res); err != nil {
			res.Err = err
			return res
		}
		res.State = StateGPSMatched
	}

	if s.opts.OrientationEnabled {
		if s.orient == nil {
			res.warn(s.orientMissing)
		} else {
			if err := s.matchOrientation(&res); err != nil {
				res.Err = err
				return res
			}
			res.State = StateOrientationMatched
		}
	}

	switch {
	case s.opts.UsesMetadataWriter():
		err = s.emitMetadata(ctx, &res)
	case s.opts.UsesSidecar():
		err = s.emitSidecar(&res)
	case s.opts.UsesFlightLog():
		err = s.emitFlightLog(&res)
	}
	if err != nil {
		res.Err = err
		return res
	}

	res.State = StateEmitted
	return res
}

func (s *Synthesizer) matchGPS(res *FrameResult) error {
	i, err := match.Nearest(res.CTS, s.gps.CTS)
	if err != nil {
		return fmt.Errorf("matching %s: %w", telemetry.StreamGPS, err)
	}

	lat, _ := s.gps.Value(telemetry.ColLat, i)
	lon, _ := s.gps.Value(telemetry.ColLon, i)
	elev, _ := s.gps.Value(telemetry.ColElev, i)
	res.GPSCTS = ptr(s.gps.CTS[i])
	res.Latitude, res.Longitude, res.Altitude = ptr(lat), ptr(lon), ptr(elev)

	if s.opts.CaptureTime && s.opts.UsesMetadataWriter() {
		ct, err := CaptureTime(s.gps.Date(i))
		if err != nil {
			res.warn(err.Error())
		} else {
			res.CaptureTime = ct
		}
	}
	return nil
}

func (s *Synthesizer) matchOrientation(res *FrameResult) error {
	i, err := match.Nearest(res.CTS, s.orient.CTS)
	if err != nil {
		return fmt.Errorf("matching %s: %w", s.orientType, err)
	}
	res.OrientationStream = s.orientType.String()
	res.OrientationCTS = ptr(s.orient.CTS[i])

	switch {
	case s.orientType == telemetry.StreamGRAV:
		x, _ := s.orient.Value(telemetry.ColX, i)
		y, _ := s.orient.Value(telemetry.ColY, i)
		z, _ := s.orient.Value(telemetry.ColZ, i)
		res.Gravity = &r3.Vector{X: x, Y: y, Z: z}
	case s.orientType == telemetry.StreamGYRO:
		rX, _ := s.orient.Value(telemetry.ColRX, i)
		rY, _ := s.orient.Value(telemetry.ColRY, i)
		rZ, _ := s.orient.Value(telemetry.ColRZ, i)
		e := orientation.RemapGyroPix4D(rX, rY, rZ)
		res.Roll, res.Pitch, res.Yaw = ptr(e.Roll), ptr(e.Pitch), ptr(e.Yaw)
	default:
		roll, _ := s.orient.Value(telemetry.ColRoll, i)
		pitch, _ := s.orient.Value(telemetry.ColPitch, i)
		yaw, _ := s.orient.Value(telemetry.ColYaw, i)
		e := orientation.Euler{Roll: roll, Pitch: pitch, Yaw: yaw}.Degrees()
		res.Roll, res.Pitch, res.Yaw = ptr(e.Roll), ptr(e.Pitch), ptr(e.Yaw)
	}
	return nil
}

func (s *Synthesizer) emitMetadata(ctx context.Context, res *FrameResult) error {
	var tags TagSet
	if res.Latitude != nil {
		tags.SetPosition(*res.Latitude, *res.Longitude, *res.Altitude, s.opts.NorthHem, s.opts.WestHem)
	}
	if res.Pitch != nil {
		tags.SetFloat(TagPitch, *res.Pitch)
		tags.SetFloat(TagRoll, *res.Roll)
		tags.SetFloat(TagYaw, *res.Yaw)
	}
	if res.CaptureTime != "" {
		tags.Set(TagDateTimeOriginal, res.CaptureTime)
	}
	res.Tags = tags.Tags()

	if tags.Len() == 0 {
		res.warn("nothing to write")
		return nil
	}

	if err := s.metadata.ApplyTags(ctx, res.Path, tags); err != nil {
		return &ExternalProcessError{Frame: res.Frame, Step: stepMetadata, Err: err}
	}
	res.Output = outputMetadata
	return nil
}

func (s *Synthesizer) emitSidecar(res *FrameResult) error {
	var rec sidecar.Record
	rec.Gravity = res.Gravity
	if res.Latitude != nil {
		rec.GPS = &sidecar.GPS{
			Latitude:    math.Abs(*res.Latitude),
			LatitudeRef: hemisphereRef(s.opts.NorthHem, "N", "S"),
			Longitude:   math.Abs(*res.Longitude),
			LongRef:     hemisphereRef(s.opts.WestHem, "W", "E"),
			Altitude:    *res.Altitude,
		}
	}

	if rec.Gravity == nil && rec.GPS == nil {
		res.warn("nothing to write")
		return nil
	}

	path, err := s.sidecars.Write(res.Path, rec)
	if err != nil {
		return &ExternalProcessError{Frame: res.Frame, Step: stepSidecar, Err: err}
	}
	res.Output = path
	return nil
}

func (s *Synthesizer) emitFlightLog(res *FrameResult) error {
	row := flightlog.Row{Image: res.Frame}
	if res.Latitude != nil {
		row.Latitude = flightlog.SignedLatitude(*res.Latitude, s.opts.NorthHem)
		row.Longitude = flightlog.SignedLongitude(*res.Longitude, s.opts.WestHem)
		row.Altitude = *res.Altitude
	}
	if res.Pitch != nil {
		row.Yaw, row.Pitch, row.Roll = *res.Yaw, *res.Pitch, *res.Roll
	}

	if err := s.flightLog.Write(row); err != nil {
		return &ExternalProcessError{Frame: res.Frame, Step: stepFlightLog, Err: err}
	}
	res.Output = outputFlightLog
	return nil
}

func hemisphereRef(flag bool, set, unset string) string {
	if flag {
		return set
	}
	return unset
}

func ptr(v float64) *float64 {
	return &v
}
