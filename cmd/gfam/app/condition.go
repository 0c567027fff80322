package app

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/theohartsook/go-forth-and-measure/internal/orientation"
	"github.com/theohartsook/go-forth-and-measure/internal/smooth"
	"github.com/theohartsook/go-forth-and-measure/internal/tagging"
	"github.com/theohartsook/go-forth-and-measure/internal/telemetry"
)

// loadStreams parses the extracted stream files. A stream that fails to parse is
// fatal when tagging needs it and dropped with a warning otherwise.
func loadStreams(telemDir string, found []telemetry.StreamType, opts tagging.Options, logger *slog.Logger) (map[telemetry.StreamType]*telemetry.Stream, error) {
	required := opts.RequiredStreams()
	streams := make(map[telemetry.StreamType]*telemetry.Stream, len(found))

	for _, t := range found {
		s, err := telemetry.Load(telemDir, t)
		if err != nil {
			if slices.Contains(required, t) {
				return nil, fmt.Errorf("loading %s: %w", t, err)
			}
			logger.Warn("Telemetry stream dropped", slog.String("stream", t.String()), slog.String("error", err.Error()))
			continue
		}

		logger.Debug("Telemetry stream loaded",
			slog.String("stream", t.String()),
			slog.String("samples", humanize.Comma(int64(s.Len()))),
			slog.Float64("rateHz", smooth.SampleRate(s.CTS)))
		streams[t] = s
	}

	return streams, nil
}

// conditionStreams smooths the configured streams, rescales GPS elevation, derives
// Euler angles for quaternion streams and writes every stream to telem/clean.
func conditionStreams(telemDir string, streams map[telemetry.StreamType]*telemetry.Stream, config *Config, opts tagging.Options, logger *slog.Logger) error {
	smoothed, err := config.Smoothing.StreamTypes()
	if err != nil {
		return err
	}

	for _, t := range smoothed {
		s, ok := streams[t]
		if !ok || s.Len() == 0 {
			continue
		}
		sm, err := config.Smoothing.SmootherFor(s)
		if err != nil {
			return fmt.Errorf("smoothing %s: %w", t, err)
		}
		if err = smooth.Columns(s, sm); err != nil {
			return err
		}
	}

	if gps, ok := streams[telemetry.StreamGPS]; ok && gps.Len() > 0 && opts.RescaleZ {
		if err := smooth.RescaleElevation(gps, opts.MinZ, opts.MaxZ); err != nil {
			if !errors.Is(err, smooth.ErrDegenerateRange) {
				return err
			}
			logger.Warn("Elevation not rescaled", slog.String("error", err.Error()))
		}
	}

	for _, t := range telemetry.AllStreams {
		s, ok := streams[t]
		if !ok {
			continue
		}
		if t.IsQuaternion() && s.Len() > 0 {
			if err := orientation.ConvertStream(s, opts.HumanPerspective); err != nil {
				return fmt.Errorf("converting %s: %w", t, err)
			}
		}

		path, err := telemetry.WriteClean(telemDir, s)
		if err != nil {
			return err
		}
		logger.Debug("Clean telemetry written", slog.String("stream", t.String()), slog.String("path", path))
	}

	return nil
}
