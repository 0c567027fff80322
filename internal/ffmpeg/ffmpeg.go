// Package ffmpeg decodes video into frame images and probes the source frame rate.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/theohartsook/go-forth-and-measure/internal/toolchain"
)

const (
	Runtime      = "ffmpeg"
	ProbeRuntime = "ffprobe"
)

func WithLogger(logger *slog.Logger) func(d *Decoder) {
	return func(d *Decoder) {
		d.logger = logger
	}
}

// Decoder runs ffprobe and ffmpeg for one project.
type Decoder struct {
	ffmpeg  string
	ffprobe string
	config  Config
	logger  *slog.Logger
}

// New resolves both binaries and validates the configuration.
func New(config *Config, options ...func(d *Decoder)) (*Decoder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ffmpegPath, err := toolchain.Resolve(config.FFmpeg, Runtime)
	if err != nil {
		return nil, fmt.Errorf("error finding runtime: %w", err)
	}
	ffprobePath, err := toolchain.Resolve(config.FFprobe, ProbeRuntime)
	if err != nil {
		return nil, fmt.Errorf("error finding runtime: %w", err)
	}

	d := &Decoder{
		ffmpeg:  ffmpegPath,
		ffprobe: ffprobePath,
		config:  *config,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(d)
	}

	return d, nil
}

// ProbeFPS returns the frame rate of the first video stream.
func (d *Decoder) ProbeFPS(ctx context.Context, video string) (float64, error) {
	var out bytes.Buffer
	cmd := toolchain.Command{Name: ProbeRuntime, Path: d.ffprobe, Args: ProbeArgs(video)}
	proc := toolchain.NewProcess(cmd, toolchain.WithLogger(d.logger), toolchain.WithStdout(&out))

	if err := proc.Run(ctx); err != nil {
		return 0, fmt.Errorf("probing frame rate: %w", err)
	}
	return ParseFrameRate(out.String())
}

// Extract decodes video into outDir, creating it when needed.
func (d *Decoder) Extract(ctx context.Context, video, outDir string, nth int) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating frame directory: %w", err)
	}

	args, err := d.config.Args(video, outDir, nth)
	if err != nil {
		return err
	}

	cmd := toolchain.Command{Name: Runtime, Path: d.ffmpeg, Args: args}
	proc := toolchain.NewProcess(cmd,
		toolchain.WithLogger(d.logger),
		toolchain.WithTimeout(time.Duration(d.config.Timeout)),
	)

	d.logger.Info("Extracting frames", slog.String("video", video), slog.String("dir", outDir))
	return proc.Run(ctx)
}

// EveryFrame reports whether frames are decoded in full and selected afterwards.
func (d *Decoder) EveryFrame() bool {
	return d.config.EveryFrame
}

// Extension returns the extension of the decoded frames.
func (d *Decoder) Extension() string {
	return d.config.Extension()
}
