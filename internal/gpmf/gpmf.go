// Package gpmf runs the GoPro metadata extractor that turns the camera's telemetry
// track into one CSV file per stream.
package gpmf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/theohartsook/go-forth-and-measure/internal/telemetry"
	"github.com/theohartsook/go-forth-and-measure/internal/toolchain"
)

const Runtime = "node"

// Config is the telemetry extractor configuration
type Config struct {
	Node    string             `yaml:"node" json:"node"`     // path to node, looked up in PATH when empty
	Script  string             `yaml:"script" json:"script"` // extractor script
	Timeout toolchain.Duration `yaml:"timeout" json:"timeout"`
}

func (c *Config) Validate() error {
	if c.Script == "" {
		return fmt.Errorf("gpmf.Config: script is required")
	}
	if _, err := os.Stat(c.Script); err != nil {
		return fmt.Errorf("gpmf.Config: script: %w", err)
	}
	if err := c.Timeout.Validate(); err != nil {
		return fmt.Errorf("gpmf.Config: invalid timeout: %w", err)
	}
	return nil
}

// Args returns the extractor arguments: the script, the video, then one output
// path per stream in telemetry.AllStreams order.
func (c *Config) Args(video, telemDir string) []string {
	args := []string{c.Script, video}
	for _, t := range telemetry.AllStreams {
		args = append(args, filepath.Join(telemDir, t.FileName()))
	}
	return args
}

func WithLogger(logger *slog.Logger) func(e *Extractor) {
	return func(e *Extractor) {
		e.logger = logger
	}
}

type Extractor struct {
	node   string
	config Config
	logger *slog.Logger
}

func New(config *Config, options ...func(e *Extractor)) (*Extractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	node, err := toolchain.Resolve(config.Node, Runtime)
	if err != nil {
		return nil, fmt.Errorf("error finding runtime: %w", err)
	}

	e := &Extractor{
		node:   node,
		config: *config,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(e)
	}

	return e, nil
}

// Extract runs the extractor once for the video and verifies its output.
func (e *Extractor) Extract(ctx context.Context, video, telemDir string) ([]telemetry.StreamType, error) {
	if err := os.MkdirAll(telemDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}

	cmd := toolchain.Command{Name: Runtime, Path: e.node, Args: e.config.Args(video, telemDir)}
	proc := toolchain.NewProcess(cmd,
		toolchain.WithLogger(e.logger),
		toolchain.WithTimeout(time.Duration(e.config.Timeout)),
	)

	e.logger.Info("Extracting telemetry", slog.String("video", video), slog.String("dir", telemDir))
	if err := proc.Run(ctx); err != nil {
		return nil, fmt.Errorf("extracting telemetry: %w", err)
	}

	return Verify(telemDir, e.logger)
}

// Verify checks which stream files exist in telemDir. A missing GPS file is a
// *telemetry.MissingStreamError; any other missing or empty stream is logged and
// left out of the result.
func Verify(telemDir string, logger *slog.Logger) ([]telemetry.StreamType, error) {
	var found []telemetry.StreamType
	for _, t := range telemetry.AllStreams {
		ok, size := telemetry.Exists(telemDir, t)
		path := filepath.Join(telemDir, t.FileName())

		if !ok || size == 0 {
			if t == telemetry.StreamGPS {
				return nil, &telemetry.MissingStreamError{Stream: t, Path: path}
			}
			logger.Warn("Telemetry stream missing", slog.String("stream", t.String()), slog.String("path", path))
			continue
		}

		logger.Info("Telemetry stream extracted", slog.String("stream", t.String()), slog.String("size", humanize.Bytes(uint64(size))))
		found = append(found, t)
	}
	return found, nil
}
