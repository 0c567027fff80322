package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/theohartsook/go-forth-and-measure/internal/exiftool"
	"github.com/theohartsook/go-forth-and-measure/internal/ffmpeg"
	"github.com/theohartsook/go-forth-and-measure/internal/gpmf"
	"github.com/theohartsook/go-forth-and-measure/internal/smooth"
	"github.com/theohartsook/go-forth-and-measure/internal/tagging"
	"github.com/theohartsook/go-forth-and-measure/internal/telemetry"
)

const defaultMaxBatchSize = 100

// Config represents the main application configuration
type Config struct {
	Settings   Settings         `yaml:"settings" json:"settings"`
	Project    ProjectConfig    `yaml:"project" json:"project"`
	Extraction ExtractionConfig `yaml:"extraction" json:"extraction"`
	Pipeline   PipelineConfig   `yaml:"pipeline" json:"pipeline"`
	Smoothing  SmoothingConfig  `yaml:"smoothing" json:"smoothing"`
	Exiftool   exiftool.Config  `yaml:"exiftool" json:"exiftool"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel" json:"logLevel"`
}

// Level returns the configured log level, info when unset or unknown.
func (s Settings) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ProjectConfig names the video and the directory everything is written to
type ProjectConfig struct {
	Dir            string `yaml:"dir" json:"dir"`
	Video          string `yaml:"video" json:"video"`
	SkipExtraction bool   `yaml:"skipExtraction" json:"skipExtraction"` // re-tag frames and telemetry already in Dir
}

// ExtractionConfig configures the frame decoder and the telemetry extractor
type ExtractionConfig struct {
	Frames    ffmpeg.Config `yaml:"frames" json:"frames"`
	Telemetry gpmf.Config   `yaml:"telemetry" json:"telemetry"`
}

// PipelineConfig holds the tagging options
type PipelineConfig struct {
	NthFrame         int     `yaml:"nthFrame" json:"nthFrame"`
	FPS              float64 `yaml:"fps" json:"fps"`                           // 0 probes the video
	FirstFrameNumber *int    `yaml:"firstFrameNumber" json:"firstFrameNumber"` // default 1, the decoder's first number

	TargetTool        tagging.TargetTool        `yaml:"targetTool" json:"targetTool"`
	RCOutput          tagging.RCOutput          `yaml:"rcOutput" json:"rcOutput"`
	OrientationSource tagging.OrientationSource `yaml:"orientationSource" json:"orientationSource"`

	GPSEnabled         bool  `yaml:"gpsEnabled" json:"gpsEnabled"`
	OrientationEnabled bool  `yaml:"orientationEnabled" json:"orientationEnabled"`
	HumanPerspective   *bool `yaml:"humanPerspective" json:"humanPerspective"` // default true
	CaptureTime        bool  `yaml:"captureTime" json:"captureTime"`

	NorthHem   bool   `yaml:"northHem" json:"northHem"`
	WestHem    bool   `yaml:"westHem" json:"westHem"`
	ConfigFile string `yaml:"configFile" json:"configFile"`

	RescaleZ bool     `yaml:"rescaleZ" json:"rescaleZ"`
	MinZ     *float64 `yaml:"minZ" json:"minZ"`
	MaxZ     *float64 `yaml:"maxZ" json:"maxZ"`
}

// SmoothingConfig selects the smoothing policy and the streams it applies to
type SmoothingConfig struct {
	smooth.Config `yaml:",inline"`
	Streams       []string `yaml:"streams" json:"streams"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory" json:"dataDirectory"` // default the project directory
	MaxBatchSize  int    `yaml:"maxBatchSize" json:"maxBatchSize"`
	Disabled      bool   `yaml:"disabled" json:"disabled"`
}

// LoadConfig reads and validates the YAML configuration at path.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	var config Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	config.applyDefaults()
	if err = config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Pipeline.FirstFrameNumber == nil {
		first := ffmpeg.FirstFrameNumber
		c.Pipeline.FirstFrameNumber = &first
	}
	if c.Pipeline.HumanPerspective == nil {
		on := true
		c.Pipeline.HumanPerspective = &on
	}
	if c.Storage.MaxBatchSize == 0 {
		c.Storage.MaxBatchSize = defaultMaxBatchSize
	}
	c.Exiftool.ConfigFile = c.Pipeline.ConfigFile
}

func (c *Config) Validate() error {
	if c.Project.Dir == "" {
		return errors.New("app.Config: project directory is required")
	}
	if c.Project.Video == "" && !c.Project.SkipExtraction {
		return errors.New("app.Config: video is required unless extraction is skipped")
	}
	if c.Pipeline.FPS < 0 {
		return fmt.Errorf("app.Config: fps must not be negative: %g", c.Pipeline.FPS)
	}
	if c.Pipeline.FPS == 0 && c.Project.Video == "" {
		return errors.New("app.Config: fps is required when there is no video to probe")
	}

	// probed fps is not known yet, any positive rate validates the rest
	fps := c.Pipeline.FPS
	if fps == 0 {
		fps = 1
	}
	opts := c.Options(fps)
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("app.Config: %w", err)
	}

	if !c.Project.SkipExtraction {
		if err := c.Extraction.Frames.Validate(); err != nil {
			return fmt.Errorf("app.Config: %w", err)
		}
		if err := c.Extraction.Telemetry.Validate(); err != nil {
			return fmt.Errorf("app.Config: %w", err)
		}
	}

	if err := c.Smoothing.Config.Validate(); err != nil {
		return fmt.Errorf("app.Config: %w", err)
	}
	if _, err := c.Smoothing.StreamTypes(); err != nil {
		return fmt.Errorf("app.Config: %w", err)
	}

	if opts.UsesMetadataWriter() {
		if err := c.Exiftool.Validate(); err != nil {
			return fmt.Errorf("app.Config: %w", err)
		}
	}

	if c.Storage.MaxBatchSize < 0 {
		return fmt.Errorf("app.Config: max batch size must not be negative: %d", c.Storage.MaxBatchSize)
	}

	return nil
}

// Numbering tells how extracted frame numbers map to source frames: decoding every
// frame keeps source numbers, decoding every nth renumbers them.
func (c *Config) Numbering() tagging.Numbering {
	if c.Extraction.Frames.EveryFrame {
		return tagging.NumberingSource
	}
	return tagging.NumberingSequential
}

// Options builds the immutable tagging options for a source frame rate.
func (c *Config) Options(fps float64) tagging.Options {
	p := c.Pipeline

	first := ffmpeg.FirstFrameNumber
	if p.FirstFrameNumber != nil {
		first = *p.FirstFrameNumber
	}
	human := true
	if p.HumanPerspective != nil {
		human = *p.HumanPerspective
	}

	return tagging.Options{
		NthFrame:           p.NthFrame,
		FPS:                fps,
		FirstFrameNumber:   first,
		Numbering:          c.Numbering(),
		RescaleZ:           p.RescaleZ,
		MinZ:               p.MinZ,
		MaxZ:               p.MaxZ,
		GPSEnabled:         p.GPSEnabled,
		OrientationEnabled: p.OrientationEnabled,
		OrientationSource:  p.OrientationSource,
		HumanPerspective:   human,
		CaptureTime:        p.CaptureTime,
		TargetTool:         p.TargetTool,
		RCOutput:           p.RCOutput,
		NorthHem:           p.NorthHem,
		WestHem:            p.WestHem,
		ConfigFile:         p.ConfigFile,
	}
}

// StreamTypes returns the streams to smooth.
func (s *SmoothingConfig) StreamTypes() ([]telemetry.StreamType, error) {
	types := make([]telemetry.StreamType, 0, len(s.Streams))
	for _, name := range s.Streams {
		t, err := telemetry.ParseStreamType(name)
		if err != nil {
			return nil, fmt.Errorf("smoothing streams: %w", err)
		}
		types = append(types, t)
	}
	return types, nil
}
