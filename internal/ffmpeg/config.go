package ffmpeg

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/theohartsook/go-forth-and-measure/internal/toolchain"
)

const (
	QualityMin = 1
	QualityMax = 31

	// FramePattern is the image2 output pattern, numbering starts at FirstFrameNumber
	FramePattern     = "frame_%06d"
	FirstFrameNumber = 1
)

var validImageFormats = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

/*
Example 1: every frame, subsampled afterwards
    cfg := ffmpeg.Config{EveryFrame: true, Quality: 2, ImageFormat: "jpg"}
    // Executes: ffmpeg -hide_banner -loglevel error -nostdin -i GX010001.MP4 -q:v 2 frames/frame_%06d.jpg
    // File numbers are source frame numbers plus one

Example 2: every 30th frame straight from the decoder
    cfg := ffmpeg.Config{Quality: 2, ImageFormat: "jpg"}
    // Executes: ffmpeg ... -i GX010001.MP4 -vf select=not(mod(n\,30)) -vsync vfr -q:v 2 subsample_30_frames/frame_%06d.jpg
    // File numbers count extracted frames
*/

// Config is the frame decode configuration
type Config struct {
	FFmpeg      string             `yaml:"ffmpeg" json:"ffmpeg"`           // path to ffmpeg, looked up in PATH when empty
	FFprobe     string             `yaml:"ffprobe" json:"ffprobe"`         // path to ffprobe, looked up in PATH when empty
	EveryFrame  bool               `yaml:"everyFrame" json:"everyFrame"`   // decode every frame, then select every nth by file
	Quality     int                `yaml:"quality" json:"quality"`         // -q:v, 1 (best) to 31, default 2
	ImageFormat string             `yaml:"imageFormat" json:"imageFormat"` // output extension, default jpg
	Timeout     toolchain.Duration `yaml:"timeout" json:"timeout"`         // whole decode, 0 means none
}

func (c *Config) Validate() error {
	if c.Quality != 0 && (c.Quality < QualityMin || c.Quality > QualityMax) {
		return fmt.Errorf("ffmpeg.Config: quality must be between %d and %d: %d given", QualityMin, QualityMax, c.Quality)
	}
	if c.ImageFormat != "" {
		if _, ok := validImageFormats[strings.ToLower(c.ImageFormat)]; !ok {
			return fmt.Errorf("ffmpeg.Config: invalid image format: %s", c.ImageFormat)
		}
	}
	if err := c.Timeout.Validate(); err != nil {
		return fmt.Errorf("ffmpeg.Config: invalid timeout: %w", err)
	}
	return nil
}

func (c *Config) quality() int {
	if c.Quality == 0 {
		return 2
	}
	return c.Quality
}

// Extension returns the frame file extension, with the leading dot.
func (c *Config) Extension() string {
	if c.ImageFormat == "" {
		return ".jpg"
	}
	return "." + strings.ToLower(c.ImageFormat)
}

// Args returns the command line arguments for `ffmpeg` decoding video into outDir.
// nth is ignored when every frame is decoded.
func (c *Config) Args(video, outDir string, nth int) ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if !c.EveryFrame && nth < 1 {
		return nil, fmt.Errorf("ffmpeg.Config: nth frame must be at least 1: %d", nth)
	}

	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin", "-i", video}

	if !c.EveryFrame && nth > 1 {
		args = append(args,
			"-vf", fmt.Sprintf(`select=not(mod(n\,%d))`, nth),
			"-vsync", "vfr",
		)
	}

	args = append(args, "-q:v", strconv.Itoa(c.quality()))
	args = append(args, filepath.Join(outDir, FramePattern+c.Extension()))

	return args, nil
}

// ProbeArgs returns the `ffprobe` arguments printing the frame rate of the first video stream.
func ProbeArgs(video string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		video,
	}
}

// ParseFrameRate parses an ffprobe rate, a fraction such as "30000/1001" or a plain number.
func ParseFrameRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if line, _, ok := strings.Cut(s, "\n"); ok {
		s = strings.TrimSpace(line)
	}

	num, den, isFraction := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q: %w", s, err)
	}

	rate := n
	if isFraction {
		d, err := strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid frame rate %q: %w", s, err)
		}
		if d == 0 {
			return 0, fmt.Errorf("invalid frame rate %q: zero denominator", s)
		}
		rate = n / d
	}

	if rate <= 0 {
		return 0, fmt.Errorf("invalid frame rate %q: not positive", s)
	}
	return rate, nil
}
