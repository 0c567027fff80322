package tagging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	ctsLabel    = regexp.MustCompile(`_cts_(\d+(?:\.\d+)?)$`)
	frameNumber = regexp.MustCompile(`(\d+)$`)
)

// Frame is one extracted image file.
type Frame struct {
	Name string // base name
	Path string
}

// ListFrames returns the image files of dir with one of the extensions, sorted by name.
// Extension matching is case-insensitive.
func ListFrames(dir string, extensions []string) ([]Frame, error) {
	if len(extensions) == 0 {
		extensions = defaultExtensions
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading frame directory: %w", err)
	}

	var frames []Frame
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !slices.Contains(extensions, ext) {
			continue
		}
		frames = append(frames, Frame{Name: entry.Name(), Path: filepath.Join(dir, entry.Name())})
	}

	slices.SortFunc(frames, func(a, b Frame) int {
		return strings.Compare(a.Name, b.Name)
	})
	return frames, nil
}

// FrameCTS derives the capture timestamp of a frame, in milliseconds. A name ending in
// _cts_<value> carries it directly; otherwise the trailing frame number is converted
// through the source frame rate.
func FrameCTS(name string, opts Options) (cts float64, labelled bool, err error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))

	if m := ctsLabel.FindStringSubmatch(base); m != nil {
		cts, err = strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, true, fmt.Errorf("frame %s: parsing cts label: %w", name, err)
		}
		return cts, true, nil
	}

	m := frameNumber.FindStringSubmatch(base)
	if m == nil {
		return 0, false, fmt.Errorf("frame %s: no frame number or cts label in name", name)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false, fmt.Errorf("frame %s: parsing frame number: %w", name, err)
	}

	index := n - opts.FirstFrameNumber
	if index < 0 {
		return 0, false, fmt.Errorf("frame %s: number %d precedes first frame %d", name, n, opts.FirstFrameNumber)
	}
	if opts.Numbering == NumberingSequential {
		index *= opts.NthFrame
	}

	return float64(index) / opts.FPS * 1000, false, nil
}
