package ffmpeg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var frameNumber = regexp.MustCompile(`(\d+)$`)

// SubsampleDir returns the directory name holding every nth frame.
func SubsampleDir(projectDir string, nth int) string {
	return filepath.Join(projectDir, fmt.Sprintf("subsample_%d_frames", nth))
}

// SelectNth links every nth frame of srcDir into dstDir, keeping the file names so the
// source frame numbers survive. The frame numbered first is always selected. Files are
// copied when hard links are not possible. It returns the number of selected frames.
func SelectNth(srcDir, dstDir string, nth, first int, ext string) (int, error) {
	if nth < 1 {
		return 0, fmt.Errorf("nth frame must be at least 1: %d", nth)
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return 0, fmt.Errorf("reading frame directory: %w", err)
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating subsample directory: %w", err)
	}

	selected := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}

		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		m := frameNumber.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < first || (n-first)%nth != 0 {
			continue
		}

		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(dstDir, entry.Name())
		if err := linkOrCopy(src, dst); err != nil {
			return selected, err
		}
		selected++
	}

	return selected, nil
}

func linkOrCopy(src, dst string) error {
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replacing %s: %w", dst, err)
	}
	if err := os.Link(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}
