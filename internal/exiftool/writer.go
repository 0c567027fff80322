// Package exiftool writes frame metadata through the exiftool binary.
package exiftool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/theohartsook/go-forth-and-measure/internal/tagging"
	"github.com/theohartsook/go-forth-and-measure/internal/toolchain"
)

const Runtime = "exiftool"

func WithLogger(logger *slog.Logger) func(w *Writer) {
	return func(w *Writer) {
		w.logger = logger
	}
}

// Writer is a tagging.MetadataWriter running one exiftool process per frame.
// Calls are serialized by the caller; exiftool itself is not safe to run
// concurrently on the same file.
type Writer struct {
	binPath string
	config  Config
	logger  *slog.Logger
}

// New resolves the exiftool binary and validates the configuration.
func New(config *Config, options ...func(w *Writer)) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	binPath, err := toolchain.Resolve(config.Binary, Runtime)
	if err != nil {
		return nil, fmt.Errorf("error finding runtime: %w", err)
	}

	w := &Writer{
		binPath: binPath,
		config:  *config,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(w)
	}

	return w, nil
}

func (w *Writer) ApplyTags(ctx context.Context, path string, tags tagging.TagSet) error {
	args, err := w.config.Args(path, tags.Tags())
	if err != nil {
		return err
	}

	cmd := toolchain.Command{Name: Runtime, Path: w.binPath, Args: args}
	proc := toolchain.NewProcess(cmd,
		toolchain.WithLogger(w.logger),
		toolchain.WithTimeout(time.Duration(w.config.Timeout)),
	)

	return proc.Run(ctx)
}
