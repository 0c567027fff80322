package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/theohartsook/go-forth-and-measure/internal/exiftool"
	"github.com/theohartsook/go-forth-and-measure/internal/ffmpeg"
	"github.com/theohartsook/go-forth-and-measure/internal/gpmf"
	"github.com/theohartsook/go-forth-and-measure/internal/storage"
)

const (
	storageFile = "gfam.sqlite"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	options := []func(*Pipeline){
		WithMaxBatchSize(config.Storage.MaxBatchSize),
	}

	if !config.Storage.Disabled {
		store, err := createStorage(&config.Storage, config.Project.Dir)
		if err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("Unable to close storage", slog.String("error", err.Error()))
			}
		}()
		options = append(options, WithStore(store))
	}

	if config.Project.Video != "" {
		decoder, err := ffmpeg.New(&config.Extraction.Frames, ffmpeg.WithLogger(logger.With(slog.String("tool", "ffmpeg"))))
		if err != nil {
			return fmt.Errorf("creating frame decoder: %w", err)
		}
		options = append(options, WithDecoder(decoder))
	}

	if !config.Project.SkipExtraction {
		extractor, err := gpmf.New(&config.Extraction.Telemetry, gpmf.WithLogger(logger.With(slog.String("tool", "gpmf"))))
		if err != nil {
			return fmt.Errorf("creating telemetry extractor: %w", err)
		}
		options = append(options, WithExtractor(extractor))
	}

	if config.Options(1).UsesMetadataWriter() {
		writer, err := exiftool.New(&config.Exiftool, exiftool.WithLogger(logger.With(slog.String("tool", "exiftool"))))
		if err != nil {
			return fmt.Errorf("creating metadata writer: %w", err)
		}
		options = append(options, WithMetadataWriter(writer))
	}

	report, err := NewPipeline(config, logger, options...).Run(ctx)
	if err != nil {
		return err
	}

	for _, res := range report.Failures() {
		logger.Warn("Frame not tagged", slog.String("frame", res.Frame), slog.String("error", res.Err.Error()))
	}

	return nil
}

func createStorage(config *StorageConfig, projectDir string) (*storage.SqliteStore, error) {
	dir := projectDir
	if config.DataDirectory != "" {
		dir = config.DataDirectory
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory '%s': %w", dir, err)
	}

	stat, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("storage directory '%s': %w", dir, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dir)
	}

	return storage.NewSqliteStore(filepath.Join(dir, storageFile)), nil
}
