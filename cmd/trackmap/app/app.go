package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/theohartsook/go-forth-and-measure/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) (err error) {
	if _, err = os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	track, err := readTrack(ctx, store, config, logger)
	if err != nil {
		return err
	}

	renderer, err := NewTrackRenderer(RenderConfig{
		Width:         config.Width,
		Height:        config.Height,
		ColorTheme:    config.Theme,
		NoAnnotations: config.NoAnnotations,
	})
	if err != nil {
		return fmt.Errorf("creating track renderer: %w", err)
	}

	logger.Info("rendering track",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(config.Theme)),
			slog.Int("width", config.Width),
			slog.Int("height", config.Height),
		))

	img, err := renderer.Render(track)
	if err != nil {
		return fmt.Errorf("rendering track: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	return encode(out, img, config.Format)
}

func readTrack(ctx context.Context, store *storage.SqliteStore, config *Config, logger *slog.Logger) (*TrackData, error) {
	runID, err := resolveRun(ctx, store, config.RunID)
	if err != nil {
		return nil, err
	}

	var opts []storage.ReaderOption
	if config.Status != "" {
		opts = append(opts, storage.WithStatus(config.Status))
	}

	reader, err := store.ReadFrames(ctx, runID, opts...)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	track := NewTrackData(reader.Run())
	for reader.Next(ctx) {
		track.Update(reader.Current())
	}
	if err = reader.Error(); err != nil {
		return nil, err
	}
	if track.Frames == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, storage.ErrNoData)
	}

	bounds, _ := track.Elevation()
	logger.Info("finished reading frames",
		slog.Group("stats",
			slog.String("run", runID),
			slog.String("frames", humanize.Comma(int64(track.Frames))),
			slog.Int("placed", len(track.Points)),
			slog.Int("failed", track.Failed),
			slog.String("length", humanize.SIWithDigits(track.Length, 2, "m")),
			slog.String("minElevation", formatMeters(bounds.Min)),
			slog.String("maxElevation", formatMeters(bounds.Max)),
		))

	return track, nil
}

// resolveRun returns runID, or the most recent run when it is empty.
func resolveRun(ctx context.Context, store storage.Store, runID string) (string, error) {
	if runID != "" {
		return runID, nil
	}

	runs, err := store.Runs(ctx)
	if err != nil {
		return "", fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		return "", errors.New("the database has no runs")
	}
	return runs[len(runs)-1].ID, nil
}

func encode(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case ImagePNG:
		return png.Encode(w, img)
	case ImageJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 98})
	}
	return fmt.Errorf("invalid image format: %s", format)
}
