package app

import (
	"context"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theohartsook/go-forth-and-measure/internal/storage"
)

func seedStore(t *testing.T, dbPath string) string {
	t.Helper()

	ctx := context.Background()
	store := storage.NewSqliteStore(dbPath)
	defer store.Close()

	_, err := store.CreateRun(ctx, "old.mp4", "project", "pix4d", nil)
	require.NoError(t, err)

	runID, err := store.CreateRun(ctx, "GX010001.MP4", "project", "realitycapture", nil)
	require.NoError(t, err)

	frames := []*storage.Frame{
		{Name: "frame_000001.jpg", State: "emitted", Status: "tagged", Latitude: ptr(47.1), Longitude: ptr(-122.3), Altitude: ptr(100)},
		{Name: "frame_000002.jpg", State: "gps-matched", Status: "failed", Latitude: ptr(47.2), Longitude: ptr(-122.2), Error: "writing sidecar"},
		{Name: "frame_000003.jpg", State: "start", Status: "failed", Error: "empty stream"},
	}
	require.NoError(t, store.StoreFrames(ctx, runID, frames))
	require.NoError(t, store.FinishRun(ctx, runID, storage.Summary{Tagged: 1, Failed: 2}))

	return runID
}

func TestRunRendersLatestRun(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "gfam.sqlite")
	runID := seedStore(t, dbPath)

	c, err := ParseConfig([]string{"-db", dbPath, "-o", filepath.Join(dir, "track"), "-width", "300", "-height", "200"})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, Run(context.Background(), c, logger))

	f, err := os.Open(filepath.Join(dir, "track.png"))
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 300+defaultLeftBorder+defaultRightBorder, img.Bounds().Dx())

	store := storage.NewSqliteStore(dbPath)
	defer store.Close()
	latest, err := resolveRun(context.Background(), store, "")
	require.NoError(t, err)
	assert.Equal(t, runID, latest)
}

func TestRunStatusFilterWithoutFrames(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "gfam.sqlite")
	seedStore(t, dbPath)

	c, err := ParseConfig([]string{"-db", dbPath, "-o", filepath.Join(dir, "track"), "-status", "partial"})
	require.NoError(t, err)

	err = Run(context.Background(), c, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorIs(t, err, storage.ErrNoData)
}

func TestRunMissingDatabase(t *testing.T) {
	c, err := ParseConfig([]string{"-db", filepath.Join(t.TempDir(), "missing.sqlite"), "-o", "track"})
	require.NoError(t, err)

	err = Run(context.Background(), c, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
