package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/theohartsook/go-forth-and-measure/internal/storage"
	"github.com/theohartsook/go-forth-and-measure/internal/tagging"
)

// ledger records frame results into the run ledger, maxBatchSize frames per
// transaction. It implements tagging.Recorder.
type ledger struct {
	store        storage.Store
	runID        string
	maxBatchSize int
	pending      []*storage.Frame
}

func newLedger(store storage.Store, runID string, maxBatchSize int) *ledger {
	if maxBatchSize <= 0 {
		maxBatchSize = defaultMaxBatchSize
	}
	return &ledger{store: store, runID: runID, maxBatchSize: maxBatchSize}
}

func (l *ledger) RecordFrame(ctx context.Context, res tagging.FrameResult) error {
	l.pending = append(l.pending, toStorageFrame(&res))
	if len(l.pending) < l.maxBatchSize {
		return nil
	}
	return l.Flush(ctx)
}

// Flush stores the pending frames. Frames that fail to store are dropped so a
// broken ledger does not grow without bound.
func (l *ledger) Flush(ctx context.Context) error {
	if len(l.pending) == 0 {
		return nil
	}
	frames := l.pending
	l.pending = nil

	if err := l.store.StoreFrames(ctx, l.runID, frames); err != nil {
		return fmt.Errorf("storing %d frames: %w", len(frames), err)
	}
	return nil
}

func toStorageFrame(res *tagging.FrameResult) *storage.Frame {
	f := &storage.Frame{
		Name:              res.Frame,
		CTS:               res.CTS,
		State:             res.State.String(),
		Status:            string(res.Status()),
		GPSCTS:            res.GPSCTS,
		Latitude:          res.Latitude,
		Longitude:         res.Longitude,
		Altitude:          res.Altitude,
		OrientationStream: res.OrientationStream,
		OrientationCTS:    res.OrientationCTS,
		Roll:              res.Roll,
		Pitch:             res.Pitch,
		Yaw:               res.Yaw,
		CaptureTime:       res.CaptureTime,
		Output:            res.Output,
		Warnings:          strings.Join(res.Warnings, "; "),
	}
	if res.Gravity != nil {
		x, y, z := res.Gravity.X, res.Gravity.Y, res.Gravity.Z
		f.GravityX, f.GravityY, f.GravityZ = &x, &y, &z
	}
	if res.Err != nil {
		f.Error = res.Err.Error()
	}
	return f
}
