// Package storage is the run ledger: every pipeline run and the outcome of every
// frame it tagged, so incompletely tagged frames can be audited afterwards.
package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"
)

// Store records pipeline runs and per-frame outcomes.
type Store interface {
	// CreateRun starts a new run and returns its identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - video: Source video path
	//   - projectDir: Project directory the run writes to
	//   - targetTool: Downstream tool the frames are tagged for
	//   - config: Optional run configuration. Can be string, []byte, or JSON-serializable object
	//
	// Returns:
	//   - runID: UUID of the created run
	//   - error: If creation fails or context is cancelled
	CreateRun(ctx context.Context, video, projectDir, targetTool string, config any) (runID string, err error)

	// FinishRun stamps the run finish time and its outcome counts.
	FinishRun(ctx context.Context, runID string, summary Summary) error

	// Run retrieves a run by its ID.
	Run(ctx context.Context, runID string) (*Run, error)

	// Runs returns all runs in creation order.
	Runs(ctx context.Context) ([]*Run, error)

	// StoreFrames saves frame outcomes of a run in a single atomic transaction.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - runID: Run the frames belong to
	//   - frames: Frame outcomes, stored in the given order
	//
	// Returns:
	//   - error: If storage fails or context is cancelled
	StoreFrames(ctx context.Context, runID string, frames []*Frame) error

	// Close releases all database connections and resources.
	// It is safe to call Close multiple times.
	Close() error
}
