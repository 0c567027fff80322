package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const defaultBatchSize = 256

// ErrNoData indicates that no frames exist for the given parameters.
var ErrNoData = errors.New("no data available")

// ReaderOption configures a SqliteFrameReader.
type ReaderOption func(*SqliteFrameReader)

// WithStatus restricts the reader to frames with the given status.
func WithStatus(status string) ReaderOption {
	return func(r *SqliteFrameReader) {
		r.status = status
	}
}

// WithBatchSize sets how many rows are fetched per query.
func WithBatchSize(n int) ReaderOption {
	return func(r *SqliteFrameReader) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// SqliteFrameReader iterates over the frames of one run, a page at a time.
// It is not safe for concurrent use.
type SqliteFrameReader struct {
	db   *sql.DB
	stmt *sql.Stmt

	run       *Run
	status    string
	batchSize int

	lastID  int64
	page    []*Frame
	current *Frame
	done    bool
	err     error
}

func newSqliteFrameReader(ctx context.Context, db *sql.DB, runID string, opts ...ReaderOption) (*SqliteFrameReader, error) {
	fr := &SqliteFrameReader{
		db:        db,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(fr)
	}

	if err := fr.init(ctx, runID); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return fr, nil
}

func (fr *SqliteFrameReader) init(ctx context.Context, runID string) (err error) {
	if fr.db == nil {
		return errors.New("database connection required")
	}
	if runID == "" {
		return errors.New("run ID required")
	}

	stmt, err := fr.db.PrepareContext(ctx, selectRunSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var data runData
	if err = stmt.QueryRowContext(ctx, runID).Scan(data.scanTargets()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("run %s: %w", runID, ErrNoData)
		}
		return fmt.Errorf("querying run: %w", err)
	}
	fr.run = toRun(&data)

	if fr.stmt, err = fr.db.PrepareContext(ctx, selectFramesSQL); err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	return nil
}

// Run returns the run the reader is accessing.
func (fr *SqliteFrameReader) Run() *Run {
	return fr.run
}

// Next advances to the next frame. It returns false at the end of the run or on
// error; check Error to tell them apart.
func (fr *SqliteFrameReader) Next(ctx context.Context) bool {
	if fr.err != nil || fr.stmt == nil {
		return false
	}

	if len(fr.page) == 0 {
		if fr.done {
			return false
		}
		if fr.err = fr.fetch(ctx); fr.err != nil || len(fr.page) == 0 {
			return false
		}
	}

	fr.current, fr.page = fr.page[0], fr.page[1:]
	return true
}

func (fr *SqliteFrameReader) fetch(ctx context.Context) (err error) {
	rows, err := fr.stmt.QueryContext(ctx, fr.run.ID, fr.lastID, fr.status, fr.status, fr.batchSize)
	if err != nil {
		return fmt.Errorf("querying frames: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var data frameData
		if err = rows.Scan(data.scanTargets()...); err != nil {
			return fmt.Errorf("scanning frame: %w", err)
		}
		fr.page = append(fr.page, toFrame(&data))
		fr.lastID = data.ID
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("iterating frames: %w", err)
	}

	if len(fr.page) < fr.batchSize {
		fr.done = true
	}
	return nil
}

// Current returns the frame Next advanced to.
func (fr *SqliteFrameReader) Current() *Frame {
	return fr.current
}

func (fr *SqliteFrameReader) Error() error {
	return fr.err
}

func (fr *SqliteFrameReader) Close() error {
	if fr.stmt == nil {
		return nil
	}
	err := fr.stmt.Close()
	fr.stmt = nil
	return err
}

// All drains the reader into a slice. ErrNoData is returned when the run has no
// matching frames.
func (fr *SqliteFrameReader) All(ctx context.Context) ([]*Frame, error) {
	var frames []*Frame
	for fr.Next(ctx) {
		frames = append(frames, fr.Current())
	}
	if err := fr.Error(); err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, ErrNoData
	}
	return frames, nil
}
