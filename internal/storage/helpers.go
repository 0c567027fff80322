package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

// rollbackWithError rolls back an unfinished transaction. After a commit the
// rollback reports sql.ErrTxDone, which is not an error here.
func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

// toConfigData accepts a string, raw bytes or any JSON-serializable value.
func toConfigData(config any) (sql.NullString, error) {
	var data sql.NullString

	switch c := config.(type) {
	case nil:
	case string:
		data.Valid = true
		data.String = c
	case []byte:
		data.Valid = true
		data.String = string(c)
	default:
		p, err := json.Marshal(c)
		if err != nil {
			return data, fmt.Errorf("marshaling config: %w", err)
		}
		data.Valid = true
		data.String = string(p)
	}

	return data, nil
}

func toRun(d *runData) *Run {
	run := &Run{
		ID:         d.ID,
		StartedAt:  d.StartedAt.Time,
		Video:      d.Video,
		ProjectDir: d.ProjectDir,
		TargetTool: d.TargetTool,
		Tagged:     d.Tagged,
		Partial:    d.Partial,
		Failed:     d.Failed,
	}
	if d.FinishedAt.Valid {
		t := d.FinishedAt.Time
		run.FinishedAt = &t
	}
	if d.Config.Valid {
		run.Config = &d.Config.String
	}
	return run
}

func toFrame(d *frameData) *Frame {
	return &Frame{
		ID:                d.ID,
		RunID:             d.RunID,
		Name:              d.Name,
		CTS:               d.CTS,
		State:             d.State,
		Status:            d.Status,
		GPSCTS:            fromNullFloat(d.GPSCTS),
		Latitude:          fromNullFloat(d.Latitude),
		Longitude:         fromNullFloat(d.Longitude),
		Altitude:          fromNullFloat(d.Altitude),
		OrientationStream: d.OrientationStream.String,
		OrientationCTS:    fromNullFloat(d.OrientationCTS),
		Roll:              fromNullFloat(d.Roll),
		Pitch:             fromNullFloat(d.Pitch),
		Yaw:               fromNullFloat(d.Yaw),
		GravityX:          fromNullFloat(d.GravityX),
		GravityY:          fromNullFloat(d.GravityY),
		GravityZ:          fromNullFloat(d.GravityZ),
		CaptureTime:       d.CaptureTime.String,
		Output:            d.Output.String,
		Warnings:          d.Warnings.String,
		Error:             d.Error.String,
	}
}

// frameValues returns the insert arguments of f in insertFramesSQL column order.
func frameValues(runID string, f *Frame) []any {
	return []any{
		runID,
		f.Name,
		f.CTS,
		f.State,
		f.Status,
		toNullFloat(f.GPSCTS),
		toNullFloat(f.Latitude),
		toNullFloat(f.Longitude),
		toNullFloat(f.Altitude),
		toNullString(f.OrientationStream),
		toNullFloat(f.OrientationCTS),
		toNullFloat(f.Roll),
		toNullFloat(f.Pitch),
		toNullFloat(f.Yaw),
		toNullFloat(f.GravityX),
		toNullFloat(f.GravityY),
		toNullFloat(f.GravityZ),
		toNullString(f.CaptureTime),
		toNullString(f.Output),
		toNullString(f.Warnings),
		toNullString(f.Error),
	}
}

func toNullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func fromNullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
