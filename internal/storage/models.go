package storage

import (
	"database/sql"
)

type runData struct {
	ID         string
	StartedAt  sql.NullTime
	FinishedAt sql.NullTime
	Video      string
	ProjectDir string
	TargetTool string
	Config     sql.NullString
	Tagged     int
	Partial    int
	Failed     int
}

type frameData struct {
	ID                int64
	RunID             string
	Name              string
	CTS               float64
	State             string
	Status            string
	GPSCTS            sql.NullFloat64
	Latitude          sql.NullFloat64
	Longitude         sql.NullFloat64
	Altitude          sql.NullFloat64
	OrientationStream sql.NullString
	OrientationCTS    sql.NullFloat64
	Roll              sql.NullFloat64
	Pitch             sql.NullFloat64
	Yaw               sql.NullFloat64
	GravityX          sql.NullFloat64
	GravityY          sql.NullFloat64
	GravityZ          sql.NullFloat64
	CaptureTime       sql.NullString
	Output            sql.NullString
	Warnings          sql.NullString
	Error             sql.NullString
}

func (d *frameData) scanTargets() []any {
	return []any{
		&d.ID,
		&d.RunID,
		&d.Name,
		&d.CTS,
		&d.State,
		&d.Status,
		&d.GPSCTS,
		&d.Latitude,
		&d.Longitude,
		&d.Altitude,
		&d.OrientationStream,
		&d.OrientationCTS,
		&d.Roll,
		&d.Pitch,
		&d.Yaw,
		&d.GravityX,
		&d.GravityY,
		&d.GravityZ,
		&d.CaptureTime,
		&d.Output,
		&d.Warnings,
		&d.Error,
	}
}

func (d *runData) scanTargets() []any {
	return []any{
		&d.ID,
		&d.StartedAt,
		&d.FinishedAt,
		&d.Video,
		&d.ProjectDir,
		&d.TargetTool,
		&d.Config,
		&d.Tagged,
		&d.Partial,
		&d.Failed,
	}
}
