package storage

const (
	initSchemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    started_at  TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,
    video       TEXT      NOT NULL,
    project_dir TEXT      NOT NULL,
    target_tool TEXT      NOT NULL,
    config      TEXT,
    tagged      INTEGER   NOT NULL DEFAULT 0,
    partial     INTEGER   NOT NULL DEFAULT 0,
    failed      INTEGER   NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS frames (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id             TEXT    NOT NULL REFERENCES runs (id),
    name               TEXT    NOT NULL,
    cts                REAL    NOT NULL,
    state              TEXT    NOT NULL,
    status             TEXT    NOT NULL,
    gps_cts            REAL,
    latitude           REAL,
    longitude          REAL,
    altitude           REAL,
    orientation_stream TEXT,
    orientation_cts    REAL,
    roll               REAL,
    pitch              REAL,
    yaw                REAL,
    gravity_x          REAL,
    gravity_y          REAL,
    gravity_z          REAL,
    capture_time       TEXT,
    output             TEXT,
    warnings           TEXT,
    error              TEXT
);`

	// Indexes are built when the writer closes so frame inserts stay cheap.
	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_frames_run_id ON frames (run_id, id);
CREATE INDEX IF NOT EXISTS idx_frames_status ON frames (run_id, status);`

	insertRunSQL = `
INSERT INTO runs (id,
                  started_at,
                  video,
                  project_dir,
                  target_tool,
                  config)
VALUES (?, ?, ?, ?, ?, ?)`

	finishRunSQL = `
UPDATE runs
SET finished_at = ?,
    tagged      = ?,
    partial     = ?,
    failed      = ?
WHERE id = ?`

	selectRunSQL = `
SELECT id,
       started_at,
       finished_at,
       video,
       project_dir,
       target_tool,
       config,
       tagged,
       partial,
       failed
FROM runs
WHERE id = ?`

	selectRunsSQL = `
SELECT id,
       started_at,
       finished_at,
       video,
       project_dir,
       target_tool,
       config,
       tagged,
       partial,
       failed
FROM runs
ORDER BY rowid`

	// insertFramesSQL is completed with one placeholder group per frame.
	insertFramesSQL = `
INSERT INTO frames (run_id,
                    name,
                    cts,
                    state,
                    status,
                    gps_cts,
                    latitude,
                    longitude,
                    altitude,
                    orientation_stream,
                    orientation_cts,
                    roll,
                    pitch,
                    yaw,
                    gravity_x,
                    gravity_y,
                    gravity_z,
                    capture_time,
                    output,
                    warnings,
                    error)
VALUES `

	frameValuesPlaceholder = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	frameColumns           = 21

	// selectFramesSQL pages through a run by row id. The status filter is skipped when empty.
	selectFramesSQL = `
SELECT id,
       run_id,
       name,
       cts,
       state,
       status,
       gps_cts,
       latitude,
       longitude,
       altitude,
       orientation_stream,
       orientation_cts,
       roll,
       pitch,
       yaw,
       gravity_x,
       gravity_y,
       gravity_z,
       capture_time,
       output,
       warnings,
       error
FROM frames
WHERE run_id = ?
  AND id > ?
  AND (? = '' OR status = ?)
ORDER BY id
LIMIT ?`
)
