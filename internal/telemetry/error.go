package telemetry

import "fmt"

// MissingStreamError reports a telemetry file the extractor did not produce.
type MissingStreamError struct {
	Stream StreamType
	Path   string
	Err    error
}

func (e *MissingStreamError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("telemetry stream %s missing", e.Stream)
	}
	if e.Err != nil {
		return fmt.Sprintf("telemetry stream %s missing at %s: %s", e.Stream, e.Path, e.Err)
	}
	return fmt.Sprintf("telemetry stream %s missing at %s", e.Stream, e.Path)
}

func (e *MissingStreamError) Unwrap() error {
	return e.Err
}

// MalformedRowError reports a row whose packed value does not match the stream layout.
type MalformedRowError struct {
	Stream StreamType
	Row    int // 1-based data row, header excluded
	Got    int
	Want   string
	Err    error
}

func (e *MalformedRowError) Error() string {
	msg := fmt.Sprintf("malformed %s row %d: got %d fields, want %s", e.Stream, e.Row, e.Got, e.Want)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRowError) Unwrap() error {
	return e.Err
}
