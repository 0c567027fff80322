package tagging

import (
	"errors"
	"fmt"
)

// ErrNoFrames is returned when a frame directory holds no images to tag.
var ErrNoFrames = errors.New("no frames to tag")

// TimestampParseError reports a GPS date string that could not be turned into a
// capture time. The frame is still tagged, without the time tag.
type TimestampParseError struct {
	Value string
}

func (e *TimestampParseError) Error() string {
	return fmt.Sprintf("unparseable capture time %q", e.Value)
}

// ExternalProcessError reports a failed metadata write, sidecar write or flight-log row
// for one frame.
type ExternalProcessError struct {
	Frame string
	Step  string
	Err   error
}

func (e *ExternalProcessError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Step, e.Frame, e.Err)
}

func (e *ExternalProcessError) Unwrap() error {
	return e.Err
}
