package toolchain

import "fmt"

// ConfigError reports an invalid collaborator configuration.
type ConfigError struct {
	msg string
}

func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	return e.msg
}

// RuntimeError reports a collaborator binary that cannot be located or executed.
type RuntimeError struct {
	Runtime string
	msg     string
	err     error
}

func NewRuntimeError(runtime, msg string, err error) *RuntimeError {
	return &RuntimeError{Runtime: runtime, msg: msg, err: err}
}

func (e *RuntimeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Runtime, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Runtime, e.msg)
}

func (e *RuntimeError) Unwrap() error {
	return e.err
}

// ExitError reports a collaborator that ran but exited unsuccessfully.
type ExitError struct {
	Tool     string
	ExitCode int
	Stderr   string // last stderr line, if any
	err      error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.err
}
