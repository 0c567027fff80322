package toolchain

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"
)

// ErrBrokenPipe is returned when there's an error reading from stdout or stderr
var ErrBrokenPipe = errors.New("broken pipe")

// Handler builds the command for one collaborator invocation.
type Handler interface {
	Cmd(ctx context.Context) *exec.Cmd
	Tool() string
}

// Command is a ready-to-run collaborator invocation.
type Command struct {
	Name string   // tool name used in logs
	Path string   // resolved binary
	Args []string // arguments, binary excluded
	Dir  string   // working directory, empty for the current one
}

func (c Command) Cmd(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	return cmd
}

func (c Command) Tool() string {
	return c.Name
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// WithLogger sets the logger for the process
func WithLogger(logger *slog.Logger) func(p *Process) {
	return func(p *Process) {
		p.logger = logger.With(slog.String("tool", p.handler.Tool()))
	}
}

// WithStdout sends the process stdout to w instead of the debug log.
func WithStdout(w io.Writer) func(p *Process) {
	return func(p *Process) {
		p.stdout = w
	}
}

// WithTimeout bounds the process run time. Zero means no bound.
func WithTimeout(d time.Duration) func(p *Process) {
	return func(p *Process) {
		p.timeout = d
	}
}

// Process runs one collaborator to completion, streaming its stderr to the logger.
type Process struct {
	handler Handler
	stdout  io.Writer
	timeout time.Duration
	logger  *slog.Logger

	lastStderr atomic.Value // string
}

// NewProcess creates a new Process instance with a discard logger
func NewProcess(h Handler, options ...func(p *Process)) *Process {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	p := Process{
		handler: h,
		logger:  logger,
	}

	for _, option := range options {
		option(&p)
	}

	return &p
}

// Run starts the command and blocks until it exits. A non-zero exit is an *ExitError.
func (p *Process) Run(ctx context.Context) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cmd := p.handler.Cmd(ctx)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("error creating stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("error creating stderr pipe: %w", err)
	}

	p.logger.Debug("starting process", slog.String("cmd", cmd.String()))

	if err = cmd.Start(); err != nil {
		return NewRuntimeError(p.handler.Tool(), "error starting command", err)
	}

	done := make(chan error, 2) // expects two results from two goroutines

	go p.handleStdout(stdout, done)
	go p.handleStderr(stderr, done)

	var errs []error
	for i := 0; i < cap(done); i++ {
		if err := <-done; err != nil {
			errs = append(errs, err)
		}
	}

	// Wait must follow the pipe readers, it closes the pipes.
	if err := p.handleCmdWait(ctx, cmd); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// handleStdout copies stdout to the configured writer or logs it line by line.
func (p *Process) handleStdout(stdout io.Reader, done chan<- error) {
	if p.stdout != nil {
		if _, err := io.Copy(p.stdout, stdout); err != nil && !errors.Is(err, fs.ErrClosed) {
			done <- fmt.Errorf("%w: error reading stdout: %w", ErrBrokenPipe, err)
			return
		}
		done <- nil
		return
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		p.logger.Debug(fmt.Sprintf("%s >> %s", p.handler.Tool(), line))
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, fs.ErrClosed) {
		// keep the pipe empty so the child never blocks on a full buffer
		_, _ = io.Copy(io.Discard, stdout)
		done <- fmt.Errorf("%w: error reading stdout: %w", ErrBrokenPipe, err)
		return
	}

	done <- nil
}

// handleStderr reads from stderr and logs errors.
func (p *Process) handleStderr(stderr io.Reader, done chan<- error) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		p.lastStderr.Store(line)
		p.logger.Warn(fmt.Sprintf("%s >> %s", p.handler.Tool(), line)) // simple logging here
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, fs.ErrClosed) {
		// keep the pipe empty so the child never blocks on a full buffer
		_, _ = io.Copy(io.Discard, stderr)
		done <- fmt.Errorf("%w: error reading stderr: %w", ErrBrokenPipe, err)
		return
	}

	done <- nil
}

// handleCmdWait waits for the command to exit and classifies the failure
func (p *Process) handleCmdWait(ctx context.Context, cmd *exec.Cmd) error {
	err := cmd.Wait()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s interrupted: %w", p.handler.Tool(), ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		last, _ := p.lastStderr.Load().(string)
		return &ExitError{Tool: p.handler.Tool(), ExitCode: exitErr.ExitCode(), Stderr: last, err: err}
	}
	return fmt.Errorf("%s exited with error: %w", p.handler.Tool(), err)
}
