package toolchain

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func shell(t *testing.T, script string) Command {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return Command{Name: "sh", Path: sh, Args: []string{"-c", script}}
}

func TestProcessRunCapturesStdout(t *testing.T) {
	var out bytes.Buffer
	p := NewProcess(shell(t, "echo 30000/1001"), WithStdout(&out))

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, "30000/1001\n", out.String())
}

func TestProcessRunExitError(t *testing.T) {
	p := NewProcess(shell(t, "echo working; echo 'file locked' >&2; exit 3"))

	err := p.Run(context.Background())
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "got %v", err)
	assert.Equal(t, 3, exitErr.ExitCode)
	assert.Equal(t, "file locked", exitErr.Stderr)
	assert.Equal(t, "sh", exitErr.Tool)
}

func TestProcessRunTimeout(t *testing.T) {
	p := NewProcess(shell(t, "exec sleep 5"), WithTimeout(50*time.Millisecond))

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestProcessRunOverlongLineDrainsPipe(t *testing.T) {
	// one stderr line past the scanner limit, then far more than a pipe buffer holds
	script := "head -c 100000 /dev/zero | tr '\\0' a >&2; head -c 1000000 /dev/zero | tr '\\0' b >&2; exit 0"
	p := NewProcess(shell(t, script), WithTimeout(10*time.Second))

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBrokenPipe), "got %v", err)
	assert.False(t, errors.Is(err, context.DeadlineExceeded), "child blocked on a full pipe: %v", err)
}

func TestProcessRunMissingBinary(t *testing.T) {
	p := NewProcess(Command{Name: "ghost", Path: filepath.Join(t.TempDir(), "ghost")})

	err := p.Run(context.Background())
	var rtErr *RuntimeError
	require.True(t, errors.As(err, &rtErr), "got %v", err)
	assert.Equal(t, "ghost", rtErr.Runtime)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "exiftool")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	got, err := Resolve(bin, "exiftool")
	require.NoError(t, err)
	assert.Equal(t, bin, got)

	_, err = Resolve(dir, "exiftool")
	assert.Error(t, err)

	_, err = Resolve(filepath.Join(dir, "nope"), "exiftool")
	var rtErr *RuntimeError
	assert.True(t, errors.As(err, &rtErr))

	_, err = FindRuntime("definitely-not-a-real-binary-name")
	assert.True(t, errors.As(err, &rtErr))
}

func TestDurationYAML(t *testing.T) {
	var v struct {
		Timeout Duration `yaml:"timeout"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("timeout: 90s\n"), &v))
	assert.Equal(t, Duration(90*time.Second), v.Timeout)
	assert.Equal(t, "1m30s", v.Timeout.String())
	assert.NoError(t, v.Timeout.Validate())

	assert.Error(t, yaml.Unmarshal([]byte("timeout: soon\n"), &v))
	assert.Error(t, Duration(-time.Second).Validate())
}

func TestCommandString(t *testing.T) {
	c := Command{Name: "exiftool", Path: "/usr/bin/exiftool", Args: []string{"-ver"}}
	assert.Equal(t, "/usr/bin/exiftool -ver", c.String())
	assert.Equal(t, "exiftool", c.Tool())
}
