package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunUsage(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{name: "missing config", args: nil, wantCode: exitUsage, wantStderr: "usage: gfam -c config.yaml"},
		{name: "help", args: []string{"-h"}, wantCode: exitOK, wantStderr: "Path to the YAML configuration file"},
		{name: "unknown flag", args: []string{"-x"}, wantCode: exitUsage, wantStderr: "flag provided but not defined: -x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)

			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, stderr.String(), tt.wantStderr)
		})
	}
}

func TestRunBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gfam.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline: [not, a, map]\n"), 0o644))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-c", path}, &stdout, &stderr)

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stdout.String(), "failed to load configuration file")
	assert.Empty(t, stderr.String())
}
