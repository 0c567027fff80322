//go:build !windows

package toolchain

import (
	"errors"
	"os/exec"
)

// FindRuntime locates a collaborator binary in PATH.
func FindRuntime(runtime string) (string, error) {
	binPath, err := exec.LookPath(runtime)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", NewRuntimeError(runtime, "not found in PATH", err)
		}
		return "", NewRuntimeError(runtime, "failed to locate binary", err)
	}

	return binPath, nil
}
